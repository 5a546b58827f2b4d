package domain

import (
	"database/sql"
	"encoding/json"
)

type Category struct {
	ID        string `db:"id" json:"id"`
	Name      string `db:"name" json:"name"`
	CreatedAt string `db:"created_at" json:"createdAt"`
	UpdatedAt string `db:"updated_at" json:"updatedAt,omitempty"`
}

type Image struct {
	ID  string `json:"public_id"`
	URL string `json:"url"`
}

type Product struct {
	ID          string  `db:"id" json:"_id"`
	CategoryID  string  `db:"category_id" json:"category"`
	Title       string  `db:"title" json:"title"`
	Description string  `db:"description" json:"description"`
	Price       float64 `db:"price" json:"price"`
	Rating      float64 `db:"rating" json:"rating"`
	NumReviews  int     `db:"num_reviews" json:"numOfReviews"`
	ImagesJSON  string  `db:"images_json" json:"-"`
	Images      []Image `db:"-" json:"images"`
	CreatedBy   string  `db:"created_by" json:"createdBy"`
	Active      bool    `db:"active" json:"active"`
	CreatedAt   string  `db:"created_at" json:"createdAt"`
	UpdatedAt   string  `db:"updated_at" json:"updatedAt,omitempty"`
}

// DecodeImages fills Images from the stored JSON column.
func (p *Product) DecodeImages() {
	p.Images = []Image{}
	if p.ImagesJSON == "" {
		return
	}
	_ = json.Unmarshal([]byte(p.ImagesJSON), &p.Images)
}

func EncodeImages(imgs []Image) string {
	if len(imgs) == 0 {
		return "[]"
	}
	b, _ := json.Marshal(imgs)
	return string(b)
}

// Creator names the admin who added a product.
type Creator struct {
	ID       string `json:"_id"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
}

// AdminProduct is a product as the admin listing shows it. Hidden products
// are included and the creator is resolved from users; it stays nil once the
// creator's account is gone.
type AdminProduct struct {
	Product
	CreatorEmail sql.NullString `db:"creator_email" json:"-"`
	CreatorName  sql.NullString `db:"creator_name" json:"-"`
	Creator      *Creator       `db:"-" json:"productCreatedByWhom"`
}

// ResolveCreator fills Creator from the joined user columns.
func (p *AdminProduct) ResolveCreator() {
	p.DecodeImages()
	if !p.CreatorEmail.Valid {
		p.Creator = nil
		return
	}
	p.Creator = &Creator{ID: p.CreatedBy, Email: p.CreatorEmail.String, FullName: p.CreatorName.String}
}

type Review struct {
	ProductID    string `db:"product_id" json:"productId"`
	UserID       string `db:"user_id" json:"user"`
	ReviewerName string `db:"reviewer_name" json:"name"`
	Rating       int    `db:"rating" json:"rating"`
	Comment      string `db:"comment" json:"comment"`
	CreatedAt    string `db:"created_at" json:"createdAt"`
}

type Availability struct {
	Status string `json:"status"` // IN_STOCK | LOW_STOCK | OUT_OF_STOCK
	Qty    int    `json:"qty,omitempty"`
}

type CartLine struct {
	ProductID  string  `db:"product_id" json:"productId"`
	Title      string  `db:"title" json:"title"`
	Qty        int     `db:"qty" json:"qty"`
	PriceAtAdd float64 `db:"price_at_add" json:"price"`
	Subtotal   float64 `db:"subtotal" json:"subtotal"`
}

const (
	OrderProcessing = "PROCESSING"
	OrderShipped    = "SHIPPED"
	OrderDelivered  = "DELIVERED"
	OrderCanceled   = "CANCELED"
)

func ValidOrderStatus(s string) bool {
	switch s {
	case OrderProcessing, OrderShipped, OrderDelivered, OrderCanceled:
		return true
	}
	return false
}

type Shipping struct {
	Address    string `db:"ship_address" json:"address"`
	City       string `db:"ship_city" json:"city"`
	State      string `db:"ship_state" json:"state"`
	Country    string `db:"ship_country" json:"country"`
	PostalCode string `db:"ship_postal_code" json:"pinCode"`
	Phone      string `db:"ship_phone" json:"phoneNo"`
}

type Payment struct {
	ID     string `db:"payment_id" json:"id"`
	Status string `db:"payment_status" json:"status"`
}

type Order struct {
	ID            string `db:"id" json:"_id"`
	UserID        string `db:"user_id" json:"user"`
	Shipping      `json:"shippingInfo"`
	Payment       `json:"paymentInfo"`
	ItemsPrice    float64     `db:"items_price" json:"itemsPrice"`
	TaxPrice      float64     `db:"tax_price" json:"taxPrice"`
	ShippingPrice float64     `db:"shipping_price" json:"shippingPrice"`
	TotalPrice    float64     `db:"total_price" json:"totalPrice"`
	Status        string      `db:"status" json:"orderStatus"`
	PaidAt        string      `db:"paid_at" json:"paidAt,omitempty"`
	DeliveredAt   string      `db:"delivered_at" json:"deliveredAt,omitempty"`
	CreatedAt     string      `db:"created_at" json:"createdAt"`
	Items         []OrderItem `db:"-" json:"orderItems"`
}

type OrderItem struct {
	OrderID   string  `db:"order_id" json:"-"`
	ProductID string  `db:"product_id" json:"product"`
	Title     string  `db:"title" json:"name"`
	Qty       int     `db:"qty" json:"quantity"`
	Price     float64 `db:"price" json:"price"`
}
