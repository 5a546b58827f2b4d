package validate

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

type RegisterPayload struct {
	FullName string `form:"fullName" json:"fullName"`
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

func (r RegisterPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FullName, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Email, validation.Required, validation.Length(3, 100), is.Email),
		validation.Field(&r.Password, validation.Required, StrongPassword),
	)
}

type LoginPayload struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

func (r LoginPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, validation.Length(3, 100)),
		validation.Field(&r.Password, validation.Required, validation.Length(1, 100)),
	)
}

type RefreshPayload struct {
	RefreshToken string `json:"refreshToken"`
}

type ForgotPasswordPayload struct {
	Email string `json:"email"`
}

func (r ForgotPasswordPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

// ResetPasswordPayload does not compare the two passwords; the service owns
// that rule.
type ResetPasswordPayload struct {
	NewPassword        string `json:"newPassword"`
	ConfirmNewPassword string `json:"confirmNewPassword"`
}

func (r ResetPasswordPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.NewPassword, validation.Required, StrongPassword),
		validation.Field(&r.ConfirmNewPassword, validation.Required),
	)
}

type ChangePasswordPayload struct {
	OldPassword        string `json:"oldPassword"`
	NewPassword        string `json:"newPassword"`
	ConfirmNewPassword string `json:"confirmNewPassword"`
}

func (r ChangePasswordPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.OldPassword, validation.Required),
		validation.Field(&r.NewPassword, validation.Required, StrongPassword),
		validation.Field(&r.ConfirmNewPassword, validation.Required),
	)
}

type UpdateAccountPayload struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

func (r UpdateAccountPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FullName, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Email, validation.Required, validation.Length(3, 100), is.Email),
	)
}

type RolePayload struct {
	Role string `json:"role"`
}

func (r RolePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Role, validation.Required, validation.In("user", "admin")),
	)
}

type ProductPayload struct {
	Title       string  `form:"title" json:"title"`
	Description string  `form:"description" json:"description"`
	Price       float64 `form:"price" json:"price"`
	CategoryID  string  `form:"category" json:"category"`
	Stock       int     `form:"stock" json:"stock"`
}

func (r ProductPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Description, validation.Length(0, 4000)),
		validation.Field(&r.Price, validation.Min(0.0)),
		validation.Field(&r.CategoryID, validation.Required, validation.Length(1, 64)),
		validation.Field(&r.Stock, validation.Min(0)),
	)
}

type VisibilityPayload struct {
	Active *bool `json:"active"`
}

func (r VisibilityPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Active, validation.NotNil),
	)
}

type ReviewPayload struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

func (r ReviewPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Rating, validation.Min(0), validation.Max(5)),
		validation.Field(&r.Comment, validation.Length(0, 2000)),
	)
}

type StockPayload struct {
	Qty int `json:"qty"`
}

func (r StockPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Qty, validation.Min(0), validation.Max(100000)),
	)
}

type CartItemPayload struct {
	ProductID string `json:"productId"`
	Qty       int    `json:"qty"`
}

func (r CartItemPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ProductID, validation.Required, validation.Length(1, 64)),
		validation.Field(&r.Qty, validation.Required, validation.Min(1), validation.Max(50)),
	)
}

type ShippingPayload struct {
	Address    string `json:"address"`
	City       string `json:"city"`
	State      string `json:"state"`
	Country    string `json:"country"`
	PostalCode string `json:"pinCode"`
	Phone      string `json:"phoneNo"`
}

func (r ShippingPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Address, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.City, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Country, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.PostalCode, validation.Required, validation.Length(3, 12)),
		validation.Field(&r.Phone, validation.Required, validation.Length(7, 15), is.Digit),
	)
}

type OrderPayload struct {
	Shipping    ShippingPayload `json:"shippingInfo"`
	PaymentInfo struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	} `json:"paymentInfo"`
}

func (r OrderPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Shipping),
	)
}

type OrderStatusPayload struct {
	Status string `json:"status"`
}

func (r OrderStatusPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Status, validation.Required,
			validation.In("PROCESSING", "SHIPPED", "DELIVERED", "CANCELED")),
	)
}
