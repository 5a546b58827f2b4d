package handlers

import (
	"megastore/internal/apperr"
	"megastore/internal/log"
	"megastore/internal/services"
	"megastore/internal/validate"

	"github.com/gofiber/fiber/v2"
)

const maxProductImages = 8

type ProductHandler struct {
	Catalog *services.CatalogService
	Reviews *services.ReviewService
}

// GET /all-products?q=&category=&page=
func (h *ProductHandler) List(c *fiber.Ctx) error {
	q := ""
	if raw := c.Query("q"); raw != "" {
		clean, valid := validate.Q(raw)
		if !valid {
			log.Security(c, "validation.fail", map[string]any{"field": "q"})
			return writeError(c, "products.search.fail", apperr.New(apperr.BadRequest, "Search may only contain letters, digits, spaces and - _ '"))
		}
		q = clean
	}
	category := ""
	if raw := c.Query("category"); raw != "" {
		id, valid := validate.ID(raw)
		if !valid {
			return writeError(c, "products.search.fail", apperr.New(apperr.BadRequest, "Invalid category"))
		}
		category = id
	}
	page, err := h.Catalog.ListProducts(c.UserContext(), q, category, validate.Page(c.Query("page")))
	if err != nil {
		return writeError(c, "products.search.fail", err)
	}
	return respond(c, fiber.StatusOK, fiber.Map{
		"products":      page.Products,
		"productsCount": page.Total,
		"page":          page.Page,
		"resultPerPage": page.PageSize,
	})
}

// GET /product/:id
func (h *ProductHandler) Get(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, "products.get.fail", apperr.Wrap(apperr.NotFound, "Product not found", err))
	}
	p, err := h.Catalog.ShowProduct(c.UserContext(), id)
	if err != nil {
		return writeError(c, "products.get.fail", err)
	}
	return respond(c, fiber.StatusOK, fiber.Map{"product": p})
}

// GET /categories
func (h *ProductHandler) Categories(c *fiber.Ctx) error {
	cats, err := h.Catalog.ListCategories(c.UserContext())
	if err != nil {
		return writeError(c, "categories.list.fail", err)
	}
	return respond(c, fiber.StatusOK, fiber.Map{"categories": cats})
}

func formImages(c *fiber.Ctx) ([]services.Upload, func(), error) {
	var closers []func() error
	done := func() {
		for _, cl := range closers {
			_ = cl()
		}
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, done, nil
	}
	files := form.File["images"]
	if len(files) > maxProductImages {
		return nil, done, apperr.New(apperr.BadRequest, "Too many images")
	}
	out := make([]services.Upload, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			done()
			return nil, func() {}, apperr.Wrap(apperr.BadRequest, "Could not read uploaded file", err)
		}
		closers = append(closers, f.Close)
		out = append(out, *uploadOf(fh, f))
	}
	return out, done, nil
}

func productInput(c *fiber.Ctx) (services.ProductInput, error) {
	var p validate.ProductPayload
	if err := c.BodyParser(&p); err != nil {
		return services.ProductInput{}, apperr.Wrap(apperr.BadRequest, "Invalid request body", err)
	}
	if err := validate.Check(p); err != nil {
		return services.ProductInput{}, err
	}
	return services.ProductInput{
		Title:       p.Title,
		Description: p.Description,
		Price:       p.Price,
		CategoryID:  p.CategoryID,
		Stock:       p.Stock,
	}, nil
}

// POST /admin/new-product (multipart, images[])
func (h *ProductHandler) Create(c *fiber.Ctx) error {
	in, err := productInput(c)
	if err != nil {
		return writeError(c, "admin.products.create.fail", err)
	}
	images, done, err := formImages(c)
	if err != nil {
		return writeError(c, "admin.products.create.fail", err)
	}
	defer done()
	p, err := h.Catalog.CreateProduct(c.UserContext(), currentUser(c).ID, in, images)
	if err != nil {
		return writeError(c, "admin.products.create.fail", err)
	}
	log.Audit(c, "admin.products.create", map[string]any{"product": p.ID})
	return respond(c, fiber.StatusCreated, fiber.Map{"product": p})
}

// PATCH /admin/product/:id
func (h *ProductHandler) Update(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, "admin.products.update.fail", err)
	}
	in, err := productInput(c)
	if err != nil {
		return writeError(c, "admin.products.update.fail", err)
	}
	p, err := h.Catalog.UpdateProduct(c.UserContext(), id, in)
	if err != nil {
		return writeError(c, "admin.products.update.fail", err)
	}
	log.Audit(c, "admin.products.update", map[string]any{"product": id})
	return respond(c, fiber.StatusOK, fiber.Map{"product": p})
}

// PATCH /admin/product/:id/images
func (h *ProductHandler) ReplaceImages(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, "admin.products.images.fail", err)
	}
	images, done, err := formImages(c)
	if err != nil {
		return writeError(c, "admin.products.images.fail", err)
	}
	defer done()
	p, err := h.Catalog.ReplaceImages(c.UserContext(), id, images)
	if err != nil {
		return writeError(c, "admin.products.images.fail", err)
	}
	log.Audit(c, "admin.products.images", map[string]any{"product": id, "count": len(images)})
	return respond(c, fiber.StatusOK, fiber.Map{"product": p})
}

// DELETE /admin/product/:id
func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, "admin.products.delete.fail", err)
	}
	if err := h.Catalog.DeleteProduct(c.UserContext(), id); err != nil {
		return writeError(c, "admin.products.delete.fail", err)
	}
	log.Audit(c, "admin.products.delete", map[string]any{"product": id})
	return respond(c, fiber.StatusOK, fiber.Map{"message": "Product deleted"})
}

// PATCH /review/:id
// GET /admin/product/all
func (h *ProductHandler) AdminList(c *fiber.Ctx) error {
	products, err := h.Catalog.AdminList(c.UserContext())
	if err != nil {
		return writeError(c, "admin.products.list.fail", err)
	}
	return respond(c, fiber.StatusOK, fiber.Map{"products": products})
}

// PATCH /admin/product/:id/visibility
func (h *ProductHandler) SetVisibility(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, "admin.products.visibility.fail", err)
	}
	var p validate.VisibilityPayload
	if err := c.BodyParser(&p); err != nil {
		return writeError(c, "admin.products.visibility.fail", apperr.Wrap(apperr.BadRequest, "Invalid request body", err))
	}
	if err := validate.Check(p); err != nil {
		return writeError(c, "admin.products.visibility.fail", err)
	}
	product, err := h.Catalog.SetVisibility(c.UserContext(), id, *p.Active)
	if err != nil {
		return writeError(c, "admin.products.visibility.fail", err)
	}
	log.Audit(c, "admin.products.visibility", map[string]any{"product": id, "active": *p.Active})
	return respond(c, fiber.StatusOK, fiber.Map{"product": product})
}

func (h *ProductHandler) Review(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, "reviews.save.fail", err)
	}
	var p validate.ReviewPayload
	if err := c.BodyParser(&p); err != nil {
		return writeError(c, "reviews.save.fail", apperr.Wrap(apperr.BadRequest, "Invalid request body", err))
	}
	if err := validate.Check(p); err != nil {
		return writeError(c, "reviews.save.fail", err)
	}
	prod, err := h.Reviews.Upsert(c.UserContext(), currentUser(c), id, p.Rating, p.Comment)
	if err != nil {
		return writeError(c, "reviews.save.fail", err)
	}
	return respond(c, fiber.StatusOK, fiber.Map{"message": "Review saved", "product": prod})
}

// GET /reviews/:id
func (h *ProductHandler) ReviewList(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, "reviews.list.fail", err)
	}
	reviews, err := h.Reviews.List(c.UserContext(), id)
	if err != nil {
		return writeError(c, "reviews.list.fail", err)
	}
	return respond(c, fiber.StatusOK, fiber.Map{"reviews": reviews})
}

// DELETE /review/:id removes the caller's own review.
func (h *ProductHandler) DeleteReview(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, "reviews.delete.fail", err)
	}
	if err := h.Reviews.Delete(c.UserContext(), currentUser(c).ID, id); err != nil {
		return writeError(c, "reviews.delete.fail", err)
	}
	return respond(c, fiber.StatusOK, fiber.Map{"message": "Review deleted"})
}
