package handlers

import (
	"time"

	"megastore/internal/domain"
	applog "megastore/internal/log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// Limits configures the per-route throttles.
type Limits struct {
	LoginMax        int
	LoginWindow     time.Duration
	AvailabilityMax int
}

var DefaultLimits = Limits{LoginMax: 5, LoginWindow: 10 * time.Minute, AvailabilityMax: 15}

func throttle(n int, window time.Duration, action string) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        n,
		Expiration: window,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, action, nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"success": false, "message": "Too many attempts. Please try again later.",
			})
		},
	})
}

// Routes mounts the JSON API under r (normally /api/v1).
func Routes(r fiber.Router, d *Deps, lim Limits) {
	authn := Authenticate(d.Sessions)
	admin := Authorize(domain.RoleAdmin)

	loginLimiter := throttle(lim.LoginMax, lim.LoginWindow, "rate.login.hit")
	forgotLimiter := throttle(lim.LoginMax, lim.LoginWindow, "rate.forgot.hit")
	availLimiter := limiter.New(limiter.Config{
		Max:        lim.AvailabilityMax,
		Expiration: 30 * time.Second,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|avail"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.availability.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"success": false, "message": "rate limit exceeded, retry soon",
			})
		},
	})

	ah := d.AuthHandler
	users := r.Group("/users")
	users.Post("/register", ah.Register)
	users.Post("/activation/:token", ah.Activate)
	users.Post("/login", loginLimiter, ah.Login)
	users.Post("/logout", authn, ah.Logout)
	users.Post("/refresh-token", ah.Refresh)
	users.Post("/forgot-password", forgotLimiter, ah.ForgotPassword)
	users.Put("/reset-password/:token", ah.ResetPassword)
	users.Post("/change-password", authn, ah.ChangePassword)
	users.Get("/current-user", authn, d.AccountHandler.Current)
	users.Patch("/update-account", authn, d.AccountHandler.UpdateDetails)
	users.Patch("/update-avatar", authn, d.AccountHandler.UpdateAvatar)
	users.Get("/admin/all-users", authn, admin, d.AdminHandler.Users)
	users.Get("/admin/user/:id", authn, admin, d.AdminHandler.User)
	users.Patch("/admin/user/:id", authn, admin, d.AdminHandler.UpdateRole)
	users.Delete("/admin/user/:id", authn, admin, d.AdminHandler.DeleteUser)

	ph := d.ProductHandler
	products := r.Group("/products")
	products.Get("/all-products", ph.List)
	products.Get("/product/:id", ph.Get)
	products.Get("/categories", ph.Categories)
	products.Get("/availability", availLimiter, d.InventoryHandler.Check)
	products.Patch("/review/:id", authn, ph.Review)
	products.Get("/reviews/:id", ph.ReviewList)
	products.Delete("/review/:id", authn, ph.DeleteReview)
	products.Get("/admin/product/all", authn, admin, ph.AdminList)
	products.Post("/admin/new-product", authn, admin, ph.Create)
	products.Patch("/admin/product/:id", authn, admin, ph.Update)
	products.Patch("/admin/product/:id/images", authn, admin, ph.ReplaceImages)
	products.Patch("/admin/product/:id/visibility", authn, admin, ph.SetVisibility)
	products.Delete("/admin/product/:id", authn, admin, ph.Delete)
	products.Get("/admin/inventory", authn, admin, d.AdminHandler.InventoryList)
	products.Put("/admin/inventory/:id", authn, admin, d.AdminHandler.SetStock)

	orders := r.Group("/orders")
	orders.Post("/cart", authn, d.CartHandler.Add)
	orders.Get("/cart", authn, d.CartHandler.View)
	orders.Delete("/cart/:id", authn, d.CartHandler.Remove)
	orders.Post("/new-order", authn, d.OrderHandler.Place)
	orders.Get("/order/:id", authn, d.OrderHandler.Get)
	orders.Get("/my-orders", authn, d.OrderHandler.Mine)
	orders.Get("/admin/all-orders", authn, admin, d.AdminHandler.AllOrders)
	orders.Patch("/admin/order/:id", authn, admin, d.AdminHandler.UpdateOrderStatus)
	orders.Delete("/admin/order/:id", authn, admin, d.AdminHandler.DeleteOrder)
}
