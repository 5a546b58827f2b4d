package handlers

import (
	"megastore/internal/auth"
	"megastore/internal/blob"
	"megastore/internal/config"
	"megastore/internal/notify"
	"megastore/internal/repos"
	"megastore/internal/services"

	"github.com/jmoiron/sqlx"
)

// Infra holds the collaborators built from configuration outside this
// package.
type Infra struct {
	Hasher   auth.Hasher
	Tokens   *auth.Issuer
	Store    blob.Store
	Stager   *blob.Stager
	Notifier notify.Notifier
	Renderer *notify.Renderer
}

type Deps struct {
	Sessions *services.SessionService

	AuthHandler      *AuthHandler
	AccountHandler   *AccountHandler
	AdminHandler     *AdminHandler
	ProductHandler   *ProductHandler
	InventoryHandler *InventoryHandler
	CartHandler      *CartHandler
	OrderHandler     *OrderHandler
}

func NewDeps(db *sqlx.DB, cfg config.Config, infra Infra) *Deps {
	userRepo := repos.NewUserRepo(db)
	catRepo := repos.NewCategoryRepo(db)
	prodRepo := repos.NewProductRepo(db)
	invRepo := repos.NewInventoryRepo(db)
	cartRepo := repos.NewCartRepo(db)
	orderRepo := repos.NewOrderRepo(db)
	reviewRepo := repos.NewReviewRepo(db)

	sessionSvc := services.NewSessionService(userRepo, infra.Hasher, infra.Tokens)
	regSvc := &services.RegistrationService{
		Users: userRepo, Hasher: infra.Hasher, Tokens: infra.Tokens,
		Stager: infra.Stager, Store: infra.Store,
		Notifier: infra.Notifier, Renderer: infra.Renderer,
	}
	pwSvc := &services.PasswordService{
		Users: userRepo, Hasher: infra.Hasher, Tokens: infra.Tokens,
		Notifier: infra.Notifier, Renderer: infra.Renderer,
	}
	accountSvc := services.NewAccountService(userRepo, infra.Store)
	catalogSvc := services.NewCatalogService(catRepo, prodRepo, invRepo, infra.Store)
	invSvc := services.NewInventoryService(invRepo, prodRepo)
	orderSvc := services.NewOrderService(cartRepo, invRepo, orderRepo)

	return &Deps{
		Sessions: sessionSvc,
		AuthHandler: &AuthHandler{
			Registration: regSvc,
			Sessions:     sessionSvc,
			Passwords:    pwSvc,
			Cookies: CookieConfig{
				Secure:     cfg.CookieSecure,
				SameSite:   cfg.CookieSameSite,
				AccessTTL:  cfg.AccessExpiry,
				RefreshTTL: cfg.RefreshExpiry,
			},
			Mode:     cfg.RegistrationMode,
			LinkBase: cfg.PublicBaseURL + "/api/v1/users",
		},
		AccountHandler:   &AccountHandler{Accounts: accountSvc},
		AdminHandler:     &AdminHandler{Accounts: accountSvc, Orders: orderSvc, Inventory: invSvc},
		ProductHandler:   &ProductHandler{Catalog: catalogSvc, Reviews: services.NewReviewService(reviewRepo, prodRepo)},
		InventoryHandler: &InventoryHandler{Inv: invSvc},
		CartHandler:      &CartHandler{Cart: services.NewCartService(cartRepo, prodRepo)},
		OrderHandler:     &OrderHandler{Order: orderSvc},
	}
}
