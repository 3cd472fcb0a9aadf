package handlers

import (
	"secondhand/internal/cart"
	"secondhand/internal/checkout"
	"secondhand/internal/commerce"
	"secondhand/internal/config"
	"secondhand/internal/repos"
	"secondhand/internal/services"
	"secondhand/internal/storage"
	"secondhand/internal/webhook"
)

// Backends are the stores the handlers run on. Carts and Commerce are built from
// config when nil.
type Backends struct {
	Products repos.ProductStore
	Charges  *repos.ChargeRepo
	Media    storage.Store
	Commerce *commerce.Client
	Carts    *cart.Registry
}

type Deps struct {
	SearchHandler   *SearchHandler
	ProductHandler  *ProductHandler
	ListingHandler  *ListingHandler
	CartHandler     *CartHandler
	CheckoutHandler *CheckoutHandler
	ChargesHandler  *ChargesHandler
	WebhookHandler  *WebhookHandler
	ManifestHandler *ManifestHandler
	PageHandler     *PageHandler
}

func NewDeps(cfg config.Config, b Backends) *Deps {
	if b.Carts == nil {
		b.Carts = cart.NewRegistry(b.Products)
	}
	if b.Commerce == nil {
		b.Commerce = commerce.NewClient(cfg.CommerceAPIURL, cfg.CommerceAPIKey, cfg.HTTPTimeout)
	}

	catalogSvc := services.NewCatalogService(b.Products)
	listingSvc := services.NewListingService(b.Products, b.Media)
	initiator := &checkout.Initiator{
		Carts:     b.Carts,
		Charges:   b.Commerce,
		Ledger:    b.Charges,
		PublicURL: cfg.PublicURL,
	}
	dispatcher := &webhook.Dispatcher{
		Ledger:   b.Charges,
		Carts:    b.Carts,
		Listings: b.Products,
	}

	return &Deps{
		SearchHandler:   &SearchHandler{Catalog: catalogSvc},
		ProductHandler:  &ProductHandler{Catalog: catalogSvc},
		ListingHandler:  &ListingHandler{Listings: listingSvc},
		CartHandler:     &CartHandler{Carts: b.Carts},
		CheckoutHandler: &CheckoutHandler{Initiator: initiator},
		ChargesHandler:  &ChargesHandler{Commerce: b.Commerce},
		WebhookHandler:  &WebhookHandler{Secret: cfg.WebhookSecret, Dispatcher: dispatcher},
		ManifestHandler: &ManifestHandler{Cfg: cfg},
		PageHandler:     &PageHandler{Charges: b.Charges, Carts: b.Carts},
	}
}
