package handlers

import (
	"net/http"

	"carbonledger/internal/config"
	"carbonledger/internal/websocket"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Handler struct {
	cfg          config.Config
	credits      CreditStore
	issuances    IssuanceStore
	transactions TransactionStore
	purchase     PurchaseService
	retirement   RetirementService
	minting      MintingService
	marketplace  MarketplaceService
	hub          *websocket.Hub
}

func New(cfg config.Config, credits CreditStore, issuances IssuanceStore, transactions TransactionStore, purchase PurchaseService, retirement RetirementService, minting MintingService, marketplace MarketplaceService, hub *websocket.Hub) *Handler {
	return &Handler{
		cfg:          cfg,
		credits:      credits,
		issuances:    issuances,
		transactions: transactions,
		purchase:     purchase,
		retirement:   retirement,
		minting:      minting,
		marketplace:  marketplace,
		hub:          hub,
	}
}

func (h *Handler) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(chimiddleware.Logger)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{h.cfg.AllowedOrigins},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Post("/wallet/{user_id}", h.GetWallet)
	router.Get("/wallet/{user_id}", h.GetWallet)
	router.Post("/purchase", h.Purchase)

	router.Route("/credit-retirement", func(r chi.Router) {
		r.Post("/retire", h.Retire)
		r.Post("/confirm/{retirement_id}", h.ConfirmRetirement)
		r.Put("/update/{retirement_id}", h.UpdateRetirement)
		r.Delete("/cancel/{retirement_id}", h.CancelRetirement)
		r.Get("/dashboard-stats/{user_id}", h.RetirementDashboard)
		r.Get("/history/{user_id}", h.RetirementHistory)
		r.Get("/pending/{user_id}", h.PendingRetirements)
		r.Get("/certificate/{retirement_id}", h.RetirementCertificate)
	})

	router.Route("/marketplace", func(r chi.Router) {
		r.Get("/credits", h.ListCredits)
		r.Get("/credits/{id}", h.GetCredit)
		r.Post("/credits/{id}/verify", h.VerifyCredit)
		r.Post("/credits/{id}/reject", h.RejectCredit)
		r.Get("/issuers/{issuer_id}/stats", h.IssuerStats)
	})

	router.Route("/coins", func(r chi.Router) {
		r.Post("/mint", h.Mint)
		r.Post("/mint-from-application", h.MintFromApplication)
		r.Get("/{user_id}", h.IssuanceHistory)
		r.Get("/{user_id}/stats", h.IssuanceStats)
	})

	router.Get("/transactions/{user_id}", h.ListTransactions)
	router.Get("/ws/wallet", h.WSWallet)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return router
}
