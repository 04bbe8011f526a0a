package api

import (
	"net/http"

	"tokendraw/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter constructs the HTTP router with all API endpoints registered.
// Authentication and the admin role check live in the upstream auth
// collaborator; this service trusts its callers.
func NewRouter(ledger service.TokenLedgerService, draws service.DrawService, prizes service.PrizeService) http.Handler {
	h := NewHandler(ledger, draws, prizes)
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Post("/users", h.RegisterUser)
	r.Get("/users/{userId}/balance", h.GetBalance)
	r.Get("/users/{userId}/transactions", h.ListTransactions)
	r.Get("/users/{userId}/entries", h.ListUserEntries)
	r.Post("/users/{userId}/tokens/purchase", h.PurchaseTokens)

	r.Post("/draws/{drawId}/enter", h.EnterDraw)
	r.Get("/draws/active", h.GetActiveDraw)
	r.Get("/draws/upcoming", h.ListUpcomingDraws)
	r.Get("/draws/completed", h.ListCompletedDraws)
	r.Get("/draws/{drawId}", h.GetDraw)

	r.Route("/admin", func(r chi.Router) {
		r.Post("/draws", h.CreateDraw)
		r.Patch("/draws/{drawId}", h.UpdateDraw)
		r.Delete("/draws/{drawId}", h.DeleteDraw)
		r.Post("/draws/{drawId}/activate", h.ActivateDraw)
		r.Post("/draws/{drawId}/select-winner", h.SelectWinner)
		r.Get("/draws/{drawId}/prize", h.GetDrawPrize)
		r.Get("/prizes", h.ListPrizes)
		r.Post("/prizes/{prizeId}/deliver", h.DeliverPrize)
		r.Post("/sweep", h.Sweep)
	})

	return r
}
