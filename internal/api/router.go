package api

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/erazemk/kristalball/internal/account"
	"github.com/erazemk/kristalball/internal/inventory"
	"github.com/erazemk/kristalball/internal/metrics"
)

// Options holds the router's dependencies.
type Options struct {
	DB             *sql.DB
	Inventory      *inventory.Service
	Accounts       *account.Service
	Metrics        *metrics.Metrics
	Logger         zerolog.Logger
	JWTSecret      string
	AllowedOrigins []string
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(
		RequestLogger(opts.Logger, opts.Metrics),
		Recoverer,
		CORS(opts.AllowedOrigins),
	)

	authHandler := &AuthHandler{Accounts: opts.Accounts}
	usersHandler := &UsersHandler{Accounts: opts.Accounts}
	catalog := &CatalogHandler{Inventory: opts.Inventory}
	ledger := &LedgerHandler{Inventory: opts.Inventory}
	reports := &ReportsHandler{Inventory: opts.Inventory}
	svc := opts.Inventory
	authMW := AuthMiddleware(opts.JWTSecret)

	r.Get("/healthz", health(opts.DB))
	r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())

	// Public: registration and login, also served at the root.
	r.Post("/api/auth/register", authHandler.Register)
	r.Post("/api/auth/login", authHandler.Login)
	r.Post("/register", authHandler.Register)
	r.Post("/login", authHandler.Login)
	r.With(authMW).Get("/profile", authHandler.Profile)

	r.Route("/api", func(r chi.Router) {
		r.Use(authMW)

		r.Get("/auth/profile", authHandler.Profile)
		r.Put("/auth/profile", authHandler.UpdateProfile)
		r.Put("/auth/password", authHandler.ChangePassword)

		r.Route("/users", func(r chi.Router) {
			r.Get("/", usersHandler.List)
			r.Post("/", usersHandler.Create)
			r.Get("/{id}", usersHandler.Get)
			r.Put("/{id}", usersHandler.Update)
			r.Put("/{id}/password", usersHandler.ResetPassword)
			r.Delete("/{id}", usersHandler.Delete)
		})

		r.Route("/bases", func(r chi.Router) {
			r.Get("/", catalog.ListBases)
			r.Post("/", createHandler(svc.CreateBase))
			r.Get("/{id}", getHandler(svc.GetBase))
			r.Put("/{id}", updateHandler(svc.UpdateBase))
			r.Delete("/{id}", deleteHandler("base", svc.DeleteBase))
			r.Get("/{id}/assets", catalog.BaseAssets)
		})

		r.Route("/asset-types", func(r chi.Router) {
			r.Get("/", catalog.ListAssetTypes)
			r.Post("/", createHandler(svc.CreateAssetType))
			r.Get("/{id}", getHandler(svc.GetAssetType))
			r.Put("/{id}", updateHandler(svc.UpdateAssetType))
			r.Delete("/{id}", deleteHandler("asset type", svc.DeleteAssetType))
		})

		r.Route("/assets", func(r chi.Router) {
			r.Get("/", catalog.ListAssets)
			r.Post("/", createHandler(svc.CreateAsset))
			r.Get("/{id}", getHandler(svc.GetAsset))
			r.Put("/{id}", updateHandler(svc.UpdateAsset))
			r.Delete("/{id}", deleteHandler("asset", svc.DeleteAsset))
		})

		r.Route("/personnel", func(r chi.Router) {
			r.Get("/", catalog.ListPersonnel)
			r.Post("/", createHandler(svc.CreatePersonnel))
			r.Get("/{id}", getHandler(svc.GetPersonnel))
			r.Put("/{id}", updateHandler(svc.UpdatePersonnel))
			r.Delete("/{id}", deleteHandler("personnel", svc.DeletePersonnel))
		})

		r.Route("/purchases", func(r chi.Router) {
			r.Get("/", ledger.ListPurchases)
			r.Get("/stats/summary", ledger.PurchaseSummary)
			r.Post("/", createHandler(svc.CreatePurchase))
			r.Get("/{id}", getHandler(svc.GetPurchase))
			r.Put("/{id}", updateHandler(svc.UpdatePurchase))
			r.Delete("/{id}", deleteHandler("purchase", svc.DeletePurchase))
		})

		r.Route("/transfers", func(r chi.Router) {
			r.Get("/", ledger.ListTransfers)
			r.Post("/", createHandler(svc.CreateTransfer))
			r.Get("/{id}", getHandler(svc.GetTransfer))
			r.Put("/{id}", updateHandler(svc.UpdateTransfer))
			r.Patch("/{id}/status", updateHandler(svc.UpdateTransferStatus))
			r.Delete("/{id}", deleteHandler("transfer", svc.DeleteTransfer))
		})

		r.Route("/assignments", func(r chi.Router) {
			r.Get("/", ledger.ListAssignments)
			r.Post("/", createHandler(svc.CreateAssignment))
			r.Get("/{id}", getHandler(svc.GetAssignment))
			r.Put("/{id}", updateHandler(svc.UpdateAssignment))
			r.Patch("/{id}/status", updateHandler(svc.UpdateAssignmentStatus))
			r.Delete("/{id}", deleteHandler("assignment", svc.DeleteAssignment))
		})

		r.Route("/expenditures", func(r chi.Router) {
			r.Get("/", ledger.ListExpenditures)
			r.Post("/", createHandler(svc.CreateExpenditure))
			r.Get("/{id}", getHandler(svc.GetExpenditure))
			r.Put("/{id}", updateHandler(svc.UpdateExpenditure))
			r.Delete("/{id}", deleteHandler("expenditure", svc.DeleteExpenditure))
		})

		r.Route("/maintenance", func(r chi.Router) {
			r.Get("/", ledger.ListMaintenance)
			r.Post("/", createHandler(svc.CreateMaintenance))
			r.Get("/asset/{id}", ledger.AssetMaintenance)
			r.Get("/{id}", getHandler(svc.GetMaintenance))
			r.Put("/{id}", updateHandler(svc.UpdateMaintenance))
			r.Delete("/{id}", deleteHandler("maintenance record", svc.DeleteMaintenance))
		})

		r.Get("/inventory", reports.ListInventory)
		r.Get("/dashboard/metrics", reports.Dashboard)
		r.Get("/dashboard/activities", reports.Activities)
		r.Get("/dashboard/asset-distribution", reports.AssetDistribution)
		r.Get("/audit", reports.Audit)
	})

	return r
}

func health(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			zerolog.Ctx(r.Context()).Error().Err(err).Msg("health check failed")
			jsonError(w, r, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		jsonResponse(w, r, http.StatusOK, map[string]string{"status": "ok"})
	}
}
