package http

import (
	"log/slog"
	"os"

	"github.com/expensehub/expense-backend-go/internal/handler/http/middleware"
	"github.com/expensehub/expense-backend-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

func NewRouter(
	jwtService jwt.Service,
	authHandler AuthHandler,
	userHandler UserHandler,
	expenseHandler ExpenseHandler,
	approvalHandler ApprovalHandler,
	ruleHandler ApprovalRuleHandler,
	countryHandler CountryHandler,
	dashboardHandler DashboardHandler,
	env string,
) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(false)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "expensehub"),
		slog.String("version", "v1.0.0"),
		slog.String("env", env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {

		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", authHandler.Signup)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.RefreshToken)
			r.Post("/logout", authHandler.Logout)
		})

		// The signup form needs these before any token exists.
		r.Get("/countries", countryHandler.ListCountries)
		r.Get("/currency/rates/{base}", countryHandler.GetRates)
		r.Get("/currency/convert", countryHandler.Convert)

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(jwtService.JWTAuth()))
			r.Use(middleware.AuthRequired(jwtService.JWTAuth()))

			r.Get("/auth/me", authHandler.Me)

			r.Get("/dashboard/stats", dashboardHandler.Stats)

			r.Route("/users", func(r chi.Router) {
				r.Get("/approvers", userHandler.ListApprovers)

				// Admin only
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireAdmin)
					r.Post("/", userHandler.Create)
					r.Get("/", userHandler.List)
					r.Get("/{id}", userHandler.Get)
					r.Put("/{id}", userHandler.Update)
					r.Delete("/{id}", userHandler.Delete)
				})
			})

			r.Route("/expenses", func(r chi.Router) {
				r.Post("/", expenseHandler.Submit)
				r.Get("/my", expenseHandler.ListMine)
				r.Get("/{id}", expenseHandler.Get)
				r.Put("/{id}", expenseHandler.Update)
				r.Delete("/{id}", expenseHandler.Delete)

				// Managers see their team's, admins the whole company's.
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireApprover)
					r.Get("/", expenseHandler.ListCompany)
				})
			})

			r.Route("/approvals", func(r chi.Router) {
				r.Get("/history/{expenseId}", approvalHandler.History)

				// Manager or admin only
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireApprover)
					r.Get("/pending", approvalHandler.ListPending)
					r.Get("/stats", approvalHandler.Stats)
					r.Post("/{stepId}/approve", approvalHandler.Approve)
					r.Post("/{stepId}/reject", approvalHandler.Reject)
				})
			})

			// Admin only
			r.Route("/approval-rules", func(r chi.Router) {
				r.Use(middleware.RequireAdmin)
				r.Post("/", ruleHandler.Create)
				r.Get("/", ruleHandler.List)
				r.Get("/{id}", ruleHandler.Get)
				r.Put("/{id}", ruleHandler.Update)
				r.Delete("/{id}", ruleHandler.Delete)
				r.Patch("/{id}/toggle", ruleHandler.Toggle)
			})
		})
	})
	return r
}
