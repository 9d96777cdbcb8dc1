package server

import (
	"context"
	"net/http"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mguerin/materiguard/gate"
	"github.com/mguerin/materiguard/httpx"
	"github.com/mguerin/materiguard/internal/middleware"
	"github.com/mguerin/materiguard/internal/policy"
	"github.com/mguerin/materiguard/session"
)

// New constructs the root http.Handler: all routes with their session and
// permission middleware, wrapped in request logging and panic recovery.
func New(db *gorm.DB, logger *zap.Logger, baseURL string) http.Handler {
	cfg := policy.NewRouterConfig(db, logger, baseURL)

	// RequireAuth consults this to drop sessions whose user was deleted or
	// deactivated after login.
	session.SetUserVerifier(func(_ context.Context, uid uint) bool {
		return cfg.AuthService.VerifyUser(uid)
	})

	mux := http.NewServeMux()

	// Health endpoints stay public.
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		if err := db.Exec("SELECT 1").Error; err != nil {
			httpx.JSONError(w, http.StatusServiceUnavailable, "degraded", nil)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Auth
	ah := cfg.AuthHandler
	mux.HandleFunc("POST /login", ah.Login)
	mux.HandleFunc("POST /logout", ah.Logout)
	mux.Handle("GET /me", authed(http.HandlerFunc(ah.Me)))
	mux.Handle("POST /me/password", authed(http.HandlerFunc(ah.ChangePassword)))
	mux.Handle("POST /me/refresh", authed(http.HandlerFunc(ah.Refresh)))

	perm := func(p gate.Permission, h http.HandlerFunc) http.Handler {
		return authed(cfg.AuthGate.RequirePermission(p)(h))
	}

	// Articles (stock)
	arth := cfg.ArticleHandler
	mux.Handle("GET /articles", perm(gate.PermRead, arth.List))
	mux.Handle("GET /articles/{id}", perm(gate.PermRead, arth.Get))
	mux.Handle("POST /articles", perm(gate.PermCreate, arth.Create))
	mux.Handle("PUT /articles/{id}", perm(gate.PermUpdate, arth.Update))
	mux.Handle("DELETE /articles/{id}", perm(gate.PermDelete, arth.Delete))
	mux.Handle("POST /articles/{id}/adjust", perm(gate.PermUpdate, arth.Adjust))

	// Loans (emprunts)
	lh := cfg.LoanHandler
	mux.Handle("GET /loans", perm(gate.PermRead, lh.List))
	mux.Handle("GET /loans/{id}", perm(gate.PermRead, lh.Get))
	mux.Handle("POST /loans", perm(gate.PermCreate, lh.Create))
	mux.Handle("PUT /loans/{id}", perm(gate.PermUpdate, lh.Update))
	mux.Handle("POST /loans/{id}/return", perm(gate.PermUpdate, lh.Return))
	mux.Handle("DELETE /loans/{id}", perm(gate.PermDelete, lh.Delete))

	// Issuances (remises)
	ih := cfg.IssuanceHandler
	mux.Handle("GET /issuances", perm(gate.PermRead, ih.List))
	mux.Handle("GET /issuances/{id}", perm(gate.PermRead, ih.Get))
	mux.Handle("GET /issuances/{id}/qr.png", perm(gate.PermRead, ih.QR))
	mux.Handle("POST /issuances", perm(gate.PermCreate, ih.Create))
	mux.Handle("PUT /issuances/{id}", perm(gate.PermUpdate, ih.Update))
	mux.Handle("POST /issuances/{id}/return", perm(gate.PermUpdate, ih.Return))
	mux.Handle("DELETE /issuances/{id}", perm(gate.PermDelete, ih.Delete))

	// Users, administrators only
	uh := cfg.UserHandler
	mux.Handle("GET /users", perm(gate.PermManageUsers, uh.List))
	mux.Handle("GET /users/{id}", perm(gate.PermManageUsers, uh.Get))
	mux.Handle("POST /users", perm(gate.PermManageUsers, uh.Create))
	mux.Handle("PUT /users/{id}", perm(gate.PermManageUsers, uh.Update))
	mux.Handle("DELETE /users/{id}", perm(gate.PermManageUsers, uh.Delete))

	// Dashboard
	dh := cfg.DashboardHandler
	mux.Handle("GET /dashboard/stats", perm(gate.PermRead, dh.Stats))
	mux.Handle("GET /dashboard/alerts", perm(gate.PermRead, dh.Alerts))
	mux.Handle("GET /dashboard/history", perm(gate.PermRead, dh.History))

	// Exports
	eh := cfg.ExportHandler
	mux.Handle("GET /exports/stock", perm(gate.PermExport, eh.Stock))
	mux.Handle("GET /exports/loans", perm(gate.PermExport, eh.Loans))

	return middleware.RequestLog(logger)(withRecover(logger, session.Middleware(mux)))
}

func authed(next http.Handler) http.Handler {
	return session.RequireAuth(next)
}

func withRecover(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("panic recovered", zap.Any("panic", rec), zap.String("path", r.URL.Path))
				httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
