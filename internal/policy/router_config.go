package policy

import (
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mguerin/materiguard/internal/handlers"
	"github.com/mguerin/materiguard/internal/services"
)

// RouterConfig holds the configured services, handlers and authorization gate.
// The router composes these; nothing here registers routes itself.
type RouterConfig struct {
	AuthGate *AuthGate

	AuthService *services.AuthService

	AuthHandler      *handlers.AuthHandler
	ArticleHandler   *handlers.ArticleHandler
	LoanHandler      *handlers.LoanHandler
	IssuanceHandler  *handlers.IssuanceHandler
	UserHandler      *handlers.UserHandler
	DashboardHandler *handlers.DashboardHandler
	ExportHandler    *handlers.ExportHandler
}

// NewRouterConfig wires the whole application graph. baseURL ends up in QR
// payloads as the deep link back to an issuance.
func NewRouterConfig(db *gorm.DB, logger *zap.Logger, baseURL string) *RouterConfig {
	authGate := NewAuthGate(db, 5*time.Minute)

	articleSvc := services.NewArticleService(db)
	loanSvc := services.NewLoanService(db)
	issuanceSvc := services.NewIssuanceService(db, baseURL)
	userSvc := services.NewUserService(db)
	authSvc := services.NewAuthService(db)
	alertSvc := services.NewAlertService(articleSvc, loanSvc, issuanceSvc)
	exportSvc := services.NewExportService(articleSvc, loanSvc, logger)

	return &RouterConfig{
		AuthGate:         authGate,
		AuthService:      authSvc,
		AuthHandler:      handlers.NewAuthHandler(authSvc),
		ArticleHandler:   handlers.NewArticleHandler(articleSvc),
		LoanHandler:      handlers.NewLoanHandler(loanSvc),
		IssuanceHandler:  handlers.NewIssuanceHandler(issuanceSvc),
		UserHandler:      handlers.NewUserHandler(userSvc, authGate.CacheResolver),
		DashboardHandler: handlers.NewDashboardHandler(articleSvc, loanSvc, issuanceSvc, alertSvc),
		ExportHandler:    handlers.NewExportHandler(exportSvc),
	}
}
