package api

import (
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	echoswagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	_ "github.com/agencyhub/crm-api/docs"
	"github.com/agencyhub/crm-api/internal/api/handler"
	"github.com/agencyhub/crm-api/internal/api/middleware"
	"github.com/agencyhub/crm-api/internal/audit"
	"github.com/agencyhub/crm-api/internal/core/guard"
	"github.com/agencyhub/crm-api/internal/core/service"
	mongodb "github.com/agencyhub/crm-api/internal/infrastructure/db/mongo"
	redisdb "github.com/agencyhub/crm-api/internal/infrastructure/db/redis"
	"github.com/agencyhub/crm-api/pkg/logger"
)

// Options carries the settings the router needs beyond its store handles.
type Options struct {
	JWTSecret        string
	AuditLogDir      string
	PortalSessionTTL time.Duration
}

// NewRouter builds the Echo instance with every route registered.
func NewRouter(db *mongo.Database, rdb *redis.Client, opts Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	log := logger.Get()

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("crm"))

	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Repositories ---
	authRepo := mongodb.NewAuthRepository(db)
	assignments := mongodb.NewAssignmentRepository(db)
	clients := mongodb.NewClientRepository(db, assignments)
	deals := mongodb.NewDealRepository(db)
	pipelines := mongodb.NewPipelineRepository(db)
	proposals := mongodb.NewProposalRepository(db)
	recurring := mongodb.NewRecurringInvoiceRepository(db)
	imports := mongodb.NewCsvImportRepository(db)
	portalAccesses := mongodb.NewPortalAccessRepository(db)
	sessions := redisdb.NewSessionStore(rdb)

	// --- Services ---
	authService := service.NewAuthService(authRepo, opts.JWTSecret, 24*time.Hour)
	portalService := service.NewPortalService(portalAccesses, sessions, opts.PortalSessionTTL, log)

	// --- Guards ---
	clientGuard := guard.NewClientGuard(assignments)
	dealGuard := guard.NewDealGuard(assignments)
	pipelineGuard := guard.NewPipelineGuard(assignments)
	proposalGuard := guard.NewProposalGuard(assignments)
	recurringGuard := guard.NewRecurringInvoiceGuard(assignments)
	importGuard := guard.NewCsvImportGuard(assignments)

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(authService)
	clientHandler := handler.NewClientHandler(clients, clientGuard)
	dealHandler := handler.NewDealHandler(deals, dealGuard)
	pipelineHandler := handler.NewPipelineHandler(pipelines, pipelineGuard)
	proposalHandler := handler.NewProposalHandler(proposals, recurring, proposalGuard)
	recurringHandler := handler.NewRecurringInvoiceHandler(recurring, recurringGuard)
	importHandler := handler.NewCsvImportHandler(imports, importGuard)
	portalHandler := handler.NewPortalHandler(portalService, proposals, recurring, proposalGuard)

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	// --- Observability & docs ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoswagger.WrapHandler)

	// --- Staff routes: JWT auth then the route-prefix RBAC filter ---
	secLog := audit.NewSecurityLog(opts.AuditLogDir, log)
	staff := e.Group("", middleware.Auth(opts.JWTSecret), middleware.RBAC(secLog, log))

	staff.POST("/clients", clientHandler.Create)
	staff.GET("/clients/:id", clientHandler.Get)
	staff.PUT("/clients/:id", clientHandler.Update)
	staff.DELETE("/clients/:id", clientHandler.Delete)
	staff.POST("/clients/:id/users", clientHandler.AssignUser)
	staff.DELETE("/clients/:id/users/:userID", clientHandler.UnassignUser)

	staff.POST("/deals", dealHandler.Create)
	staff.GET("/deals/:id", dealHandler.Get)
	staff.PUT("/deals/:id", dealHandler.Update)
	staff.DELETE("/deals/:id", dealHandler.Delete)
	staff.POST("/deals/:id/stage", dealHandler.MoveStage)
	staff.POST("/deals/:id/close", dealHandler.Close)
	staff.POST("/deals/:id/convert", dealHandler.ConvertToProject)

	staff.POST("/pipelines", pipelineHandler.Create)
	staff.GET("/pipelines/:id", pipelineHandler.Get)
	staff.PUT("/pipelines/:id", pipelineHandler.Update)
	staff.DELETE("/pipelines/:id", pipelineHandler.Delete)

	staff.POST("/proposals", proposalHandler.Create)
	staff.GET("/proposals/:id", proposalHandler.Get)
	staff.PUT("/proposals/:id", proposalHandler.Update)
	staff.DELETE("/proposals/:id", proposalHandler.Delete)
	staff.POST("/proposals/:id/send", proposalHandler.Send)
	staff.POST("/proposals/:id/status", proposalHandler.UpdateStatus)
	staff.GET("/proposals/:id/transitions", proposalHandler.Transitions)
	staff.POST("/proposals/:id/invoice", proposalHandler.ConvertToInvoice)

	// Billing routes sit under a financial prefix, so the RBAC filter blocks
	// end_client before any guard runs.
	staff.POST("/billing/recurring", recurringHandler.Create)
	staff.GET("/billing/recurring/:id", recurringHandler.Get)
	staff.PUT("/billing/recurring/:id", recurringHandler.Update)
	staff.DELETE("/billing/recurring/:id", recurringHandler.Delete)
	staff.POST("/billing/recurring/:id/pause", recurringHandler.Pause)
	staff.POST("/billing/recurring/:id/resume", recurringHandler.Resume)
	staff.POST("/billing/recurring/:id/cancel", recurringHandler.Cancel)

	staff.POST("/imports", importHandler.Upload)
	staff.GET("/imports/:id", importHandler.Get)
	staff.DELETE("/imports/:id", importHandler.Delete)

	// --- Portal routes: separate identity domain, no staff auth chain ---
	portal := e.Group("/portal")
	portal.POST("/login/token", portalHandler.LoginWithToken)
	portal.POST("/login/magic-link", portalHandler.LoginWithMagicLink)

	portalAuthed := portal.Group("", middleware.Portal(portalService))
	portalAuthed.POST("/logout", portalHandler.Logout)
	portalAuthed.GET("/me", portalHandler.Me)
	portalAuthed.GET("/proposals/:id", portalHandler.GetProposal)
	portalAuthed.POST("/proposals/:id/respond", portalHandler.RespondToProposal)
	portalAuthed.GET("/invoices/recurring/:id", portalHandler.GetRecurringInvoice)

	return e
}
