package router

import (
	"context"
	"time"

	"quotepilot/internal/config"
	"quotepilot/internal/handler"
	"quotepilot/internal/infra"
	"quotepilot/internal/middleware"
	"quotepilot/internal/repository"
	"quotepilot/internal/service"
	"quotepilot/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// poRenderer adapts infra.PDFGenerator to the negotiation service's
// PORenderer interface.
type poRenderer struct {
	gen *infra.PDFGenerator
}

func (r poRenderer) Render(number, supplierName, spec string, price decimal.Decimal, currency string, leadTime string) (string, error) {
	return r.gen.RenderPurchaseOrder(infra.PurchaseOrderDoc{
		Number:       number,
		SupplierName: supplierName,
		Spec:         spec,
		Price:        price,
		Currency:     currency,
		LeadTime:     leadTime,
	})
}

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis.
// baseCtx bounds the background inbox watchers spawned per RFQ run; the
// dispatcher is shared with the worker pool started in main.
func New(baseCtx context.Context, cfg *config.Config, db *gorm.DB, rdb *redis.Client, dispatcher *worker.Dispatcher) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Infrastructure ───────────────────────────────────────────────────────
	mailbox := infra.NewIMAPMailbox(cfg)
	pdfGen := infra.NewPDFGenerator(cfg.PDFStoragePath)
	review := worker.NewReviewQueue(rdb)

	// ── Repositories ─────────────────────────────────────────────────────────
	offerRepo := repository.NewOfferRepository(db)
	supplierRepo := repository.NewSupplierRepository(db)
	requestRepo := repository.NewQuoteRequestRepository(db)
	outboxRepo := repository.NewOutboxRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	negotiationSvc := service.NewNegotiationService(offerRepo, requestRepo, dispatcher, poRenderer{gen: pdfGen})
	rfqSvc := service.NewRFQService(
		baseCtx, requestRepo, supplierRepo, offerRepo, outboxRepo,
		dispatcher, mailbox, review,
		cfg.MailDomain, cfg.PollInterval, cfg.PollDuration,
	)

	// ── Handlers ─────────────────────────────────────────────────────────────
	offersH := handler.NewOffersHandler(offerRepo, negotiationSvc)
	rfqH := handler.NewRFQHandler(rfqSvc)
	suppliersH := handler.NewSuppliersHandler(supplierRepo, cfg.MailDomain)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		// Launching runs and driving negotiations mutate supplier-facing
		// state — operator or admin. Reads are open to any valid token.
		v1.POST("/rfq", middleware.RequireRole("operator", "admin"), rfqH.Launch)

		v1.GET("/offers", offersH.List)
		v1.GET("/offers/stats", offersH.Stats)
		v1.GET("/offers/:id", offersH.Get)
		v1.POST("/offers/:id/evaluate", middleware.RequireRole("operator", "admin"), offersH.Evaluate)
		v1.POST("/offers/:id/reply", middleware.RequireRole("operator", "admin"), offersH.Reply)

		v1.GET("/suppliers", suppliersH.List)
		v1.POST("/suppliers", middleware.RequireRole("admin"), suppliersH.Create)
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
