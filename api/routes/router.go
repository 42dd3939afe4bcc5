// api/routes/router.go
package routes

import (
	"net/http"
	"time"

	_ "seatengine/docs"
	"seatengine/internal/bookings"
	"seatengine/internal/holds"
	"seatengine/internal/pricing"
	"seatengine/internal/promos"
	"seatengine/internal/seatevents"
	"seatengine/internal/seats"
	"seatengine/internal/shared/config"
	"seatengine/internal/shared/database"
	"seatengine/internal/shared/memstore"
	"seatengine/pkg/cache"
	"seatengine/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Models lists every table the engine migrates
func Models() []interface{} {
	return []interface{}{
		&seats.Seat{},
		&holds.Hold{},
		&bookings.Booking{},
		&promos.PromoCode{},
		&promos.PromoRedemption{},
		&pricing.EventRates{},
	}
}

// Engine holds the wired reservation components
type Engine struct {
	Seats       seats.Service
	Resolver    *seats.Resolver
	Broadcaster *seats.Broadcaster
	Holds       *holds.Manager
	Pricing     pricing.Service
	Promos      promos.Service
	Bookings    bookings.Service
}

// Router holds all route dependencies
type Router struct {
	config *config.Config
	db     *database.DB
	engine *Engine
}

// NewRouter wires the engine over the configured storage driver
func NewRouter(cfg *config.Config, db *database.DB, publisher seatevents.Publisher) *Router {
	return &Router{
		config: cfg,
		db:     db,
		engine: NewEngine(cfg, db, publisher),
	}
}

// Engine returns the wired components, used by the server for background jobs
func (r *Router) Engine() *Engine {
	return r.engine
}

// NewEngine builds every component. With the memory driver the repositories
// live in process and share one transactor; otherwise they share PostgreSQL.
func NewEngine(cfg *config.Config, db *database.DB, publisher seatevents.Publisher) *Engine {
	var (
		seatRepo    seats.Repository
		holdRepo    holds.Repository
		bookingRepo bookings.Repository
		promoRepo   promos.Repository
		rateRepo    pricing.RateRepository
		tx          database.Transactor
	)

	if cfg.UsesMemoryStorage() || db.GetPostgreSQL() == nil {
		seatRepo = seats.NewMemoryRepository()
		holdRepo = holds.NewMemoryRepository()
		bookingRepo = bookings.NewMemoryRepository()
		promoRepo = promos.NewMemoryRepository()
		rateRepo = pricing.NewMemoryRateRepository()
		tx = memstore.NewTransactor()
	} else {
		pg := db.GetPostgreSQL()
		seatRepo = seats.NewRepository(pg)
		holdRepo = holds.NewRepository(pg)
		bookingRepo = bookings.NewRepository(pg)
		promoRepo = promos.NewRepository(pg)
		rateRepo = pricing.NewRateRepository(pg)
		tx = database.NewTransactor(pg)
	}

	var cacheService cache.Service
	if client := db.GetRedis(); client != nil {
		cacheService = cache.NewService(client)
	}

	resolver := seats.NewResolver(seatRepo, tx)
	broadcaster := seats.NewBroadcaster(cacheService, publisher)
	seatService := seats.NewService(seatRepo, resolver, broadcaster, cacheService, cfg.Redis.SeatListTTL)
	manager := holds.NewManager(holdRepo, seatService, resolver, tx, broadcaster, holds.PolicyFromConfig(cfg.Holds))
	promoService := promos.NewService(promoRepo)
	rateService := pricing.NewService(rateRepo, pricing.Rates{
		FeeRateBps: cfg.Pricing.FeeRateBps,
		TaxRateBps: cfg.Pricing.TaxRateBps,
		Currency:   cfg.Pricing.Currency,
	})

	bookingService := bookings.NewService(bookings.Dependencies{
		Repo:        bookingRepo,
		Holds:       manager,
		Seats:       seatService,
		Resolver:    resolver,
		Rates:       rateService,
		Promos:      promoService,
		Tx:          tx,
		Broadcaster: broadcaster,
		Publisher:   publisher,
	})

	return &Engine{
		Seats:       seatService,
		Resolver:    resolver,
		Broadcaster: broadcaster,
		Holds:       manager,
		Pricing:     rateService,
		Promos:      promoService,
		Bookings:    bookingService,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := seats.RegisterValidators(v); err != nil {
			logger.GetDefault().Error("failed to register validators", "error", err)
		}
	}

	// Health check and basic info endpoints
	r.setupHealthRoutes(engine)

	if !r.config.IsProduction() {
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := engine.Group(r.config.GetAPIBasePath())
	{
		seats.SetupSeatRoutes(api, seats.NewController(r.engine.Seats))
		holds.SetupHoldRoutes(api, holds.NewController(r.engine.Holds, r.engine.Bookings))
		bookings.SetupBookingRoutes(api, bookings.NewController(r.engine.Bookings))
		promos.SetupPromoRoutes(api, promos.NewController(r.engine.Promos))
		pricing.SetupPricingRoutes(api, pricing.NewController(r.engine.Pricing))
	}
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "seatengine",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "seatengine",
			"storage":   r.config.Storage.Driver,
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})

	engine.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "operational",
			"api_version": r.config.APIVersion,
			"timestamp":   time.Now(),
		})
	})
}
