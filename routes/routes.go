package routes

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/expensedecoder/api/config"
	"github.com/expensedecoder/api/handlers"
	"github.com/expensedecoder/api/middleware"
	"github.com/expensedecoder/api/services"
	"github.com/expensedecoder/api/storage"
	"github.com/expensedecoder/api/utils"
)

const Version = "1.0.0"

// Deps are the long-lived objects the router is built from.
type Deps struct {
	Config   *config.Config
	Store    storage.Store
	Gateway  services.ChatCompleter
	WS       *handlers.WSHandler
	Verifier *middleware.TokenVerifier
	Limiter  *middleware.RateLimiter
}

// pinger is implemented by stores backed by a database.
type pinger interface {
	Ping(ctx context.Context) error
}

// NewRouter wires middleware, the public health check and the protected API.
func NewRouter(d Deps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	allowedOrigins := d.Config.AllowedOrigins()
	log.Printf("🌍 CORS: Allowing origins:")
	for _, origin := range allowedOrigins {
		log.Printf("   - %s", origin)
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Client-Info", "Apikey"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           24 * time.Hour,
	}))

	router.Use(middleware.RequestLogger())

	router.GET("/health", func(c *gin.Context) {
		if p, ok := d.Store.(pinger); ok {
			if err := p.Ping(c.Request.Context()); err != nil {
				utils.SafeError("[Health] Database unreachable: %v", err)
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": Version,
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	v1 := router.Group("/api/v1")
	v1.Use(middleware.AuthMiddleware(d.Verifier))
	if d.Limiter != nil {
		v1.Use(d.Limiter.Middleware())
	}
	{
		var notifier handlers.Notifier
		if d.WS != nil {
			notifier = d.WS
			v1.GET("/ws", d.WS.HandleWS)
		}

		SetupExpenseRoutes(v1, handlers.NewExpenseHandler(services.NewExpenseService(d.Store), notifier))
		SetupInsightRoutes(v1, handlers.NewInsightHandler(services.NewInsightService(d.Store, d.Store, d.Gateway), notifier))
	}

	return router
}

// SetupExpenseRoutes sets up expense CRUD and the chart breakdown.
func SetupExpenseRoutes(rg *gin.RouterGroup, h *handlers.ExpenseHandler) {
	rg.POST("/expenses", h.CreateExpense)
	rg.GET("/expenses", h.ListExpenses)
	rg.GET("/expenses/breakdown", h.GetBreakdown)
	rg.DELETE("/expenses/:id", h.DeleteExpense)
}

// SetupInsightRoutes sets up insight generation and retrieval.
func SetupInsightRoutes(rg *gin.RouterGroup, h *handlers.InsightHandler) {
	rg.POST("/insights/analyze", h.AnalyzeExpenses)
	rg.GET("/insights/latest", h.GetLatestInsights)
}
