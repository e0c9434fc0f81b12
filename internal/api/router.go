package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/your-org/stylerec/internal/api/handlers"
	"github.com/your-org/stylerec/internal/api/ws"
	"github.com/your-org/stylerec/internal/auth"
	"github.com/your-org/stylerec/internal/queue"
	"github.com/your-org/stylerec/internal/recommend"
	"github.com/your-org/stylerec/internal/storage"
)

type RouterConfig struct {
	APIKey      string
	DB          *storage.PostgresStore
	MinIO       *storage.MinIOStore
	Producer    *queue.Producer
	Hub         *ws.Hub
	Recommender *recommend.Service
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(LoggingMiddleware())
	r.Use(cors.Default())

	// System endpoints (no auth)
	systemH := handlers.NewSystemHandler(cfg.DB, cfg.MinIO, cfg.Producer)
	r.GET("/healthz", systemH.Healthz)
	r.GET("/readyz", systemH.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 (with auth)
	v1 := r.Group("/v1")
	v1.Use(auth.APIKeyMiddleware(cfg.APIKey))

	// WebSocket
	v1.GET("/ws", cfg.Hub.HandleWS)

	// Catalog
	catalogH := handlers.NewCatalogHandler(cfg.DB, cfg.MinIO, cfg.Producer, cfg.Recommender)
	v1.POST("/categories", catalogH.CreateCategory)
	v1.GET("/categories", catalogH.ListCategories)
	v1.POST("/products", catalogH.CreateProduct)
	v1.GET("/products", catalogH.ListProducts)
	v1.GET("/products/:id", catalogH.GetProduct)
	v1.POST("/products/:id/images", catalogH.AddImage)
	v1.POST("/search", catalogH.Search)

	// Style images
	imageH := handlers.NewStyleImageHandler(cfg.DB, cfg.MinIO, cfg.Producer)
	v1.POST("/style-images", imageH.Upload)
	v1.GET("/style-images", imageH.List)
	v1.GET("/style-images/:id", imageH.Get)

	// Recommendations & feedback
	recH := handlers.NewRecommendationHandler(cfg.DB, cfg.Recommender)
	v1.GET("/recommendations", recH.List)
	v1.GET("/recommendations/:id", recH.Get)
	v1.POST("/recommendations/:id/feedback", recH.Feedback)
	v1.GET("/feedback", recH.ListFeedback)

	// Notifications
	notifH := handlers.NewNotificationHandler(cfg.DB)
	v1.GET("/notifications", notifH.List)

	return r
}
