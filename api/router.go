package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/mediagrab/api/handlers"
	"github.com/yourusername/mediagrab/api/middleware"
	"github.com/yourusername/mediagrab/internal/app"
)

// Services are the application components the HTTP API exposes
type Services struct {
	DownloadMgr *app.DownloadManager
	Publisher   *app.Publisher
	Trimmer     *app.Trimmer
	Janitor     *app.Janitor
	Recorder    app.Recorder
	// Stats is nil when download history is disabled
	Stats handlers.StatsSource
}

// SetupRouter sets up the HTTP router
func SetupRouter(services Services, log *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	if log == nil {
		log = zap.NewNop()
	}
	if services.Recorder == nil {
		services.Recorder = app.NopRecorder{}
	}

	router := gin.New()
	router.MaxMultipartMemory = 32 << 20

	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS())

	// Health endpoints
	healthHandler := handlers.NewHealthHandler(services.Janitor, services.DownloadMgr.OutputDir())
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	downloadHandler := handlers.NewDownloadHandler(services.DownloadMgr, services.Recorder, services.Janitor, log)
	router.GET("/download", downloadHandler.Download)

	trimHandler := handlers.NewTrimHandler(services.Trimmer, services.Janitor, log)
	router.POST("/trimmer/trim", trimHandler.Trim)

	apiGroup := router.Group("/api")
	{
		apiGroup.POST("/info", downloadHandler.Info)
		apiGroup.GET("/files/:id", downloadHandler.ServeFile)

		streamHandler := handlers.NewStreamHandler(services.Publisher, log)
		apiGroup.GET("/stream", streamHandler.SSE)
		apiGroup.GET("/ws", streamHandler.WebSocket)

		statsHandler := handlers.NewStatsHandler(services.Stats, log)
		apiGroup.GET("/stats", statsHandler.GetStats)
	}

	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.String(http.StatusNotFound, "404 page not found")
	})

	return router
}
