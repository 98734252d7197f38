package serving

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// SetupRoutes registers the handler on router behind CORS.
func SetupRoutes(router *gin.Engine, h *Handler, allowOrigins []string) {
	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(allowOrigins) == 0 || (len(allowOrigins) == 1 && allowOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = allowOrigins
	}
	router.Use(cors.New(corsCfg))

	router.GET("/", h.Index)
	router.GET("/health", h.Health)

	api := router.Group("/api")
	api.POST("/predict", h.Predict)
	api.POST("/historical_data", h.HistoricalData)
}
