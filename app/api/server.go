package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// NewServer creates the HTTP server with all routes configured
func NewServer(handler *Handler, apiAccessKey string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
	}))

	r.Use(gin.Recovery())

	// CORS middleware for API endpoints
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, X-API-Key, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	setupRoutes(r, handler, apiAccessKey)

	return r
}

// setupRoutes configures all the application routes
func setupRoutes(r *gin.Engine, handler *Handler, apiAccessKey string) {
	r.GET("/health", handler.GetHealth)
	r.GET("/stats", handler.GetStats)

	api := r.Group("/api")
	if apiAccessKey != "" {
		api.Use(authMiddleware(apiAccessKey))
	}
	{
		api.GET("/recipes", handler.ListRecipes)
		api.POST("/recipes", handler.CreateRecipe)
		api.POST("/recipes/bulk-delete", handler.BulkDeleteRecipes)
		api.GET("/recipes/:id", handler.GetRecipe)
		api.PUT("/recipes/:id", handler.UpdateRecipe)
		api.DELETE("/recipes/:id", handler.DeleteRecipe)
		api.GET("/recipes/:id/ingredients", handler.GetIngredients)
		api.GET("/recipes/:id/scaled", handler.GetScaledIngredients)
		api.GET("/recipes/:id/history", handler.GetHistory)

		api.GET("/schedule", handler.GetSchedule)
		api.PUT("/schedule/:date/:meal", handler.AssignSlot)
		api.DELETE("/schedule/:date/:meal", handler.ClearSlot)

		api.POST("/capture/text", handler.CaptureText)
		api.POST("/capture/html", handler.CaptureHTML)
		api.POST("/capture/url", handler.CaptureURL)

		api.GET("/export", handler.Export)
		api.POST("/import", handler.Import)

		api.GET("/sync/status", handler.GetSyncStatus)
		api.POST("/sync/force", handler.ForceSync)

		api.POST("/household", handler.CreateHousehold)
		api.POST("/household/join", handler.JoinHousehold)
		api.POST("/household/invite-code", handler.RegenerateInviteCode)
		api.DELETE("/household", handler.LeaveHousehold)
	}

	// Root endpoint with basic information
	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"service":     "Ladle",
			"description": "Local-first recipe manager with household sync",
			"endpoints": map[string]string{
				"recipes":  "/api/recipes",
				"schedule": "/api/schedule?from=<date>&to=<date>",
				"capture":  "/api/capture/{text,html,url}",
				"export":   "/api/export",
				"sync":     "/api/sync/status",
				"health":   "/health",
				"stats":    "/stats",
			},
			"api_status": map[string]interface{}{
				"auth_required": apiAccessKey != "",
				"header":        "X-API-Key",
			},
		})
	})

	// Favicon handler (return 204 to avoid 404s)
	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(204)
	})
}

// authMiddleware creates authentication middleware for API endpoints
func authMiddleware(apiAccessKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		providedKey := c.GetHeader("X-API-Key")

		if providedKey == "" {
			authHeader := c.GetHeader("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				providedKey = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}

		if providedKey == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "API key required",
				"message": "Provide API key in X-API-Key header or Authorization: Bearer <key>",
			})
			c.Abort()
			return
		}

		if providedKey != apiAccessKey {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Invalid API key",
				"message": "The provided API key is not valid",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
