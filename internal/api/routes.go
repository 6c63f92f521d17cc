package api

import (
	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine, handler *Handler) {
	router.GET("/health", handler.HealthCheck)

	v1 := router.Group("/api/v1")
	{
		v1.POST("/auth/login", handler.Login)

		authed := v1.Group("", handler.RequireAuth())
		{
			authed.POST("/auth/logout", handler.Logout)
			authed.GET("/auth/me", handler.Me)

			authed.POST("/listings", handler.SubmitListing)
			authed.PUT("/listings/:id", handler.EditListing)
			authed.GET("/listings/mine", handler.MyListings)
			authed.GET("/listings/:id", handler.GetListing)

			authed.POST("/view/load", handler.LoadView)
			authed.GET("/view", handler.GetView)
			authed.PUT("/view/query", handler.SetQuery)
			authed.POST("/view/sort", handler.ToggleSort)

			authed.POST("/imports", handler.UploadImport)
			authed.GET("/imports/:id", handler.GetImport)

			authed.POST("/mirror/backfill", handler.Backfill)
		}
	}
}

// NewRouter builds the engine with the standard middleware and routes.
func NewRouter(handler *Handler, maxUploadBytes int64) *gin.Engine {
	router := gin.New()
	router.MaxMultipartMemory = maxUploadBytes
	router.Use(RecoveryMiddleware())
	router.Use(CORSMiddleware())
	router.Use(LoggingMiddleware())

	SetupRoutes(router, handler)
	return router
}
