package routes

import (
	"rescuereach/controllers"
	"rescuereach/middleware"
	"rescuereach/models"
	ws "rescuereach/websocket"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

// Controllers bundles the HTTP surface handed over by main.
type Controllers struct {
	Auth   *controllers.AuthController
	User   *controllers.UserController
	SOS    *controllers.SOSController
	Health *controllers.HealthController
}

// SetupRoutes builds the gin engine with all middleware and route groups.
func SetupRoutes(ctrl *Controllers, authMW *middleware.AuthMiddleware, hub *ws.Hub, rdb *redis.Client) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.ErrorHandler())

	setupPublicRoutes(router, ctrl, rdb)
	setupAuthenticatedRoutes(router, ctrl, authMW, rdb)
	setupWebSocketRoutes(router, hub)

	return router
}

func setupPublicRoutes(router *gin.Engine, ctrl *Controllers, rdb *redis.Client) {
	router.GET("/", ctrl.Health.APIInfo)
	router.GET("/health", ctrl.Health.HealthCheck)

	auth := router.Group("/api/v1/auth")
	auth.Use(middleware.AuthRateLimit(rdb))
	{
		auth.POST("/register", ctrl.Auth.Register)
		auth.POST("/login", ctrl.Auth.Login)
		auth.POST("/refresh", ctrl.Auth.Refresh)
	}
}

func setupAuthenticatedRoutes(router *gin.Engine, ctrl *Controllers, authMW *middleware.AuthMiddleware, rdb *redis.Client) {
	api := router.Group("/api/v1")
	api.Use(authMW.RequireAuth())

	// User profile and emergency contacts.
	users := api.Group("/users")
	users.Use(middleware.APIRateLimit(rdb))
	{
		users.GET("/me", ctrl.User.GetProfile)
		users.PUT("/me", ctrl.User.UpdateProfile)
		users.PUT("/me/contacts", ctrl.User.UpdateContacts)
	}

	// SOS pipeline. The trigger and cancel routes carry no rate limiter:
	// a throttled emergency report is worse than a duplicate one.
	sos := api.Group("/sos")
	{
		sos.POST("", ctrl.SOS.TriggerSOS)
		sos.GET("/active", ctrl.SOS.GetActiveSOS)
		sos.GET("/history", middleware.APIRateLimit(rdb), ctrl.SOS.GetHistory)

		sos.GET("/:id", ctrl.SOS.GetSOS)
		sos.GET("/:id/status", ctrl.SOS.GetSOSStatus)
		sos.DELETE("/:id", ctrl.SOS.CancelSOS)

		sos.POST("/:id/comments", middleware.APIRateLimit(rdb), ctrl.SOS.AddComment)
		sos.GET("/:id/comments", middleware.APIRateLimit(rdb), ctrl.SOS.GetComments)
	}

	// Responder-only operations.
	responder := api.Group("/sos")
	responder.Use(authMW.RequireRole(models.RoleResponder))
	{
		responder.PUT("/:id/status", ctrl.SOS.UpdateSOSStatus)
		responder.GET("/region/:state", ctrl.SOS.GetRegionReports)
	}

	// Hard delete of a past report, distinct from cancellation.
	reports := api.Group("/reports")
	reports.Use(middleware.APIRateLimit(rdb))
	{
		reports.DELETE("/:id", ctrl.SOS.DeleteSOS)
	}

	// Host stats behind responder role.
	api.GET("/system/stats", authMW.RequireRole(models.RoleResponder), ctrl.Health.SystemStats)
}

func setupWebSocketRoutes(router *gin.Engine, hub *ws.Hub) {
	router.GET("/ws", ws.ServeWS(hub))
}
