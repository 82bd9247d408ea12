package api

import (
	"github.com/naormeit/ParkHub-Vision-Robotics/internal/api/handler"
	"github.com/naormeit/ParkHub-Vision-Robotics/internal/api/middleware"
	"github.com/naormeit/ParkHub-Vision-Robotics/internal/service"

	"github.com/gin-gonic/gin"
)

func SetupRouter(
	as *service.AuthService,
	rs *service.ReservationService,
	ss *service.SensorService,
	ds *service.DispatchService,
	authMw *middleware.AuthMiddleware,
	wsManager *handler.WebSocketManager,
) *gin.Engine {
	r := gin.Default()
	r.Use(gin.Recovery())

	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	// WebSocket endpoint for live dashboards (no auth for demo clients).
	wsHandler := handler.NewWebSocketHandler(wsManager)
	r.GET("/ws", wsHandler.HandleWebSocket)

	authHandler := handler.NewAuthHandler(as)
	authRoutes := r.Group("/auth")
	{
		authRoutes.POST("/register", authHandler.Register)
		authRoutes.POST("/login", authHandler.Login)
	}

	reservationH := handler.NewReservationHandler(rs, ds, wsManager)
	sensorH := handler.NewSensorHandler(ss, wsManager)
	statusH := handler.NewStatusHandler(rs)
	sensorLimiter := middleware.NewRateLimiter(10, 20)

	api := r.Group("/api")
	{
		api.POST("/check-in", reservationH.CheckIn)
		api.POST("/checkout", reservationH.CheckOut)
		api.POST("/sensor", sensorLimiter.Limit(), sensorH.Record)
		api.GET("/status", statusH.Status)
		api.GET("/stats", statusH.Stats)

		adminRoutes := api.Group("/admin")
		adminRoutes.Use(authMw.Authenticate(), authMw.AuthorizeRole("admin"))
		{
			adminRoutes.GET("/users", statusH.AdminUsers)
		}
	}

	return r
}
