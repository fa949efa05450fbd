package api

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	intconfig "shuttle/internal/config"
	h "shuttle/internal/http/handlers"
	"shuttle/internal/http/middleware"
	"shuttle/internal/utils"
)

func NewRouter(env intconfig.Env, hd h.Handler) *gin.Engine {
	if err := RegisterValidators(); err != nil {
		utils.Logger().Warn("custom validators not registered", zap.Error(err))
	}

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), gin.Recovery(), middleware.CORS(env.CORSOrigins))

	if err := r.SetTrustedProxies(nil); err != nil {
		utils.Logger().Warn("failed to set trusted proxies", zap.Error(err))
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"success":    false,
			"error":      "route not found",
			"code":       "not_found",
			"path":       c.Request.URL.Path,
			"method":     c.Request.Method,
			"request_id": middleware.GetRequestID(c),
		})
	})

	requireAuth := middleware.RequireAuth(hd.Auth)

	api := r.Group("/api")
	{
		api.GET("/health", hd.Health)
		api.GET("/db-check", hd.DBCheck)

		auth := api.Group("/auth")
		auth.POST("/register", hd.Register)
		auth.POST("/login", hd.Login)

		routes := api.Group("/routes")
		routes.GET("", hd.ListRoutes)
		routes.GET("/:id", hd.GetRoute)

		user := api.Group("/user", requireAuth)
		user.GET("/profile", hd.Profile)
		user.POST("/fund", hd.FundAccount)

		bookings := api.Group("/bookings", requireAuth)
		bookings.GET("", hd.ListBookings)
		bookings.POST("", hd.CreateBooking)
		bookings.GET("/:id", hd.GetBooking)
		bookings.PATCH("/:id/cancel", hd.CancelBooking)
		bookings.GET("/:id/ticket", hd.BookingTicketPDF)

		api.GET("/transactions", requireAuth, hd.ListTransactions)
	}

	return r
}
