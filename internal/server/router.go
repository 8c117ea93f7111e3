// Package server assembles the HTTP surface: middleware, swagger and the
// /api/v1 route groups.
package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "finanzas/internal/docs" // swagger docs
	"finanzas/internal/handlers"
	"finanzas/internal/middleware"
	"finanzas/internal/services"
)

// Deps carries everything the router needs. Redis is optional; without it
// the auth rate limiter is disabled.
type Deps struct {
	Users        services.UserServicer
	Profiles     services.ProfileServicer
	Categories   services.CategoryServicer
	Transactions services.TransactionServicer
	Stats        services.StatsServicer
	Admin        services.AdminServicer
	Audit        services.AuditServicer
	Tokens       *middleware.TokenManager
	Location     *time.Location

	Redis           *redis.Client
	RateLimitMax    int
	RateLimitWindow time.Duration

	AllowedOrigins []string
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(d Deps) *gin.Engine {
	authHandler := handlers.NewAuthHandler(d.Users, d.Tokens, d.Audit)
	profileHandler := handlers.NewProfileHandler(d.Profiles, d.Users, d.Audit)
	categoryHandler := handlers.NewCategoryHandler(d.Categories, d.Audit)
	transactionHandler := handlers.NewTransactionHandler(d.Transactions, d.Audit, d.Location)
	dashboardHandler := handlers.NewDashboardHandler(d.Stats)
	adminHandler := handlers.NewAdminHandler(d.Admin, d.Audit)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	corsCfg := cors.DefaultConfig()
	if len(d.AllowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = d.AllowedOrigins
	}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsCfg.ExposeHeaders = []string{"X-Request-ID", "Retry-After"}
	router.Use(cors.New(corsCfg))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	limit := middleware.RateLimit(d.Redis, d.RateLimitMax, d.RateLimitWindow, middleware.KeyByIPAndPath())
	authn := middleware.AuthMiddleware(d.Tokens)

	// Public auth routes
	auth := v1.Group("/auth")
	auth.POST("/register", limit, authHandler.Register)
	auth.POST("/login", limit, authHandler.Login)
	auth.POST("/refresh", limit, authHandler.Refresh)
	auth.POST("/password/forgot", limit, authHandler.ForgotPassword)
	auth.POST("/password/reset", limit, authHandler.ResetPassword)
	auth.POST("/logout", authn, authHandler.Logout)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(authn)

	protected.GET("/profile", profileHandler.GetProfile)
	protected.PUT("/profile", profileHandler.UpdateProfile)
	protected.PUT("/profile/password", profileHandler.ChangePassword)

	categories := protected.Group("/categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.GetUserCategories)
	categories.GET("/:id", categoryHandler.GetCategoryByID)
	categories.PUT("/:id", categoryHandler.UpdateCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)

	transactions := protected.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.GetUserTransactions)
	transactions.POST("/copy", transactionHandler.CopyTransactions)
	transactions.GET("/:id", transactionHandler.GetTransactionByID)
	transactions.PUT("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	protected.GET("/dashboard", dashboardHandler.GetDashboard)

	admin := protected.Group("/admin")
	admin.Use(middleware.RequireAdmin(d.Profiles))
	admin.GET("/users/stats", adminHandler.GetUserStats)
	admin.GET("/users", adminHandler.ListUsers)
	admin.POST("/users", adminHandler.CreateUser)
	admin.PUT("/users/:id", adminHandler.UpdateUser)
	admin.DELETE("/users/:id", adminHandler.DeleteUser)

	return router
}
