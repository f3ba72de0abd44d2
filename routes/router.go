package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/bloglist/config"
	"github.com/cppla/bloglist/controllers"
	"github.com/cppla/bloglist/events"
	"github.com/cppla/bloglist/middleware"
	"github.com/cppla/bloglist/repository"
	"github.com/cppla/bloglist/services"
	"github.com/cppla/bloglist/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(cfg config.AppConfig, db *gorm.DB, publisher events.Publisher) *gin.Engine {
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// access log goes to its own rolling file, not stdout
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Authorization", "Content-Type"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 0 || (len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
		corsCfg.AllowCredentials = true
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	if publisher == nil {
		publisher = events.Nop{}
	}
	store := repository.NewGormStore(db)
	postService := services.NewPostService(store, services.NewJWTValidator(cfg.JWTSecret),
		services.WithEvents(publisher),
		services.WithLogger(utils.Logger),
		services.WithWriteTimeout(time.Duration(cfg.WriteTimeoutSec)*time.Second),
	)
	userService := services.NewUserService(store.Users(), cfg.JWTSecret, time.Duration(cfg.TokenTTLHours)*time.Hour, utils.Logger)

	postController := controllers.NewPostController(postService, utils.Logger)
	authController := controllers.NewAuthController(userService, utils.Logger)
	statsController := controllers.NewStatsController(postService, utils.Logger)

	limit := middleware.RateLimit(cfg.RateLimitPerMinute)

	api := r.Group("/api")
	api.Use(middleware.TokenExtractor())

	posts := api.Group("/posts")
	posts.GET("", postController.ListPosts)
	posts.GET("/stats", statsController.GetStats)
	posts.POST("", limit, postController.CreatePost)
	posts.PUT("/:id", limit, postController.UpdatePost)
	posts.DELETE("/:id", limit, postController.DeletePost)

	users := api.Group("/users")
	users.GET("", authController.ListUsers)
	users.POST("", limit, authController.Register)
	users.GET("/:id/stats", statsController.GetUserStats)

	api.POST("/login", limit, authController.Login)
	api.POST("/logout", authController.Logout)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "unknown endpoint")
	})

	return r
}
