package router

import (
	"github.com/gin-gonic/gin"

	"github.com/tedlabs/identity/config"
	"github.com/tedlabs/identity/internal/handler"
	"github.com/tedlabs/identity/internal/middleware"
)

type Router struct {
	authHandler   *handler.AuthHandler
	userHandler   *handler.UserHandler
	healthHandler *handler.HealthHandler

	jwtMw  *middleware.JWTMiddleware
	Config *config.Config
}

func NewRouter(
	auth *handler.AuthHandler,
	user *handler.UserHandler,
	health *handler.HealthHandler,
	jwtMw *middleware.JWTMiddleware,
	cfg *config.Config,
) *Router {
	return &Router{
		authHandler:   auth,
		userHandler:   user,
		healthHandler: health,
		jwtMw:         jwtMw,
		Config:        cfg,
	}
}

func (r *Router) SetupRoutes() *gin.Engine {
	if r.Config.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(middleware.RequestLogging())
	router.Use(middleware.Recovery())
	router.Use(middleware.CORS())

	api := router.Group("/api")
	{
		api.GET("/health", r.healthHandler.Health)

		v1 := api.Group("/v1")
		{
			r.authRoutes(v1)
			r.userRoutes(v1)
		}
	}

	return router
}
