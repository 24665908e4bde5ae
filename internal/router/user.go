package router

import "github.com/gin-gonic/gin"

func (r *Router) userRoutes(version *gin.RouterGroup) {
	users := version.Group("/users")
	users.Use(r.jwtMw.RequireAuth())
	{
		users.PUT("/me/profile", r.userHandler.CompleteProfile)
		users.PUT("/me/introduce", r.userHandler.UpdateIntroduce)
		users.PUT("/me/password", r.userHandler.UpdatePassword)
	}
}
