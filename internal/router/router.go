package router

import (
	"qanda/internal/handlers"
	"qanda/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine) {
	// Handlers
	authHandler := handlers.NewAuthHandler()
	threadHandler := handlers.NewThreadHandler()
	commentHandler := handlers.NewCommentHandler()
	userHandler := handlers.NewUserHandler()
	notificationHandler := handlers.NewNotificationHandler()
	feedHandler := handlers.NewFeedHandler()
	apiHandler := handlers.NewAPIHandler()

	// Public routes
	r.GET("/", threadHandler.ListLatest)
	r.GET("/t/:tid", threadHandler.Detail)
	r.GET("/u/:id", userHandler.Profile)

	r.GET("/signup", authHandler.ShowRegister)
	r.POST("/signup", authHandler.Register)
	r.GET("/login", authHandler.ShowLogin)
	r.POST("/login", authHandler.Login)
	r.GET("/logout", authHandler.Logout)

	// Protected routes
	authorized := r.Group("/")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.GET("/watched", threadHandler.ListWatched)
		authorized.GET("/submit", threadHandler.ShowCreate)
		authorized.POST("/submit", threadHandler.Create)
		authorized.GET("/t/:tid/edit", threadHandler.ShowEdit)
		authorized.POST("/t/:tid/edit", threadHandler.Update)
		authorized.DELETE("/t/:tid", threadHandler.Delete)
		authorized.POST("/t/:tid/lock", threadHandler.ToggleLock)
		authorized.POST("/watch/:id", threadHandler.ToggleWatch)

		authorized.POST("/t/:tid/comment", commentHandler.Create)
		authorized.POST("/comment/:id/edit", commentHandler.Update)
		authorized.DELETE("/comment/:id", commentHandler.Delete)
		authorized.POST("/comment/:id/like", commentHandler.Like)

		authorized.GET("/feeds", feedHandler.List)
		authorized.POST("/feeds", feedHandler.Subscribe)
		authorized.POST("/feeds/:id/delete", feedHandler.Unsubscribe)

		authorized.GET("/settings", userHandler.ShowSettings)
		authorized.POST("/settings", userHandler.UpdateSettings)

		authorized.GET("/notifications", notificationHandler.List)
		authorized.POST("/notifications/:id/read", notificationHandler.Read)
		authorized.POST("/notifications/read-all", notificationHandler.ReadAll)
		authorized.DELETE("/notifications/:id", notificationHandler.Delete)
	}

	// Token-authenticated JSON API
	api := r.Group("/api")
	{
		api.POST("/login", apiHandler.Login)
		api.GET("/comments", apiHandler.ListComments)
		api.GET("/user", apiHandler.GetUser)

		apiAuth := api.Group("/")
		apiAuth.Use(middleware.APIAuth())
		{
			apiAuth.POST("/comment", apiHandler.CreateComment)
			apiAuth.PUT("/comment", apiHandler.UpdateComment)
			apiAuth.DELETE("/comment", apiHandler.DeleteComment)
			apiAuth.PUT("/comment/like", apiHandler.Like)
		}
	}
}
