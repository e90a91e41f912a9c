package api

import (
	"github.com/gin-gonic/gin"

	"iotdash/auth"
	webModels "iotdash/internal/web/models"
)

func RegisterAuthRoutes(r *gin.Engine, authModule *auth.AuthModule) {
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", func(c *gin.Context) {
			var req webModels.RegisterRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(400, gin.H{"error": "Invalid request"})
				return
			}
			token, err := authModule.RegisterWithJWT(c, req.Username, req.Password, req.Email)
			if err != nil {
				c.JSON(400, gin.H{"error": err.Error()})
				return
			}
			c.JSON(201, gin.H{"token": token})
		})

		authGroup.POST("/login", func(c *gin.Context) {
			var req webModels.LoginRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(400, gin.H{"error": "Invalid request"})
				return
			}
			token, err := authModule.LoginWithJWT(c, req.Username, req.Password)
			if err != nil {
				c.JSON(401, gin.H{"error": "Invalid credentials"})
				return
			}
			c.JSON(200, gin.H{"token": token})
		})
	}
}
