package api

import (
	"errors"
	"log"

	"github.com/gin-gonic/gin"

	"iotdash/internal/models"
	"iotdash/internal/rulestore"
	"iotdash/internal/web/middleware"
	webModels "iotdash/internal/web/models"
)

func RegisterRuleRoutes(r *gin.Engine, middleware *middleware.MiddlewareManager, store *rulestore.RuleStore) {
	rules := r.Group("/api/rules")
	rules.Use(middleware.RequireAuth())
	{
		rules.GET("", func(c *gin.Context) {
			c.JSON(200, store.List())
		})

		rules.POST("", func(c *gin.Context) {
			var rule models.AutomationRule
			if err := c.ShouldBindJSON(&rule); err != nil {
				c.JSON(400, gin.H{"error": "Invalid request"})
				return
			}
			created, err := store.Add(c, rule)
			if err != nil {
				log.Printf("WEB: Error creating rule: %v", err)
				c.JSON(400, gin.H{"error": err.Error()})
				return
			}
			c.JSON(201, created)
		})

		rules.PATCH("/:id", func(c *gin.Context) {
			var req webModels.UpdateRuleRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(400, gin.H{"error": "Invalid request"})
				return
			}

			existing, err := store.Get(c.Param("id"))
			if err != nil {
				c.JSON(404, gin.H{"error": "Rule not found"})
				return
			}

			if req.Name != nil {
				existing.Name = *req.Name
			}
			if req.Enabled != nil {
				existing.Enabled = *req.Enabled
			}
			if req.SensorDeviceID != nil {
				existing.SensorDeviceID = *req.SensorDeviceID
			}
			if req.SensorDataType != nil {
				existing.SensorDataType = *req.SensorDataType
			}
			if req.Condition != nil {
				existing.Condition = *req.Condition
			}
			if req.Threshold != nil {
				existing.Threshold = *req.Threshold
			}
			if req.ActionType != nil {
				existing.ActionType = *req.ActionType
			}
			if req.TargetDeviceID != nil {
				existing.TargetDeviceID = *req.TargetDeviceID
			}
			if req.Command != nil {
				existing.Command = *req.Command
			}
			if req.Message != nil {
				existing.Message = *req.Message
			}

			if err := store.Update(c, existing); err != nil {
				log.Printf("WEB: Error updating rule %s: %v", existing.ID, err)
				c.JSON(400, gin.H{"error": err.Error()})
				return
			}
			c.JSON(200, existing)
		})

		rules.POST("/:id/toggle", func(c *gin.Context) {
			enabled, err := store.Toggle(c, c.Param("id"))
			if err != nil {
				if errors.Is(err, rulestore.ErrNotFound) {
					c.JSON(404, gin.H{"error": "Rule not found"})
					return
				}
				log.Printf("WEB: Error toggling rule %s: %v", c.Param("id"), err)
				c.JSON(500, gin.H{"error": "Failed to toggle rule"})
				return
			}
			c.JSON(200, gin.H{"enabled": enabled})
		})

		rules.DELETE("/:id", func(c *gin.Context) {
			if err := store.Delete(c, c.Param("id")); err != nil {
				if errors.Is(err, rulestore.ErrNotFound) {
					c.JSON(404, gin.H{"error": "Rule not found"})
					return
				}
				log.Printf("WEB: Error deleting rule %s: %v", c.Param("id"), err)
				c.JSON(500, gin.H{"error": "Failed to delete rule"})
				return
			}
			c.JSON(200, gin.H{"status": "Rule deleted successfully"})
		})
	}
}
