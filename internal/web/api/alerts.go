package api

import (
	"log"

	"github.com/gin-gonic/gin"

	"iotdash/internal/alerts"
	"iotdash/internal/db"
	"iotdash/internal/models"
	"iotdash/internal/web/middleware"
	webModels "iotdash/internal/web/models"
)

func RegisterAlertRoutes(r *gin.Engine, middleware *middleware.MiddlewareManager, dbConn *db.DB, checker *alerts.Checker) {
	alertsGroup := r.Group("/api/alerts")
	alertsGroup.Use(middleware.RequireAuth())
	{
		alertsGroup.GET("/thresholds", func(c *gin.Context) {
			thresholds, err := dbConn.GetAllSensorThresholds(c)
			if err != nil {
				log.Printf("WEB: Error fetching thresholds: %v", err)
				c.JSON(500, gin.H{"error": "Failed to fetch thresholds"})
				return
			}
			if thresholds == nil {
				thresholds = []models.SensorThreshold{}
			}
			c.JSON(200, thresholds)
		})

		alertsGroup.PUT("/thresholds/:sensor_id", func(c *gin.Context) {
			var req webModels.ThresholdRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(400, gin.H{"error": "Invalid request"})
				return
			}
			t := models.SensorThreshold{
				SensorID:       c.Param("sensor_id"),
				ThresholdValue: req.ThresholdValue,
				Unit:           req.Unit,
			}
			if err := dbConn.UpsertSensorThreshold(c, t); err != nil {
				log.Printf("WEB: Error saving threshold for %s: %v", t.SensorID, err)
				c.JSON(500, gin.H{"error": "Failed to save threshold"})
				return
			}
			c.JSON(200, t)
		})

		alertsGroup.DELETE("/thresholds/:sensor_id", func(c *gin.Context) {
			if err := dbConn.DeleteSensorThreshold(c, c.Param("sensor_id")); err != nil {
				log.Printf("WEB: Error deleting threshold for %s: %v", c.Param("sensor_id"), err)
				c.JSON(500, gin.H{"error": "Failed to delete threshold"})
				return
			}
			c.JSON(200, gin.H{"status": "Threshold deleted"})
		})

		alertsGroup.PUT("/telegram", func(c *gin.Context) {
			var req webModels.TelegramSettingsRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(400, gin.H{"error": "Invalid request"})
				return
			}
			s := models.TelegramSettings{
				BotToken: req.BotToken,
				ChatID:   req.ChatID,
				Enabled:  req.Enabled,
			}
			if err := dbConn.UpsertTelegramSettings(c, s); err != nil {
				log.Printf("WEB: Error saving telegram settings: %v", err)
				c.JSON(500, gin.H{"error": "Failed to save settings"})
				return
			}
			c.JSON(200, gin.H{"status": "Settings saved"})
		})

		// On-demand check of one sensor snapshot, mirroring the alert
		// collaborator's request/response shape
		alertsGroup.POST("/check", func(c *gin.Context) {
			var req webModels.CheckSensorRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(400, gin.H{"error": "Invalid request"})
				return
			}
			status, err := checker.CheckSensor(c, req.SensorData)
			if err != nil {
				log.Printf("WEB: Error checking sensor %s: %v", req.SensorData.ID, err)
				c.JSON(500, gin.H{"error": "Alert check failed"})
				return
			}
			c.JSON(200, gin.H{"message": status})
		})
	}
}
