package api

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"iotdash/internal/backend"
	"iotdash/internal/ingest"
	"iotdash/internal/web/middleware"
)

func RegisterDeviceRoutes(r *gin.Engine, middleware *middleware.MiddlewareManager, client *backend.Client, redisClient *redis.Client) {
	devices := r.Group("/api/devices")
	devices.Use(middleware.RequireAuth())
	{
		devices.GET("", func(c *gin.Context) {
			list, err := client.ListDevices(c)
			if err != nil {
				log.Printf("WEB: Error fetching devices: %v", err)
				c.JSON(502, gin.H{"error": "Failed to fetch devices"})
				return
			}
			c.JSON(200, list)
		})

		devices.GET("/commandable", func(c *gin.Context) {
			list, err := client.ListControllableDevices(c)
			if err != nil {
				log.Printf("WEB: Error fetching controllable devices: %v", err)
				c.JSON(502, gin.H{"error": "Failed to fetch devices"})
				return
			}
			c.JSON(200, list)
		})

		devices.GET("/:id", func(c *gin.Context) {
			device, err := client.GetDeviceDetails(c, c.Param("id"))
			if err != nil {
				log.Printf("WEB: Error fetching device %s: %v", c.Param("id"), err)
				c.JSON(502, gin.H{"error": "Failed to fetch device"})
				return
			}
			c.JSON(200, device)
		})

		devices.GET("/:id/readings", func(c *gin.Context) {
			timeRange := c.DefaultQuery("range", "24h")
			dataType := c.Query("type")
			readings, err := client.GetReadings(c, c.Param("id"), timeRange, dataType)
			if err != nil {
				log.Printf("WEB: Error fetching readings for %s: %v", c.Param("id"), err)
				c.JSON(502, gin.H{"error": "Failed to fetch readings"})
				return
			}
			c.JSON(200, readings)
		})

		// Latest value from the MQTT ingest cache, no backend round trip
		devices.GET("/:id/latest", func(c *gin.Context) {
			dataType := c.Query("type")
			if dataType == "" {
				c.JSON(400, gin.H{"error": "type query parameter is required"})
				return
			}
			value, ok := ingest.LatestValue(c, redisClient, c.Param("id"), dataType)
			if !ok {
				c.JSON(404, gin.H{"error": "No live value cached"})
				return
			}
			c.JSON(200, gin.H{"value": value})
		})
	}
}
