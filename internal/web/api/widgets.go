package api

import (
	"errors"
	"log"

	"github.com/gin-gonic/gin"

	"iotdash/internal/control"
	"iotdash/internal/web/middleware"
	webModels "iotdash/internal/web/models"
)

func widgetErrorStatus(err error) int {
	switch {
	case errors.Is(err, control.ErrNotFound):
		return 404
	case errors.Is(err, control.ErrDeviceOffline), errors.Is(err, control.ErrBusy),
		errors.Is(err, control.ErrAlreadyAdded), errors.Is(err, control.ErrNotControllable):
		return 409
	default:
		return 502
	}
}

func RegisterWidgetRoutes(r *gin.Engine, middleware *middleware.MiddlewareManager, reconciler *control.Reconciler) {
	widgets := r.Group("/api/widgets")
	widgets.Use(middleware.RequireAuth())
	{
		widgets.GET("", func(c *gin.Context) {
			list := reconciler.Widgets()
			out := make([]gin.H, 0, len(list))
			for _, w := range list {
				out = append(out, gin.H{
					"id":           w.ID,
					"device":       w.Device,
					"control_type": w.ControlType,
					"on":           w.On,
					"level":        w.Level,
					"sending":      reconciler.Sending(w.ID),
				})
			}
			c.JSON(200, out)
		})

		widgets.GET("/available", func(c *gin.Context) {
			devices, err := reconciler.AvailableDevices(c)
			if err != nil {
				log.Printf("WEB: Error listing available devices: %v", err)
				c.JSON(502, gin.H{"error": "Failed to load devices. Check if the backend is running."})
				return
			}
			c.JSON(200, devices)
		})

		widgets.POST("", func(c *gin.Context) {
			var req webModels.AddWidgetRequest
			if err := c.ShouldBindJSON(&req); err != nil || req.DeviceID == "" {
				c.JSON(400, gin.H{"error": "Invalid request"})
				return
			}
			widget, err := reconciler.Add(c, req.DeviceID)
			if err != nil {
				log.Printf("WEB: Error adding widget for %s: %v", req.DeviceID, err)
				c.JSON(widgetErrorStatus(err), gin.H{"error": err.Error()})
				return
			}
			c.JSON(201, widget)
		})

		widgets.DELETE("/:id", func(c *gin.Context) {
			if err := reconciler.Remove(c, c.Param("id")); err != nil {
				c.JSON(widgetErrorStatus(err), gin.H{"error": err.Error()})
				return
			}
			c.JSON(200, gin.H{"status": "Control removed"})
		})

		widgets.POST("/:id/toggle", func(c *gin.Context) {
			var req webModels.ToggleWidgetRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(400, gin.H{"error": "Invalid request"})
				return
			}
			if err := reconciler.Toggle(c, c.Param("id"), req.State); err != nil {
				c.JSON(widgetErrorStatus(err), gin.H{"error": err.Error()})
				return
			}
			c.JSON(200, gin.H{"state": req.State})
		})

		widgets.POST("/:id/level", func(c *gin.Context) {
			var req webModels.WidgetLevelRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(400, gin.H{"error": "Invalid request"})
				return
			}
			var err error
			if req.Commit {
				err = reconciler.CommitLevel(c, c.Param("id"), req.Value)
			} else {
				err = reconciler.SetLevel(c, c.Param("id"), req.Value)
			}
			if err != nil {
				c.JSON(widgetErrorStatus(err), gin.H{"error": err.Error()})
				return
			}
			c.JSON(200, gin.H{"value": req.Value, "committed": req.Commit})
		})
	}
}
