package controllers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"rescuereach/models"
	"rescuereach/services"
	"rescuereach/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const apiVersion = "1.0.0"

type HealthController struct {
	mongoClient   *mongo.Client
	redisClient   *redis.Client
	deviceService *services.DeviceService
	startTime     time.Time
}

func NewHealthController(mongoClient *mongo.Client, redisClient *redis.Client, deviceService *services.DeviceService) *HealthController {
	return &HealthController{
		mongoClient:   mongoClient,
		redisClient:   redisClient,
		deviceService: deviceService,
		startTime:     time.Now(),
	}
}

// HealthCheck reports liveness of the server and its backing stores
func (hc *HealthController) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	statuses := map[string]string{
		"mongodb": "up",
		"redis":   "up",
	}
	overall := "healthy"

	if err := hc.mongoClient.Ping(ctx, readpref.Primary()); err != nil {
		statuses["mongodb"] = "down"
		overall = "degraded"
	}
	if err := hc.redisClient.Ping(ctx).Err(); err != nil {
		statuses["redis"] = "down"
		overall = "degraded"
	}

	status := http.StatusOK
	if overall != "healthy" {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, models.HealthResponse{
		Status:    overall,
		Timestamp: time.Now(),
		Services:  statuses,
		Version:   apiVersion,
		Uptime:    utils.FormatDuration(time.Since(hc.startTime)),
	})
}

// SystemStats reports host resource usage alongside connectivity
func (hc *HealthController) SystemStats(c *gin.Context) {
	snapshot := hc.deviceService.Snapshot()

	utils.SuccessResponse(c, "System stats retrieved", gin.H{
		"device":  snapshot,
		"online":  hc.deviceService.IsOnline(c.Request.Context()),
		"uptime":  utils.FormatDuration(time.Since(hc.startTime)),
		"version": apiVersion,
	})
}

// APIInfo describes the service for unauthenticated probes
func (hc *HealthController) APIInfo(c *gin.Context) {
	utils.SuccessResponse(c, "RescueReach API", gin.H{
		"name":    "rescuereach",
		"version": apiVersion,
		"docs":    fmt.Sprintf("/api/v%s", apiVersion[:1]),
	})
}
