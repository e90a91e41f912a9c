package web

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"iotdash/auth"
	"iotdash/internal/alerts"
	"iotdash/internal/backend"
	"iotdash/internal/control"
	"iotdash/internal/db"
	"iotdash/internal/notify"
	"iotdash/internal/rulestore"
	"iotdash/internal/web/api"
	"iotdash/internal/web/middleware"
)

type WebServer struct {
	router *gin.Engine
}

func NewWebServer(
	pgPool *pgxpool.Pool,
	dbConn *db.DB,
	redisClient *redis.Client,
	backendClient *backend.Client,
	ruleStore *rulestore.RuleStore,
	reconciler *control.Reconciler,
	checker *alerts.Checker,
	hub *notify.Hub,
	JWTSecret string,
) *WebServer {
	router := gin.Default()

	authModule := auth.NewAuthModule(pgPool, JWTSecret)
	middlewareManager := middleware.NewMiddlewareManager(authModule)

	api.RegisterAuthRoutes(router, authModule)
	api.RegisterDeviceRoutes(router, middlewareManager, backendClient, redisClient)
	api.RegisterRuleRoutes(router, middlewareManager, ruleStore)
	api.RegisterWidgetRoutes(router, middlewareManager, reconciler)
	api.RegisterAlertRoutes(router, middlewareManager, dbConn, checker)

	// Live notification feed for the dashboard's toast channel
	router.GET("/ws/events", func(c *gin.Context) {
		hub.HandleWS(c.Writer, c.Request)
	})

	return &WebServer{router: router}
}

func (ws *WebServer) Start(addr string) {
	ws.router.Run(addr)
}
