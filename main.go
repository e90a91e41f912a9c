package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"iotdash/internal/alerts"
	"iotdash/internal/backend"
	"iotdash/internal/bridge"
	"iotdash/internal/config"
	"iotdash/internal/control"
	"iotdash/internal/db"
	"iotdash/internal/evaluator"
	"iotdash/internal/ingest"
	"iotdash/internal/mqtt"
	"iotdash/internal/notify"
	"iotdash/internal/redis"
	"iotdash/internal/rulestore"
	"iotdash/internal/scheduler"
	"iotdash/internal/storage"
	"iotdash/internal/taskqueue"
	"iotdash/internal/web"

	"github.com/pion/mdns/v2"
	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
)

func main() {
	cfg, err := config.LoadConfig()

	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	dbConn, err := db.NewDB(cfg.DBURL)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer dbConn.Close(context.Background())

	if err := dbConn.EnsureSchema(context.Background()); err != nil {
		log.Fatalf("Failed to ensure DB schema: %v", err)
	}

	redisClient := redis.NewRedisClient(cfg.RedisAddr)

	mqttClient, err := mqtt.NewMQTTClient(cfg.MQTTBroker, cfg.MQTTClientID)
	if err != nil {
		log.Fatalf("Failed to connect to MQTT: %v", err)
	}

	taskqueue.SetGlobalInstances(dbConn)

	go taskqueue.StartWorkers(cfg.RedisAddr)

	backendClient := backend.NewClient(cfg.BackendURL)
	store := storage.NewRedisStore(redisClient)

	hub := notify.NewHub()
	notifier := notify.Multi{notify.LogNotifier{}, hub}

	ruleStore := rulestore.New(store)
	if err := ruleStore.Load(context.Background()); err != nil {
		log.Fatalf("Failed to load automation rules: %v", err)
	}

	reconciler := control.New(store, backendClient, backendClient, notifier)
	if err := reconciler.Load(context.Background()); err != nil {
		log.Fatalf("Failed to load control widgets: %v", err)
	}

	eval := evaluator.New(backendClient, ruleStore, notifier, taskqueue.Enqueuer{})
	eval.Start()

	checker := alerts.NewChecker(dbConn, taskqueue.Enqueuer{}, backendClient)

	sched := scheduler.NewScheduler()
	if err := sched.AddJob("alert-sweep", cfg.AlertCron, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		checker.Sweep(ctx)
	}); err != nil {
		log.Fatalf("Failed to schedule alert sweep: %v", err)
	}
	sched.Start()

	ingestor := ingest.New(mqttClient, redisClient)
	if err := ingestor.Start(); err != nil {
		log.Fatalf("Failed to start MQTT ingest: %v", err)
	}

	webServer := web.NewWebServer(dbConn.Pool(), dbConn, redisClient, backendClient,
		ruleStore, reconciler, checker, hub, cfg.JWTSecret)
	go webServer.Start(fmt.Sprintf(":%d", cfg.Port))

	// Start mDNS server
	go startMDNSServer(cfg.MDNSLocalName)

	// Start remote access bridge if enabled
	if cfg.RemoteEnabled {
		go bridge.Start(bridge.Config{
			PublicWS:   cfg.RemotePublicWS,
			LocalURL:   fmt.Sprintf("http://127.0.0.1:%d", cfg.Port),
			AgentID:    cfg.AgentID,
			RetryDelay: time.Duration(cfg.RemoteRetrySec) * time.Second,
		})
	} else {
		log.Println("Remote access bridge is disabled")
	}

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	eval.Stop()
	sched.Stop()
	ingestor.Stop()
	taskqueue.StopWorkers()
	log.Println("Shutdown complete")
}

func startMDNSServer(localName string) {
	addr4, err := net.ResolveUDPAddr("udp4", mdns.DefaultAddressIPv4)
	if err != nil {
		log.Println("Failed to resolve UDP4 address for mDNS:", err)
		return
	}

	addr6, err := net.ResolveUDPAddr("udp6", mdns.DefaultAddressIPv6)
	if err != nil {
		log.Println("Failed to resolve UDP6 address for mDNS:", err)
		return
	}

	l4, err := net.ListenUDP("udp4", addr4)
	if err != nil {
		log.Println("Failed to listen on UDP4 for mDNS:", err)
		return
	}

	l6, err := net.ListenUDP("udp6", addr6)
	if err != nil {
		log.Println("Failed to listen on UDP6 for mDNS:", err)
		return
	}

	_, err = mdns.Server(ipv4.NewPacketConn(l4), ipv6.NewPacketConn(l6), &mdns.Config{
		LocalNames: []string{localName},
	})
	if err != nil {
		log.Println("Failed to start mDNS server:", err)
		return
	}

	log.Println("mDNS server started for", localName)
}
