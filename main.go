package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"chat-sync-service/internal/auth"
	"chat-sync-service/internal/config"
	"chat-sync-service/internal/db"
	"chat-sync-service/internal/handlers"
	"chat-sync-service/internal/middleware"
	"chat-sync-service/internal/observability"
	"chat-sync-service/internal/presence"
	"chat-sync-service/internal/rabbitmq"
	"chat-sync-service/internal/repositories"
	"chat-sync-service/internal/routing"
	"chat-sync-service/internal/store"
	"chat-sync-service/internal/telemetry"
	"chat-sync-service/internal/ws"
)

const serviceName = "chat-sync-service"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx := context.Background()
	shutdownTracing, err := telemetry.SetupTracing(ctx, cfg.OTLPEndpoint, serviceName, cfg.Environment)
	if err != nil {
		log.Fatalf("failed to set up tracing: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(shutdownCtx)
	}()

	database, err := db.Connect(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer publisher.Close()
	log.Printf("audit publisher mode=%s", rabbitmq.PublisherMode(publisher))
	audit := telemetry.NewAuditEmitter(publisher, "audit_log.chat", serviceName, cfg.Environment)

	archive := repositories.NewArchiveRepo(database)

	messageStore := store.NewMemoryStore()
	if lastID, err := archive.MaxMessageID(ctx); err != nil {
		log.Printf("could not seed message ids from archive: %v", err)
	} else {
		messageStore.Seed(lastID)
	}

	registry := presence.NewRegistry()
	hub := ws.NewHub()
	engine := routing.NewEngine(messageStore, registry, hub, archive)

	verifier := auth.NewVerifier(cfg.TokenSecret)
	gateway := ws.NewGateway(hub, engine, verifier, audit, cfg.SendQueueSize)
	historyHandler := handlers.NewHistoryHandler(archive, engine, audit, cfg.HistoryLimit)

	router := gin.Default()

	// middlewares
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(observability.HTTPMetricsMiddleware())

	authMiddleware := middleware.AuthMiddleware(verifier)

	router.GET("/messages", authMiddleware, historyHandler.ListMessages)
	router.GET("/stats", authMiddleware, historyHandler.Stats)
	router.DELETE("/admin/messages/:message_id", authMiddleware, historyHandler.AdminDeleteMessage)

	router.GET("/ws", gateway.Handle)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
