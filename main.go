package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"marketplace-chat/internal/auth"
	"marketplace-chat/internal/db"
	"marketplace-chat/internal/handlers"
	"marketplace-chat/internal/middleware"
	"marketplace-chat/internal/observability"
	"marketplace-chat/internal/repositories"
	"marketplace-chat/internal/telemetry"
	"marketplace-chat/internal/ws"
)

const serviceName = "marketplace-chat"

func main() {
	database, err := db.Connect()
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}

	shutdownTracing, err := observability.SetupTracing(context.Background(), serviceName)
	if err != nil {
		log.Fatalf("failed to set up tracing: %v", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Printf("tracing shutdown error: %v", err)
		}
	}()

	publisher := observability.NewPublisher(getEnv("AMQP_URL", ""), getEnv("AMQP_EXCHANGE", "marketplace.events"))
	defer publisher.Close()
	observability.SetPublisher(publisher)

	verifier := auth.NewVerifier(getEnv("JWT_SECRET", "dev_secret_change_me"), serviceName)

	userRepo := repositories.NewUserRepo(database)
	messageRepo := repositories.NewMessageRepo(database)

	hub := ws.NewHub()
	audit := telemetry.NewAuditEmitter(publisher, "audit.moderation", serviceName, getEnv("ENVIRONMENT", "development"))

	chatWS := ws.NewChatWebSocketHandler(hub, userRepo, messageRepo, verifier)
	adminHandler := handlers.NewAdminHandler(userRepo, messageRepo, hub, audit)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(observability.HTTPMetricsMiddleware())

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authMiddleware := middleware.AuthMiddleware(verifier)

	admin := router.Group("/admin", authMiddleware, middleware.RequireRole("admin"))
	admin.POST("/users/:id/ban", adminHandler.BanUser)
	admin.POST("/users/:id/unban", adminHandler.UnbanUser)
	admin.POST("/users/:id/chat-mute", adminHandler.MuteUser)
	admin.POST("/users/:id/chat-unmute", adminHandler.UnmuteUser)
	admin.POST("/chat/:id/delete", adminHandler.DeleteMessage)

	router.GET("/ws/chat", chatWS.Handle)

	port := getEnv("PORT", "8083")
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}
