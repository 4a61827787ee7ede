package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rescuereach/config"
	"rescuereach/controllers"
	"rescuereach/database"
	"rescuereach/middleware"
	"rescuereach/repositories"
	"rescuereach/routes"
	"rescuereach/services"
	"rescuereach/utils"
	ws "rescuereach/websocket"
	"rescuereach/workers"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/db"
	"firebase.google.com/go/v4/messaging"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg := config.Load()

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	setupLogger(cfg)

	// Primary store.
	mongoDB, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logrus.Fatal("Failed to connect to database: ", err)
	}
	defer database.Disconnect()

	// Cache, pointers, queues, pub/sub.
	redisClient := config.InitRedis(cfg)
	defer redisClient.Close()

	// Push and live-status mirror.
	messagingClient, rtdbClient := initFirebase(cfg)

	// Repositories.
	userRepo := repositories.NewUserRepository(mongoDB)
	reportRepo := repositories.NewReportRepository(database.Client(), mongoDB)
	mirror := repositories.NewLiveStatusMirror(rtdbClient, redisClient)
	pointerStore := repositories.NewActivePointerStore(redisClient)
	syncQueue := repositories.NewOfflineSyncQueue(redisClient)
	locationCache := repositories.NewLocationCache(redisClient)

	// Shared utilities.
	jwtService := utils.NewJWTService(cfg.JWTSecret)
	validator := utils.NewValidationService()
	numbers := config.LoadEmergencyNumbers(cfg.EmergencyNumbersFile)

	// External gateways.
	smsService := services.NewSMSService(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioPhoneNumber)
	pushService := services.NewPushService(messagingClient)
	mapsService, err := services.NewMapsService(cfg.GoogleMapsAPIKey, redisClient)
	if err != nil {
		logrus.Fatal("Failed to initialize maps client: ", err)
	}
	deviceService := services.NewDeviceService()

	// SOS pipeline.
	notifier := services.NewNotificationService(pushService, smsService)
	collector := services.NewCollectorService(locationCache, mapsService, deviceService, deviceService, userRepo, cfg)
	resolver := services.NewResolverService(mapsService, numbers, cfg)
	builder := services.NewReportBuilder(collector, resolver)
	router := services.NewRouterService(reportRepo, mirror, notifier, syncQueue, cfg)
	sosService := services.NewSOSService(builder, router, reportRepo, mirror, pointerStore, syncQueue, notifier, validator)
	watcher := services.NewStatusWatcherService(mirror, reportRepo, pointerStore, cfg)
	userService := services.NewUserService(userRepo, jwtService, validator)

	// WebSocket hub.
	hub := ws.NewHub(sosService, watcher, locationCache, jwtService)
	go hub.Run()
	defer hub.Shutdown()

	// Offline report replay.
	syncWorker := workers.NewSyncWorker(reportRepo, mirror, syncQueue, deviceService, notifier, workers.DefaultSyncWorkerConfig())
	syncWorker.Start()
	defer syncWorker.Stop()

	// HTTP surface.
	ctrl := &routes.Controllers{
		Auth:   controllers.NewAuthController(userService),
		User:   controllers.NewUserController(userService),
		SOS:    controllers.NewSOSController(sosService),
		Health: controllers.NewHealthController(database.Client(), redisClient, deviceService),
	}
	authMW := middleware.NewAuthMiddleware(jwtService, userRepo)
	engine := routes.SetupRoutes(ctrl, authMW, hub, redisClient)

	server := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        engine,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    90 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		logrus.Info("RescueReach server starting on port ", cfg.Port)
		logrus.Info("WebSocket endpoint: /ws")
		logrus.Info("Health check: /health")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatal("Failed to start server: ", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logrus.Fatal("Server forced to shutdown: ", err)
	}

	logrus.Info("Server shutdown complete")
}

// initFirebase builds the messaging and realtime-database clients used for
// responder push and the live-status mirror.
func initFirebase(cfg *config.Config) (*messaging.Client, *db.Client) {
	ctx := context.Background()

	var opts []option.ClientOption
	if cfg.FirebaseCredentials != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.FirebaseCredentials))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{DatabaseURL: cfg.FirebaseDatabaseURL}, opts...)
	if err != nil {
		logrus.Fatal("Failed to initialize Firebase app: ", err)
	}

	messagingClient, err := app.Messaging(ctx)
	if err != nil {
		logrus.Fatal("Failed to initialize Firebase messaging: ", err)
	}

	rtdbClient, err := app.Database(ctx)
	if err != nil {
		logrus.Fatal("Failed to initialize Firebase database: ", err)
	}

	return messagingClient, rtdbClient
}

func setupLogger(cfg *config.Config) {
	logrus.SetFormatter(&logrus.JSONFormatter{})

	if cfg.Environment == "development" {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   true,
		})
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
	}
}
