package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/naormeit/ParkHub-Vision-Robotics/internal/api"
	"github.com/naormeit/ParkHub-Vision-Robotics/internal/api/handler"
	"github.com/naormeit/ParkHub-Vision-Robotics/internal/api/middleware"
	"github.com/naormeit/ParkHub-Vision-Robotics/internal/config"
	"github.com/naormeit/ParkHub-Vision-Robotics/internal/domain"
	"github.com/naormeit/ParkHub-Vision-Robotics/internal/ingest"
	"github.com/naormeit/ParkHub-Vision-Robotics/internal/repository/postgresql"
	"github.com/naormeit/ParkHub-Vision-Robotics/internal/service"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsgo_config "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/iotdataplane"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

func main() {
	// 1. Load configuration
	cfg := config.Load()
	log.Println("Configuration loaded.")

	// 2. Database connection
	db, err := postgresql.NewDB(cfg)
	if err != nil {
		log.Fatalf("Could not connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connection established.")

	// 3. AWS SDK config and clients. SQS feeds sensor events from field
	// devices; IoT Data Plane publishes robot dispatch commands. Both are
	// optional for local development.
	var sqsClient *sqs.Client
	var iotDataPlaneClient *iotdataplane.Client
	if cfg.AWSRegion != "" {
		awsSDKCfg, err := awsgo_config.LoadDefaultConfig(context.TODO(), awsgo_config.WithRegion(cfg.AWSRegion))
		if err != nil {
			log.Fatalf("Could not load AWS SDK config: %v", err)
		}
		log.Println("AWS SDK config loaded for region:", cfg.AWSRegion)

		sqsClient = sqs.NewFromConfig(awsSDKCfg)
		iotDataPlaneClient = iotdataplane.NewFromConfig(awsSDKCfg, func(o *iotdataplane.Options) {
			if cfg.IoTMQTTEndpoint != "" {
				endpointWithSchema := cfg.IoTMQTTEndpoint
				if !strings.HasPrefix(endpointWithSchema, "https://") && !strings.HasPrefix(endpointWithSchema, "http://") {
					endpointWithSchema = "https://" + endpointWithSchema
				}
				o.BaseEndpoint = aws.String(endpointWithSchema)
			}
		})
		log.Println("SQS client and IoT Data Plane client initialized.")
	} else {
		log.Println("WARNING: AWS_REGION not configured. SQS ingest and robot command publishing disabled.")
	}

	// 4. Repositories
	driverRepo := postgresql.NewPgDriverRepository(db)
	reservationRepo := postgresql.NewPgReservationRepository(db)
	sensorRepo := postgresql.NewPgSensorEventRepository(db)
	accountRepo := postgresql.NewPgAccountRepository(db)

	// 5. WebSocket manager for live dashboards
	webSocketManager := handler.NewWebSocketManager()
	go webSocketManager.Start()
	log.Println("WebSocket manager started.")

	// 6. Services
	returnDock := domain.Vec3{X: cfg.DockX, Y: cfg.DockY, Z: cfg.DockZ}
	authService := service.NewAuthService(accountRepo, cfg.JWTSecret, cfg.JWTExpirationHours)
	reservationService := service.NewReservationService(driverRepo, reservationRepo, sensorRepo,
		cfg.TotalSlots, cfg.RobotPool, returnDock)
	sensorService := service.NewSensorService(sensorRepo)
	dispatchService := service.NewDispatchService(iotDataPlaneClient)

	// 7. Auth middleware
	authMiddleware := middleware.NewAuthMiddleware(authService)

	// 8. SQS consumer
	var wg sync.WaitGroup
	consumerCtx, cancelConsumer := context.WithCancel(context.Background())

	runConsumer := sqsClient != nil && cfg.SQSSensorQueueURL != ""
	if !runConsumer {
		log.Println("WARNING: SQS_SENSOR_QUEUE_URL not configured. SQS consumer will not run.")
	} else {
		sqsConsumer := ingest.NewSQSConsumer(sqsClient, cfg, sensorService)
		wg.Add(1)
		go func() {
			defer wg.Done()
			sqsConsumer.Start(consumerCtx)
			log.Println("SQS consumer stopped.")
		}()
	}

	// 9. HTTP router and server
	router := api.SetupRouter(authService, reservationService, sensorService, dispatchService,
		authMiddleware, webSocketManager)

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	go func() {
		log.Printf("Server listening on port %s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("ListenAndServe(): %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	cancelConsumer()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shut down: %v", err)
	}

	if runConsumer {
		log.Println("Waiting for SQS consumer to stop (up to 5 seconds)...")
		c := make(chan struct{})
		go func() {
			defer close(c)
			wg.Wait()
		}()
		select {
		case <-c:
			log.Println("SQS consumer fully stopped.")
		case <-time.After(5 * time.Second):
			log.Println("SQS consumer did not stop within the grace period.")
		}
	}

	log.Println("Server exited.")
}
