package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort string
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string

	// Lot layout. Slots are numbered [0, TotalSlots).
	TotalSlots int
	RobotPool  []string
	// Home dock the robot returns to after checkout.
	DockX float64
	DockY float64
	DockZ float64

	AWSRegion         string
	SQSSensorQueueURL string
	IoTMQTTEndpoint   string

	JWTSecret          string
	JWTExpirationHours time.Duration
}

func Load() *Config {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: could not load .env file: %v", err)
	}

	dbPort, _ := strconv.Atoi(getEnv("DB_PORT", "5432"))
	totalSlots, _ := strconv.Atoi(getEnv("TOTAL_SLOTS", "10"))
	jwtExpHours, _ := strconv.Atoi(getEnv("JWT_EXPIRATION_HOURS", "24"))

	robotPool := strings.Split(getEnv("ROBOT_POOL", "R1,R2,R3,R4,R5"), ",")
	for i := range robotPool {
		robotPool[i] = strings.TrimSpace(robotPool[i])
	}

	dockX, _ := strconv.ParseFloat(getEnv("DOCK_X", "0"), 64)
	dockY, _ := strconv.ParseFloat(getEnv("DOCK_Y", "0.2"), 64)
	dockZ, _ := strconv.ParseFloat(getEnv("DOCK_Z", "10"), 64)

	return &Config{
		ServerPort: getEnv("SERVER_PORT", "3000"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     dbPort,
		DBUser:     getEnv("DB_USER", "parkhub"),
		DBPassword: getEnv("DB_PASSWORD", "parkhub"),
		DBName:     getEnv("DB_NAME", "parkhub_db"),
		DBSslMode:  getEnv("DB_SSLMODE", "disable"),

		TotalSlots: totalSlots,
		RobotPool:  robotPool,
		DockX:      dockX,
		DockY:      dockY,
		DockZ:      dockZ,

		AWSRegion:         getEnv("AWS_REGION", ""),
		SQSSensorQueueURL: getEnv("SQS_SENSOR_QUEUE_URL", ""),
		IoTMQTTEndpoint:   getEnv("IOT_MQTT_ENDPOINT", ""),

		JWTSecret:          getEnv("JWT_SECRET", "change-me-in-production"),
		JWTExpirationHours: time.Duration(jwtExpHours) * time.Hour,
	}
}

func getEnv(key string, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Environment variable '%s' not set, using default: '%s'", key, fallback)
	return fallback
}
