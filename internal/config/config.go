package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendMongo  = "mongo"
	BackendMemory = "memory"
)

type Config struct {
	Port             string
	JWTSecret        string
	MongoURI         string
	DBName           string
	SkipAuth         bool
	Environment      string
	AppId            string
	Backend          string // mongo or memory
	WorkspaceID      string
	PluginDir        string // Directory scanned for *.tengo custom commands
	FixturesFile     string // JSON seed for the memory backend and cmd/seed
	SchedulerEnabled bool
	CommandTimeout   time.Duration
	DBLogLevel       string
	CORSOrigins      string

	// Scheduled export delivery; exports are only logged when SMTPHost is empty.
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	MailFrom     string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	} else {
		log.Println("Loaded .env file successfully")
	}

	timeout, err := time.ParseDuration(getEnv("COMMAND_TIMEOUT", "30s"))
	if err != nil {
		return nil, err
	}

	smtpPort, err := strconv.Atoi(getEnv("SMTP_PORT", "587"))
	if err != nil {
		return nil, err
	}

	return &Config{
		Port:             getEnv("PORT", "8080"),
		JWTSecret:        getEnv("JWT_SECRET", "secret"),
		MongoURI:         getEnv("MONGO_URI", "mongodb://localhost:27017"),
		DBName:           getEnv("DB_NAME", "go-dashboard"),
		SkipAuth:         getEnv("SKIP_AUTH", "false") == "true",
		Environment:      getEnv("ENVIRONMENT", "development"),
		AppId:            getEnv("APP_ID", "go-dashboard"),
		Backend:          strings.ToLower(getEnv("BACKEND", BackendMongo)),
		WorkspaceID:      getEnv("WORKSPACE_ID", "default"),
		PluginDir:        getEnv("PLUGIN_DIR", "./plugins"),
		FixturesFile:     getEnv("FIXTURES_FILE", ""),
		SchedulerEnabled: getEnv("SCHEDULER_ENABLED", "true") == "true",
		CommandTimeout:   timeout,
		DBLogLevel:       getEnv("DB_LOG_LEVEL", "warn"),
		CORSOrigins:      getEnv("CORS_ORIGINS", "http://localhost:3000"),
		SMTPHost:         getEnv("SMTP_HOST", ""),
		SMTPPort:         smtpPort,
		SMTPUser:         getEnv("SMTP_USER", ""),
		SMTPPassword:     getEnv("SMTP_PASSWORD", ""),
		MailFrom:         getEnv("MAIL_FROM", ""),
	}, nil
}

// UsesMongo reports whether dashboards and automations live in MongoDB.
func (c *Config) UsesMongo() bool {
	return c.Backend != BackendMemory
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
