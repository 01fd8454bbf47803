package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	LLMProvider     string // "gemini" or "openai"
	GeminiAPIKey    string
	OpenAIAPIKey    string
	ModelName       string
	DatabaseURL     string
	ExportDir       string
	HTTPPort        string
	LogLevel        string
	JWTSecret       string
	GreetingDelayMS int
	LLMTimeoutSec   int
}

var AppConfig Config

func LoadConfig() {
	err := godotenv.Load() // Load .env file if it exists
	if err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	AppConfig = Config{
		LLMProvider:     getEnv("LLM_PROVIDER", "gemini"),
		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		ModelName:       getEnv("MODEL_NAME", ""),
		DatabaseURL:     getEnv("DATABASE_URL", "companion.db"),
		ExportDir:       getEnv("EXPORT_DIR", ""),
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		LogLevel:        getEnv("LOG_LEVEL", "INFO"),
		JWTSecret:       getEnv("JWT_SECRET", ""),
		GreetingDelayMS: getEnvAsInt("GREETING_DELAY_MS", 600),
		LLMTimeoutSec:   getEnvAsInt("LLM_TIMEOUT_SEC", 60),
	}

	switch AppConfig.LLMProvider {
	case "gemini":
		if AppConfig.GeminiAPIKey == "" {
			log.Fatal("GEMINI_API_KEY environment variable is required")
		}
	case "openai":
		if AppConfig.OpenAIAPIKey == "" {
			log.Fatal("OPENAI_API_KEY environment variable is required")
		}
	default:
		log.Fatalf("Unknown LLM_PROVIDER %q (expected gemini or openai)", AppConfig.LLMProvider)
	}

	if AppConfig.JWTSecret == "" {
		log.Fatal("JWT_SECRET environment variable is required")
	}
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}
