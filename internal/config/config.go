package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerAddr string
	DBDSN      string

	// AI provider
	AIProvider    string
	OpenAIBaseURL string
	OpenAIAPIKey  string
	OpenAIModel   string
	OllamaBaseURL string
	OllamaModel   string

	// Last N turns sent to the model as context.
	HistoryWindow int

	// Background persistence queue. Empty RabbitURL means in-process.
	RabbitURL   string
	RabbitQueue string
	TaskWorkers int

	// Per-user rate limit on chat endpoints. Empty RedisAddr disables it.
	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	RateLimitPerMinute int

	// Optional bearer-token gate. Empty secret disables it.
	AuthJWTSecret string
}

func Load() Config {
	_ = godotenv.Load()

	return Config{
		ServerAddr: getenv("SERVER_ADDR", ":8000"),
		DBDSN: getenv("DB_DSN",
			"app:apppass@tcp(127.0.0.1:3306)/assistant?charset=utf8mb4&parseTime=true&loc=Local"),

		AIProvider:    getenv("AI_PROVIDER", "openai"),
		OpenAIBaseURL: getenv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:   getenv("OPENAI_MODEL", "gpt-3.5-turbo"),
		OllamaBaseURL: getenv("OLLAMA_BASE_URL", "http://localhost:11434"),
		OllamaModel:   getenv("OLLAMA_MODEL", "llama3:latest"),

		HistoryWindow: getint("CHAT_HISTORY_WINDOW", 5),

		RabbitURL:   os.Getenv("RABBIT_URL"),
		RabbitQueue: getenv("RABBIT_QUEUE", "persist_tasks"),
		TaskWorkers: getint("TASK_WORKERS", 4),

		RedisAddr:          os.Getenv("REDIS_ADDR"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		RedisDB:            getint("REDIS_DB", 0),
		RateLimitPerMinute: getint("RATE_LIMIT_PER_MINUTE", 60),

		AuthJWTSecret: os.Getenv("AUTH_JWT_SECRET"),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getint(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
