package config

import (
	"os"
	"strconv"
	"strings"
)

// Config содержит конфигурацию приложения.
type Config struct {
	Environment string
	Server      ServerConfig
	AI          AIConfig
	CORS        CORSConfig
	JWT         JWTConfig
	Firebase    FirebaseConfig
}

// ServerConfig содержит конфигурацию HTTP сервера.
type ServerConfig struct {
	Port                int
	BasePath            string
	ReadTimeoutSeconds  int
	WriteTimeoutSeconds int
	IdleTimeoutSeconds  int
}

// AIConfig содержит конфигурацию для AI API. Пустой APIKey не является
// ошибкой: сервер работает, а генерируемые комнаты заменяются резервными.
type AIConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	Timeout     int
	MaxAttempts int
}

// CORSConfig содержит конфигурацию CORS.
type CORSConfig struct {
	AllowedOrigins []string
}

// JWTConfig содержит конфигурацию JWT.
type JWTConfig struct {
	Secret            string
	ExpirationMinutes int
}

// FirebaseConfig содержит настройки подключения к Firestore. Пустой
// CredentialsFile отключает персистентность.
type FirebaseConfig struct {
	ProjectID       string
	CredentialsFile string
}

// Load загружает конфигурацию из переменных окружения.
func Load(env string) (Config, error) {
	cfg := Config{
		Environment: env,
		Server: ServerConfig{
			Port:                getEnvInt("SERVER_PORT", 8080),
			BasePath:            getEnvStr("SERVER_BASE_PATH", "/api"),
			ReadTimeoutSeconds:  getEnvInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeoutSeconds: getEnvInt("SERVER_WRITE_TIMEOUT", 180),
			IdleTimeoutSeconds:  getEnvInt("SERVER_IDLE_TIMEOUT", 60),
		},
		AI: AIConfig{
			APIKey:      getEnvStr("AI_API_KEY", ""),
			Model:       getEnvStr("AI_MODEL", "deepseek/deepseek-chat-v3-0324:free"),
			BaseURL:     getEnvStr("AI_BASE_URL", "https://openrouter.ai/api/v1"),
			Timeout:     getEnvInt("AI_TIMEOUT", 120),
			MaxAttempts: getEnvInt("AI_MAX_ATTEMPTS", 3),
		},
		CORS: CORSConfig{
			AllowedOrigins: strings.Split(getEnvStr("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:8080"), ","),
		},
		JWT: JWTConfig{
			Secret:            getEnvStr("JWT_SECRET", ""),
			ExpirationMinutes: getEnvInt("JWT_EXPIRATION_MINUTES", 60),
		},
		Firebase: FirebaseConfig{
			ProjectID:       getEnvStr("FIREBASE_PROJECT_ID", ""),
			CredentialsFile: getEnvStr("FIREBASE_CREDENTIALS_FILE", ""),
		},
	}

	return cfg, nil
}

// getEnvStr возвращает строковое значение переменной окружения или значение по умолчанию.
func getEnvStr(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
