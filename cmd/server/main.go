package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"

	"escape-server/internal/auth"
	"escape-server/internal/catalog"
	"escape-server/internal/config"
	delivery "escape-server/internal/delivery/http"
	"escape-server/internal/delivery/http/middleware"
	"escape-server/internal/game"
	"escape-server/internal/repository"
	"escape-server/internal/service"
	"escape-server/internal/session"
	"escape-server/pkg/ai"
)

func main() {
	// Загрузка переменных окружения
	if err := godotenv.Load(); err != nil {
		// Логируем как предупреждение, т.к. в production .env может не использоваться
		fmt.Printf("Warning: could not load .env file: %v\n", err)
	}

	// Инициализация логгера
	initLogger()

	// Парсинг флагов командной строки
	env := flag.String("env", "development", "Environment: development, production")
	flag.Parse()

	// Загрузка конфигурации
	cfg, err := config.Load(*env)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Инициализация менеджера токенов
	authManager, err := auth.NewManager(cfg.JWT.Secret, cfg.JWT.ExpirationMinutes)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize JWT manager")
	}

	// Загрузка каталога комнат по умолчанию
	roomCatalog, err := catalog.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load room catalog")
	}
	log.Info().Int("rooms", roomCatalog.Len()).Msg("room catalog loaded")

	// Инициализация Firestore (опционально)
	ctx := context.Background()
	firestoreClient := initFirestore(ctx, cfg.Firebase)
	var gameRepo repository.GameRepository
	if firestoreClient != nil {
		defer firestoreClient.Close()
		gameRepo = repository.NewFirestoreRepository(firestoreClient)
		log.Info().Str("project", cfg.Firebase.ProjectID).Msg("Firestore persistence enabled")
	} else {
		gameRepo = repository.NewNoopRepository()
		log.Warn().Msg("Firestore is not configured, game progress will not be persisted")
	}

	// Инициализация AI клиента (опционально)
	var generator game.ContentGenerator
	var chat service.ChatClient
	if cfg.AI.APIKey != "" {
		aiClient := initAIClient(cfg.AI)
		generator = aiClient
		chat = aiClient
	} else {
		log.Warn().Msg("AI_API_KEY is not set, generated sessions will use fallback rooms")
	}

	// Хранилище сессий и игровой сервис
	sessionStore := session.NewMemoryStore()
	gameService := service.NewGameService(roomCatalog, generator, cfg.AI.APIKey, sessionStore, gameRepo, chat)

	// Инициализация HTTP обработчиков
	handlers := delivery.New(gameService, authManager)

	// Настройка маршрутов
	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	publicRouter := router.PathPrefix(cfg.Server.BasePath).Subrouter()
	handlers.RegisterPublicRoutes(publicRouter)

	apiRouter := router.PathPrefix(cfg.Server.BasePath).Subrouter()
	apiRouter.Use(loggingMiddleware)
	apiRouter.Use(middleware.JWTMiddleware(authManager))
	handlers.RegisterRoutes(apiRouter)

	// Настройка CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	// Создание HTTP сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      c.Handler(router),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeoutSeconds) * time.Second,
	}

	// Запуск сервера в горутине
	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Настройка плавного завершения
	gracefulShutdown(server)
}

// initLogger настраивает глобальный логгер.
func initLogger() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.With().Caller().Logger()

	// В режиме разработки используем более читаемый вывод
	if os.Getenv("ENV") != "production" {
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		log.Logger = zerolog.New(output).With().Timestamp().Caller().Logger()
	}

	// Настройка уровня логирования
	logLevel := zerolog.InfoLevel
	if lvl, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		logLevel = lvl
	}
	zerolog.SetGlobalLevel(logLevel)
}

// initFirestore создает клиент Firestore. Возвращает nil, если подключение
// не сконфигурировано; это не фатально.
func initFirestore(ctx context.Context, cfg config.FirebaseConfig) *firestore.Client {
	if cfg.CredentialsFile == "" {
		return nil
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID},
		option.WithCredentialsFile(cfg.CredentialsFile))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize Firebase app")
	}

	client, err := app.Firestore(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize Firestore client")
	}
	return client
}

// initAIClient инициализирует клиент для работы с ИИ-сервисами.
func initAIClient(cfg config.AIConfig) *ai.Client {
	aiCfg := ai.Config{
		APIKey:     cfg.APIKey,
		ModelName:  cfg.Model,
		BaseURL:    cfg.BaseURL,
		Timeout:    cfg.Timeout,
		MaxRetries: cfg.MaxAttempts,
	}
	client, err := ai.New(aiCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize AI client")
	}
	return client
}

// loggingMiddleware внедряет настроенный логгер в контекст запроса.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxWithLogger := log.Logger.WithContext(r.Context())
		next.ServeHTTP(w, r.WithContext(ctxWithLogger))
	})
}

// gracefulShutdown обеспечивает плавное завершение работы сервера.
func gracefulShutdown(server *http.Server) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}

	log.Info().Msg("server stopped gracefully")
}
