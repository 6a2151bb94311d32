package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"printshop/internal/config"
	"printshop/internal/database"
	"printshop/internal/handlers"
	"printshop/internal/kafka"
	"printshop/internal/logger"
	"printshop/internal/models"
	"printshop/internal/redis"
	"printshop/internal/services"
)

// Фабричные функции для подключения внешних сервисов (подменяемые в тестах).
var (
	dbConnect        = database.Connect
	redisConnect     = redis.Connect
	newKafkaProducer = kafka.NewProducer
	newKafkaConsumer = kafka.NewConsumer
	kafkaHealthCheck = handlers.CheckKafkaHealth
	loadConfig       = config.Load
	newLogger        = logger.New
)

// application агрегирует собранные зависимости.
type application struct {
	cfg      *config.Config
	log      *logger.Logger
	db       *database.DB
	redis    *redis.Client
	producer *kafka.Producer
	consumer *kafka.Consumer
	mux      *http.ServeMux
	server   *http.Server
}

func main() {
	app, err := buildApplication()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build app: %v\n", err)
		os.Exit(1)
	}
	app.log.Info("Starting print shop server...")

	go func() {
		app.log.WithField("address", app.server.Addr).Info("HTTP server starting")
		if err := app.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.log.WithError(err).Fatal("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	app.log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_ = app.consumer.Stop()
	if err := app.server.Shutdown(ctx); err != nil {
		app.log.WithError(err).Error("Server forced to shutdown")
	}
	_ = app.producer.Close()
	_ = app.redis.Close()
	_ = app.db.Close()
	app.log.Info("Server exited")
}

// buildApplication создает все зависимости (подменяемые в тестах).
func buildApplication() (*application, error) {
	cfg := loadConfig()
	log := newLogger(&cfg.Logger)

	db, err := dbConnect(&cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}

	redisClient, err := redisConnect(&cfg.Redis, log)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("redis connect: %w", err)
	}

	producer, err := newKafkaProducer(&cfg.Kafka, log)
	if err != nil {
		_ = redisClient.Close()
		_ = db.Close()
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	consumer, err := newKafkaConsumer(&cfg.Kafka, log)
	if err != nil {
		_ = producer.Close()
		_ = redisClient.Close()
		_ = db.Close()
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}

	tokenService := services.NewTokenService(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLHours)*time.Hour)
	authService := services.NewAuthService(db, log, tokenService, cfg.Auth.BcryptCost, cfg.Auth.AdminPassword)
	userService := services.NewUserService(db, log)
	discountService := services.NewDiscountService(db, log)
	orderService := services.NewOrderService(db, log, discountService)
	rateLimiter := services.NewRateLimiter(redisClient, log, &cfg.RateLimit)

	authHandler := handlers.NewAuthHandler(authService, log)
	orderHandler := handlers.NewOrderHandler(orderService, producer, redisClient, log)
	discountHandler := handlers.NewDiscountHandler(discountService, producer, log)
	userHandler := handlers.NewUserHandler(userService, producer, redisClient, log)
	healthHandler := handlers.NewHealthHandler(db, redisClient, cfg.Kafka.Brokers, kafkaHealthCheck)
	rateLimitHandler := handlers.NewRateLimitHandler(rateLimiter, log, &cfg.RateLimit)

	registerEventHandlers(consumer, log)
	if err := consumer.Start(); err != nil {
		_ = consumer.Stop()
		_ = producer.Close()
		_ = redisClient.Close()
		_ = db.Close()
		return nil, fmt.Errorf("kafka consumer start: %w", err)
	}

	mux := setupRoutes(authHandler, orderHandler, discountHandler, userHandler, healthHandler, rateLimitHandler, rateLimiter, tokenService, log)
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	return &application{
		cfg:      cfg,
		log:      log,
		db:       db,
		redis:    redisClient,
		producer: producer,
		consumer: consumer,
		mux:      mux,
		server:   server,
	}, nil
}

// setupRoutes настраивает маршруты HTTP сервера
func setupRoutes(authHandler *handlers.AuthHandler, orderHandler *handlers.OrderHandler, discountHandler *handlers.DiscountHandler, userHandler *handlers.UserHandler, healthHandler *handlers.HealthHandler, rateLimitHandler *handlers.RateLimitHandler, rateLimiter *services.RateLimiter, tokens *services.TokenService, log *logger.Logger) *http.ServeMux {
	mux := http.NewServeMux()

	applyAPI := func(h http.HandlerFunc) http.HandlerFunc {
		return corsMiddleware(handlers.RateLimitMiddleware(rateLimiter, log, h))
	}
	authed := func(h http.HandlerFunc) http.HandlerFunc {
		return applyAPI(handlers.AuthMiddleware(tokens, log, h))
	}
	admin := func(h http.HandlerFunc) http.HandlerFunc {
		return applyAPI(handlers.AdminMiddleware(tokens, log, h))
	}

	// Health check endpoints
	mux.HandleFunc("/health", corsMiddleware(healthHandler.Health))
	mux.HandleFunc("/health/readiness", corsMiddleware(healthHandler.Readiness))
	mux.HandleFunc("/health/liveness", corsMiddleware(healthHandler.Liveness))

	// Auth endpoints
	mux.HandleFunc("/signin", applyAPI(authHandler.Signup))
	mux.HandleFunc("/login", applyAPI(authHandler.Login))

	// Order endpoints
	mux.HandleFunc("/submit", authed(orderHandler.SubmitOrder))
	mux.HandleFunc("/api/orders/preview", applyAPI(orderHandler.PreviewCost))
	mux.HandleFunc("/api/orders/", authed(orderHandler.GetOrder))

	// User endpoints
	mux.HandleFunc("/api/users/", authed(handleUserRoute(orderHandler, userHandler)))

	// Discount lookup
	mux.HandleFunc("/api/discount/", applyAPI(discountHandler.LookupDiscount))

	// Rate limit status
	mux.HandleFunc("/api/rate-limit/status", applyAPI(rateLimitHandler.Status))

	// Admin endpoints
	mux.HandleFunc("/admin/auth", applyAPI(authHandler.AdminLogin))
	mux.HandleFunc("/admin/status", admin(authHandler.AdminStatus))
	mux.HandleFunc("/admin/logout", admin(authHandler.AdminLogout))
	mux.HandleFunc("/admin/orders", admin(handleAdminOrdersRoute(orderHandler)))
	mux.HandleFunc("/admin/orders/", admin(handleAdminOrderRoute(orderHandler)))
	mux.HandleFunc("/admin/users", admin(userHandler.ListUsers))
	mux.HandleFunc("/admin/users/", admin(handleAdminUserRoute(userHandler)))
	mux.HandleFunc("/admin/discounts", admin(handleAdminDiscountsRoute(discountHandler)))
	mux.HandleFunc("/admin/discounts/", admin(discountHandler.DeleteDiscountCode))

	return mux
}

// handleUserRoute обрабатывает маршруты профиля и заказов пользователя
func handleUserRoute(orderHandler *handlers.OrderHandler, userHandler *handlers.UserHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/orders"),
			strings.HasSuffix(r.URL.Path, "/orders/active"),
			strings.HasSuffix(r.URL.Path, "/orders/completed"):
			orderHandler.GetUserOrders(w, r)
		default:
			userHandler.GetUser(w, r)
		}
	}
}

// handleAdminOrdersRoute обрабатывает коллекцию заказов для администратора
func handleAdminOrdersRoute(handler *handlers.OrderHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handler.ListOrders(w, r)
		case http.MethodPost:
			handler.CreateOrderForUser(w, r)
		default:
			writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}

// handleAdminOrderRoute обрабатывает маршруты отдельного заказа для администратора
func handleAdminOrderRoute(handler *handlers.OrderHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/confirm"):
			handler.ConfirmOrder(w, r)
		case strings.HasSuffix(r.URL.Path, "/complete"):
			handler.CompleteOrder(w, r)
		case strings.HasSuffix(r.URL.Path, "/cancel"):
			handler.CancelOrder(w, r)
		case strings.HasSuffix(r.URL.Path, "/amount"):
			handler.UpdateAmount(w, r)
		case strings.HasSuffix(r.URL.Path, "/discount"):
			handler.UpdateDiscountApplied(w, r)
		default:
			if r.Method == http.MethodDelete {
				handler.DeleteOrder(w, r)
			} else {
				writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
			}
		}
	}
}

// handleAdminUserRoute обрабатывает маршруты отдельного пользователя для администратора
func handleAdminUserRoute(handler *handlers.UserHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/details") {
			handler.GetUserDetails(w, r)
			return
		}
		if r.Method == http.MethodDelete {
			handler.DeleteUser(w, r)
			return
		}
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleAdminDiscountsRoute обрабатывает коллекцию скидочных кодов
func handleAdminDiscountsRoute(handler *handlers.DiscountHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handler.ListDiscountCodes(w, r)
		case http.MethodPost:
			handler.CreateDiscountCode(w, r)
		default:
			writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}

// registerEventHandlers регистрирует обработчики событий Kafka
func registerEventHandlers(consumer *kafka.Consumer, log *logger.Logger) {
	consumer.RegisterHandler(models.EventTypeOrderCreated, func(ctx context.Context, event *models.Event) error {
		log.WithField("event_id", event.ID).Info("Processing order created event")
		return nil
	})

	consumer.RegisterHandler(models.EventTypeOrderStatusChanged, func(ctx context.Context, event *models.Event) error {
		log.WithField("event_id", event.ID).Info("Processing order status changed event")
		return nil
	})
}

// corsMiddleware и другие helper функции
func corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

func writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	type errorResponse struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	})
}
