package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/httprate"
	"github.com/go-chi/jwtauth"

	config "github.com/veridium/idcard-services/configs"
	mongodb "github.com/veridium/idcard-services/internal/db"
	"github.com/veridium/idcard-services/internal/idcardsvc/db"
	handlers "github.com/veridium/idcard-services/internal/idcardsvc/handlers"
	"github.com/veridium/idcard-services/internal/idcardsvc/media"
	"github.com/veridium/idcard-services/internal/idcardsvc/notify"
	"github.com/veridium/idcard-services/internal/idcardsvc/service"
	"github.com/veridium/idcard-services/internal/idcardsvc/store"
	nats "github.com/veridium/idcard-services/internal/nats"
	log "github.com/sirupsen/logrus"
)

const SERVICE_NAME = "idcard"

var instanceId string

func init() {
	instanceId = "001"
	config.Logging(SERVICE_NAME + "_service_" + instanceId)
	config.LoadEnv(SERVICE_NAME)
}

func main() {

	// pg connection for account reads
	dbpool, err := db.Connect()
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer db.ClosePool()
	log.Printf("pg connection established successfully")

	// mongo connection for the card collection
	cardDB, cancelMongo, err := mongodb.ConnectToDB(os.Getenv("MONGODB_URI"))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer cancelMongo()
	log.Printf("mongo connection established successfully")

	cardStore := store.NewCardStore(cardDB)
	{
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := cardStore.EnsureIndexes(ctx); err != nil {
			log.Fatalf("Failed to create card indexes: %v", err)
		}
	}
	userStore := store.NewUserStore(dbpool)

	// Connect to NATS for fire-and-forget notifications
	n, err := nats.Connect()
	if err != nil {
		log.Errorf("Error: unable to connect to NATS server %v", err)
		os.Exit(0)
	}
	defer n.Conn.Close()
	log.Printf("NATS connection established successfully %s", n.Url)
	notifier := notify.NewNotifier(n.Conn)

	var mediaStore media.Store
	if baseURL := os.Getenv("MEDIA_BASE_URL"); baseURL != "" {
		mediaStore = media.NewHTTPStore(baseURL)
	}

	accessAuth := jwtauth.New("HS256", []byte(os.Getenv("JWT_SECRET_KEY")), nil)
	refreshAuth := jwtauth.New("HS256", []byte(os.Getenv("JWT_REFRESH_SECRET_KEY")), nil)

	cardService := service.NewCardService(cardStore, userStore, mediaStore)
	credentialService := service.NewCredentialService(cardStore, userStore, notifier)
	sessionService := service.NewSessionService(cardStore, accessAuth, refreshAuth)
	renewalService := service.NewRenewalService(cardStore, notifier)

	// Setup router
	r := chi.NewRouter()
	c := config.CORS()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(config.CustomLoggerMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(c.Handler)

	// to protect the service api from any over requests
	rateLimitStr := os.Getenv("RATE_LIMIT")
	rateLimit, err := strconv.Atoi(rateLimitStr)
	if err != nil {
		log.Fatalf("Invalid RATE_LIMIT value: %v", err)
	}
	r.Use(httprate.LimitByIP(rateLimit, 1*time.Minute))

	// Init handlers and routes
	h := handlers.NewHandler(accessAuth, cardService, credentialService,
		sessionService, renewalService, os.Getenv("ADMIN_EMAIL"))
	h.SetRoutes(r)

	// Create server with timeout settings
	server := &http.Server{
		Addr:         ":" + os.Getenv("IDCARD_SERVICE_PORT"),
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe(): %v", err)
		}
	}()
	log.Infof("%s service running at port %s", SERVICE_NAME, server.Addr)

	// Wait for interrupt signal to gracefully shutdown the server
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("%s service shutdown Failed:%+v", SERVICE_NAME, err)
	}
	log.Infof("%s service gracefully stopped", SERVICE_NAME)
}
