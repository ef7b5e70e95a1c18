package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"parceltrack/internal/apperr"
	"parceltrack/internal/identity"
	"parceltrack/internal/parcel"
	"parceltrack/internal/platform/db"
	"parceltrack/internal/platform/obs"
	"parceltrack/internal/refdata"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET must be set")
	}
	tokenTTL := durationEnv("TOKEN_TTL", 24*time.Hour)
	port := getEnv("PORT", "8080")

	ctx := context.Background()
	shutdownTracing, err := obs.InitTracing(ctx, "parceltrack-api", os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"))
	if err != nil {
		log.Fatalf("init tracing: %v", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Printf("shutdown tracing: %v", err)
		}
	}()

	var (
		accounts identity.Store
		refs     refdata.Store
		repo     parcel.Repository
	)
	if databaseURL := os.Getenv("DATABASE_URL"); databaseURL != "" {
		pool, err := db.Open(databaseURL)
		if err != nil {
			log.Fatalf("connect to database: %v", err)
		}
		defer pool.Close()
		if err := db.InitSchema(pool); err != nil {
			log.Fatalf("init schema: %v", err)
		}
		accounts = identity.NewPostgresStore(pool)
		refs = refdata.NewPostgresStore(pool)
		repo = parcel.NewPostgresRepository(pool)
		log.Println("using postgres storage")
	} else {
		accounts = identity.NewMemoryStore()
		refs = refdata.NewMemoryStore()
		repo = parcel.NewMemoryRepository(refs)
		log.Println("DATABASE_URL not set, using in-memory storage")
	}

	tokens := identity.NewTokenManager(jwtSecret, tokenTTL)
	identitySvc := identity.NewService(accounts, tokens)
	identityHandler := identity.NewHandler(identitySvc)

	// Registration is manager-only, so a fresh deployment needs one account
	// seeded from the environment before anyone can log in.
	if email := os.Getenv("ADMIN_EMAIL"); email != "" {
		_, err := identitySvc.Register(ctx, identity.RegisterRequest{
			Username: getEnv("ADMIN_USERNAME", "admin"),
			Email:    email,
			Password: os.Getenv("ADMIN_PASSWORD"),
			Roles:    []string{string(identity.RoleManager)},
		})
		switch {
		case err == nil:
			log.Printf("seeded admin account %s", email)
		case apperr.IsKind(err, apperr.KindDuplicate):
			// Already provisioned on a previous start.
		default:
			log.Fatalf("seed admin account: %v", err)
		}
	}

	parcelSvc := parcel.NewScoped(parcel.NewService(repo, refs))
	parcelHandler := parcel.NewHandler(parcelSvc)
	refdataHandler := refdata.NewHandler(refs)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Post("/auth/login", identityHandler.HandleLogin)

	r.Group(func(r chi.Router) {
		r.Use(identity.Middleware(tokens))
		r.Post("/auth/register", identityHandler.HandleRegister)
		r.Route("/api/v1", func(r chi.Router) {
			parcelHandler.Routes(r)
			refdataHandler.Routes(r)
		})
	})

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("parceltrack API listening on port %s", port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server stopped: %v", err)
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func durationEnv(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Fatalf("invalid %s: %v", key, err)
	}
	return d
}
