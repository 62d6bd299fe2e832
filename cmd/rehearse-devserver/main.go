package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/tbeaumont/rehearse/internal/auth"
	"github.com/tbeaumont/rehearse/internal/db"
	"github.com/tbeaumont/rehearse/internal/devserver"

	"github.com/joho/godotenv"
)

func main() {
	if os.Getenv("APP_ENV") != "production" {
		godotenv.Load()
	}

	dbPath := os.Getenv("REHEARSE_DB_PATH")
	if dbPath == "" {
		dbPath = db.DefaultDBPath()
	}
	store, err := db.Open(dbPath)
	if err != nil {
		log.Fatal("open database: ", err)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := store.Migrate(ctx); err != nil {
		cancel()
		log.Fatal("migrate: ", err)
	}
	cancel()
	log.Println("database ready at", dbPath)

	opts := devserver.Options{
		JWTSecret: []byte(os.Getenv("REHEARSE_JWT_SECRET")),
	}
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		opts.AllowedOrigins = strings.Split(origins, ",")
	}
	if clientID := os.Getenv("GOOGLE_CLIENT_ID"); clientID != "" {
		opts.GoogleOAuth = &auth.OAuthConfig{
			ClientID:     clientID,
			ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
			RedirectURL:  os.Getenv("GOOGLE_REDIRECT_URL"),
		}
	}
	if len(opts.JWTSecret) == 0 {
		log.Println("REHEARSE_JWT_SECRET not set; auth routes disabled")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8000"
	}

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      devserver.New(store, opts).Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("interview dev server on :%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server error: ", err)
		}
	}()

	<-quit
	log.Println("shutting down, draining requests")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("forced shutdown: ", err)
	}
	log.Println("server stopped")
}
