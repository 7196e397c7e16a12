package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"

	"biblio-backend/internal/catalog"
	"biblio-backend/internal/circulation"
	"biblio-backend/internal/platform/auth"
	"biblio-backend/internal/platform/db"
	"biblio-backend/internal/readers"
	"biblio-backend/internal/reports"
)

func main() {
	cfg, err := db.LoadConfig("config/config.yaml")
	if err != nil {
		panic(err)
	}

	mode := cfg.Mode
	log.Printf("[INFO] mode:%s\n", mode)

	if mode != "dev" && mode != "release" {
		log.Fatal("config mode must be dev or release")
	}

	conn, err := db.Connect(cfg.DB)
	if err != nil {
		panic(err)
	}
	defer conn.Close()

	log.Printf("[INFO] connected to DB: %s", cfg.DB.DBName)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	_ = r.SetTrustedProxies(nil)

	if mode == "dev" {
		// CORS is only needed while the web front end runs off its own dev server
		r.Use(cors.New(cors.Config{
			AllowOrigins:     []string{"http://localhost:3000"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowCredentials: true,
		}))
	}

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	policy := circulation.PolicyFromConfig(cfg.Circulation)

	// /api/v1; identity comes in as a bearer token verified here, issued by
	// the identity collaborator
	api := r.Group("/api/v1")
	api.Use(auth.RequireAuth([]byte(cfg.Auth.Secret)))
	catalog.RegisterRoutes(api, catalog.NewService(conn))
	readers.RegisterRoutes(api, readers.NewService(conn, cfg.Circulation.DefaultMaxLoans))
	circulation.RegisterRoutes(api, circulation.NewService(conn, policy))
	reports.RegisterRoutes(api, reports.NewService(conn, cfg.Circulation.FinePerDay))

	srv := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: r,
	}

	go func() {
		log.Printf("[INFO] listening on %s", cfg.HTTP.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit
	log.Println("[INFO] shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal(err)
	}
}
