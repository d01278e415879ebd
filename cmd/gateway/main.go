package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"time"

	api "github.com/campusware/examcore/internal/api/http"
	"github.com/campusware/examcore/internal/audit"
	auth "github.com/campusware/examcore/internal/auth/middleware"
	"github.com/campusware/examcore/internal/config"
	"github.com/campusware/examcore/internal/db"
	"github.com/campusware/examcore/internal/exam"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func main() {
	cfg := config.FromEnv()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	if err := seedAdmin(ctx, dbh, cfg.AdminUser, cfg.AdminPassHash); err != nil {
		log.Fatalf("seed admin: %v", err)
	}

	store := exam.NewSQLStore(dbh, cfg.DBDriver, nil)
	alog := audit.NewLog(dbh)

	authSvc := auth.NewAuthService(cfg.HMACSecret)

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if cfg.EnableLocalAuth {
		r.Post("/auth/login", auth.LoginHandler(authSvc, dbh))
	}

	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))
		pr.Use(auth.AttachRoleFromDB(dbh, true))
		api.Mount(pr, store, alog)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	log.Printf("examcore gateway listening on %s (db=%s)", cfg.HTTPAddr, cfg.DBDriver)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}

// seedAdmin makes sure a usable admin account exists on first boot.
func seedAdmin(ctx context.Context, dbh *sql.DB, user, passHash string) error {
	_, err := dbh.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, role)
		 VALUES ($1,$2,$3,'admin')
		 ON CONFLICT (id) DO NOTHING`,
		user, user, passHash)
	return err
}
