package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/dkovacic/quill/internal/config"
	"github.com/dkovacic/quill/internal/database"
	postgresrepo "github.com/dkovacic/quill/internal/repository/postgres"
	"github.com/dkovacic/quill/internal/service"
	"github.com/dkovacic/quill/internal/transport/http/handlers"
	"github.com/dkovacic/quill/internal/transport/http/middleware"
	"github.com/dkovacic/quill/internal/transport/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	// Database
	if err := database.Migrate(cfg); err != nil {
		log.Fatal(err)
	}
	pool, err := database.Connect(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()
	log.Println("Connected to database")

	// Repositories
	userRepo := postgresrepo.NewUserRepo(pool)
	postRepo := postgresrepo.NewPostRepo(pool)

	// Services
	authService := service.NewAuthService(userRepo, cfg.JWTSecret)
	postService := service.NewPostService(postRepo, service.RealClock{})
	userService := service.NewUserService(userRepo, postRepo)

	// Real-time feed
	hub := ws.NewHub()
	go hub.Run()
	postService.SetNotifier(ws.NewHubNotifier(hub))

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	postHandler := handlers.NewPostHandler(postService)
	userHandler := handlers.NewUserHandler(userService)

	// Identity middleware
	identify := middleware.Identify(cfg.JWTSecret)
	authed := func(h http.HandlerFunc) http.Handler {
		return identify(middleware.RequireUser(h))
	}

	// Routes
	mux := http.NewServeMux()

	// Public
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "ok"}`))
	})
	mux.HandleFunc("POST /api/v1/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)

	// Posts - reads are open, mutations need an identity
	mux.HandleFunc("GET /api/v1/posts", postHandler.List)
	mux.HandleFunc("GET /api/v1/posts/{id}", postHandler.Get)
	mux.Handle("POST /api/v1/posts", authed(postHandler.Create))
	mux.Handle("PUT /api/v1/posts/{id}", authed(postHandler.Update))
	mux.Handle("DELETE /api/v1/posts/{id}", authed(postHandler.Delete))

	// Users
	mux.HandleFunc("GET /api/v1/users", userHandler.List)
	mux.HandleFunc("GET /api/v1/users/{id}", userHandler.Get)
	mux.Handle("POST /api/v1/users/me/deactivate", authed(userHandler.Deactivate))
	mux.Handle("DELETE /api/v1/users/me", authed(userHandler.Delete))

	// Publish feed
	mux.HandleFunc("GET /ws/feed", ws.ServeWS(hub))

	// Start server with CORS
	addr := fmt.Sprintf(":%s", cfg.ServerPort)
	log.Printf("Starting server on %s", addr)
	log.Fatal(http.ListenAndServe(addr, middleware.CORS(mux)))
}
