package main

import (
	"context"
	"flag"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"trackmate/internal/cache"
	"trackmate/internal/comment"
	"trackmate/internal/db"
	"trackmate/internal/inbox"
	myMiddleware "trackmate/internal/middleware"
	"trackmate/internal/notification"
	"trackmate/internal/track"
	"trackmate/internal/user"
)

func main() {
	// 1. Config & Flags
	addr := flag.String("addr", ":8080", "http service address")
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if err := godotenv.Load(); err != nil {
		log.WithError(err).Debug(".env file not loaded")
	}

	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("❌ DB_DSN is not set")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("❌ JWT_SECRET is not set")
	}

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	ctx := context.Background()

	// 2. Connect to Database (Platform Layer)
	database, err := db.NewDatabase(ctx, dsn)
	if err != nil {
		log.Fatalf("❌ Failed to connect to DB: %v", err)
	}
	defer database.Close()
	log.Info("✅ Connected to PostgreSQL")

	if err := database.AutoMigrate(ctx); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}
	log.Info("✅ Database Schema Initialized")

	// 3. Connect to Redis (profile cache + notification queue)
	profileCache, err := cache.NewRedisCache(redisAddr)
	if err != nil {
		log.Fatalf("❌ Failed to connect to Redis: %v", err)
	}
	defer profileCache.Close()
	log.Info("✅ Connected to Redis")

	// 4. Notification pipeline: queue in front, Expo bridge behind
	bridge := notification.NewExpoBridge(os.Getenv("PUSH_ENDPOINT"))
	pushQueue := notification.NewQueue(redisAddr)
	defer pushQueue.Close()

	worker, mux := notification.NewWorker(redisAddr, bridge, log)
	go func() {
		if err := worker.Run(mux); err != nil {
			log.WithError(err).Error("notification worker stopped")
		}
	}()

	// 5. Message store (shared by inbox core and account purges)
	messageStore := inbox.NewPostgresStore(database.Pool)

	// 6. User Feature
	userRepo := user.NewRepository(database.Pool)
	userService := user.NewService(userRepo, profileCache, messageStore, jwtSecret, log)
	userHandler := user.NewHandler(userService)

	// 7. Track Feature
	trackRepo := track.NewRepository(database.Pool)
	trackHandler := track.NewHandler(trackRepo)

	// 8. Track Comments Feature
	commentRepo := comment.NewRepository(database.Pool)
	commentHandler := comment.NewHandler(commentRepo)

	// 9. Messaging core: presence, fan-out, session protocol
	registry := inbox.NewRegistry()
	dispatcher := inbox.NewDispatcher(registry)
	inboxService := inbox.NewService(messageStore, userService, trackRepo, dispatcher, pushQueue, log)
	inboxHandler := inbox.NewHandler(inboxService, dispatcher, userService, log)

	authMiddleware := myMiddleware.NewAuthMiddleware(userService)

	// 10. Define Routes
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Public Routes
	r.Post("/Register", userHandler.Register)
	r.Post("/Login", userHandler.Login)
	r.Get("/check-email", userHandler.CheckEmail)
	r.Get("/check-username", userHandler.CheckUsername)

	// WebSocket (authenticates its own token before upgrade)
	r.Get("/ws", inboxHandler.ServeWs)

	// Protected Routes (Require JWT)
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.Handle)

		r.Get("/Account", userHandler.GetAccount)
		r.Patch("/Account", userHandler.PatchAccount)
		r.Delete("/Account", userHandler.DeleteAccount)
		r.Get("/search-users", userHandler.SearchUsers)

		r.Get("/Tracks", trackHandler.Search)
		r.Get("/tracks/byIds", trackHandler.ByIDs)

		r.Get("/TrackComments", commentHandler.List)
		r.Post("/TrackComments", commentHandler.Create)
		r.Patch("/TrackComments", commentHandler.Patch)

		r.Get("/Inbox", inboxHandler.GetInbox)
		r.Get("/Inbox/messages", inboxHandler.GetThread)
		r.Post("/Inbox/messages", inboxHandler.PostMessage)
	})

	log.Infof("🚀 Server starting on %s", *addr)
	if err := http.ListenAndServe(*addr, r); err != nil {
		log.Fatal(err)
	}
}
