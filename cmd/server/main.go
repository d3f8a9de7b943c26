package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"taskify/backend/internal/cache"
	"taskify/backend/internal/config"
	"taskify/backend/internal/database"
	"taskify/backend/internal/middleware"
	"taskify/backend/internal/monitoring"
	"taskify/backend/internal/server"
	"taskify/backend/internal/services"
	"taskify/backend/internal/worker"
)

func main() {
	cfg := config.Load()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// One redis client shared by the cache and the job queue.
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	taskCache := cache.NewRedisCacheWithClient(redisClient)
	jobQueue := worker.NewJobQueue(redisClient)

	authz := services.NewAuthorizationService()
	taskService := services.NewCachedTaskService(services.NewTaskService(authz), taskCache)
	documentService := services.NewDocumentService(authz, jobQueue)
	authService := services.NewAuthService()
	registerService := services.NewRegisterService()

	var jobWorker *worker.Worker
	if cfg.Worker.Enabled {
		jobWorker = worker.NewWorker(worker.WorkerConfig{
			RedisClient: redisClient,
			Queues:      append(cfg.Worker.Queues, worker.QueueRetry),
		})
		registerJobHandlers(jobWorker)
		jobWorker.Start(2)
	}

	health := monitoring.NewHealthChecker()
	health.Register("database", func(ctx context.Context) error {
		return database.Ping(db)
	})
	health.Register("redis", func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})

	rateLimiter := middleware.NewRateLimiter(cfg.Server.RateLimitPerMin, cfg.Server.RateLimitBurst, 10*time.Minute)

	router := server.NewRouter(cfg.Server, server.Deps{
		DB:        db,
		Tasks:     taskService,
		Documents: documentService,
		Auth:      authService,
		Register:  registerService,
		Health:    health,
		RateLimit: rateLimiter,
	})

	srv := server.New(cfg.Server, router)

	go func() {
		log.Printf("Server listening on port %s", cfg.Server.Port)
		if err := srv.Start(); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	if jobWorker != nil {
		jobWorker.Stop()
	}
	rateLimiter.Stop()

	if err := redisClient.Close(); err != nil {
		log.Printf("Redis close error: %v", err)
	}
	if err := database.Close(db); err != nil {
		log.Printf("Database close error: %v", err)
	}

	log.Println("Shutdown complete")
}

// registerJobHandlers wires the background job types. Delivery channels
// are logged stand-ins; the queue, retry, and dead-letter paths are the
// part that matters here.
func registerJobHandlers(w *worker.Worker) {
	w.RegisterHandler(worker.JobTypeDocumentDecision, func(ctx context.Context, job *worker.Job) error {
		log.Printf("Document %v %v, notifying uploader %v",
			job.Payload["document_id"], job.Payload["status"], job.Payload["uploader_id"])
		return nil
	})
	w.RegisterHandler(worker.JobTypeTaskReminder, func(ctx context.Context, job *worker.Job) error {
		log.Printf("Reminder for task %v (user %v)", job.Payload["task_id"], job.Payload["user_id"])
		return nil
	})
	w.RegisterHandler(worker.JobTypeCleanup, func(ctx context.Context, job *worker.Job) error {
		log.Printf("Cleanup job %s executed", job.ID)
		return nil
	})
}
