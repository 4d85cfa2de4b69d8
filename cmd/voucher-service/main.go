package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"ms-vouchers/internal/auth"
	"ms-vouchers/internal/catalog"
	"ms-vouchers/internal/catalog/catalog_api"
	catalogdb "ms-vouchers/internal/catalog/db"
	"ms-vouchers/internal/config"
	"ms-vouchers/internal/database/migrations"
	"ms-vouchers/internal/kafka"
	"ms-vouchers/internal/logger"
	"ms-vouchers/internal/membership"
	membercache "ms-vouchers/internal/membership/cache"
	memberdb "ms-vouchers/internal/membership/db"
	"ms-vouchers/internal/membership/member_api"
	operatordb "ms-vouchers/internal/operator/db"
	"ms-vouchers/internal/operator/operator_api"
	"ms-vouchers/internal/qr"
	"ms-vouchers/internal/redemption"
	redemptiondb "ms-vouchers/internal/redemption/db"
	"ms-vouchers/internal/redemption/redemption_api"
	"ms-vouchers/internal/utils"
)

func connectDatabase(cfg *config.Config, log *logger.Logger) *bun.DB {
	dsn := cfg.Database.DSN
	if dsn == "" {
		log.Fatal("CONFIG", "POSTGRES_DSN not set")
	}

	var sqldb *sql.DB
	var err error
	maxRetries := 5

	for i := 0; i < maxRetries; i++ {
		log.Info("DATABASE", fmt.Sprintf("Connecting to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
		sqldb, err = sql.Open("postgres", dsn)
		if err == nil {
			err = sqldb.Ping()
		}
		if err == nil {
			break
		}
		log.Error("DATABASE", fmt.Sprintf("PostgreSQL not ready: %v", err))
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL after %d attempts: %v", maxRetries, err))
	}

	sqldb.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	log.Info("DATABASE", "PostgreSQL connection successful")
	return bun.NewDB(sqldb, pgdialect.New())
}

func main() {
	log := logger.NewLogger()
	defer log.Close()

	log.Info("APP", "Starting Voucher Service initialization")

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	}
	cfg := config.Load()

	if cfg.Admin.SessionSecret == "" {
		// A random per-process secret keeps sessions working for a single
		// instance; set SESSION_SECRET to survive restarts.
		cfg.Admin.SessionSecret = utils.GenerateToken()
		log.Warn("CONFIG", "SESSION_SECRET not set, sessions will not survive a restart")
	}

	bunDB := connectDatabase(cfg, log)
	defer bunDB.Close()

	if cfg.Migrations.AutoMigrate {
		runner := migrations.NewRunner(bunDB, migrations.MigrateOptions{
			MigrationsDir: cfg.Migrations.Dir,
			AutoMigrate:   true,
		})
		if err := runner.MigrateUp(); err != nil {
			log.Fatal("DATABASE", fmt.Sprintf("Migration failed: %v", err))
		}
		log.Info("DATABASE", "Schema migrations applied")
	}

	var tokenCache membership.TokenCache
	if cfg.Redis.Enabled {
		redisClient, err := membercache.InitializeCache(cfg.Redis.Addr, cfg.Redis.CacheTTL, log)
		if err != nil {
			log.Warn("CACHE", "Redis unavailable, serving token lookups from PostgreSQL only")
		} else {
			defer redisClient.Close()
			tokenCache = membercache.New(redisClient, cfg.Redis.CacheTTL, log)
		}
	}

	var producer *kafka.Producer
	if cfg.Kafka.Enabled {
		topics := kafka.Topics{
			RedemptionGranted: cfg.Kafka.Topics.RedemptionGranted,
			MemberCreated:     cfg.Kafka.Topics.MemberCreated,
			MemberDeleted:     cfg.Kafka.Topics.MemberDeleted,
		}
		producer = kafka.NewProducer(cfg.Kafka.Brokers, topics)
		defer producer.Close()

		required := []string{topics.RedemptionGranted, topics.MemberCreated, topics.MemberDeleted}
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, required); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		} else {
			log.Info("KAFKA", "Required topics ensured")
		}
	}

	// Producers are optional; services take nil-able interfaces.
	var memberPublisher membership.MemberEventPublisher
	var grantPublisher redemption.GrantPublisher
	if producer != nil {
		memberPublisher = producer
		grantPublisher = producer
	}

	memberService := membership.NewService(&memberdb.DB{Bun: bunDB}, tokenCache, memberPublisher, memberdb.IsTokenCollision, log)
	catalogService := catalog.NewService(&catalogdb.DB{Bun: bunDB}, log)
	redemptionService := redemption.NewService(
		memberService,
		catalogService,
		&redemptiondb.DB{Bun: bunDB},
		grantPublisher,
		log,
	)

	memberHandler := &member_api.Handler{Service: memberService, Logger: log}
	catalogHandler := &catalog_api.Handler{Service: catalogService, Logger: log}
	operatorHandler := &operator_api.Handler{DB: &operatordb.DB{Bun: bunDB}, Logger: log}
	redemptionHandler := &redemption_api.Handler{Service: redemptionService, Logger: log}
	qrHandler := &qr.Handler{Logger: log}
	authHandler := &auth.Handler{
		AdminPassword: cfg.Admin.Password,
		SessionSecret: cfg.Admin.SessionSecret,
		SessionTTL:    cfg.Admin.SessionTTL,
		Logger:        log,
	}

	log.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()

	// --- Public routes (scan side) ---
	r.Post("/api/redeem", redemptionHandler.Redeem)
	r.Get("/api/events", catalogHandler.ListEvents)
	r.Get("/api/event_vouchers", catalogHandler.ListVoucherTypes)
	r.Get("/api/volunteers", operatorHandler.ListOperators)
	r.Get("/token_image/{token}", qrHandler.ServeTokenImage)
	r.Post("/api/admin/login", authHandler.Login)
	r.Post("/api/admin/logout", authHandler.Logout)
	log.Info("ROUTER", "Public scan routes registered")

	// --- Admin routes ---
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(cfg.Admin.SessionSecret))

		r.Route("/api/members", func(r chi.Router) {
			r.Get("/", memberHandler.ListMembers)
			r.Post("/", memberHandler.CreateMember)
			r.Delete("/{memberId}", memberHandler.DeleteMember)
			r.Post("/{memberId}/prolong", memberHandler.Prolong)
			r.Post("/{memberId}/deactivate", memberHandler.Deactivate)
		})
		r.Get("/api/export_members", memberHandler.ExportCSV)
		r.Get("/api/qrcode/{token}", qrHandler.ServeTokenImage)

		r.Post("/api/events", catalogHandler.CreateEvent)
		r.Delete("/api/events/{eventId}", catalogHandler.DeleteEvent)
		r.Post("/api/event_vouchers", catalogHandler.CreateVoucherType)
		r.Delete("/api/event_vouchers/{voucherTypeId}", catalogHandler.DeleteVoucherType)

		r.Post("/api/volunteers", operatorHandler.CreateOperator)
		r.Delete("/api/volunteers/{operatorId}", operatorHandler.DeleteOperator)

		r.Get("/api/redemptions", redemptionHandler.ListRedemptions)
		r.Delete("/api/redemptions/{redemptionId}", redemptionHandler.DeleteRedemption)
	})
	log.Info("ROUTER", "Admin routes registered behind session middleware")

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("Voucher Service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server shutdown failed: %v", err))
	} else {
		log.Info("HTTP", "Voucher Service shutdown complete")
	}
}
