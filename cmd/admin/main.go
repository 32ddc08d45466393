package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"pawhub/internal/core/auth"
	"pawhub/internal/core/cache"
	"pawhub/internal/core/config"
	"pawhub/internal/core/database"
	"pawhub/internal/core/logger"
	"pawhub/internal/core/server"
	"pawhub/internal/domain"
	"pawhub/internal/mailer"
	"pawhub/internal/repo"
	"pawhub/internal/storage"
	"pawhub/internal/transport/http/router"
	"pawhub/pkg/utils"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load(os.Getenv("CONFIG_PATH"))
	log, cleanup := logger.New(cfg.Log.Level, cfg.Log.JSON)
	defer cleanup()

	db, err := database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
	})
	if err != nil {
		log.Fatal("db open", zap.Error(err))
	}

	if cfg.DB.AutoMigrate {
		if err := db.AutoMigrate(domain.All()...); err != nil {
			log.Fatal("automigrate failed", zap.Error(err))
		}
	}

	// 配置了初始超管就顺手建一个（已存在则跳过）
	if cfg.Bootstrap.Username != "" && cfg.Bootstrap.Password != "" {
		if err := ensureSuperuser(db, cfg, log); err != nil {
			log.Fatal("bootstrap superuser", zap.Error(err))
		}
	}

	media, err := storage.NewMediaStore(cfg.Media.Root)
	if err != nil {
		log.Fatal("media root", zap.Error(err))
	}

	jwter := &auth.JWTer{
		Secret: []byte(cfg.JWT.Secret),
		Issuer: cfg.JWT.Issuer,
		TTL:    time.Duration(cfg.JWT.AccessTokenTTLMin) * time.Minute,
	}

	r := router.NewAdminEngine(router.Deps{
		Log:   log,
		DB:    db,
		JWT:   jwter,
		Cache: cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB),
		Mail:  mailer.FromConfig(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From, log),
		Media: media,
		Env:   cfg.App.Env,
	})

	addr := server.Addr(cfg.App.Admin.Host, cfg.App.Admin.Port)
	srv := server.BuildServer(addr, r, 15*time.Second, 30*time.Second, 60*time.Second)

	log.Info("admin api starting", zap.String("addr", addr))
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("admin api start FAILED", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	log.Info("admin api stopped gracefully")
}

// ensureSuperuser 幂等：同名账号存在则不动
func ensureSuperuser(db *gorm.DB, cfg *config.Config, log *zap.Logger) error {
	users := repo.NewUserRepo(db)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	existing, err := users.FindByUsername(ctx, cfg.Bootstrap.Username)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	u := &domain.User{
		ID:           utils.NewID(),
		Username:     cfg.Bootstrap.Username,
		Email:        cfg.Bootstrap.Email,
		PasswordHash: utils.HashPassword(cfg.Bootstrap.Password),
		Role:         domain.RoleAdmin,
		IsActive:     true,
	}
	if err := users.Create(ctx, u); err != nil {
		return err
	}
	log.Info("superuser created", zap.String("username", u.Username))
	return nil
}
