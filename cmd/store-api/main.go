package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/perfume-store-api/api/swagger"
	"github.com/noah-isme/perfume-store-api/internal/client"
	"github.com/noah-isme/perfume-store-api/internal/handler"
	"github.com/noah-isme/perfume-store-api/internal/middleware"
	"github.com/noah-isme/perfume-store-api/internal/models"
	"github.com/noah-isme/perfume-store-api/internal/repository"
	"github.com/noah-isme/perfume-store-api/internal/service"
	"github.com/noah-isme/perfume-store-api/internal/store"
	"github.com/noah-isme/perfume-store-api/pkg/config"
	"github.com/noah-isme/perfume-store-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/perfume-store-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/perfume-store-api/pkg/middleware/requestid"
	"github.com/noah-isme/perfume-store-api/pkg/notify"
	"github.com/noah-isme/perfume-store-api/pkg/tasks"
)

// @title Perfume Store API
// @version 1.0.0
// @description Storefront and admin backend for the perfume shop
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	metrics := service.NewMetricsService()

	backing, closeStore := openStore(cfg, logr)
	defer closeStore()
	backing = store.Instrument(backing, metrics)

	center := notify.NewCenter(cfg.Admin.NotificationTTL, logr)
	center.OnPublish(metrics.IncNotification)
	runner := tasks.NewRunner(logr)
	defer runner.Shutdown()

	userRepo := repository.NewUserRepository(backing, cfg.Store.UsersKey, logr)
	orderRepo := repository.NewOrderRepository(backing, cfg.Store.OrdersKey, logr)
	productRepo := repository.NewProductRepository(backing, cfg.Store.ProductsKey, logr)

	catalog := client.NewCatalog(cfg.Catalog, logr)

	userService := service.NewUserService(service.UserServiceConfig{
		Repo:        userRepo,
		Logger:      logr,
		Notifier:    center,
		Runner:      runner,
		Metrics:     metrics,
		DeleteDelay: cfg.Admin.DeleteGraceDelay,
		PageSize:    cfg.Admin.PageSize,
	})

	orderCfg := service.OrderServiceConfig{
		Repo:     orderRepo,
		Logger:   logr,
		Notifier: center,
		Metrics:  metrics,
		PageSize: cfg.Admin.PageSize,
	}
	productCfg := service.ProductServiceConfig{
		Repo:     productRepo,
		Logger:   logr,
		Notifier: center,
		Metrics:  metrics,
	}
	if catalog != nil {
		orderCfg.Remote = catalog
		productCfg.Remote = catalog
	}
	orderService := service.NewOrderService(orderCfg)
	productService := service.NewProductService(productCfg)

	authService := service.NewAuthService(userService, backing, cfg.JWT, nil, logr)
	otpService := service.NewOTPService(backing, cfg.OTP, logr)

	authHandler := handler.NewAuthHandler(authService, otpService, cfg.Env, logr)
	userHandler := handler.NewUserHandler(userService, logr)
	orderHandler := handler.NewOrderHandler(orderService, logr)
	productHandler := handler.NewProductHandler(productService, logr)
	notificationHandler := handler.NewNotificationHandler(center)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		auth := api.Group("/auth")
		auth.POST("/login", authHandler.Login)
		auth.POST("/register", authHandler.Register)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", authHandler.Logout)
		auth.POST("/otp/send", authHandler.SendOTP)
		auth.POST("/otp/verify", authHandler.VerifyOTP)

		api.GET("/products", productHandler.List)
		api.GET("/products/featured", productHandler.Featured)
		api.GET("/products/new-arrivals", productHandler.NewArrivals)
		api.GET("/products/:id", productHandler.Get)
		api.POST("/orders", orderHandler.Create)

		admin := api.Group("/admin")
		admin.Use(middleware.JWT(authService))
		admin.Use(middleware.RequireRole(models.RoleAdmin, models.RoleModerator))
		{
			admin.GET("/users", userHandler.List)
			admin.POST("/users", userHandler.Create)
			admin.GET("/users/stats", userHandler.Stats)
			if cfg.Export.Enabled {
				admin.GET("/users/export", userHandler.Export)
			}
			admin.GET("/users/:id", userHandler.Get)
			admin.PUT("/users/:id", userHandler.Update)
			admin.DELETE("/users/:id", userHandler.Delete)
			admin.POST("/users/:id/cancel-delete", userHandler.CancelDelete)
			admin.PATCH("/users/:id/status", userHandler.ChangeStatus)
			admin.PATCH("/users/:id/role", userHandler.ChangeRole)

			admin.GET("/orders", orderHandler.List)
			admin.GET("/orders/stats", orderHandler.Stats)
			admin.GET("/orders/:id", orderHandler.Get)
			admin.PUT("/orders/:id/accept", orderHandler.Accept)
			admin.PUT("/orders/:id/reject", orderHandler.Reject)

			admin.POST("/products", productHandler.Create)
			admin.DELETE("/products/:id", productHandler.Delete)

			admin.GET("/notifications", notificationHandler.Recent)
		}
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logr.Sugar().Infow("server starting",
			"addr", server.Addr, "env", cfg.Env, "store", cfg.Store.Backend)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

// openStore selects the configured backend, falling back to the file store
// when Redis is unreachable so a development box works without one.
func openStore(cfg *config.Config, logr *zap.Logger) (store.Store, func()) {
	if cfg.Store.Backend == config.StoreBackendRedis {
		r, err := store.NewRedis(cfg.Redis, logr)
		if err == nil {
			return r, func() { _ = r.Close() }
		}
		logr.Warn("redis unavailable, falling back to file store", zap.Error(err))
	}

	f, err := store.NewFile(cfg.Store.DataDir, logr)
	if err != nil {
		logr.Sugar().Fatalw("failed to open file store", "error", err)
	}
	return f, func() {}
}
