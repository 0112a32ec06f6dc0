package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/modularstore/admin-api/internal/auth"
	"github.com/modularstore/admin-api/internal/config"
	"github.com/modularstore/admin-api/internal/database"
	"github.com/modularstore/admin-api/internal/handler"
	"github.com/modularstore/admin-api/internal/middleware"
	"github.com/modularstore/admin-api/internal/queue"
	"github.com/modularstore/admin-api/internal/repository"
	"github.com/modularstore/admin-api/internal/router"
	queue_publisher "github.com/modularstore/admin-api/internal/service"
	"github.com/modularstore/admin-api/internal/worker"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	users := repository.NewUserRepo(db)
	roles := repository.NewRoleRepo(db)
	userRoles := repository.NewUserRoleRepo(db)
	modules := repository.NewModuleRepo(db)
	products := repository.NewProductRepo(db)

	// Seed the closed role set and register known feature modules so a
	// fresh database is usable without manual inserts.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := roles.EnsureDefaults(ctx, []string{auth.RoleUser, auth.RoleManager, auth.RoleAdministrator}); err != nil {
		cancel()
		log.Fatalf("seed roles: %v", err)
	}
	if added, err := modules.EnsureKnown(ctx, cfg.KnownModules); err != nil {
		cancel()
		log.Fatalf("register modules: %v", err)
	} else if added > 0 {
		log.Printf("registered %d new module(s)", added)
	}
	cancel()

	purger := worker.NewPurgeWorker(products, cfg.SweepInterval, queue_publisher.PublishProductLifecycle)
	if err := purger.Start(); err != nil {
		log.Fatalf("purge worker: %v", err)
	}
	defer purger.Stop()

	go func() {
		if err := queue.StartLifecycleConsumer(); err != nil {
			log.Printf("lifecycle consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = router.ErrorHandler
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())

	// Redis is optional: without it the server runs with rate limiting
	// and response caching disabled. The limiter is global; the cache is
	// handed to the routers, which attach it per route behind the gate
	// chain and only on caller-independent open reads.
	var cacheMW echo.MiddlewareFunc
	if rdb := config.NewRedisClient(); rdb != nil {
		e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
		cacheMW = middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	} else {
		log.Println("redis unavailable; rate limiting and caching disabled")
	}

	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(users), users)
	router.RegisterUsers(e, handler.NewUserHandler(cfg, users, roles, userRoles), users, userRoles)
	router.RegisterRoles(e, handler.NewRoleHandler(roles, userRoles), users, userRoles)
	router.RegisterModules(e, handler.NewModuleHandler(modules), users, userRoles, modules, cacheMW)
	router.RegisterProducts(e,
		handler.NewProductHandler(products, queue_publisher.PublishProductLifecycle),
		users, userRoles, modules, cacheMW)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
