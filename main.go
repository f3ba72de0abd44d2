package main

import (
	"github.com/cppla/bloglist/config"
	"github.com/cppla/bloglist/events"
	"github.com/cppla/bloglist/repository"
	"github.com/cppla/bloglist/routes"
	"github.com/cppla/bloglist/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	rc := utils.InitRedis(cfg)

	db, err := config.OpenDatabase(cfg, repository.Models()...)
	if err != nil {
		utils.Sugar.Fatalf("open database: %v", err)
	}

	publisher, err := events.Connect(cfg.NATSURL, cfg.NATSSubjectPrefix)
	if err != nil {
		utils.Sugar.Fatalf("connect event bus: %v", err)
	}

	r := routes.SetupRouter(cfg, db, publisher)

	srv := utils.NewServer(":"+cfg.AppPort, r, utils.DEFAULT_READ_TIMEOUT, utils.DEFAULT_WRITE_TIMEOUT)
	srv.OnShutdown(func() { _ = utils.Logger.Sync() })
	srv.OnShutdown(func() {
		if err := config.CloseDatabase(db); err != nil {
			utils.Sugar.Errorf("close database: %v", err)
		}
	})
	srv.OnShutdown(publisher.Close)
	if rc != nil {
		srv.OnShutdown(func() { _ = rc.Close() })
	}

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := srv.ListenAndServe(); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
