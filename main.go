package main

import (
	"context"
	"time"

	"github.com/clubdev/clubdev/ai"
	"github.com/clubdev/clubdev/config"
	"github.com/clubdev/clubdev/models"
	"github.com/clubdev/clubdev/realtime"
	"github.com/clubdev/clubdev/routes"
	"github.com/clubdev/clubdev/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(
		&models.User{}, &models.Entry{}, &models.Tag{}, &models.Category{},
		&models.Like{}, &models.Comment{}, &models.Follow{}, &models.Notification{},
		&models.Flag{}, &models.MindMap{}, &models.Badge{}, &models.Reputation{},
		&models.PageView{}, &models.UploadedFile{},
	)

	hub := realtime.NewHub(utils.Sugar)

	var aiSvc *ai.Service
	if cfg.GoogleAIKey != "" {
		svc, err := ai.New(context.Background(), cfg.GoogleAIKey, cfg.GeminiModel)
		if err != nil {
			utils.Sugar.Warnf("ai service disabled: %v", err)
		} else {
			aiSvc = svc
			defer aiSvc.Close()
		}
	} else {
		utils.Sugar.Info("ai service disabled: no api key configured")
	}

	r := routes.SetupRouter(db, hub, aiSvc)

	// Start background cleanup for expired uploads (best-effort)
	utils.StartUploadCleaner(5 * time.Minute)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
