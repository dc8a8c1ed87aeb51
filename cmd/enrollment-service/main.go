package main

import (
	"context"
	"log"

	"github.com/unirecords/university-api/internal/client"
	"github.com/unirecords/university-api/internal/handler"
	"github.com/unirecords/university-api/internal/repository"
	"github.com/unirecords/university-api/internal/server"
	"github.com/unirecords/university-api/internal/service"
	"github.com/unirecords/university-api/pkg/storage"
)

func main() {
	app, err := server.New("enrollment-service", 3004)
	if err != nil {
		log.Fatalf("failed to start enrollment-service: %v", err)
	}
	defer app.Close()

	store := repository.NewEnrollmentRepository(app.DB)
	peers := client.NewDirectory(app.Config.Peers, app.Logger)
	enrollments := service.NewEnrollmentService(store, peers, app.Logger)
	handler.NewEnrollmentHandler(enrollments).Register(app.Engine)

	files, err := storage.NewLocalStorage(app.Config.Export.Dir)
	if err != nil {
		app.Logger.Sugar().Fatalw("failed to prepare export storage", "error", err)
	}
	signer := storage.NewDownloadSigner(app.Config.Export.SigningSecret, app.Config.Export.TokenTTL)
	exports := service.NewExportService(store, files, signer, app.Config.Export.TokenTTL, app.Logger)
	exports.Start(context.Background(), app.Config.Export.Workers)
	defer exports.Stop()
	handler.NewExportHandler(exports).Register(app.Engine)

	if err := app.Run(); err != nil {
		app.Logger.Sugar().Fatalw("server failed", "error", err)
	}
}
