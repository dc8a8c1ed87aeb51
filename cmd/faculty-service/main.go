package main

import (
	"log"

	"github.com/unirecords/university-api/internal/handler"
	"github.com/unirecords/university-api/internal/repository"
	"github.com/unirecords/university-api/internal/server"
	"github.com/unirecords/university-api/internal/service"
)

func main() {
	app, err := server.New("faculty-service", 3003)
	if err != nil {
		log.Fatalf("failed to start faculty-service: %v", err)
	}
	defer app.Close()

	store := repository.NewFacultyStore(app.DB)
	faculty := service.NewFacultyService(store, app.Logger)
	handler.NewFacultyHandler(faculty).Register(app.Engine)

	if err := app.Run(); err != nil {
		app.Logger.Sugar().Fatalw("server failed", "error", err)
	}
}
