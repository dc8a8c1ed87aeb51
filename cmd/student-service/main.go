package main

import (
	"log"

	"github.com/unirecords/university-api/internal/handler"
	"github.com/unirecords/university-api/internal/repository"
	"github.com/unirecords/university-api/internal/server"
	"github.com/unirecords/university-api/internal/service"
)

func main() {
	app, err := server.New("student-service", 3001)
	if err != nil {
		log.Fatalf("failed to start student-service: %v", err)
	}
	defer app.Close()

	store := repository.NewStudentStore(app.DB)

	var readCache service.ReadCache
	if cacheRepo := app.ReadCache(); cacheRepo != nil {
		readCache = cacheRepo
	}

	students := service.NewStudentService(store, readCache, app.Config.Cache.TTL, app.Logger)
	handler.NewStudentHandler(students).Register(app.Engine)

	if err := app.Run(); err != nil {
		app.Logger.Sugar().Fatalw("server failed", "error", err)
	}
}
