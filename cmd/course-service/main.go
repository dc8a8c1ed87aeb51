package main

import (
	"log"

	"github.com/unirecords/university-api/internal/handler"
	"github.com/unirecords/university-api/internal/repository"
	"github.com/unirecords/university-api/internal/server"
	"github.com/unirecords/university-api/internal/service"
)

func main() {
	app, err := server.New("course-service", 3002)
	if err != nil {
		log.Fatalf("failed to start course-service: %v", err)
	}
	defer app.Close()

	store := repository.NewCourseStore(app.DB)

	var readCache service.ReadCache
	if cacheRepo := app.ReadCache(); cacheRepo != nil {
		readCache = cacheRepo
	}

	courses := service.NewCourseService(store, readCache, app.Config.Cache.TTL, app.Logger)
	handler.NewCourseHandler(courses).Register(app.Engine)

	if err := app.Run(); err != nil {
		app.Logger.Sugar().Fatalw("server failed", "error", err)
	}
}
