package main

import (
	"context"
	"fmt"
	"log"

	"retail-audit/internal/config"
	"retail-audit/internal/database"
	"retail-audit/internal/handlers"
	"retail-audit/internal/photos"
	"retail-audit/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	categories, err := config.LoadCategories(cfg.CategoriesFile)
	if err != nil {
		log.Fatalf("categories error: %v", err)
	}

	database.Init(cfg.DBDriver, cfg.DBDSN, cfg.AdminUsername, cfg.AdminPassword)

	blobs, err := photos.NewBlobStore(context.Background(), cfg.Photos)
	if err != nil {
		log.Fatalf("photo store error: %v", err)
	}

	opts := photos.DefaultOptions()
	opts.TargetBytes = cfg.Photos.TargetBytes
	opts.MaxDimension = cfg.Photos.MaxDimension

	photoService := photos.NewService(blobs, opts, cfg.Photos.Retention)
	defer photoService.Close()

	handlers.Configure(photoService, categories)

	r := server.NewRouter(cfg)

	addr := fmt.Sprintf(":%s", cfg.ServerPort)
	log.Printf("starting server on %s (%d categories)", addr, len(categories))
	if err := r.Run(addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
