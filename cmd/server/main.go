package main

import (
	"log"
	"net/http"

	"agrimarket-be/internal/api"
	"agrimarket-be/internal/batch"
	"agrimarket-be/internal/cart"
	"agrimarket-be/internal/config"
	"agrimarket-be/internal/db"
	"agrimarket-be/internal/logger"
	"agrimarket-be/internal/notify"
	"agrimarket-be/internal/order"
	"agrimarket-be/internal/product"
	"agrimarket-be/internal/review"
	"agrimarket-be/internal/storage"
	"agrimarket-be/internal/user"
)

func main() {
	cfg := config.LoadConfig()

	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	database := db.InitDB(cfg)
	defer database.Close()

	hub := notify.NewHub()

	store, err := storage.New(cfg.UploadDir, cfg.PublicBaseURL)
	if err != nil {
		log.Fatalf("failed to init upload store: %v", err)
	}

	userRepo := user.NewRepository(database)
	userSvc := user.NewService(userRepo)

	productRepo := product.NewRepository(database)
	productSvc := product.NewService(productRepo, hub)

	cartRepo := cart.NewRepository(database)
	cartSvc := cart.NewService(cartRepo, productRepo, hub)

	orderRepo := order.NewRepository(database)
	orderSvc := order.NewService(orderRepo, productRepo, hub)

	reviewRepo := review.NewRepository(database)
	reviewSvc := review.NewService(reviewRepo, hub)

	batchRepo := batch.NewRepository(database)
	batchSvc := batch.NewService(batchRepo, userRepo, hub)

	router := api.NewRouter(api.Deps{
		DB:       database,
		Users:    userSvc,
		Products: productSvc,
		Carts:    cartSvc,
		Orders:   orderSvc,
		Reviews:  reviewSvc,
		Batches:  batchSvc,
		Store:    store,
		Hub:      hub,
	})

	log.Printf("server running at http://localhost:%s/", cfg.AppPort)
	log.Fatal(http.ListenAndServe(":"+cfg.AppPort, router))
}
