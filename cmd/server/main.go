package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/littlelemon/api/internal/config"
	"github.com/littlelemon/api/internal/database"
	"github.com/littlelemon/api/internal/notify"
	"github.com/littlelemon/api/internal/router"
	"github.com/littlelemon/api/internal/ws"
)

func main() {
	cfg := config.Load()

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Unable to ping database: %v", err)
	}
	log.Println("Connected to database")

	queries := database.New(pool)

	hub := ws.NewHub()
	go hub.Run()

	broker, err := notify.DialBroker(cfg.AMQPURL)
	if err != nil {
		log.Fatalf("Unable to connect to message broker: %v", err)
	}
	if broker != nil {
		defer broker.Close()
		log.Println("Connected to message broker")
	}
	notifier := notify.NewNotifier(hub, broker)

	r := router.New(cfg, queries, pool, hub, notifier)

	log.Printf("Starting server on :%s", cfg.Port)
	if err := http.ListenAndServe(fmt.Sprintf(":%s", cfg.Port), r); err != nil {
		log.Fatal(err)
	}
}
