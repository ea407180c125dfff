package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/qr-billing/api/internal/backend"
	"github.com/qr-billing/api/internal/checkout"
	"github.com/qr-billing/api/internal/config"
	"github.com/qr-billing/api/internal/router"
	"github.com/qr-billing/api/internal/session"
	"github.com/qr-billing/api/internal/ws"
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

	store := session.NewPGStore(pool)
	client := backend.NewClient(cfg.BackendBaseURL)

	hub := ws.NewHub()
	go hub.Run()

	flow := checkout.NewController(client, store, cfg.DefaultBusinessID,
		checkout.LogObserver{Enabled: cfg.FlowLog},
		ws.NewFlowObserver(hub),
	)

	r := router.New(cfg, client, store, flow, hub)

	log.Printf("Starting server on :%s (backend %s)", cfg.Port, cfg.BackendBaseURL)
	if err := http.ListenAndServe(fmt.Sprintf(":%s", cfg.Port), r); err != nil {
		log.Fatal(err)
	}
}
