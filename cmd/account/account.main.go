package main

import (
	"errors"
	"log"
	"net/http"

	"account-service/internal/config"
	"account-service/internal/server"
)

func main() {
	cfg := config.Load()

	srv := server.NewServer(cfg)

	log.Printf("account service starting on %s", cfg.HTTPAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}
