package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"ClaimRelay/api"
	"ClaimRelay/db"
)

func SetupRouter(store *db.Store) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", api.HandleHealthCheck)
	r.Get("/status", api.HandleStatus(store))

	return r
}
