// Package api exposes the small HTTP surface used for deployment probes and
// an operator status view. All bot traffic runs over Socket Mode, not HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	log15 "github.com/inconshreveable/log15/v3"

	"ClaimRelay/db"
)

var logger = log15.New("module", "api")

// StatusStore is the read-only slice of the store the HTTP surface needs.
type StatusStore interface {
	ListChannelConfigs(ctx context.Context) ([]db.ChannelConfig, error)
	CountClaims(ctx context.Context, channelID string) (int64, error)
}

// ChannelStatus is one row of the operator status view.
type ChannelStatus struct {
	ChannelID  string `json:"channel_id"`
	URLPattern string `json:"url_pattern"`
	ClaimCount int64  `json:"claim_count"`
}

func HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleStatus lists active channel configurations with their claim counts.
func HandleStatus(store StatusStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		configs, err := store.ListChannelConfigs(r.Context())
		if err != nil {
			logger.Error("status: failed to list configs", "err", err)
			http.Error(w, "failed to load status", http.StatusInternalServerError)
			return
		}

		statuses := make([]ChannelStatus, 0, len(configs))
		for _, cfg := range configs {
			count, err := store.CountClaims(r.Context(), cfg.ChannelID)
			if err != nil {
				logger.Error("status: failed to count claims", "channel", cfg.ChannelID, "err", err)
				http.Error(w, "failed to load status", http.StatusInternalServerError)
				return
			}
			statuses = append(statuses, ChannelStatus{
				ChannelID:  cfg.ChannelID,
				URLPattern: cfg.URLPattern,
				ClaimCount: count,
			})
		}
		writeJSON(w, http.StatusOK, statuses)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
