package main

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/stv0g/pion-roulette/pkg/relay"
)

func apiHandle(r *relay.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if err := json.NewEncoder(w).Encode(r.Stats()); err != nil {
			logrus.Errorf("Failed to encode API response: %s", err)
		}
	}
}
