// Package handlers agrupa os handlers HTTP do serviço.
package handlers

import (
	"encoding/json"
	"net/http"
)

// TestHandler é a rota de exemplo protegida pelo limiter; só responde quando
// a requisição foi admitida.
func TestHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"message":   "request admitted",
		"remaining": w.Header().Get("X-RateLimit-Remaining"),
	})
}
