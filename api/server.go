package api

import (
	"net/http"
	"time"

	"tokendraw/service"
)

// NewServer creates a configured *http.Server for the draw engine API
func NewServer(addr string, ledger service.TokenLedgerService, draws service.DrawService, prizes service.PrizeService) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           NewRouter(ledger, draws, prizes),
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
