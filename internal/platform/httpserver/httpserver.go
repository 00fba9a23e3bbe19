package httpserver

import (
	"net/http"
	"time"
)

// New builds the API server. Write timeout is generous because operation
// endpoints block through on-chain confirmation; wallet approval on the
// public network can take minutes, so those requests are bounded by the
// signer's own context instead.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
}
