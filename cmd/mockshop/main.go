// Standalone mock commerce platform for local development. Serves the
// same endpoints the gateway's platform client calls, with an in-memory
// cart registry and credential table.
package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"deliwer-commerce/internal/mockshop"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	port := os.Getenv("PORT")
	if port == "" {
		port = "9090"
	}
	checkoutURL := os.Getenv("CHECKOUT_URL")
	if checkoutURL == "" {
		checkoutURL = "http://localhost:" + port
	}

	shop := mockshop.New(checkoutURL, logger)
	shop.SeedAccount("demo@deliwer.com", "password123", "Demo Customer")

	// MOCK_UNAVAILABLE is a comma-separated variant ID list
	for _, id := range strings.Split(os.Getenv("MOCK_UNAVAILABLE"), ",") {
		if id = strings.TrimSpace(id); id != "" {
			shop.SetUnavailable(id, true)
		}
	}

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      shop.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	logger.Info("mock platform starting", slog.String("port", port))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
