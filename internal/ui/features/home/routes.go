// Package home provides the landing page: the dashboard directory and
// recent upload activity.
package home

import (
	"github.com/go-chi/chi/v5"

	"github.com/sightline-labs/sightline/internal/ui/features"
)

// SetupRoutes mounts the home feature.
func SetupRoutes(router chi.Router, deps features.Deps) error {
	handlers := NewHandlers(deps)

	router.Get("/", handlers.HomePage)
	router.Get("/updates", handlers.HomeUpdates)

	return nil
}
