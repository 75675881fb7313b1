// Package board serves the dashboard pages themselves: the filtered
// page view, its live-update stream, and the filtered CSV download.
package board

import (
	"github.com/go-chi/chi/v5"

	"github.com/sightline-labs/sightline/internal/ui/features"
)

// SetupRoutes mounts the board feature.
func SetupRoutes(router chi.Router, deps features.Deps) error {
	handlers := NewHandlers(deps)

	router.Get("/board/{key}", handlers.BoardPage)
	router.Get("/board/{key}/updates", handlers.BoardUpdates)
	router.Get("/board/{key}/data.csv", handlers.DataCSV)

	return nil
}
