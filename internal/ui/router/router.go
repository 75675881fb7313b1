// Package router wires the feature packages onto the server's mux.
package router

import (
	"github.com/go-chi/chi/v5"

	"github.com/sightline-labs/sightline/internal/ui/features"
	boardFeature "github.com/sightline-labs/sightline/internal/ui/features/board"
	homeFeature "github.com/sightline-labs/sightline/internal/ui/features/home"
	uploadFeature "github.com/sightline-labs/sightline/internal/ui/features/upload"
)

// SetupRoutes mounts every feature.
func SetupRoutes(router chi.Router, deps features.Deps) error {
	if err := homeFeature.SetupRoutes(router, deps); err != nil {
		return err
	}
	if err := boardFeature.SetupRoutes(router, deps); err != nil {
		return err
	}
	return uploadFeature.SetupRoutes(router, deps)
}
