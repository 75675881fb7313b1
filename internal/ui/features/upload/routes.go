// Package upload serves the password-gated data upload form.
package upload

import (
	"github.com/go-chi/chi/v5"

	"github.com/sightline-labs/sightline/internal/ui/features"
)

// SetupRoutes mounts the upload feature.
func SetupRoutes(router chi.Router, deps features.Deps) error {
	handlers := NewHandlers(deps)

	router.Get("/upload", handlers.UploadForm)
	router.Post("/upload", handlers.Upload)

	return nil
}
