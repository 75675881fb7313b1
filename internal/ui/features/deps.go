// Package features holds what every UI feature package shares: the
// dependency bundle handlers are built from, and test fixtures for
// handler tests.
package features

import (
	"log/slog"

	"github.com/gorilla/sessions"

	"github.com/sightline-labs/sightline/internal/config"
	"github.com/sightline-labs/sightline/internal/page"
	"github.com/sightline-labs/sightline/internal/state"
	"github.com/sightline-labs/sightline/internal/ui/notifier"
	"github.com/sightline-labs/sightline/internal/upload"
)

// Deps bundles the services feature handlers depend on.
type Deps struct {
	Config    *config.Config
	Renderer  *page.Renderer
	Store     *state.Store
	Installer *upload.Installer
	Sessions  sessions.Store
	Notifier  *notifier.Notifier
	Logger    *slog.Logger
}
