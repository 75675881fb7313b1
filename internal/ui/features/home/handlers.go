package home

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/a-h/templ"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/sightline-labs/sightline/internal/state"
	"github.com/sightline-labs/sightline/internal/ui/features"
	"github.com/sightline-labs/sightline/internal/ui/features/common"
)

// recentUploads caps the home page upload listing.
const recentUploads = 10

// Handlers serves the landing page.
type Handlers struct {
	deps features.Deps
}

// NewHandlers creates the home feature handlers.
func NewHandlers(deps features.Deps) *Handlers {
	return &Handlers{deps: deps}
}

// HomePage renders the landing page with the dashboard directory and
// recent uploads.
func (h *Handlers) HomePage(w http.ResponseWriter, r *http.Request) {
	body, err := h.content()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	layout := common.Layout(h.deps.Config.Brand, "Home", common.Nav(h.deps.Config, "/"), body)
	if err := layout.Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// HomeUpdates is the SSE endpoint that re-patches the landing page
// content when data files change.
func (h *Handlers) HomeUpdates(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	updates := h.deps.Notifier.Subscribe()
	defer h.deps.Notifier.Unsubscribe(updates)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-updates:
			body, err := h.content()
			if err != nil {
				_ = sse.ConsoleError(err)
				continue
			}
			if err := sse.PatchElementTempl(body); err != nil {
				return
			}
		}
	}
}

// content builds the #home-content fragment shared by the full render
// and SSE patches.
func (h *Handlers) content() (templ.Component, error) {
	uploads, err := h.deps.Store.ListUploads(recentUploads)
	if err != nil {
		return nil, err
	}

	cfg := h.deps.Config
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		esc := templ.EscapeString[string]
		if _, err := fmt.Fprintf(w,
			`<div id="home-content" data-on-load="@get('/updates')">`+
				`<p class="muted">%s</p><div class="metric-row">`,
			esc(cfg.Brand.Title)); err != nil {
			return err
		}
		for _, p := range cfg.Pages {
			if _, err := fmt.Fprintf(w,
				`<a class="metric-card" style="border-left-color:%s;text-decoration:none;color:inherit" href="/board/%s">`+
					`<div class="metric-value">%s %s</div><div class="metric-help">%s</div></a>`,
				esc(cfg.Brand.Color), esc(p.Key), esc(p.Icon), esc(p.Title), esc(p.Subtitle)); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, `</div>`); err != nil {
			return err
		}
		if err := uploadsTable(w, uploads); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</div>`)
		return err
	}), nil
}

func uploadsTable(w io.Writer, uploads []state.UploadRecord) error {
	if len(uploads) == 0 {
		return nil
	}
	esc := templ.EscapeString[string]
	if _, err := io.WriteString(w,
		`<h2>Recent uploads</h2><table class="listing">`+
			`<tr><th>File</th><th>Size</th><th>Source</th><th>When</th></tr>`); err != nil {
		return err
	}
	for _, u := range uploads {
		if _, err := fmt.Fprintf(w, `<tr><td>%s</td><td>%d</td><td>%s</td><td>%s</td></tr>`,
			esc(u.FileName), u.SizeBytes, esc(u.Source),
			u.UploadedAt.Format("2006-01-02 15:04")); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, `</table>`)
	return err
}
