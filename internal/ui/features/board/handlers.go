package board

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/sightline-labs/sightline/internal/page"
	"github.com/sightline-labs/sightline/internal/ui/features"
	"github.com/sightline-labs/sightline/internal/ui/features/common"
)

// Handlers serves the dashboard pages.
type Handlers struct {
	deps features.Deps
}

// NewHandlers creates the board feature handlers.
func NewHandlers(deps features.Deps) *Handlers {
	return &Handlers{deps: deps}
}

// BoardPage renders one dashboard page. Submitted filter forms arrive as
// GET queries with apply=1; ?clear=1 resets the page's saved filters.
func (h *Handlers) BoardPage(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	spec, ok := h.deps.Config.Page(key)
	if !ok {
		http.NotFound(w, r)
		return
	}

	q := r.URL.Query()
	var sel page.Selections
	switch {
	case q.Get("clear") != "":
		h.saveSelections(w, r, key, nil)
		http.Redirect(w, r, "/board/"+key, http.StatusSeeOther)
		return
	case q.Get("apply") != "":
		sel = parseSelections(q, spec)
		h.saveSelections(w, r, key, sel)
	default:
		sel = h.loadSelections(r, key)
	}

	started := time.Now()
	view, err := h.deps.Renderer.Build(r.Context(), spec, sel)
	nav := common.Nav(h.deps.Config, "/board/"+key)
	if err != nil {
		h.deps.Logger.Error("failed to build page", "page", key, "error", err)
		layout := common.Layout(h.deps.Config.Brand, spec.Title, nav,
			common.ErrorNotice(fmt.Sprintf("Could not load data for this page: %v", err)))
		_ = layout.Render(r.Context(), w)
		return
	}
	h.recordRender(view, time.Since(started))

	layout := common.Layout(h.deps.Config.Brand, spec.Title, nav, h.content(view))
	if err := layout.Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// BoardUpdates is the SSE endpoint that re-renders the page content when
// the underlying data file changes. Selections are the ones saved when
// the client connected.
func (h *Handlers) BoardUpdates(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	spec, ok := h.deps.Config.Page(key)
	if !ok {
		http.NotFound(w, r)
		return
	}
	sel := h.loadSelections(r, key)

	sse := datastar.NewSSE(w, r)
	updates := h.deps.Notifier.Subscribe()
	defer h.deps.Notifier.Unsubscribe(updates)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-updates:
			view, err := h.deps.Renderer.Build(ctx, spec, sel)
			if err != nil {
				_ = sse.ConsoleError(err)
				continue
			}
			if err := sse.PatchElementTempl(h.content(view)); err != nil {
				return
			}
		}
	}
}

// DataCSV streams the page's rows, with the saved filters applied, as a
// CSV download.
func (h *Handlers) DataCSV(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	spec, ok := h.deps.Config.Page(key)
	if !ok {
		http.NotFound(w, r)
		return
	}

	ds, err := h.deps.Renderer.Filtered(r.Context(), spec, h.loadSelections(r, key))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", key+".csv"))

	cw := csv.NewWriter(w)
	cols := ds.Columns()
	if err := cw.Write(cols); err != nil {
		return
	}
	row := make([]string, len(cols))
	for i := 0; i < ds.Len(); i++ {
		for j, name := range cols {
			s, _ := ds.Column(name)
			row[j] = s.Value(i)
		}
		if err := cw.Write(row); err != nil {
			return
		}
	}
	cw.Flush()
}

func (h *Handlers) recordRender(view *page.View, took time.Duration) {
	if err := h.deps.Store.RecordRender(view.Spec.Key, view.TotalRows, view.FilteredRows, took); err != nil {
		h.deps.Logger.Warn("failed to record render", "page", view.Spec.Key, "error", err)
	}
}

// content builds the #board-content fragment shared by the full render
// and SSE patches.
func (h *Handlers) content(view *page.View) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		esc := templ.EscapeString[string]
		key := view.Spec.Key
		if _, err := fmt.Fprintf(w,
			`<div id="board-content" data-on-load="@get('/board/%[1]s/updates')">`+
				`<h2>%[2]s %[3]s</h2>`, esc(key), esc(view.Spec.Icon), esc(view.Spec.Title)); err != nil {
			return err
		}
		if view.Spec.Subtitle != "" {
			if _, err := fmt.Fprintf(w, `<p class="muted">%s</p>`, esc(view.Spec.Subtitle)); err != nil {
				return err
			}
		}

		if err := common.FilterPanel("/board/"+key, view.Filters).Render(ctx, w); err != nil {
			return err
		}
		if err := common.Chips(view.Chips).Render(ctx, w); err != nil {
			return err
		}

		caption := fmt.Sprintf(`<p class="muted">%d of %d records`, view.FilteredRows, view.TotalRows)
		if !view.LastUpdated.IsZero() {
			caption += " | updated " + view.LastUpdated.Format("2006-01-02 15:04")
		}
		if !view.DataThrough.IsZero() {
			caption += " | data through " + view.DataThrough.Format("2006-01-02")
		}
		caption += fmt.Sprintf(` | <a href="/board/%s/data.csv">Download CSV</a></p>`, esc(key))
		if _, err := io.WriteString(w, caption); err != nil {
			return err
		}

		if view.Notice != "" {
			if err := common.ErrorNotice(view.Notice).Render(ctx, w); err != nil {
				return err
			}
		} else {
			if err := common.MetricCards(view.Metrics).Render(ctx, w); err != nil {
				return err
			}
			if err := common.ChartSections(key, view.Sections).Render(ctx, w); err != nil {
				return err
			}
		}

		_, err := io.WriteString(w, `</div>`)
		return err
	})
}
