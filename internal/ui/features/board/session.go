package board

import (
	"net/http"
	"net/url"

	"github.com/sightline-labs/sightline/internal/config"
	"github.com/sightline-labs/sightline/internal/page"
)

// sessionName is the cookie holding per-page filter selections.
const sessionName = "sightline"

// parseSelections reads filter choices from a submitted filter form.
// Date filters arrive as <key>_from/<key>_to, multi filters as repeated
// <key> values.
func parseSelections(q url.Values, spec config.PageSpec) page.Selections {
	sel := page.Selections{}
	for _, f := range spec.Filters {
		switch f.Kind {
		case config.FilterDate:
			from, to := q.Get(f.Key+"_from"), q.Get(f.Key+"_to")
			if from != "" || to != "" {
				sel[f.Key] = []string{from, to}
			}
		case config.FilterMulti:
			var vals []string
			for _, v := range q[f.Key] {
				if v != "" {
					vals = append(vals, v)
				}
			}
			if len(vals) > 0 {
				sel[f.Key] = vals
			}
		}
	}
	return sel
}

// loadSelections restores the page's saved selections from the session.
func (h *Handlers) loadSelections(r *http.Request, pageKey string) page.Selections {
	session, err := h.deps.Sessions.Get(r, sessionName)
	if err != nil {
		return nil
	}
	encoded, ok := session.Values[pageKey].(string)
	if !ok || encoded == "" {
		return nil
	}
	q, err := url.ParseQuery(encoded)
	if err != nil {
		return nil
	}
	return page.Selections(q)
}

// saveSelections persists the page's selections; empty selections clear
// the saved entry.
func (h *Handlers) saveSelections(w http.ResponseWriter, r *http.Request, pageKey string, sel page.Selections) {
	session, err := h.deps.Sessions.Get(r, sessionName)
	if err != nil {
		return
	}
	if len(sel) == 0 {
		delete(session.Values, pageKey)
	} else {
		session.Values[pageKey] = url.Values(sel).Encode()
	}
	if err := session.Save(r, w); err != nil {
		h.deps.Logger.Warn("failed to save session", "page", pageKey, "error", err)
	}
}
