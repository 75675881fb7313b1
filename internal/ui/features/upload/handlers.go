package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/a-h/templ"

	"github.com/sightline-labs/sightline/internal/state"
	"github.com/sightline-labs/sightline/internal/ui/features"
	"github.com/sightline-labs/sightline/internal/ui/features/common"
	installer "github.com/sightline-labs/sightline/internal/upload"
)

// maxUploadBytes bounds the multipart form we are willing to parse.
const maxUploadBytes = 64 << 20

// Handlers serves the data upload form.
type Handlers struct {
	deps features.Deps
}

// NewHandlers creates the upload feature handlers.
func NewHandlers(deps features.Deps) *Handlers {
	return &Handlers{deps: deps}
}

// UploadForm renders the upload page.
func (h *Handlers) UploadForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, "", "")
}

// Upload installs a posted data file: password check, backup, atomic
// replace, audit record, then a change ping to open dashboards.
func (h *Handlers) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		h.renderForm(w, r, "", "The upload form could not be read.")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.renderForm(w, r, "", "Choose a file to upload.")
		return
	}
	defer func() { _ = file.Close() }()

	target := r.FormValue("target")
	if target == "" {
		target = header.Filename
	}

	res, err := h.deps.Installer.Install(target, file, r.FormValue("password"))
	if err != nil {
		switch {
		case errors.Is(err, installer.ErrBadPassword):
			h.renderForm(w, r, "", "Wrong password.")
		case errors.Is(err, installer.ErrDisabled):
			h.renderForm(w, r, "", "Uploads are disabled on this server.")
		default:
			h.deps.Logger.Error("upload failed", "file", target, "error", err)
			h.renderForm(w, r, "", fmt.Sprintf("Upload failed: %v", err))
		}
		return
	}

	if _, err := h.deps.Store.RecordUpload(state.UploadRecord{
		FileName:   res.FileName,
		SizeBytes:  res.SizeBytes,
		BackupPath: res.BackupPath,
		Source:     "web",
	}); err != nil {
		h.deps.Logger.Warn("failed to record upload", "file", res.FileName, "error", err)
	}

	h.deps.Notifier.Broadcast()
	h.renderForm(w, r, fmt.Sprintf("Uploaded %s (%d bytes).", res.FileName, res.SizeBytes), "")
}

func (h *Handlers) renderForm(w http.ResponseWriter, r *http.Request, success, failure string) {
	layout := common.Layout(h.deps.Config.Brand, "Upload data",
		common.Nav(h.deps.Config, "/upload"), h.form(success, failure))
	if err := layout.Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// form renders the upload form with the configured data files as
// replacement targets.
func (h *Handlers) form(success, failure string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		esc := templ.EscapeString[string]
		if success != "" {
			if err := common.Notice(success).Render(ctx, w); err != nil {
				return err
			}
		}
		if failure != "" {
			if err := common.ErrorNotice(failure).Render(ctx, w); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w,
			`<h2>Upload data</h2>`+
				`<form id="upload-form" method="post" action="/upload" enctype="multipart/form-data">`+
				`<p><label>File <input type="file" name="file" required></label></p>`+
				`<p><label>Replace <select name="target"><option value="">(use uploaded file name)</option>`); err != nil {
			return err
		}
		for _, p := range h.deps.Config.Pages {
			if _, err := fmt.Fprintf(w, `<option value="%s">%s (%s)</option>`,
				esc(p.DataFile), esc(p.Title), esc(p.DataFile)); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w,
			`</select></label></p>`+
				`<p><label>Password <input type="password" name="password" required></label></p>`+
				`<p><button type="submit">Upload</button></p></form>`)
		return err
	})
}
