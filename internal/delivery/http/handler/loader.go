package handler

import (
	"bytes"
	"embed"
	"log/slog"
	"net/http"
	"text/template"

	"github.com/user/schema-cache/internal/delivery/http/request"
	"github.com/user/schema-cache/pkg/utils"
)

//go:embed assets/loader.js.tmpl
var assets embed.FS

var loaderTemplate = template.Must(template.ParseFS(assets, "assets/loader.js.tmpl"))

const (
	javascriptContentType = "application/javascript"
	loaderMaxAge          = 86400
	signalDelayMS         = 1000
)

type loaderParams struct {
	ClientID      string
	BaseURL       string
	OverrideURL   string
	HashLimit     int
	SignalDelayMS int
}

// HandleSchemaLoader renders the script customers embed on their pages.
func (h *Handler) HandleSchemaLoader(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		h.writeJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	clientID := request.OrganizationID(q)
	if clientID == "" {
		w.Header().Set("Content-Type", javascriptContentType)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("// Missing client_id parameter"))
		return
	}

	// Values land inside single-quoted JS literals.
	var buf bytes.Buffer
	err := loaderTemplate.Execute(&buf, loaderParams{
		ClientID:      template.JSEscapeString(clientID),
		BaseURL:       template.JSEscapeString(h.loaderBaseURL(r)),
		OverrideURL:   template.JSEscapeString(q.Get("page_url")),
		HashLimit:     utils.ContentHashLimit,
		SignalDelayMS: signalDelayMS,
	})
	if err != nil {
		slog.Error("Failed to render loader", "error", err)
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", javascriptContentType)
	w.Header().Set("Cache-Control", cacheControl(loaderMaxAge))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// loaderBaseURL is always https unless configured, since TLS usually ends before this process.
func (h *Handler) loaderBaseURL(r *http.Request) string {
	if h.opts.PublicBaseURL != "" {
		return h.opts.PublicBaseURL
	}
	return "https://" + r.Host + "/functions/v1"
}
