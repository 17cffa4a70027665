package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/urovesa/portal-api/internal/therefore"
	pkghttp "github.com/urovesa/portal-api/pkg/http"
)

// maxProxyBodySize bounds request bodies forwarded to Therefore
const maxProxyBodySize = 1 << 20 // 1 MB

// ThereforeClientInterface defines the interface for the document store proxy
type ThereforeClientInterface interface {
	ExecuteSingleQuery(ctx context.Context, body json.RawMessage) (*therefore.Result, error)
	CreateDocument(ctx context.Context, body json.RawMessage) (*therefore.Result, error)
	GetDocument(ctx context.Context, docNo string) (*therefore.Result, error)
}

// DocumentHandler proxies document requests to the Therefore REST API,
// attaching tenant credentials server-side so they never reach the browser.
type DocumentHandler struct {
	client ThereforeClientInterface
	logger *slog.Logger
}

// NewDocumentHandler creates a new DocumentHandler
func NewDocumentHandler(client ThereforeClientInterface, logger *slog.Logger) *DocumentHandler {
	return &DocumentHandler{client: client, logger: logger}
}

// ExecuteSingleQuery handles POST /api/therefore/executeSingleQuery
func (h *DocumentHandler) ExecuteSingleQuery(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readBody(w, r)
	if !ok {
		return
	}

	result, err := h.client.ExecuteSingleQuery(r.Context(), body)
	h.relay(w, r, result, err)
}

// CreateDocument handles POST /api/therefore/createDocument
func (h *DocumentHandler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readBody(w, r)
	if !ok {
		return
	}

	result, err := h.client.CreateDocument(r.Context(), body)
	h.relay(w, r, result, err)
}

// GetDocument handles GET /api/therefore/getDocument?docNo=
func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	docNo := strings.TrimSpace(r.URL.Query().Get("docNo"))
	if docNo == "" {
		pkghttp.WriteBadRequest(w, "docNo is required")
		return
	}

	result, err := h.client.GetDocument(r.Context(), docNo)
	h.relay(w, r, result, err)
}

func (h *DocumentHandler) readBody(w http.ResponseWriter, r *http.Request) (json.RawMessage, bool) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxProxyBodySize))
	if err != nil {
		pkghttp.WriteBadRequest(w, "Failed to read request body")
		return nil, false
	}
	return body, true
}

// relay writes the upstream status and JSON body through unchanged so
// the front end sees the same responses it would get from Therefore.
func (h *DocumentHandler) relay(w http.ResponseWriter, r *http.Request, result *therefore.Result, err error) {
	if err != nil {
		h.logger.Error("therefore request failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		pkghttp.WriteServiceUnavailable(w, "Document service unavailable")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(result.StatusCode)
	w.Write(result.Body)
}
