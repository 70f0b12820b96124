package handler

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/sakif/podcast-api/internal/model"
)

// ContentLister is the part of service.CatalogService the handler uses.
type ContentLister interface {
	ListContent(ctx context.Context) ([]model.Content, error)
}

// ContentHandler serves /content/.
type ContentHandler struct {
	catalog ContentLister
	logger  *zap.Logger
}

func NewContentHandler(catalog ContentLister, logger *zap.Logger) *ContentHandler {
	return &ContentHandler{catalog: catalog, logger: logger}
}

// List returns every content row, in id order.
//
// HTTP: GET /content/  (RequireAuth)
func (h *ContentHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.catalog.ListContent(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	out := make([]map[string]any, 0, len(items))
	for i := range items {
		out = append(out, items[i].Serialize())
	}
	writeJSON(w, http.StatusOK, out)
}
