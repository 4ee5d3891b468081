package api

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/JaimeStill/tally/internal/analyses"
	"github.com/JaimeStill/tally/pkg/handlers"
	"github.com/JaimeStill/tally/pkg/routes"
	"github.com/JaimeStill/tally/pkg/storage"
)

// sourcesHandler exposes archived uploads. Keys in paths and responses
// are relative to analyses.SourcePrefix so the archive cannot be used to
// reach other blobs in the container.
type sourcesHandler struct {
	store       storage.System
	logger      *slog.Logger
	maxListSize int32
}

func newSourcesHandler(
	store storage.System,
	logger *slog.Logger,
	maxListSize int32,
) *sourcesHandler {
	return &sourcesHandler{
		store:       store,
		logger:      logger.With("handler", "sources"),
		maxListSize: maxListSize,
	}
}

func (h *sourcesHandler) routes() routes.Group {
	return routes.Group{
		Prefix: "/sources",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.list},
			{Method: "GET", Pattern: "/download/{key...}", Handler: h.download},
			{Method: "GET", Pattern: "/{key...}", Handler: h.find},
			{Method: "DELETE", Pattern: "/{key...}", Handler: h.delete},
		},
	}
}

func (h *sourcesHandler) list(w http.ResponseWriter, r *http.Request) {
	maxResults, err := storage.ParseMaxResults(
		r.URL.Query().Get("max_results"),
		h.maxListSize,
	)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	result, err := h.store.List(
		r.Context(),
		analyses.SourcePrefix+r.URL.Query().Get("prefix"),
		r.URL.Query().Get("marker"),
		maxResults,
	)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	for i := range result.Blobs {
		result.Blobs[i].Key = strings.TrimPrefix(result.Blobs[i].Key, analyses.SourcePrefix)
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

func (h *sourcesHandler) find(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	info, err := h.store.Find(r.Context(), analyses.SourcePrefix+key)
	if err != nil {
		handlers.RespondError(w, h.logger, storage.MapHTTPStatus(err), err)
		return
	}
	info.Key = key

	handlers.RespondJSON(w, http.StatusOK, info)
}

func (h *sourcesHandler) download(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	result, err := h.store.Download(r.Context(), analyses.SourcePrefix+key)
	if err != nil {
		handlers.RespondError(w, h.logger, storage.MapHTTPStatus(err), err)
		return
	}
	defer result.Body.Close()

	w.Header().Set("Content-Type", result.ContentType)
	if result.ContentLength > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(result.ContentLength, 10))
	}
	w.Header().Set(
		"Content-Disposition",
		fmt.Sprintf("inline; filename=%q", path.Base(key)),
	)
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, result.Body); err != nil {
		h.logger.Warn("source download interrupted", "key", key, "error", err)
	}
}

func (h *sourcesHandler) delete(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	if err := h.store.Delete(r.Context(), analyses.SourcePrefix+key); err != nil {
		handlers.RespondError(w, h.logger, storage.MapHTTPStatus(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
