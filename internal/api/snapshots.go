package api

import (
	"compress/gzip"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/trialscope/trialscope/pkg/snapshot"
)

// maxSnapshotBytes bounds an uploaded snapshot document, compressed and
// decompressed alike.
const maxSnapshotBytes = 32 << 20

// handleUploadSnapshot handles POST /api/v1/snapshots: validates the body,
// writes it to the data source and rebuilds the model from it.
func (h *Handler) handleUploadSnapshot(w http.ResponseWriter, r *http.Request) {
	if h.publisher == nil {
		writeError(w, http.StatusNotImplemented, "snapshot upload is not configured")
		return
	}

	var body io.Reader = http.MaxBytesReader(w, r.Body, maxSnapshotBytes)
	if r.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(body)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid gzip body: "+err.Error())
			return
		}
		defer gz.Close()
		body = io.LimitReader(gz, maxSnapshotBytes+1)
	}

	data, err := io.ReadAll(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body: "+err.Error())
		return
	}
	if len(data) > maxSnapshotBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "snapshot exceeds size limit")
		return
	}
	if _, err := snapshot.Parse(data); err != nil {
		writeError(w, http.StatusBadRequest, "invalid snapshot JSON: "+err.Error())
		return
	}

	if err := h.publisher.Publish(r.Context(), data); err != nil {
		h.log.Error("publishing snapshot failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to store snapshot: "+err.Error())
		return
	}

	model, err := h.cache.Refresh(r.Context())
	if err != nil {
		h.unavailable(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, model.Provenance)
}
