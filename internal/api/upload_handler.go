package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/avankov/pixvault/internal/common"
)

// UploadSigner issues presigned URLs against the source-image bucket.
// *assets.Signer implements it.
type UploadSigner interface {
	UploadSlot(ctx context.Context) (string, string, error)
	DeliveryURL(ctx context.Context, key string) (string, error)
}

// UploadHandler hands out presigned upload slots and delivery URLs for
// original source images.
type UploadHandler struct {
	signer UploadSigner
}

// NewUploadHandler creates a new UploadHandler.
func NewUploadHandler(signer UploadSigner) *UploadHandler {
	return &UploadHandler{signer: signer}
}

type uploadSlotResponse struct {
	Key       string `json:"key"`
	UploadURL string `json:"uploadUrl"`
}

type deliveryResponse struct {
	URL string `json:"url"`
}

// CreateSlot reserves a storage key and returns a presigned PUT URL for
// it.
func (h *UploadHandler) CreateSlot(w http.ResponseWriter, r *http.Request) {
	key, url, err := h.signer.UploadSlot(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, uploadSlotResponse{Key: key, UploadURL: url})
}

// Delivery returns a presigned GET URL for a previously uploaded key,
// passed as ?key=.
func (h *UploadHandler) Delivery(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		respondError(w, fmt.Errorf("%w: key is required", common.ErrInvalidInput))
		return
	}

	url, err := h.signer.DeliveryURL(r.Context(), key)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, deliveryResponse{URL: url})
}
