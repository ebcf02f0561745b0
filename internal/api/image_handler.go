package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/avankov/pixvault/internal/common"
	"github.com/avankov/pixvault/internal/services"
)

// ImageHandler handles HTTP requests for the image catalog.
type ImageHandler struct {
	images services.ImageServiceProvider
	users  services.UserServiceProvider
}

// NewImageHandler creates a new ImageHandler.
func NewImageHandler(images services.ImageServiceProvider, users services.UserServiceProvider) *ImageHandler {
	return &ImageHandler{images: images, users: users}
}

// CreateImagePayload is the request body for recording a transformation.
// Path names the page to invalidate after the write; empty means the
// root listing.
type CreateImagePayload struct {
	Title              string          `json:"title"`
	PublicID           string          `json:"publicId"`
	TransformationType string          `json:"transformationType"`
	Width              int             `json:"width"`
	Height             int             `json:"height"`
	Config             json.RawMessage `json:"config"`
	SecureURL          string          `json:"secureUrl"`
	TransformationURL  string          `json:"transformationUrl"`
	AspectRatio        string          `json:"aspectRatio"`
	Prompt             string          `json:"prompt"`
	Color              string          `json:"color"`
	Path               string          `json:"path"`
}

// UpdateImagePayload is a partial entry update; absent fields are left
// unchanged.
type UpdateImagePayload struct {
	Title              *string         `json:"title"`
	PublicID           *string         `json:"publicId"`
	TransformationType *string         `json:"transformationType"`
	Width              *int            `json:"width"`
	Height             *int            `json:"height"`
	Config             json.RawMessage `json:"config"`
	SecureURL          *string         `json:"secureUrl"`
	TransformationURL  *string         `json:"transformationUrl"`
	AspectRatio        *string         `json:"aspectRatio"`
	Prompt             *string         `json:"prompt"`
	Color              *string         `json:"color"`
	Path               string          `json:"path"`
}

// callerAccount resolves the authenticated identity to its internal
// account. A token for an unprovisioned identity cannot own anything.
func (h *ImageHandler) callerAccount(r *http.Request) (string, error) {
	user, err := h.users.GetUserByExternalID(r.Context(), callerExternalID(r.Context()))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "", fmt.Errorf("%w: no account for caller", common.ErrUnauthorized)
		}
		return "", err
	}
	return user.ID, nil
}

// Create records a new transformation authored by the caller.
func (h *ImageHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload CreateImagePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, fmt.Errorf("%w: invalid request body", common.ErrInvalidInput))
		return
	}
	if payload.Path == "" {
		payload.Path = "/"
	}

	img, err := h.images.CreateImage(r.Context(), services.CreateImageParams{
		Title:              payload.Title,
		PublicID:           payload.PublicID,
		TransformationType: payload.TransformationType,
		Width:              payload.Width,
		Height:             payload.Height,
		Config:             payload.Config,
		SecureURL:          payload.SecureURL,
		TransformationURL:  payload.TransformationURL,
		AspectRatio:        payload.AspectRatio,
		Prompt:             payload.Prompt,
		Color:              payload.Color,
	}, callerExternalID(r.Context()), payload.Path)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, img)
}

// Get returns a single catalog entry.
func (h *ImageHandler) Get(w http.ResponseWriter, r *http.Request) {
	img, err := h.images.GetImageByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, img)
}

// Update patches an entry owned by the caller.
func (h *ImageHandler) Update(w http.ResponseWriter, r *http.Request) {
	callerID, err := h.callerAccount(r)
	if err != nil {
		respondError(w, err)
		return
	}

	var payload UpdateImagePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, fmt.Errorf("%w: invalid request body", common.ErrInvalidInput))
		return
	}
	if payload.Path == "" {
		payload.Path = "/"
	}

	img, err := h.images.UpdateImage(r.Context(), chi.URLParam(r, "id"), services.UpdateImageParams{
		Title:              payload.Title,
		PublicID:           payload.PublicID,
		TransformationType: payload.TransformationType,
		Width:              payload.Width,
		Height:             payload.Height,
		Config:             payload.Config,
		SecureURL:          payload.SecureURL,
		TransformationURL:  payload.TransformationURL,
		AspectRatio:        payload.AspectRatio,
		Prompt:             payload.Prompt,
		Color:              payload.Color,
	}, callerID, payload.Path)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, img)
}

// Delete removes an entry from the catalog.
func (h *ImageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	callerID, err := h.callerAccount(r)
	if err != nil {
		respondError(w, err)
		return
	}

	if err := h.images.DeleteImage(r.Context(), chi.URLParam(r, "id"), callerID); err != nil {
		respondError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListAll serves one page of the community gallery, optionally narrowed
// by an asset-index search query.
func (h *ImageHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	page, err := h.images.ListAllImages(r.Context(), pageParam(r), r.URL.Query().Get("query"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

// ListByUser serves one page of a user's entries. The {id} segment
// accepts the internal or the external account id.
func (h *ImageHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if user, err := h.users.GetUserByExternalID(r.Context(), userID); err == nil {
		userID = user.ID
	}

	page, err := h.images.ListUserImages(r.Context(), userID, pageParam(r))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

// pageParam reads ?page, defaulting to the first page on anything
// missing or unparsable.
func pageParam(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}
