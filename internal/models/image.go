package models

import (
	"encoding/json"
	"time"
)

// Image is one transformation record in the catalog. The pixels live in
// the external asset service; we keep the metadata and the delivery URLs.
type Image struct {
	ID                 string          `json:"id"`
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
	AuthorID           string          `json:"authorId,omitempty"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`

	// Author is the denormalized owner summary, populated on reads.
	Author *AuthorSummary `json:"author,omitempty"`
}

// AuthorSummary is the compact projection of the owning user returned
// with catalog reads. It deliberately exposes no storage internals
// beyond the two ids display code needs.
type AuthorSummary struct {
	ID         string `json:"id"`
	ExternalID string `json:"externalId"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
}
