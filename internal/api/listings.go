package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"

	"github.com/and161185/homeheaven/internal/model"
)

// ListListings returns all listings (public).
func (c *Client) ListListings(ctx context.Context) ([]model.Listing, error) {
	var raw json.RawMessage
	if err := c.doJSON(ctx, http.MethodGet, "/listings", "", nil, &raw); err != nil {
		return nil, err
	}
	return unwrapEnvelope[[]model.Listing](raw, "listings")
}

// GetListing returns one listing (public).
func (c *Client) GetListing(ctx context.Context, id int64) (model.Listing, error) {
	var raw json.RawMessage
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/listings/%d", id), "", nil, &raw); err != nil {
		return model.Listing{}, err
	}
	return unwrapEnvelope[model.Listing](raw, "listing")
}

// CreateListing submits a new listing and returns it with its assigned id.
func (c *Client) CreateListing(ctx context.Context, token string, p model.ListingPayload) (model.Listing, error) {
	var raw json.RawMessage
	if err := c.doJSON(ctx, http.MethodPost, "/listings", token, p, &raw); err != nil {
		return model.Listing{}, err
	}
	return unwrapEnvelope[model.Listing](raw, "listing")
}

// UpdateListing submits updated fields and returns what the backend persisted,
// keeping track of which keys the response carried.
func (c *Client) UpdateListing(ctx context.Context, token string, id int64, p model.ListingPayload) (model.ListingUpdate, error) {
	var raw json.RawMessage
	if err := c.doJSON(ctx, http.MethodPut, fmt.Sprintf("/listings/%d", id), token, p, &raw); err != nil {
		return model.ListingUpdate{}, err
	}
	return unwrapEnvelope[model.ListingUpdate](raw, "listing")
}

// DeleteListing removes a listing owned by the caller.
func (c *Client) DeleteListing(ctx context.Context, token string, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/listings/%d", id), token, nil, nil)
}

// UploadListingImage posts one image (multipart fields "image" and "caption").
func (c *Client) UploadListingImage(ctx context.Context, token string, listingID int64, slot model.ImageSlot) (model.Image, error) {
	body, ct, err := multipartImage(slot, map[string]string{"caption": slot.Caption})
	if err != nil {
		return model.Image{}, err
	}
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/listings/%d/images", listingID), token, body, ct, &raw); err != nil {
		return model.Image{}, err
	}
	return unwrapEnvelope[model.Image](raw, "image")
}

func multipartImage(slot model.ImageSlot, fields map[string]string) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	name := filepath.Base(slot.Filename)
	if slot.Filename == "" {
		name = "image"
	}
	fw, err := w.CreateFormFile("image", name)
	if err != nil {
		return nil, "", err
	}
	if _, err := fw.Write(slot.Payload); err != nil {
		return nil, "", err
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
