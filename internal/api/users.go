package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/and161185/homeheaven/internal/model"
)

// GetProfile returns the user's profile with owned listings.
func (c *Client) GetProfile(ctx context.Context, token string, userID int64) (model.Profile, error) {
	var raw json.RawMessage
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/users/%d", userID), token, nil, &raw); err != nil {
		return model.Profile{}, err
	}
	return unwrapEnvelope[model.Profile](raw, "profile")
}

// UploadProfileImage replaces the user's avatar and returns the updated profile.
func (c *Client) UploadProfileImage(ctx context.Context, token string, userID int64, img model.ImageSlot) (model.Profile, error) {
	body, ct, err := multipartImage(img, nil)
	if err != nil {
		return model.Profile{}, err
	}
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/users/%d/avatar", userID), token, body, ct, &raw); err != nil {
		return model.Profile{}, err
	}
	return unwrapEnvelope[model.Profile](raw, "profile")
}

// AddToWishlist saves a listing for the user. Duplicates are the backend's concern.
func (c *Client) AddToWishlist(ctx context.Context, token string, userID, listingID int64) error {
	in := model.WishlistEntry{UserID: userID, ListingID: listingID}
	return c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/users/%d/wishlist", userID), token, in, nil)
}

// GetWishlist returns the user's saved listings.
func (c *Client) GetWishlist(ctx context.Context, token string, userID int64) ([]model.Listing, error) {
	var raw json.RawMessage
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/users/%d/wishlist", userID), token, nil, &raw); err != nil {
		return nil, err
	}
	return unwrapEnvelope[[]model.Listing](raw, "wishlist")
}
