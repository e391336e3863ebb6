// Package model defines domain records shared by the client layers.
package model

import (
	"encoding/json"
	"time"
)

// MaxImageSlots is the number of pending image attachments a draft can hold.
const MaxImageSlots = 4

// Identity collects the decoded claims of a credential.
type Identity struct {
	Subject   string    // "sub" claim, numeric user id for this backend
	ExpiresAt time.Time // "exp" claim
	IssuedAt  time.Time // "iat" claim, zero if absent
}

// Image is a persisted image reference attached to a listing.
type Image struct {
	ID        int64  `json:"id,omitempty"`
	ListingID int64  `json:"listing_id,omitempty"`
	URL       string `json:"image_url"`
	Caption   string `json:"caption,omitempty"`
}

// Listing is a persisted real-estate listing as returned by the backend.
type Listing struct {
	ID           int64    `json:"id"`
	OwnerID      int64    `json:"owner_id,omitempty"`
	UserID       int64    `json:"user_id,omitempty"`
	Title        string   `json:"title"`
	Description  string   `json:"description,omitempty"`
	Price        float64  `json:"price"`
	AreaSqft     *int     `json:"area_sqft,omitempty"`
	Bedrooms     *int     `json:"bedrooms,omitempty"`
	Bathrooms    *float64 `json:"bathrooms,omitempty"`
	PropertyType string   `json:"property_type,omitempty"`
	Address      string   `json:"address,omitempty"`
	City         string   `json:"city,omitempty"`
	State        string   `json:"state,omitempty"`
	ZipCode      string   `json:"zip_code,omitempty"`
	Images       []Image  `json:"images,omitempty"`
}

// Owner returns the owning user id; the backend reports it as either user_id or owner_id.
func (l Listing) Owner() int64 {
	if l.UserID != 0 {
		return l.UserID
	}
	return l.OwnerID
}

// ListingUpdate is a listing returned by an update, remembering which keys the
// backend actually sent.
type ListingUpdate struct {
	Listing
	raw json.RawMessage
}

// NewListingUpdate decodes a backend update response.
func NewListingUpdate(raw []byte) (ListingUpdate, error) {
	var u ListingUpdate
	if err := json.Unmarshal(raw, &u); err != nil {
		return ListingUpdate{}, err
	}
	return u, nil
}

func (u *ListingUpdate) UnmarshalJSON(b []byte) error {
	var l Listing
	if err := json.Unmarshal(b, &l); err != nil {
		return err
	}
	u.Listing = l
	u.raw = append(json.RawMessage(nil), b...)
	return nil
}

// Merge overlays upd on top of l and returns the result; l itself is not modified.
// Every key present in the backend response replaces the local value, "" and null
// included, while absent keys keep l's value. An update built in code without a
// response overlays only its non-zero fields.
func (l Listing) Merge(upd ListingUpdate) Listing {
	if upd.raw != nil {
		out := l.clone()
		if err := json.Unmarshal(upd.raw, &out); err == nil {
			return out
		}
	}
	return l.clone().overlay(upd.Listing)
}

// clone copies l so that decoding into the copy cannot write through shared pointers
// or image backing arrays.
func (l Listing) clone() Listing {
	out := l
	out.Images = append([]Image(nil), l.Images...)
	if l.AreaSqft != nil {
		v := *l.AreaSqft
		out.AreaSqft = &v
	}
	if l.Bedrooms != nil {
		v := *l.Bedrooms
		out.Bedrooms = &v
	}
	if l.Bathrooms != nil {
		v := *l.Bathrooms
		out.Bathrooms = &v
	}
	return out
}

func (l Listing) overlay(upd Listing) Listing {
	out := l
	if upd.ID != 0 {
		out.ID = upd.ID
	}
	if upd.OwnerID != 0 {
		out.OwnerID = upd.OwnerID
	}
	if upd.UserID != 0 {
		out.UserID = upd.UserID
	}
	if upd.Title != "" {
		out.Title = upd.Title
	}
	if upd.Description != "" {
		out.Description = upd.Description
	}
	if upd.Price != 0 {
		out.Price = upd.Price
	}
	if upd.AreaSqft != nil {
		out.AreaSqft = upd.AreaSqft
	}
	if upd.Bedrooms != nil {
		out.Bedrooms = upd.Bedrooms
	}
	if upd.Bathrooms != nil {
		out.Bathrooms = upd.Bathrooms
	}
	if upd.PropertyType != "" {
		out.PropertyType = upd.PropertyType
	}
	if upd.Address != "" {
		out.Address = upd.Address
	}
	if upd.City != "" {
		out.City = upd.City
	}
	if upd.State != "" {
		out.State = upd.State
	}
	if upd.ZipCode != "" {
		out.ZipCode = upd.ZipCode
	}
	if len(upd.Images) > 0 {
		out.Images = append([]Image(nil), upd.Images...)
	}
	return out
}

// ListingPayload is the structured body submitted on create/update.
// OwnerID is only set on create; the backend refuses ownership changes.
type ListingPayload struct {
	OwnerID      int64    `json:"owner_id,omitempty"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Price        float64  `json:"price"`
	AreaSqft     *int     `json:"area_sqft"`
	Bathrooms    *float64 `json:"bathrooms"`
	Bedrooms     *int     `json:"bedrooms"`
	PropertyType string   `json:"property_type"`
	Address      string   `json:"address"`
	City         string   `json:"city"`
	State        string   `json:"state"`
	ZipCode      string   `json:"zip_code"`
}

// ImageSlot is one pending attachment of a draft. A slot with no payload is empty.
type ImageSlot struct {
	Filename string
	Payload  []byte
	Caption  string
}

// Empty reports whether the slot carries no payload.
func (s ImageSlot) Empty() bool { return len(s.Payload) == 0 }

// ListingDraft is the editable form state of a listing. Numeric fields hold raw text
// until submission.
type ListingDraft struct {
	Title        string
	Description  string
	Price        string
	AreaSqft     string
	Bedrooms     string
	Bathrooms    string
	PropertyType string
	Address      string
	City         string
	State        string
	ZipCode      string
	Images       [MaxImageSlots]ImageSlot
}

// DraftFromListing pre-fills a draft from a persisted listing (edit mode). Image slots stay empty.
func DraftFromListing(l Listing) ListingDraft {
	d := ListingDraft{
		Title:        l.Title,
		Description:  l.Description,
		PropertyType: l.PropertyType,
		Address:      l.Address,
		City:         l.City,
		State:        l.State,
		ZipCode:      l.ZipCode,
	}
	if l.Price != 0 {
		d.Price = formatFloat(l.Price)
	}
	if l.AreaSqft != nil {
		d.AreaSqft = formatInt(*l.AreaSqft)
	}
	if l.Bedrooms != nil {
		d.Bedrooms = formatInt(*l.Bedrooms)
	}
	if l.Bathrooms != nil {
		d.Bathrooms = formatFloat(*l.Bathrooms)
	}
	return d
}

// WishlistEntry relates a user to a listing they saved.
type WishlistEntry struct {
	UserID    int64 `json:"user_id"`
	ListingID int64 `json:"listing_id"`
}

// Profile is the user profile with owned listings.
type Profile struct {
	ID            int64     `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	AvatarURL     string    `json:"avatar_url,omitempty"`
	OwnedListings []Listing `json:"owned_listings"`
}

// Sender identifies the author of a chat entry.
type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

// ChatEntry is one line of a per-listing AI conversation.
type ChatEntry struct {
	ID        string
	Text      string
	Sender    Sender
	Failed    bool // synthesized from a failed exchange
	Timestamp time.Time
}
