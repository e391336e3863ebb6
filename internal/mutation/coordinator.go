// Package mutation drives the multi-step listing create/update workflows.
package mutation

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/and161185/homeheaven/internal/errs"
	"github.com/and161185/homeheaven/internal/model"
	"github.com/and161185/homeheaven/internal/session"
)

// DefaultPlaceholderURL is substituted when a created listing has no uploaded image.
const DefaultPlaceholderURL = "https://via.placeholder.com/400x300"

// ListingAPI is the listing submission and image upload service.
type ListingAPI interface {
	CreateListing(ctx context.Context, token string, p model.ListingPayload) (model.Listing, error)
	UpdateListing(ctx context.Context, token string, id int64, p model.ListingPayload) (model.ListingUpdate, error)
	UploadListingImage(ctx context.Context, token string, listingID int64, slot model.ImageSlot) (model.Image, error)
}

// SessionReader is the read side of the session store.
type SessionReader interface {
	CurrentSession() session.Session
}

// Coordinator is stateless between calls; drafts are passed by value and never retained.
type Coordinator struct {
	api         ListingAPI
	sessions    SessionReader
	log         *zap.Logger
	placeholder string
	uploads     int
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithPlaceholder overrides the placeholder image URL.
func WithPlaceholder(url string) Option {
	return func(c *Coordinator) {
		if url != "" {
			c.placeholder = url
		}
	}
}

// WithUploadConcurrency bounds parallel image uploads; 1 (default) uploads in slot order.
func WithUploadConcurrency(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.uploads = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option { return func(c *Coordinator) { c.log = l } }

// New constructs a Coordinator.
func New(api ListingAPI, sessions SessionReader, opts ...Option) *Coordinator {
	c := &Coordinator{
		api:         api,
		sessions:    sessions,
		log:         zap.NewNop(),
		placeholder: DefaultPlaceholderURL,
		uploads:     1,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Create validates the draft, submits the listing fields and then uploads each filled
// image slot. Only a field submission failure fails the operation (errs.ErrCreateFailed);
// image failures are reported per slot in the result.
func (c *Coordinator) Create(ctx context.Context, d model.ListingDraft) (*CreateResult, error) {
	payload, err := ParseDraft(d)
	if err != nil {
		return nil, err
	}

	cur := c.sessions.CurrentSession()
	if !cur.Authenticated() {
		return nil, fmt.Errorf("%w: log in to create a listing", errs.ErrUnauthenticated)
	}
	owner, err := strconv.ParseInt(cur.Identity.Subject, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: subject %q is not a user id", errs.ErrValidation, cur.Identity.Subject)
	}
	payload.OwnerID = owner

	base, err := c.api.CreateListing(ctx, cur.Credential, payload)
	if err != nil {
		c.log.Warn("create listing failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", errs.ErrCreateFailed, err)
	}
	c.log.Info("listing created", zap.Int64("listing_id", base.ID))

	res := &CreateResult{
		Base:        base,
		Attachments: c.uploadAll(ctx, cur.Credential, base.ID, d.Images),
	}
	res.Listing = base
	res.Listing.Images = nil
	for _, a := range res.Attachments {
		if a.Image != nil {
			res.Listing.Images = append(res.Listing.Images, *a.Image)
		}
	}
	if len(res.Listing.Images) == 0 {
		res.Listing.Images = []model.Image{{URL: c.placeholder}}
		res.Placeholder = true
	}
	return res, nil
}

// uploadAll uploads every filled slot; each outcome is recorded against its own slot.
func (c *Coordinator) uploadAll(ctx context.Context, token string, listingID int64, slots [model.MaxImageSlots]model.ImageSlot) []AttachmentResult {
	type job struct {
		slot int
		img  model.ImageSlot
	}
	var jobs []job
	for i, s := range slots {
		if s.Empty() {
			continue
		}
		if s.Caption == "" {
			s.Caption = DefaultCaption
		}
		jobs = append(jobs, job{slot: i, img: s})
	}

	results := make([]AttachmentResult, len(jobs))
	var g errgroup.Group
	g.SetLimit(c.uploads)
	for i, j := range jobs {
		g.Go(func() error {
			r := AttachmentResult{Slot: j.slot, Caption: j.img.Caption}
			img, err := c.api.UploadListingImage(ctx, token, listingID, j.img)
			if err != nil {
				r.Failure = &AttachmentFailure{Slot: j.slot, Caption: j.img.Caption, Err: err}
				c.log.Warn("image upload failed, skipping",
					zap.Int64("listing_id", listingID),
					zap.Int("slot", j.slot),
					zap.String("caption", j.img.Caption),
					zap.Error(err),
				)
			} else {
				r.Image = &img
			}
			results[i] = r
			// failures never cancel the remaining uploads
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Edit validates the draft and submits the updated fields for target. It returns the
// fields the backend persisted; on failure (errs.ErrUpdateFailed) nothing is returned
// for the caller to apply.
//
// Ownership is not enforced here: a mismatch between the session subject and the
// listing owner is only logged and the backend decides.
func (c *Coordinator) Edit(ctx context.Context, target model.Listing, d model.ListingDraft) (model.ListingUpdate, error) {
	payload, err := ParseDraft(d)
	if err != nil {
		return model.ListingUpdate{}, err
	}

	cur := c.sessions.CurrentSession()
	if owner := target.Owner(); cur.Authenticated() && owner != 0 && cur.Identity.Subject != strconv.FormatInt(owner, 10) {
		c.log.Warn("editing a listing not owned by the session subject",
			zap.Int64("listing_id", target.ID),
			zap.Int64("owner_id", owner),
			zap.String("subject", cur.Identity.Subject),
		)
	}

	updated, err := c.api.UpdateListing(ctx, cur.Credential, target.ID, payload)
	if err != nil {
		c.log.Warn("update listing failed", zap.Int64("listing_id", target.ID), zap.Error(err))
		return model.ListingUpdate{}, fmt.Errorf("%w: %w", errs.ErrUpdateFailed, err)
	}
	c.log.Info("listing updated", zap.Int64("listing_id", target.ID))
	return updated, nil
}

// MergeInto returns a new collection where the listing with id is replaced by its merge
// with updated: keys the backend sent win, absent keys keep the local value. The input
// slice is not modified.
func MergeInto(listings []model.Listing, id int64, updated model.ListingUpdate) []model.Listing {
	out := make([]model.Listing, len(listings))
	for i, l := range listings {
		if l.ID == id {
			out[i] = l.Merge(updated)
			continue
		}
		out[i] = l
	}
	return out
}
