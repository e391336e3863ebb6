package mutation

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/and161185/homeheaven/internal/errs"
	"github.com/and161185/homeheaven/internal/model"
)

// AttachmentFailure is a non-fatal upload failure attributed to one draft slot.
type AttachmentFailure struct {
	Slot    int
	Caption string
	Err     error
}

func (f *AttachmentFailure) Error() string {
	return fmt.Sprintf("%v: slot %d (%s): %v", errs.ErrAttachmentFailed, f.Slot, f.Caption, f.Err)
}

// Unwrap exposes both the classification and the cause.
func (f *AttachmentFailure) Unwrap() []error { return []error{errs.ErrAttachmentFailed, f.Err} }

// AttachmentResult is the outcome of one filled slot, in slot order.
type AttachmentResult struct {
	Slot    int
	Caption string
	Image   *model.Image       // set on success
	Failure *AttachmentFailure // set on failure
}

// OK reports whether the slot uploaded.
func (r AttachmentResult) OK() bool { return r.Failure == nil }

// CreateResult is the outcome of a create workflow whose base listing was persisted.
type CreateResult struct {
	// Base is the listing as returned by the field submission.
	Base model.Listing
	// Listing is the projection for the UI: Base plus the uploaded images, or the
	// placeholder image when none uploaded.
	Listing     model.Listing
	Attachments []AttachmentResult
	Placeholder bool
}

// Failed returns the failures in slot order.
func (r *CreateResult) Failed() []AttachmentFailure {
	var out []AttachmentFailure
	for _, a := range r.Attachments {
		if a.Failure != nil {
			out = append(out, *a.Failure)
		}
	}
	return out
}

// FailedSlots returns the slot indexes that failed, for a caller-driven retry.
func (r *CreateResult) FailedSlots() []int {
	var out []int
	for _, a := range r.Attachments {
		if a.Failure != nil {
			out = append(out, a.Slot)
		}
	}
	return out
}

// Err aggregates every attachment failure, nil when all uploads succeeded.
func (r *CreateResult) Err() error {
	var err error
	for _, a := range r.Attachments {
		if a.Failure != nil {
			err = multierr.Append(err, a.Failure)
		}
	}
	return err
}
