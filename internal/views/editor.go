package views

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/and161185/homeheaven/internal/errs"
	"github.com/and161185/homeheaven/internal/model"
	"github.com/and161185/homeheaven/internal/mutation"
)

// User-facing messages.
const (
	MsgValidation   = "Please fill in at least title and price"
	MsgCreateFailed = "Failed to create property. Please try again."
	MsgUpdateFailed = "Failed to update property. Please try again."
)

// ErrDismissed is returned by Submit when the editor was closed before the result arrived.
var ErrDismissed = errors.New("editor dismissed")

// Mode is the editor's purpose.
type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
)

func (m Mode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "create"
}

// Mutator runs listing workflows.
type Mutator interface {
	Create(ctx context.Context, d model.ListingDraft) (*mutation.CreateResult, error)
	Edit(ctx context.Context, target model.Listing, d model.ListingDraft) (model.ListingUpdate, error)
}

// Editor is the listing form together with the owner's local collection.
// The collection only changes on success; failures leave it and the draft as they were.
type Editor struct {
	mu       sync.Mutex
	m        Mutator
	log      *zap.Logger
	listings []model.Listing
	open     bool
	gen      uint64
	mode     Mode
	target   model.Listing
	draft    model.ListingDraft
	message  string
	notices  []string
}

// NewEditor starts a closed editor over listings.
func NewEditor(m Mutator, listings []model.Listing, log *zap.Logger) *Editor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Editor{m: m, listings: listings, log: log}
}

// OpenCreate opens an empty form.
func (e *Editor) OpenCreate() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reset(ModeCreate, model.Listing{}, model.ListingDraft{})
}

// OpenEdit opens a form pre-filled from l.
func (e *Editor) OpenEdit(l model.Listing) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reset(ModeEdit, l, model.DraftFromListing(l))
}

// Dismiss closes the form. A submission still in flight is dropped when it returns.
func (e *Editor) Dismiss() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.open = false
	e.gen++
}

func (e *Editor) reset(mode Mode, target model.Listing, d model.ListingDraft) {
	e.open = true
	e.gen++
	e.mode = mode
	e.target = target
	e.draft = d
	e.message = ""
	e.notices = nil
}

// Update applies fn to the draft.
func (e *Editor) Update(fn func(d *model.ListingDraft)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(&e.draft)
}

// SetImage fills slot i of the draft.
func (e *Editor) SetImage(i int, img model.ImageSlot) error {
	if i < 0 || i >= model.MaxImageSlots {
		return fmt.Errorf("%w: image slot %d out of range", errs.ErrValidation, i)
	}
	e.Update(func(d *model.ListingDraft) { d.Images[i] = img })
	return nil
}

// Draft returns a copy of the form state.
func (e *Editor) Draft() model.ListingDraft {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.draft
}

// Listings returns the local collection. It is replaced, never modified in place.
func (e *Editor) Listings() []model.Listing {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.listings
}

// IsOpen reports whether the form is shown.
func (e *Editor) IsOpen() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.open
}

// Mode returns the purpose of the current form.
func (e *Editor) Mode() Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode
}

// Message returns the last user-facing error, empty after a success.
func (e *Editor) Message() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.message
}

// Notices returns per-image warnings from the last create.
func (e *Editor) Notices() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.notices...)
}

// Submit runs the workflow for the current mode. On success the collection is updated
// and the form closes; on failure both stay untouched and Message explains.
func (e *Editor) Submit(ctx context.Context) error {
	e.mu.Lock()
	if !e.open {
		e.mu.Unlock()
		return ErrDismissed
	}
	gen, mode, target, draft := e.gen, e.mode, e.target, e.draft
	e.mu.Unlock()

	var (
		res     *mutation.CreateResult
		updated model.ListingUpdate
		err     error
	)
	if mode == ModeEdit {
		updated, err = e.m.Edit(ctx, target, draft)
	} else {
		res, err = e.m.Create(ctx, draft)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.open || e.gen != gen {
		e.log.Info("editor: dropping late result", zap.Stringer("mode", mode), zap.Error(err))
		return ErrDismissed
	}
	if err != nil {
		e.message = failureMessage(mode, err)
		return err
	}

	if mode == ModeEdit {
		e.listings = mutation.MergeInto(e.listings, target.ID, updated)
	} else {
		next := make([]model.Listing, 0, len(e.listings)+1)
		next = append(next, e.listings...)
		e.listings = append(next, res.Listing)
		for _, f := range res.Failed() {
			e.notices = append(e.notices, fmt.Sprintf("Image %d (%s) failed to upload: %v", f.Slot+1, f.Caption, f.Err))
		}
	}
	e.message = ""
	e.open = false
	e.draft = model.ListingDraft{}
	return nil
}

func failureMessage(mode Mode, err error) string {
	switch {
	case errors.Is(err, errs.ErrValidation):
		return MsgValidation
	case mode == ModeEdit:
		return MsgUpdateFailed
	default:
		return MsgCreateFailed
	}
}
