// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across client layers.
var (
	// ErrNotFound indicates the requested entity (or persisted value) does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDecode indicates a credential that is not a structurally valid signed token.
	ErrDecode = errors.New("malformed credential")

	// ErrAuthFailure indicates the remote auth exchange rejected the supplied credentials.
	ErrAuthFailure = errors.New("authentication failed")

	// ErrUnauthenticated indicates a local refusal because no valid credential is held.
	ErrUnauthenticated = errors.New("not authenticated")

	// ErrValidation indicates input rejected locally before any network call.
	ErrValidation = errors.New("validation")

	// ErrCreateFailed indicates the listing fields failed to persist on create.
	ErrCreateFailed = errors.New("create listing failed")

	// ErrUpdateFailed indicates the listing fields failed to persist on edit.
	ErrUpdateFailed = errors.New("update listing failed")

	// ErrAttachmentFailed indicates a single image upload failed (non-fatal).
	ErrAttachmentFailed = errors.New("attachment failed")

	// ErrNetworkUnavailable indicates a transport-level failure; treated like a remote rejection.
	ErrNetworkUnavailable = errors.New("network unavailable")
)
