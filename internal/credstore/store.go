// Package credstore persists the single bearer credential in client-local storage.
// Only the session store writes through it.
package credstore

// Key is the well-known storage key the credential lives under.
const Key = "token"

// Store persists exactly one credential string.
type Store interface {
	// Load returns the persisted credential or errs.ErrNotFound.
	Load() (string, error)
	// Save overwrites the persisted credential.
	Save(credential string) error
	// Clear removes the persisted credential; clearing an absent value is not an error.
	Clear() error
}
