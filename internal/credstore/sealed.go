package credstore

import (
	"encoding/base64"
	"errors"

	"go.uber.org/zap"

	"github.com/and161185/homeheaven/internal/crypto/clientcrypto"
	"github.com/and161185/homeheaven/internal/errs"
)

var sealAAD = []byte("homeheaven/" + Key)

// Sealed encrypts the credential before handing it to the inner store.
type Sealed struct {
	inner Store
	key   []byte
	log   *zap.Logger
}

var _ Store = (*Sealed)(nil)

// NewSealed wraps inner; key must be clientcrypto.KeyLen bytes.
func NewSealed(inner Store, key []byte, log *zap.Logger) *Sealed {
	if log == nil {
		log = zap.NewNop()
	}
	return &Sealed{inner: inner, key: key, log: log}
}

// Load opens the stored value. A value that cannot be opened (other key, tampering)
// loads as absent.
func (s *Sealed) Load() (string, error) {
	v, err := s.inner.Load()
	if err != nil {
		return "", err
	}
	raw, err := base64.StdEncoding.DecodeString(v)
	if err != nil {
		s.log.Warn("sealed credential: bad encoding", zap.Error(err))
		return "", errs.ErrNotFound
	}
	pt, err := clientcrypto.Open(s.key, raw, sealAAD)
	if errors.Is(err, clientcrypto.ErrOpen) {
		s.log.Warn("sealed credential: cannot open", zap.Error(err))
		return "", errs.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return string(pt), nil
}

func (s *Sealed) Save(credential string) error {
	ct, err := clientcrypto.Seal(s.key, []byte(credential), sealAAD)
	if err != nil {
		return err
	}
	return s.inner.Save(base64.StdEncoding.EncodeToString(ct))
}

func (s *Sealed) Clear() error { return s.inner.Clear() }
