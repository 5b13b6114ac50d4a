package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"strings"

	"filippo.io/age"
	"github.com/goliatone/go-courier"
)

// GenerateIdentity returns a new age X25519 identity.
func GenerateIdentity() (*age.X25519Identity, error) {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return nil, fmt.Errorf("generating age identity: %w", err)
	}
	return identity, nil
}

// ParseIdentity parses an AGE-SECRET-KEY-1... string.
func ParseIdentity(raw string) (*age.X25519Identity, error) {
	identity, err := age.ParseX25519Identity(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("parsing age identity: %w", err)
	}
	return identity, nil
}

// LoadIdentityFile reads the first X25519 identity of an age identity file.
// Comment lines are ignored.
func LoadIdentityFile(path string) (*age.X25519Identity, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening identity file: %w", err)
	}
	defer f.Close()

	identities, err := age.ParseIdentities(f)
	if err != nil {
		return nil, fmt.Errorf("parsing identity file %s: %w", path, err)
	}
	for _, identity := range identities {
		if x, ok := identity.(*age.X25519Identity); ok {
			return x, nil
		}
	}
	return nil, fmt.Errorf("%w: no X25519 identity in %s", ErrIdentityRequired, path)
}

// SealedStore encrypts values with age before handing them to the wrapped
// store. Keys are stored in clear.
type SealedStore struct {
	inner     courier.SecureStore
	identity  *age.X25519Identity
	recipient *age.X25519Recipient
}

// SealedBatchStore is a SealedStore over a courier.BatchStore. It keeps the
// inner store's all-or-nothing guarantees.
type SealedBatchStore struct {
	*SealedStore
	batch courier.BatchStore
}

// Seal wraps inner. The result implements courier.BatchStore exactly when
// inner does.
func Seal(inner courier.SecureStore, identity *age.X25519Identity) (courier.SecureStore, error) {
	if inner == nil {
		return nil, courier.ErrStoreRequired
	}
	if identity == nil {
		return nil, ErrIdentityRequired
	}

	sealed := &SealedStore{
		inner:     inner,
		identity:  identity,
		recipient: identity.Recipient(),
	}
	if batch, ok := inner.(courier.BatchStore); ok {
		return &SealedBatchStore{SealedStore: sealed, batch: batch}, nil
	}
	return sealed, nil
}

// Recipient returns the public key values are sealed to.
func (s *SealedStore) Recipient() string {
	return s.recipient.String()
}

func (s *SealedStore) Get(ctx context.Context, key string) (string, bool, error) {
	ciphertext, ok, err := s.inner.Get(ctx, key)
	if err != nil || !ok {
		return "", ok, err
	}
	value, err := s.open(ciphertext)
	if err != nil {
		return "", false, fmt.Errorf("%w: %s: %v", ErrUnsealFailed, key, err)
	}
	return value, true, nil
}

func (s *SealedStore) Set(ctx context.Context, key, value string) error {
	ciphertext, err := s.seal(value)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSealFailed, key, err)
	}
	return s.inner.Set(ctx, key, ciphertext)
}

func (s *SealedStore) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, key)
}

func (s *SealedStore) seal(plaintext string) (string, error) {
	var buf bytes.Buffer
	w, err := age.Encrypt(&buf, s.recipient)
	if err != nil {
		return "", fmt.Errorf("creating age encryptor: %w", err)
	}
	if _, err := io.WriteString(w, plaintext); err != nil {
		return "", fmt.Errorf("writing plaintext: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalizing age encryption: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func (s *SealedStore) open(ciphertext string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("decoding base64 ciphertext: %w", err)
	}
	r, err := age.Decrypt(bytes.NewReader(raw), s.identity)
	if err != nil {
		return "", fmt.Errorf("decrypting: %w", err)
	}
	plaintext, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("reading plaintext: %w", err)
	}
	return string(plaintext), nil
}

// SetMany seals every value before a single batch write.
func (s *SealedBatchStore) SetMany(ctx context.Context, values map[string]string) error {
	sealed := make(map[string]string, len(values))
	for key, value := range values {
		ciphertext, err := s.seal(value)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrSealFailed, key, err)
		}
		sealed[key] = ciphertext
	}
	return s.batch.SetMany(ctx, sealed)
}

func (s *SealedBatchStore) DeleteMany(ctx context.Context, keys ...string) error {
	return s.batch.DeleteMany(ctx, keys...)
}

var (
	_ courier.SecureStore = (*SealedStore)(nil)
	_ courier.BatchStore  = (*SealedBatchStore)(nil)
)
