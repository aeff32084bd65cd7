package tokenstore

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/chacha20poly1305"

	apperrors "github.com/jrsteele09/go-xero-service/internal/errors"
	"github.com/jrsteele09/go-xero-service/xero"
)

const defaultTokenExpiry = 30 * time.Minute

// FileStore persists the tenant→token snapshot as a single JSON document on
// disk. Every mutation is a serialized load-merge-persist of the whole
// snapshot; the file itself is replaced atomically (write temp, rename).
//
// A snapshot that cannot be read back is treated as empty rather than fatal:
// losing cached tokens only forces tenants back through the consent flow.
type FileStore struct {
	path          string
	mu            sync.Mutex
	defaultExpiry time.Duration
	aead          cipher.AEAD // nil when at-rest encryption is disabled
	log           zerolog.Logger
}

// FileStoreOption defines a function type to modify the FileStore instance.
type FileStoreOption func(*FileStore) error

// WithDefaultExpiry sets the lifetime assumed when a saved payload carries
// no expires_in.
func WithDefaultExpiry(d time.Duration) FileStoreOption {
	return func(fs *FileStore) error {
		fs.defaultExpiry = d
		return nil
	}
}

// WithFileStoreLogger sets the logger used for storage diagnostics.
func WithFileStoreLogger(log zerolog.Logger) FileStoreOption {
	return func(fs *FileStore) error {
		fs.log = log
		return nil
	}
}

// WithSnapshotKey enables at-rest encryption of the snapshot with
// XChaCha20-Poly1305, keyed from the given secret.
func WithSnapshotKey(secret string) FileStoreOption {
	return func(fs *FileStore) error {
		if secret == "" {
			return nil
		}
		key := sha256.Sum256([]byte(secret))
		aead, err := chacha20poly1305.NewX(key[:])
		if err != nil {
			return fmt.Errorf("initialising snapshot cipher: %w", err)
		}
		fs.aead = aead
		return nil
	}
}

// NewFileStore creates a file-backed token store at path, creating the
// parent folder if needed.
func NewFileStore(path string, options ...FileStoreOption) (*FileStore, error) {
	fs := &FileStore{
		path:          path,
		defaultExpiry: defaultTokenExpiry,
		log:           zerolog.Nop(),
	}

	for _, opt := range options {
		if err := opt(fs); err != nil {
			return nil, err
		}
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("creating token store folder %q: %w", dir, err)
		}
	}

	return fs, nil
}

var _ Repo = (*FileStore)(nil)

// Save computes the record's absolute expiry and merges it into the
// persisted snapshot under tenantID.
func (fs *FileStore) Save(tenantID string, payload xero.TokenPayload) error {
	expiresIn := fs.defaultExpiry
	if payload.ExpiresIn > 0 {
		expiresIn = time.Duration(payload.ExpiresIn) * time.Second
	}

	return fs.SaveRecord(tenantID, TokenRecord{
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
		ExpiresAt:    NowTimeFunc().Add(expiresIn),
		TokenType:    payload.TokenType,
		Scope:        payload.Scope,
	})
}

// SaveRecord merges an already-computed record into the snapshot unchanged.
func (fs *FileStore) SaveRecord(tenantID string, record TokenRecord) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	tokens := fs.load()
	tokens[tenantID] = record
	return fs.persist(tokens)
}

// Get returns the record for the tenant, or ErrNotFound.
func (fs *FileStore) Get(tenantID string) (*TokenRecord, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	record, ok := fs.load()[tenantID]
	if !ok {
		return nil, apperrors.Wrapf(apperrors.ErrNotFound, "token for tenant %q", tenantID)
	}
	return &record, nil
}

// IsExpired reports whether the tenant's token must be refreshed before use.
// A token expiring exactly now counts as expired: refresh before use, never
// discover the expiry from a provider rejection.
func (fs *FileStore) IsExpired(tenantID string) bool {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	record, ok := fs.load()[tenantID]
	if !ok {
		return true
	}
	return !NowTimeFunc().Before(record.ExpiresAt)
}

// Tenants returns the stored keys in sorted order.
func (fs *FileStore) Tenants() ([]string, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	tokens := fs.load()
	tenantIDs := make([]string, 0, len(tokens))
	for tenantID := range tokens {
		tenantIDs = append(tenantIDs, tenantID)
	}
	sort.Strings(tenantIDs)
	return tenantIDs, nil
}

// Delete removes one tenant's record through the same serialized
// load-merge-persist path as every other write.
func (fs *FileStore) Delete(tenantID string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	tokens := fs.load()
	if _, ok := tokens[tenantID]; !ok {
		return nil
	}
	delete(tokens, tenantID)
	return fs.persist(tokens)
}

// Clear deletes the persisted snapshot entirely.
func (fs *FileStore) Clear() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err := os.Remove(fs.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clearing token store: %w", err)
	}
	return nil
}

// load reads the current snapshot. Callers must hold fs.mu. A missing file
// is an empty store; an unreadable one is logged and treated as empty.
func (fs *FileStore) load() map[string]TokenRecord {
	data, err := os.ReadFile(fs.path)
	if err != nil {
		if !os.IsNotExist(err) {
			fs.log.Warn().Err(err).Str("path", fs.path).
				Msg("token snapshot unreadable, starting empty")
		}
		return map[string]TokenRecord{}
	}

	if fs.aead != nil {
		data, err = fs.decrypt(data)
		if err != nil {
			fs.log.Warn().Err(apperrors.Wrapf(apperrors.ErrStorageCorrupt, "decrypting snapshot")).
				Str("path", fs.path).Msg("token snapshot undecryptable, starting empty")
			return map[string]TokenRecord{}
		}
	}

	tokens := map[string]TokenRecord{}
	if err := json.Unmarshal(data, &tokens); err != nil {
		fs.log.Warn().Err(apperrors.Wrapf(apperrors.ErrStorageCorrupt, "decoding snapshot")).
			Str("path", fs.path).Msg("token snapshot corrupt, starting empty")
		return map[string]TokenRecord{}
	}
	return tokens
}

// persist atomically replaces the snapshot. Callers must hold fs.mu.
func (fs *FileStore) persist(tokens map[string]TokenRecord) error {
	data, err := json.MarshalIndent(tokens, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding token snapshot: %w", err)
	}

	if fs.aead != nil {
		data, err = fs.encrypt(data)
		if err != nil {
			return fmt.Errorf("encrypting token snapshot: %w", err)
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(fs.path), ".tokens-*")
	if err != nil {
		return fmt.Errorf("creating snapshot temp file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing token snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing token snapshot: %w", err)
	}

	if err := os.Rename(tmp.Name(), fs.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replacing token snapshot: %w", err)
	}
	return nil
}

func (fs *FileStore) encrypt(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, fs.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return fs.aead.Seal(nonce, nonce, plaintext, nil), nil
}

func (fs *FileStore) decrypt(ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < fs.aead.NonceSize() {
		return nil, fmt.Errorf("ciphertext shorter than nonce")
	}
	nonce, sealed := ciphertext[:fs.aead.NonceSize()], ciphertext[fs.aead.NonceSize():]
	return fs.aead.Open(nil, nonce, sealed, nil)
}
