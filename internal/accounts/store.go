package accounts

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"sessionsplice/internal/credential"
	"sessionsplice/pkg/logging"
)

// DefaultStorageDir is the default directory, relative to the home
// directory, for stored accounts.
const DefaultStorageDir = ".config/sessionsplice/accounts"

// ErrAccountNotFound is returned when no account is stored for an email.
var ErrAccountNotFound = errors.New("account not found")

// Account is a captured credential together with the identity it belongs to.
type Account struct {
	Email      string                `json:"email"`
	Name       string                `json:"name,omitempty"`
	Credential credential.Credential `json:"credential"`
	CreatedAt  time.Time             `json:"created_at"`
	UpdatedAt  time.Time             `json:"updated_at"`

	// LastInjectedAt is when the account was last written into the state database.
	LastInjectedAt time.Time `json:"last_injected_at,omitempty"`
}

// Store keeps accounts as one JSON file per email.
//
// SECURITY: files hold refresh tokens.
//   - Files are created with 0600 permissions (owner read/write only)
//   - The storage directory is created with 0700 permissions (owner only)
//   - Token values are never logged
type Store struct {
	mu         sync.RWMutex
	storageDir string
	accounts   map[string]*Account // In-memory cache, keyed by normalized email
	now        func() time.Time
}

// NewStore creates a store in storageDir, defaulting to DefaultStorageDir
// under the home directory.
func NewStore(storageDir string) (*Store, error) {
	if storageDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		storageDir = filepath.Join(homeDir, DefaultStorageDir)
	}

	if err := os.MkdirAll(storageDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create account storage directory: %w", err)
	}

	return &Store{
		storageDir: storageDir,
		accounts:   make(map[string]*Account),
		now:        time.Now,
	}, nil
}

// Dir returns the storage directory.
func (s *Store) Dir() string {
	return s.storageDir
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// fileKey generates a filesystem-safe name for an email.
func fileKey(email string) string {
	hash := sha256.Sum256([]byte(normalizeEmail(email)))
	return hex.EncodeToString(hash[:16])
}

func (s *Store) filePath(email string) string {
	return filepath.Join(s.storageDir, fileKey(email)+".json")
}

// Save stores or replaces the account for email. CreatedAt of an existing
// account is preserved.
func (s *Store) Save(email, name string, cred credential.Credential) (*Account, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, errors.New("account email is required")
	}
	if err := cred.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	account := &Account{
		Email:      email,
		Name:       name,
		Credential: cred,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if existing, err := s.getLocked(email); err == nil {
		account.CreatedAt = existing.CreatedAt
		account.LastInjectedAt = existing.LastInjectedAt
		if name == "" {
			account.Name = existing.Name
		}
	}

	if err := s.writeFile(account); err != nil {
		logging.Audit(logging.AuditEvent{
			Action:  "account_stored",
			Outcome: "failure",
			Account: email,
			Error:   err.Error(),
		})
		return nil, fmt.Errorf("failed to persist account: %w", err)
	}
	s.accounts[normalizeEmail(email)] = account

	logging.Audit(logging.AuditEvent{
		Action:  "account_stored",
		Outcome: "success",
		Account: email,
		Details: fmt.Sprintf("expiry=%s has_refresh_token=%t",
			cred.ExpiresAt().UTC().Format(time.RFC3339), cred.RefreshToken != ""),
	})
	return account, nil
}

// Get returns the account stored for email.
func (s *Store) Get(email string) (*Account, error) {
	key := normalizeEmail(email)

	s.mu.RLock()
	if account, ok := s.accounts[key]; ok {
		s.mu.RUnlock()
		return account, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(email)
}

// getLocked requires s.mu to be held for writing.
func (s *Store) getLocked(email string) (*Account, error) {
	key := normalizeEmail(email)
	if account, ok := s.accounts[key]; ok {
		return account, nil
	}

	account, err := s.readFile(s.filePath(email))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, email)
	}
	if err != nil {
		return nil, err
	}
	s.accounts[key] = account
	return account, nil
}

// MarkInjected records that the account was written into a state database.
func (s *Store) MarkInjected(email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, err := s.getLocked(email)
	if err != nil {
		return err
	}

	updated := *account
	updated.LastInjectedAt = s.now()
	if err := s.writeFile(&updated); err != nil {
		return fmt.Errorf("failed to persist account: %w", err)
	}
	s.accounts[normalizeEmail(email)] = &updated
	return nil
}

// List returns every stored account sorted by email. Unreadable files are
// skipped with a warning.
func (s *Store) List() ([]*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.storageDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read account directory: %w", err)
	}

	var accounts []*Account
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		account, err := s.readFile(filepath.Join(s.storageDir, entry.Name()))
		if err != nil {
			logging.Warn("Accounts", "Skipping unreadable account file %s: %v", entry.Name(), err)
			continue
		}
		s.accounts[normalizeEmail(account.Email)] = account
		accounts = append(accounts, account)
	}

	sort.Slice(accounts, func(i, j int) bool {
		return normalizeEmail(accounts[i].Email) < normalizeEmail(accounts[j].Email)
	})
	return accounts, nil
}

// Delete removes the account stored for email.
func (s *Store) Delete(email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.accounts, normalizeEmail(email))

	err := os.Remove(s.filePath(email))
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", ErrAccountNotFound, email)
	}
	if err != nil {
		return err
	}

	logging.Audit(logging.AuditEvent{
		Action:  "account_deleted",
		Outcome: "success",
		Account: email,
	})
	return nil
}

// writeFile persists an account with owner-only permissions.
func (s *Store) writeFile(account *Account) error {
	data, err := json.MarshalIndent(account, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal account: %w", err)
	}

	path := s.filePath(account.Email)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write account file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write account file: %w", err)
	}
	return nil
}

func (s *Store) readFile(path string) (*Account, error) {
	// #nosec G304 -- path is built from the storage directory and a hashed key
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var account Account
	if err := json.Unmarshal(data, &account); err != nil {
		return nil, fmt.Errorf("failed to unmarshal account: %w", err)
	}
	return &account, nil
}
