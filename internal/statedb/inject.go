package statedb

import (
	"context"
	"errors"
	"fmt"

	"sessionsplice/internal/credential"
	"sessionsplice/pkg/logging"
)

// ErrVerificationFailed is returned when the value read back after writing
// differs from the value written.
var ErrVerificationFailed = errors.New("state database write verification failed")

// InjectResult describes a completed injection.
type InjectResult struct {
	Path         string
	BackupPath   string
	LegacyBefore int
	LegacyAfter  int
}

// Inject writes email and cred into the state database: the legacy user
// state blob is edited in place, the unified token entry and the onboarding
// flag are replaced. All writes happen in one transaction; on any error
// nothing is changed.
func (s *Store) Inject(ctx context.Context, email string, cred credential.Credential) (*InjectResult, error) {
	logging.Info("StateDB", "Injecting credential for %s into %s", email, s.path)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	current, err := get(ctx, tx, LegacyStateKey)
	if err != nil {
		return nil, err
	}

	edited, err := credential.EditLegacyBlob(current, email, cred)
	if err != nil {
		return nil, fmt.Errorf("editing %s: %w", LegacyStateKey, err)
	}
	logging.Debug("StateDB", "Edited legacy state: %d -> %d base64 bytes", len(current), len(edited))

	if err := update(ctx, tx, LegacyStateKey, edited); err != nil {
		return nil, err
	}

	written, err := get(ctx, tx, LegacyStateKey)
	if err != nil {
		return nil, err
	}
	if written != edited {
		return nil, fmt.Errorf("%w: %s", ErrVerificationFailed, LegacyStateKey)
	}

	if err := put(ctx, tx, UnifiedTokenKey, credential.UnifiedTokenValue(cred)); err != nil {
		return nil, err
	}
	if err := put(ctx, tx, OnboardingKey, "true"); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing injection: %w", err)
	}

	return &InjectResult{
		Path:         s.path,
		LegacyBefore: len(current),
		LegacyAfter:  len(edited),
	}, nil
}

// InjectFile backs up the database at path, then injects into it.
func InjectFile(ctx context.Context, path, email string, cred credential.Credential, backup bool) (*InjectResult, error) {
	if err := cred.Validate(); err != nil {
		return nil, err
	}

	var backupPath string
	if backup {
		var err error
		backupPath, err = Backup(path)
		if err != nil {
			return nil, err
		}
		logging.Info("StateDB", "Backed up %s to %s", path, backupPath)
	}

	store, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	result, err := store.Inject(ctx, email, cred)
	if err != nil {
		logging.Audit(logging.AuditEvent{
			Action:  "state_injected",
			Outcome: "failure",
			Account: email,
			Target:  path,
			Error:   err.Error(),
		})
		return nil, err
	}

	result.BackupPath = backupPath
	logging.Audit(logging.AuditEvent{
		Action:  "state_injected",
		Outcome: "success",
		Account: email,
		Target:  path,
		Details: "token " + logging.TruncateSecret(cred.AccessToken),
	})
	return result, nil
}
