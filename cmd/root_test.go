package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sessionsplice/internal/capture"
	"sessionsplice/internal/config"
	"sessionsplice/internal/statedb"
)

func TestRootCommand(t *testing.T) {
	root := newRootCmd()

	assert.Equal(t, "sessionsplice", root.Use)
	assert.NotEmpty(t, root.Short)
	assert.NotEmpty(t, root.Long)
	assert.True(t, root.SilenceUsage)

	for _, name := range []string{"version", "self-update", "login", "inject", "accounts", "inspect"} {
		sub, _, err := root.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, sub.Name())
	}
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitCodeSuccess},
		{"generic", errors.New("boom"), ExitCodeError},
		{"capture failed", &CaptureFailedError{Reason: capture.ErrFlowTimedOut}, ExitCodeCaptureFailed},
		{"wrapped capture failed", fmt.Errorf("login: %w", &CaptureFailedError{Reason: capture.ErrStateMismatch}), ExitCodeCaptureFailed},
		{"injection refused", &InjectionRefusedError{Email: "a@b.com", Reason: statedb.ErrKeyNotFound}, ExitCodeInjectionRefused},
		{"configuration", config.NewConfigurationError("", "provider", "validation", "bad"), ExitCodeError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, getExitCode(tt.err))
		})
	}
}

func TestErrorMessages(t *testing.T) {
	captureErr := &CaptureFailedError{Reason: capture.ErrFlowTimedOut}
	assert.Contains(t, captureErr.Error(), "sessionsplice login")
	assert.ErrorIs(t, captureErr, capture.ErrFlowTimedOut)

	injectErr := &InjectionRefusedError{Email: "a@b.com", Path: "/x/state.vscdb", Reason: statedb.ErrVerificationFailed}
	assert.Contains(t, injectErr.Error(), "/x/state.vscdb")
	assert.Contains(t, injectErr.Error(), "sessionsplice inject --email a@b.com")
	assert.ErrorIs(t, injectErr, statedb.ErrVerificationFailed)

	unlocated := &InjectionRefusedError{Email: "a@b.com", Reason: errors.New("no database")}
	assert.Contains(t, unlocated.Error(), "the state database")
}

func TestPrintErrorDetails(t *testing.T) {
	var buf bytes.Buffer
	printErrorDetails(&buf, errors.New("boom"))
	assert.Empty(t, buf.String())

	cfgErr := config.NewConfigurationErrorWithDetails("/x/config.yaml", "capture", "validation",
		"invalid configuration", "timeout must be positive", []string{"set capture.timeout"})
	printErrorDetails(&buf, fmt.Errorf("loading: %w", cfgErr))
	assert.Contains(t, buf.String(), "File: /x/config.yaml")
	assert.Contains(t, buf.String(), "Details: timeout must be positive")
	assert.Contains(t, buf.String(), "- set capture.timeout")
}

func TestRoot_MalformedConfig(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, os.WriteFile(filepath.Join(env.configDir, "config.yaml"), []byte("provider: [\n"), 0644))

	_, err := env.run(t, "", "accounts")
	var cfgErr config.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "parse", cfgErr.ErrorType)
	assert.Equal(t, ExitCodeError, getExitCode(err))
}

func TestRoot_LogLevelFlag(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "", "--log-level", "loud", "accounts")
	assert.ErrorContains(t, err, "unknown log level")

	_, err = env.run(t, "", "--log-level", "debug", "--json-logs", "accounts")
	assert.NoError(t, err)
}
