package cmd

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"sessionsplice/internal/accounts"
	"sessionsplice/internal/statedb"
)

// legacyFixture is {1: "user-123", 2: "old@x.com", 3: varint 7, 6: {1: "old"}, 9: "keep"}.
const legacyFixture = "Cgh1c2VyLTEyMxIJb2xkQHguY29tGAcyBQoDb2xkSgRrZWVw"

// fakeOAuth serves the token and userinfo endpoints.
type fakeOAuth struct {
	*httptest.Server

	mu           sync.Mutex
	refreshCalls int
}

func newFakeOAuth(t *testing.T) *fakeOAuth {
	t.Helper()
	f := &fakeOAuth{}

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")

		switch r.PostForm.Get("grant_type") {
		case "authorization_code":
			if r.PostForm.Get("code") != "good-code" {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"access_token":  "ya29.fresh",
				"refresh_token": "1//refresh",
				"token_type":    "Bearer",
				"expires_in":    3600,
			})
		case "refresh_token":
			f.mu.Lock()
			f.refreshCalls++
			f.mu.Unlock()
			_ = json.NewEncoder(w).Encode(map[string]any{
				"access_token": "ya29.refreshed",
				"token_type":   "Bearer",
				"expires_in":   3600,
			})
		default:
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"unsupported_grant_type"}`))
		}
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"42","email":"user@example.com","verified_email":true,"name":"Test User"}`))
	})

	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

func (f *fakeOAuth) RefreshCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshCalls
}

type testEnv struct {
	configDir   string
	dbPath      string
	accountsDir string
	oauth       *fakeOAuth
}

// newTestEnv writes a config pointing at a fake provider, a state database
// holding legacyFixture, and an empty account directory.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()

	env := &testEnv{
		configDir:   filepath.Join(dir, "config"),
		dbPath:      filepath.Join(dir, "state.vscdb"),
		accountsDir: filepath.Join(dir, "accounts"),
		oauth:       newFakeOAuth(t),
	}

	env.writeConfig(t, "clientId: test-client")
	createStateDB(t, env.dbPath, map[string]string{statedb.LegacyStateKey: legacyFixture})
	return env
}

// writeConfig writes config.yaml; clientLine goes into the provider section.
func (e *testEnv) writeConfig(t *testing.T, clientLine string) {
	t.Helper()
	e.writeConfigWithTarget(t, clientLine, "")
}

// writeConfigWithTarget is writeConfig with extra indented lines appended to
// the target section.
func (e *testEnv) writeConfigWithTarget(t *testing.T, clientLine, targetLines string) {
	t.Helper()
	content := fmt.Sprintf(`provider:
  %s
  clientSecret: test-secret
  authUrl: https://auth.example.test/authorize
  tokenUrl: %s/token
  userInfoUrl: %s/userinfo
capture:
  timeout: 10s
target:
  databasePath: %s
%saccounts:
  dir: %s
logging:
  level: error
`, clientLine, e.oauth.URL, e.oauth.URL, e.dbPath, targetLines, e.accountsDir)

	require.NoError(t, os.MkdirAll(e.configDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(e.configDir, "config.yaml"), []byte(content), 0644))
}

func (e *testEnv) accountStore(t *testing.T) *accounts.Store {
	t.Helper()
	store, err := accounts.NewStore(e.accountsDir)
	require.NoError(t, err)
	return store
}

func (e *testEnv) readKey(t *testing.T, key string) string {
	t.Helper()
	store, err := statedb.Open(e.dbPath)
	require.NoError(t, err)
	defer store.Close()

	value, err := store.Get(context.Background(), key)
	require.NoError(t, err)
	return value
}

// run executes the CLI against the environment's configuration.
func (e *testEnv) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	out, _, err := e.runWithStderr(t, stdin, args...)
	return out, err
}

// runWithStderr is run that also returns what went to stderr, logs included.
func (e *testEnv) runWithStderr(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	root := newRootCmd()

	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--config", e.configDir}, args...))

	err := root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func createStateDB(t *testing.T, path string, rows map[string]string) {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE ItemTable (key TEXT UNIQUE ON CONFLICT REPLACE, value BLOB)`)
	require.NoError(t, err)

	for k, v := range rows {
		_, err := db.Exec(`INSERT INTO ItemTable (key, value) VALUES (?, ?)`, k, v)
		require.NoError(t, err)
	}
}
