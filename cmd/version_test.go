package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVersionCmd(t *testing.T) {
	versionCmd := newVersionCmd()

	assert.Equal(t, "version", versionCmd.Use)
	assert.NotEmpty(t, versionCmd.Short)
	assert.NotEmpty(t, versionCmd.Long)
	assert.NotNil(t, versionCmd.Run)
}

func TestVersionCommandExecution(t *testing.T) {
	root := newRootCmd()
	root.Version = "1.2.3-test"

	var buf bytes.Buffer
	root.SetOut(&buf)
	// A config directory that cannot be loaded proves version skips it.
	root.SetArgs([]string{"--config", "/nonexistent/\x00", "version"})

	require.NoError(t, root.Execute())
	assert.Equal(t, "sessionsplice version 1.2.3-test\n", buf.String())
}

func TestVersionCommandWithEmptyVersion(t *testing.T) {
	root := newRootCmd()

	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	assert.Contains(t, buf.String(), "sessionsplice version")
}

func TestSetVersion(t *testing.T) {
	original := GetVersion()
	defer SetVersion(original)

	SetVersion("9.9.9")
	assert.Equal(t, "9.9.9", GetVersion())
}
