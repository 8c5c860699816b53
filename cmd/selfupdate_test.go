package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSelfUpdateCmd(t *testing.T) {
	selfUpdateCmd := newSelfUpdateCmd()

	assert.Equal(t, "self-update", selfUpdateCmd.Use)
	assert.NotEmpty(t, selfUpdateCmd.Short)
	assert.NotEmpty(t, selfUpdateCmd.Long)
	assert.NotNil(t, selfUpdateCmd.RunE)
	require.NotNil(t, selfUpdateCmd.Flags().Lookup("repo"))
}

func TestSelfUpdate_RefusesDevelopmentVersion(t *testing.T) {
	for _, version := range []string{"", "dev"} {
		root := newRootCmd()
		root.Version = version

		var buf bytes.Buffer
		root.SetOut(&buf)
		root.SetErr(&buf)
		root.SetArgs([]string{"self-update", "--repo", "owner/name"})

		err := root.Execute()
		assert.ErrorIs(t, err, errDevelopmentVersion, "version %q", version)
	}
}

func TestSelfUpdate_RequiresRepository(t *testing.T) {
	root := newRootCmd()
	root.Version = "1.0.0"

	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs([]string{"self-update", "--repo", ""})

	err := root.Execute()
	assert.ErrorContains(t, err, "no release repository configured")
}
