package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findCommand(t *testing.T, name string) bool {
	t.Helper()
	for _, c := range rootCmd.Commands() {
		if c.Name() == name {
			return true
		}
	}
	return false
}

func TestRootCommandWiring(t *testing.T) {
	assert.Equal(t, "auditpipe", rootCmd.Use)
	assert.True(t, findCommand(t, "analyze"))
	assert.True(t, findCommand(t, "report"))
	assert.True(t, findCommand(t, "serve"))
}

func TestAnalyzeCommandFlags(t *testing.T) {
	cmd := newAnalyzeCmd()
	require.NotNil(t, cmd.Flags().Lookup("plan"))
	require.NotNil(t, cmd.Flags().Lookup("sector"))
}

func TestReportCommandFlags(t *testing.T) {
	cmd := newReportCmd()

	typeFlag := cmd.Flags().Lookup("type")
	require.NotNil(t, typeFlag)
	assert.Equal(t, "technical_operational", typeFlag.DefValue)

	formatFlag := cmd.Flags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "markdown", formatFlag.DefValue)

	require.NotNil(t, cmd.Flags().Lookup("scan-id"))
}
