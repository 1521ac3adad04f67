// File: cmd/root_test.go
package cmd

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// executeCommandNoPreRun runs the command tree with PersistentPreRunE disabled
// so flag and argument validation can be tested without config loading.
func executeCommandNoPreRun(t *testing.T, args ...string) (string, error) {
	t.Helper()
	testRootCmd := NewRootCommand()
	testRootCmd.PersistentPreRunE = nil

	buf := new(bytes.Buffer)
	testRootCmd.SetOut(buf)
	testRootCmd.SetErr(buf)
	testRootCmd.SetArgs(args)
	err := testRootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestRootCmd_VersionFlag(t *testing.T) {
	// Arrange
	testRootCmd := NewRootCommand()
	var out bytes.Buffer
	testRootCmd.SetOut(&out)
	testRootCmd.SetErr(&out)
	testRootCmd.SetArgs([]string{"--version"})

	// Act
	err := testRootCmd.ExecuteContext(context.Background())

	// Assert
	require.NoError(t, err)
	assert.Contains(t, out.String(), Version)
}

func TestRootCmd_NoArgs(t *testing.T) {
	// Without a subcommand the root prints its help text.
	out, err := executeCommandNoPreRun(t)
	require.NoError(t, err)
	assert.Contains(t, out, "Usage:")
	assert.Contains(t, out, "run")
	assert.Contains(t, out, "check")
}

func TestRootCmd_RegistersSubcommands(t *testing.T) {
	testRootCmd := NewRootCommand()

	names := make([]string, 0, len(testRootCmd.Commands()))
	for _, c := range testRootCmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "run")
	assert.Contains(t, names, "check")
}

func TestRunCmd_Flags(t *testing.T) {
	runCmd := newRunCmd()

	for _, name := range []string{"master", "worklist", "headless", "output", "format"} {
		assert.NotNilf(t, runCmd.Flags().Lookup(name), "flag %q should be registered", name)
	}
	assert.Equal(t, "text", runCmd.Flags().Lookup("format").DefValue)
	assert.Equal(t, "o", runCmd.Flags().Lookup("output").Shorthand)
	assert.Equal(t, "f", runCmd.Flags().Lookup("format").Shorthand)
}

func TestCheckCmd_Flags(t *testing.T) {
	checkCmd := newCheckCmd()

	assert.NotNil(t, checkCmd.Flags().Lookup("master"))
	assert.NotNil(t, checkCmd.Flags().Lookup("worklist"))
}

func TestRootCmd_UnknownCommand(t *testing.T) {
	_, err := executeCommandNoPreRun(t, "bogus")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command")
}
