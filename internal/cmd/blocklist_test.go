package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func useTestConfig(t *testing.T) string {
	t.Helper()

	t.Chdir(t.TempDir())

	dir := t.TempDir()
	blocklistPath := filepath.Join(dir, "blocklist.txt")
	configPath := filepath.Join(dir, "ipreview.yml")
	body := "blocklist:\n  path: " + blocklistPath + "\n"
	require.NoError(t, os.WriteFile(configPath, []byte(body), 0o600))

	previous := cfgFile
	cfgFile = configPath
	t.Cleanup(func() { cfgFile = previous })

	return blocklistPath
}

func runCommand(t *testing.T, command *cobra.Command, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	command.SetOut(&out)
	command.SetErr(&out)
	command.SetArgs(args)

	errExec := command.ExecuteContext(t.Context())

	return out.String(), errExec
}

func TestBlocklistAddCommand(t *testing.T) {
	blocklistPath := useTestConfig(t)

	out, errAdd := runCommand(t, blocklistAddCmd(), "203.0.113.0/24")
	require.NoError(t, errAdd)
	require.Equal(t, "203.0.113.0/24: added\n", out)

	out, errAdd = runCommand(t, blocklistAddCmd(), "203.0.113.0/24")
	require.NoError(t, errAdd)
	require.Equal(t, "203.0.113.0/24: already present\n", out)

	body, errRead := os.ReadFile(blocklistPath)
	require.NoError(t, errRead)
	require.Equal(t, "203.0.113.0/24\n", string(body))
}

func TestBlocklistAddCommandInvalid(t *testing.T) {
	blocklistPath := useTestConfig(t)

	_, errAdd := runCommand(t, blocklistAddCmd(), "not-a-subnet")
	require.Error(t, errAdd)
	require.NoFileExists(t, blocklistPath)
}

func TestBlocklistListCommand(t *testing.T) {
	blocklistPath := useTestConfig(t)
	require.NoError(t, os.WriteFile(blocklistPath, []byte("198.51.100.0/24\n2001:db8::/32\n"), 0o600))

	out, errList := runCommand(t, blocklistListCmd())
	require.NoError(t, errList)
	require.Contains(t, out, "198.51.100.0/24")
	require.Contains(t, out, "2001:db8::/32")
	require.Contains(t, strings.ToLower(out), "2 entries")
}

func TestLookupCommandRejectsInvalidAddress(t *testing.T) {
	useTestConfig(t)

	_, errLookup := runCommand(t, lookupCmd(), "300.1.1.1")
	require.Error(t, errLookup)
}
