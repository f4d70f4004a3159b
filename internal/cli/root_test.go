package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "packrat", cmd.Use)
	assert.Contains(t, cmd.Long, "audit trail")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"box", "item", "history", "import", "export", "backup", "stats"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestSubcommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	paths := [][]string{
		{"box", "add"}, {"box", "ls"}, {"box", "update"}, {"box", "rm"},
		{"item", "add"}, {"item", "ls"}, {"item", "update"}, {"item", "rm"},
		{"history", "ls"}, {"history", "stats"},
		{"import", "validate"}, {"import", "commit"},
		{"export", "inventory"}, {"export", "audit"},
		{"backup", "create"}, {"backup", "status"},
	}

	for _, path := range paths {
		subCmd, _, err := cmd.Find(path)
		require.NoError(t, err, "Command %v should exist", path)
		assert.Equal(t, path[len(path)-1], subCmd.Name())
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "", configFlag.DefValue)
}

func TestItemAddFlags(t *testing.T) {
	cmd := NewRootCommand()
	addCmd, _, err := cmd.Find([]string{"item", "add"})
	require.NoError(t, err)

	boxFlag := addCmd.Flags().Lookup("box")
	require.NotNil(t, boxFlag)

	quantityFlag := addCmd.Flags().Lookup("quantity")
	require.NotNil(t, quantityFlag)
	assert.Equal(t, "1", quantityFlag.DefValue)
}

func TestRemoveCommandsRequireYesFlag(t *testing.T) {
	cmd := NewRootCommand()

	for _, path := range [][]string{{"box", "rm"}, {"item", "rm"}} {
		rmCmd, _, err := cmd.Find(path)
		require.NoError(t, err)

		yesFlag := rmCmd.Flags().Lookup("yes")
		require.NotNil(t, yesFlag, "%v must have a --yes flag", path)
		assert.Equal(t, "false", yesFlag.DefValue)
	}
}

func TestFormatValidation(t *testing.T) {
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))

	assert.False(t, isValidFormat("xml"))
	assert.False(t, isValidFormat(""))
	assert.False(t, isValidFormat("TEXT"))
}

func TestFormatValidationIntegration(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"--format", "invalid", "box", "ls"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}
