// Package commands_test provides tests for CLI command creation.
package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewHistoryCommand(t *testing.T) {
	cmd := NewHistoryCommand()

	assert.Equal(t, "history", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotNil(t, cmd.Flags().Lookup("limit"), "--limit flag should exist")
	assert.NotNil(t, cmd.PersistentFlags().Lookup("format"), "--format is shared with subcommands")

	var subs []string
	for _, c := range cmd.Commands() {
		subs = append(subs, c.Name())
	}
	assert.ElementsMatch(t, []string{"show", "delete"}, subs)
}

func TestNewLintCommandsHaveNoSaveFlag(t *testing.T) {
	// --save and --watch are persistent flags of the root command.
	assert.Nil(t, NewCSSCommand().Flags().Lookup("save"))
	assert.Nil(t, NewLintCommand().Flags().Lookup("watch"))
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "0123abcd", shortID("0123abcd-4567-89ef"))
	assert.Equal(t, "abc", shortID("abc"))
}
