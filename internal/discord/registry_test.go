package discord

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUpdateRegistry(t *testing.T) {
	UpdateRegistry()

	for _, name := range []string{
		"register", "wallets", "newwallet", "income", "expense", "transfer", "history", "stats",
		"debts", "newdebt", "paydebt", "goals", "newgoal", "contribute", "withdraw", "partner", "help",
	} {
		cmd, ok := GetCommand(name)
		if assert.True(t, ok, "command %s is not registered", name) {
			assert.NotNil(t, cmd.Handler, name)
			assert.NotEmpty(t, cmd.Usage, name)
		}
	}
	_, ok := GetCommand("HELP")
	assert.True(t, ok, "lookups are case-insensitive")
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		content string
		name    string
		args    []string
		ok      bool
	}{
		{"!Expense cash 12.50 food", "expense", []string{"!Expense", "cash", "12.50", "food"}, true},
		{"  !help  ", "help", []string{"!help"}, true},
		{"hello there", "", nil, false},
		{"", "", nil, false},
		{"!", "", []string{"!"}, false},
	}
	for _, tt := range tests {
		name, args, ok := parseCommand(tt.content)
		assert.Equal(t, tt.ok, ok, tt.content)
		if tt.ok {
			assert.Equal(t, tt.name, name, tt.content)
			assert.Equal(t, tt.args, args, tt.content)
		}
	}
}
