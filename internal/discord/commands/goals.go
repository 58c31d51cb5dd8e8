package commands

import (
	"github.com/oatsaysai/partner-ledger/internal/discord/handlers"
)

// RegisterGoalCommands registers savings goal commands
func RegisterGoalCommands() {
	registerCommand(CommandDefinition{
		Name:        "goals",
		Description: "Show savings goals and their progress",
		Usage:       "!goals",
		Examples: []string{
			"!goals",
		},
		Handler: handlers.Wrap(handlers.HandleGoals),
	})

	registerCommand(CommandDefinition{
		Name:        "newgoal",
		Description: "Create a savings goal",
		Usage:       "!newgoal <currency> <target> <name...>",
		Examples: []string{
			"!newgoal USD 3000 Japan trip",
		},
		Handler: handlers.Wrap(handlers.HandleNewGoal),
	})

	registerCommand(CommandDefinition{
		Name:        "contribute",
		Description: "Move money from a wallet into a goal",
		Usage:       "!contribute <goal> <wallet> <amount> [note...]",
		Examples: []string{
			"!contribute japan cash 100",
		},
		Handler: handlers.Wrap(handlers.HandleContribute),
	})

	registerCommand(CommandDefinition{
		Name:        "withdraw",
		Description: "Move money from a goal back into a wallet",
		Usage:       "!withdraw <goal> <wallet> <amount> [note...]",
		Examples: []string{
			"!withdraw japan cash 50 deposit refund",
		},
		Handler: handlers.Wrap(handlers.HandleWithdraw),
	})
}
