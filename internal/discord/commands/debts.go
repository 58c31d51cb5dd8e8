package commands

import (
	"github.com/oatsaysai/partner-ledger/internal/discord/handlers"
)

// RegisterDebtCommands registers all debt-related commands
func RegisterDebtCommands() {
	registerCommand(CommandDefinition{
		Name:        "debts",
		Description: "Show open household debts and the balance between partners",
		Usage:       "!debts",
		Examples: []string{
			"!debts",
		},
		Handler: handlers.Wrap(handlers.HandleDebts),
	})

	registerCommand(CommandDefinition{
		Name:        "newdebt",
		Description: "Record a debt",
		Usage:       "!newdebt <we_owe|owed_to_us|internal> <currency> <amount> <name...>",
		Examples: []string{
			"!newdebt we_owe USD 5000 Car loan",
			"!newdebt internal THB 300 Concert tickets",
		},
		Handler: handlers.Wrap(handlers.HandleNewDebt),
	})

	registerCommand(CommandDefinition{
		Name:        "paydebt",
		Description: "Pay part or all of a debt from a wallet",
		Usage:       "!paydebt <debt> <amount> [wallet]",
		Examples: []string{
			"!paydebt 3f2a9c1b 200",
			"!paydebt rent 1200 joint",
		},
		Handler: handlers.Wrap(handlers.HandlePayDebt),
	})
}
