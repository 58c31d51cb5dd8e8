package commands

import (
	"github.com/oatsaysai/partner-ledger/internal/discord/handlers"
)

// RegisterTransactionCommands registers ledger commands
func RegisterTransactionCommands() {
	registerCommand(CommandDefinition{
		Name:        "income",
		Description: "Record money coming into a wallet",
		Usage:       "!income <wallet> <amount> [category] [description...]",
		Examples: []string{
			"!income cash 1500 salary March pay",
		},
		Handler: handlers.Wrap(handlers.HandleIncome),
	})

	registerCommand(CommandDefinition{
		Name:        "expense",
		Description: "Record money leaving a wallet",
		Usage:       "!expense <wallet> <amount> [category] [description...]",
		Examples: []string{
			"!expense cash 12.50 food lunch",
			"!expense joint 80 groceries",
		},
		Handler: handlers.Wrap(handlers.HandleExpense),
	})

	registerCommand(CommandDefinition{
		Name:        "transfer",
		Description: "Move money between two wallets in the same currency",
		Usage:       "!transfer <from> <to> <amount> [description...]",
		Examples: []string{
			"!transfer cash joint 200 rent share",
		},
		Handler: handlers.Wrap(handlers.HandleTransfer),
	})

	registerCommand(CommandDefinition{
		Name:        "history",
		Description: "Show recent transactions",
		Usage:       "!history [wallet] [limit]",
		Examples: []string{
			"!history",
			"!history joint 20",
		},
		Handler: handlers.Wrap(handlers.HandleHistory),
	})

	registerCommand(CommandDefinition{
		Name:        "stats",
		Description: "Show income and expense totals",
		Usage:       "!stats [days] [currency]",
		Examples: []string{
			"!stats",
			"!stats 7 USD",
		},
		Handler: handlers.Wrap(handlers.HandleStats),
	})
}
