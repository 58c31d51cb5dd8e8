package commands

import (
	"github.com/oatsaysai/partner-ledger/internal/discord/handlers"
)

// RegisterWalletCommands registers account and wallet commands
func RegisterWalletCommands() {
	registerCommand(CommandDefinition{
		Name:        "register",
		Description: "Set the email your partner uses to find you",
		Usage:       "!register <email>",
		Examples: []string{
			"!register alice@example.com",
		},
		Handler: handlers.Wrap(handlers.HandleRegister),
	})

	registerCommand(CommandDefinition{
		Name:        "wallets",
		Description: "List the wallets you can see",
		Usage:       "!wallets [currency]",
		Examples: []string{
			"!wallets",
			"!wallets USD",
		},
		Handler: handlers.Wrap(handlers.HandleWallets),
	})

	registerCommand(CommandDefinition{
		Name:        "newwallet",
		Description: "Create a personal or shared wallet",
		Usage:       "!newwallet <personal|shared> <currency> <initial> <name...>",
		Examples: []string{
			"!newwallet personal USD 250 Cash",
			"!newwallet shared THB 0 Joint",
		},
		Handler: handlers.Wrap(handlers.HandleNewWallet),
	})
}
