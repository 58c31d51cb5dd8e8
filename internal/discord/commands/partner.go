package commands

import (
	"github.com/oatsaysai/partner-ledger/internal/discord/handlers"
)

// RegisterPartnerCommands registers the pairing command
func RegisterPartnerCommands() {
	registerCommand(CommandDefinition{
		Name:        "partner",
		Description: "Pair with your partner, answer requests or unpair",
		Usage:       "!partner <request <email>|accept [id]|decline [id]|cancel|status|unpair>",
		Examples: []string{
			"!partner request bob@example.com",
			"!partner accept",
			"!partner status",
		},
		Handler: handlers.Wrap(handlers.HandlePartner),
	})
}
