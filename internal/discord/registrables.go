package discord

import (
	"github.com/oatsaysai/partner-ledger/internal/discord/commands"
)

// setupCommandRegistration sets up the command registration process
func setupCommandRegistration() {
	// Convert commands.CommandDefinition to discord.CommandDefinition
	wrapper := func(cmdDef commands.CommandDefinition) {
		RegisterCommand(CommandDefinition{
			Name:        cmdDef.Name,
			Description: cmdDef.Description,
			Usage:       cmdDef.Usage,
			Examples:    cmdDef.Examples,
			Handler:     cmdDef.Handler,
		})
	}
	commands.SetRegisterFunction(wrapper)
}

// UpdateRegistry initializes and updates the command registry
func UpdateRegistry() {
	setupCommandRegistration()
	commands.Register()
}
