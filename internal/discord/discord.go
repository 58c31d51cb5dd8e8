package discord

import (
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"
	"github.com/oatsaysai/partner-ledger/internal/discord/handlers"
	"github.com/oatsaysai/partner-ledger/internal/ledger"
	"github.com/oatsaysai/partner-ledger/internal/pairing"
)

var session *discordgo.Session

// SetServices sets the ledger and pairing services used by every command
func SetServices(l *ledger.Service, p *pairing.Service) {
	handlers.SetServices(l, p)
}

// Initialize sets up the Discord session and registers handlers
func Initialize(token string) error {
	var err error
	session, err = discordgo.New("Bot " + token)
	if err != nil {
		return fmt.Errorf("error creating Discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages | discordgo.IntentMessageContent

	// Update the registry with all commands
	UpdateRegistry()

	// Register the message handler
	session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		ProcessCommand(s, m)
	})

	// Open connection to Discord
	err = session.Open()
	if err != nil {
		return fmt.Errorf("error opening connection to Discord: %w", err)
	}

	log.Println("Connected to Discord successfully")
	return nil
}

// Close closes the Discord session
func Close() {
	if session != nil {
		session.Close()
	}
}
