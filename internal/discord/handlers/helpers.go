package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"github.com/oatsaysai/partner-ledger/internal/apperr"
	"github.com/oatsaysai/partner-ledger/internal/ledger"
	"github.com/oatsaysai/partner-ledger/internal/models"
	"github.com/oatsaysai/partner-ledger/internal/pairing"
	"github.com/shopspring/decimal"
)

// commandTimeout bounds the service calls made for one chat command
const commandTimeout = 15 * time.Second

var (
	ledgerService  *ledger.Service
	pairingService *pairing.Service
)

// SetServices sets the services every handler calls into
func SetServices(l *ledger.Service, p *pairing.Service) {
	ledgerService = l
	pairingService = p
}

// Handler runs one command for an already-resolved user and returns the reply text
type Handler func(ctx context.Context, u models.User, args []string) (string, error)

// Wrap adapts a Handler to the Discord message callback. It resolves the author to a
// user, runs h and sends either the reply or the error message back to the channel.
func Wrap(h Handler) func(s *discordgo.Session, m *discordgo.MessageCreate, args []string) {
	return func(s *discordgo.Session, m *discordgo.MessageCreate, args []string) {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()

		reply, err := Run(ctx, h, m.Author.ID, displayName(m.Author), args)
		if err != nil {
			SendErrorMessage(s, m.ChannelID, errorText(err))
			return
		}
		if _, err := s.ChannelMessageSend(m.ChannelID, reply); err != nil {
			log.Printf("Failed to send reply to channel %s: %v", m.ChannelID, err)
		}
	}
}

// Run resolves discordID to a user and runs h
func Run(ctx context.Context, h Handler, discordID, name string, args []string) (string, error) {
	if ledgerService == nil || pairingService == nil {
		return "", errors.New("services are not initialized")
	}
	u, err := pairingService.GetOrCreateUser(ctx, discordID, name)
	if err != nil {
		return "", err
	}
	return h(ctx, u, args)
}

// SendErrorMessage sends an error message to the specified Discord channel
func SendErrorMessage(s *discordgo.Session, channelID, message string) {
	log.Printf("ERROR to user (Channel: %s): %s", channelID, message)
	_, err := s.ChannelMessageSend(channelID, fmt.Sprintf("⚠️ %s", message))
	if err != nil {
		log.Printf("Failed to send error message to Discord: %v", err)
	}
}

// errorText renders business errors with their message and hides internal ones
func errorText(err error) string {
	var e *apperr.Error
	if errors.As(err, &e) {
		if e.Message != "" {
			return e.Message
		}
		return strings.ReplaceAll(e.Code, "_", " ")
	}
	var u usageError
	if errors.As(err, &u) {
		return u.Error()
	}
	log.Printf("Internal error while handling command: %v", err)
	return "something went wrong, please try again later"
}

// usageError is returned when the command arguments do not parse
type usageError string

func (u usageError) Error() string {
	return "usage: `" + string(u) + "`"
}

func displayName(u *discordgo.User) string {
	if u == nil {
		return ""
	}
	if u.GlobalName != "" {
		return u.GlobalName
	}
	return u.Username
}

// parseAmount accepts "1,250.50" style input
func parseAmount(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", ""))
	if err != nil {
		return decimal.Zero, apperr.Validation("%q is not an amount", raw)
	}
	return d, nil
}

// shortID is the prefix users type to refer to a record
func shortID(id uuid.UUID) string {
	return id.String()[:8]
}

// matchRef picks the single candidate whose name equals ref case-insensitively or whose
// id starts with ref.
func matchRef[T any](ref, what string, items []T, name func(T) string, id func(T) uuid.UUID) (T, error) {
	var zero T
	ref = strings.ToLower(strings.TrimSpace(ref))
	var byName, byID []T
	for _, it := range items {
		if strings.ToLower(name(it)) == ref {
			byName = append(byName, it)
		}
		if len(ref) >= 4 && strings.HasPrefix(id(it).String(), ref) {
			byID = append(byID, it)
		}
	}
	switch {
	case len(byName) == 1:
		return byName[0], nil
	case len(byName) == 0 && len(byID) == 1:
		return byID[0], nil
	case len(byName) > 1 || len(byID) > 1:
		return zero, apperr.Validation("more than one %s matches %q, use its id", what, ref)
	}
	return zero, apperr.Newf(apperr.ErrNotFound, "no %s matches %q", what, ref)
}

func findWallet(ctx context.Context, u models.User, ref string) (ledger.WalletView, error) {
	wallets, err := ledgerService.ListWallets(ctx, u.ID)
	if err != nil {
		return ledger.WalletView{}, err
	}
	return matchRef(ref, "wallet", wallets,
		func(w ledger.WalletView) string { return w.Name },
		func(w ledger.WalletView) uuid.UUID { return w.ID })
}
