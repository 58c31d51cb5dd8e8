package pairing

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/oatsaysai/partner-ledger/internal/apperr"
	"github.com/oatsaysai/partner-ledger/internal/models"
	"github.com/oatsaysai/partner-ledger/internal/store"
)

func normalizeEmail(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	addr, err := mail.ParseAddress(raw)
	if err != nil || addr.Address != raw {
		return "", apperr.Validation("%q is not a valid email address", raw)
	}
	return strings.ToLower(addr.Address), nil
}

// GetOrCreateUser returns the user linked to a Discord account, creating it on first use.
// Identity comes from the chat platform and is trusted as is.
func (s *Service) GetOrCreateUser(ctx context.Context, discordID, displayName string) (models.User, error) {
	if discordID == "" {
		return models.User{}, apperr.Validation("discord id is required")
	}
	var u models.User
	created := false
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		u, err = tx.UserByDiscordID(ctx, discordID)
		if err == nil {
			return nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("finding user by discord id: %w", err)
		}
		u = models.User{
			ID:          uuid.New(),
			DisplayName: strings.TrimSpace(displayName),
			DiscordID:   discordID,
			CreatedAt:   s.clock(),
		}
		created = true
		return tx.InsertUser(ctx, u)
	})
	if err != nil {
		return models.User{}, err
	}
	if created {
		s.audit.Record(ctx, "user.create", u.ID, map[string]any{"discord_id": discordID})
	}
	return u, nil
}

// Register sets the email other users pair with. Emails are unique, case-insensitively.
func (s *Service) Register(ctx context.Context, userID uuid.UUID, email, displayName string) (models.User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return models.User{}, err
	}
	var u models.User
	err = s.store.WithTx(ctx, func(tx store.Tx) error {
		users, err := lockUsers(ctx, tx, userID)
		if err != nil {
			return err
		}
		u = users[userID]
		u.Email = email
		if name := strings.TrimSpace(displayName); name != "" {
			u.DisplayName = name
		}
		err = tx.UpdateUserProfile(ctx, u.ID, u.Email, u.DisplayName)
		if errors.Is(err, store.ErrUniqueViolation) {
			return apperr.Newf(apperr.ErrValidation, "%s is already registered to another account", email)
		}
		return err
	})
	if err != nil {
		return models.User{}, err
	}
	s.audit.Record(ctx, "user.register", userID, map[string]any{"email": email})
	return u, nil
}
