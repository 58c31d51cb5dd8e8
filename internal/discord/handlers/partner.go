package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/oatsaysai/partner-ledger/internal/apperr"
	"github.com/oatsaysai/partner-ledger/internal/models"
	"github.com/oatsaysai/partner-ledger/internal/pairing"
)

const partnerUsage = "!partner <request <email>|accept [id]|decline [id]|cancel|status|unpair>"

// HandlePartner handles the !partner command and its subcommands
func HandlePartner(ctx context.Context, u models.User, args []string) (string, error) {
	if len(args) < 2 {
		return "", usageError(partnerUsage)
	}
	switch strings.ToLower(args[1]) {
	case "request":
		if len(args) < 3 {
			return "", usageError("!partner request <email>")
		}
		r, err := pairingService.SendRequest(ctx, u.ID, args[2])
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("📨 Partner request `%s` sent to %s", shortID(r.ID), strings.ToLower(args[2])), nil

	case "accept", "decline":
		accept := strings.ToLower(args[1]) == "accept"
		reqs, err := pairingService.ListRequests(ctx, u.ID)
		if err != nil {
			return "", err
		}
		r, err := pickRequest(reqs.Incoming, args[2:])
		if err != nil {
			return "", err
		}
		if _, err := pairingService.RespondToRequest(ctx, r.ID, u.ID, accept); err != nil {
			return "", err
		}
		if accept {
			return "💞 You are now partners! Shared wallets are visible to both of you.", nil
		}
		return "Request declined.", nil

	case "cancel":
		reqs, err := pairingService.ListRequests(ctx, u.ID)
		if err != nil {
			return "", err
		}
		r, err := pickRequest(reqs.Outgoing, args[2:])
		if err != nil {
			return "", err
		}
		if err := pairingService.CancelRequest(ctx, r.ID, u.ID); err != nil {
			return "", err
		}
		return "Request cancelled.", nil

	case "status":
		return partnerStatus(ctx, u)

	case "unpair":
		if err := pairingService.Unpair(ctx, u.ID); err != nil {
			return "", err
		}
		return "You are no longer paired.", nil
	}
	return "", usageError(partnerUsage)
}

// pickRequest returns the only request, or the one whose id starts with args[0]
func pickRequest(reqs []models.PartnerRequest, args []string) (models.PartnerRequest, error) {
	if len(args) > 0 {
		return matchRef(args[0], "request", reqs,
			func(models.PartnerRequest) string { return "" },
			func(r models.PartnerRequest) uuid.UUID { return r.ID })
	}
	switch len(reqs) {
	case 0:
		return models.PartnerRequest{}, apperr.New(apperr.ErrNotFound, "you have no pending partner request")
	case 1:
		return reqs[0], nil
	}
	return models.PartnerRequest{}, apperr.Validation("you have %d pending requests, add the request id", len(reqs))
}

func partnerStatus(ctx context.Context, u models.User) (string, error) {
	state, err := pairingService.State(ctx, u.ID)
	if err != nil {
		return "", err
	}
	switch state {
	case pairing.StatePaired:
		p, err := pairingService.CurrentPartner(ctx, u.ID)
		if err != nil {
			return "", err
		}
		if p == nil {
			return "You are not paired.", nil
		}
		name := p.DisplayName
		if name == "" {
			name = p.Email
		}
		return fmt.Sprintf("💞 You are paired with **%s**", name), nil
	case pairing.StateRequestSent, pairing.StateRequestReceived:
		reqs, err := pairingService.ListRequests(ctx, u.ID)
		if err != nil {
			return "", err
		}
		var response strings.Builder
		for _, r := range reqs.Outgoing {
			response.WriteString(fmt.Sprintf("Waiting for an answer to request `%s`\n", shortID(r.ID)))
		}
		for _, r := range reqs.Incoming {
			response.WriteString(fmt.Sprintf("Incoming request `%s`, answer with `!partner accept %s`\n", shortID(r.ID), shortID(r.ID)))
		}
		return response.String(), nil
	}
	return "You are not paired. Send a request with `!partner request <email>`", nil
}
