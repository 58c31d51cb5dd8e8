// Package pairing manages partner requests and the symmetric partner link between two
// users. The link gates shared-wallet access, so every transition re-reads both users
// inside the unit of work that writes it.
package pairing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/oatsaysai/partner-ledger/internal/apperr"
	"github.com/oatsaysai/partner-ledger/internal/audit"
	"github.com/oatsaysai/partner-ledger/internal/models"
	"github.com/oatsaysai/partner-ledger/internal/store"
)

// State is a user's position in the pairing lifecycle
type State string

const (
	StateUnpaired        State = "unpaired"
	StateRequestSent     State = "request_sent"
	StateRequestReceived State = "request_received"
	StatePaired          State = "paired"
)

// Requests groups a user's pending requests by direction
type Requests struct {
	Incoming []models.PartnerRequest
	Outgoing []models.PartnerRequest
}

// Service applies pairing transitions
type Service struct {
	store store.Store
	audit *audit.Recorder
	now   func() time.Time
}

// NewService creates a pairing service
func NewService(st store.Store, rec *audit.Recorder) *Service {
	return &Service{store: st, audit: rec, now: time.Now}
}

func (s *Service) clock() time.Time {
	return s.now().UTC()
}

func lockUsers(ctx context.Context, tx store.Tx, ids ...uuid.UUID) (map[uuid.UUID]models.User, error) {
	users, err := tx.LockUsers(ctx, ids...)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.New(apperr.ErrNotFound, "user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("locking users: %w", err)
	}
	return users, nil
}

// SendRequest asks the account registered under toEmail to become from's partner
func (s *Service) SendRequest(ctx context.Context, from uuid.UUID, toEmail string) (models.PartnerRequest, error) {
	email, err := normalizeEmail(toEmail)
	if err != nil {
		return models.PartnerRequest{}, err
	}
	var req models.PartnerRequest
	err = s.store.WithTx(ctx, func(tx store.Tx) error {
		target, err := tx.UserByEmail(ctx, email)
		if errors.Is(err, store.ErrNotFound) {
			return apperr.Newf(apperr.ErrTargetNotFound, "no account is registered as %s", email)
		}
		if err != nil {
			return fmt.Errorf("finding user by email: %w", err)
		}
		if target.ID == from {
			return apperr.New(apperr.ErrSelfPairing, "you cannot pair with yourself")
		}

		users, err := lockUsers(ctx, tx, from, target.ID)
		if err != nil {
			return err
		}
		if users[from].IsPaired() {
			return apperr.New(apperr.ErrAlreadyPaired, "you already have a partner")
		}
		if users[target.ID].IsPaired() {
			return apperr.New(apperr.ErrAlreadyPaired, "that account already has a partner")
		}

		pending, err := tx.PendingRequests(ctx, from)
		if err != nil {
			return fmt.Errorf("listing pending requests: %w", err)
		}
		for _, p := range pending {
			if p.Involves(from, target.ID) {
				return apperr.New(apperr.ErrDuplicateRequest, "a request between you two is already pending")
			}
			if p.FromUserID == from {
				return apperr.New(apperr.ErrDuplicateRequest, "you already have a pending request, cancel it first")
			}
		}

		req = models.PartnerRequest{
			ID:         uuid.New(),
			FromUserID: from,
			ToUserID:   target.ID,
			Status:     models.RequestPending,
			CreatedAt:  s.clock(),
		}
		err = tx.InsertPartnerRequest(ctx, req)
		if errors.Is(err, store.ErrUniqueViolation) {
			return apperr.New(apperr.ErrDuplicateRequest, "a request between you two is already pending")
		}
		return err
	})
	if err != nil {
		return models.PartnerRequest{}, err
	}
	s.audit.Record(ctx, "partner.request", from, map[string]any{"request_id": req.ID, "to_user_id": req.ToUserID})
	return req, nil
}

// lockPending loads a pending request and checks that by is allowed to resolve it
func lockPending(ctx context.Context, tx store.Tx, id, by uuid.UUID, sender bool) (models.PartnerRequest, error) {
	r, err := tx.LockPartnerRequest(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return r, apperr.New(apperr.ErrNotFound, "partner request not found")
	}
	if err != nil {
		return r, fmt.Errorf("loading partner request: %w", err)
	}
	allowed := r.ToUserID == by
	if sender {
		allowed = r.FromUserID == by
	}
	if !allowed {
		return r, apperr.New(apperr.ErrForbidden, "this request is not yours to resolve")
	}
	if r.Status != models.RequestPending {
		return r, apperr.Newf(apperr.ErrAlreadyResolved, "request is already %s", r.Status)
	}
	return r, nil
}

// RespondToRequest accepts or declines a pending request addressed to by. An accept
// re-checks both users under lock and sets both partner ids with compare-and-set; if
// either user was paired in the meantime nothing changes and the request stays pending.
func (s *Service) RespondToRequest(ctx context.Context, requestID, by uuid.UUID, accept bool) (models.PartnerRequest, error) {
	var out models.PartnerRequest
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		r, err := lockPending(ctx, tx, requestID, by, false)
		if err != nil {
			return err
		}
		now := s.clock()
		if !accept {
			r.Status, r.RespondedAt = models.RequestDeclined, &now
			out = r
			return tx.SetRequestStatus(ctx, r.ID, r.Status, now)
		}

		users, err := lockUsers(ctx, tx, r.FromUserID, r.ToUserID)
		if err != nil {
			return err
		}
		if users[r.FromUserID].IsPaired() || users[r.ToUserID].IsPaired() {
			return apperr.New(apperr.ErrAlreadyPaired, "one of you already has a partner")
		}
		for _, link := range [][2]uuid.UUID{{r.FromUserID, r.ToUserID}, {r.ToUserID, r.FromUserID}} {
			partner := link[1]
			ok, err := tx.SetPartner(ctx, link[0], nil, &partner)
			if err != nil {
				return fmt.Errorf("setting partner of %s: %w", link[0], err)
			}
			if !ok {
				return apperr.New(apperr.ErrAlreadyPaired, "one of you already has a partner")
			}
		}
		r.Status, r.RespondedAt = models.RequestAccepted, &now
		out = r
		return tx.SetRequestStatus(ctx, r.ID, r.Status, now)
	})
	if err != nil {
		return models.PartnerRequest{}, err
	}
	s.audit.Record(ctx, "partner."+string(out.Status), by, map[string]any{
		"request_id": out.ID, "from_user_id": out.FromUserID,
	})
	return out, nil
}

// CancelRequest withdraws a pending request sent by by
func (s *Service) CancelRequest(ctx context.Context, requestID, by uuid.UUID) error {
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		r, err := lockPending(ctx, tx, requestID, by, true)
		if err != nil {
			return err
		}
		return tx.SetRequestStatus(ctx, r.ID, models.RequestCancelled, s.clock())
	})
	if err != nil {
		return err
	}
	s.audit.Record(ctx, "partner.cancel", by, map[string]any{"request_id": requestID})
	return nil
}

// ListRequests returns userID's pending requests
func (s *Service) ListRequests(ctx context.Context, userID uuid.UUID) (Requests, error) {
	var out Requests
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		pending, err := tx.PendingRequests(ctx, userID)
		if err != nil {
			return fmt.Errorf("listing pending requests: %w", err)
		}
		for _, r := range pending {
			if r.FromUserID == userID {
				out.Outgoing = append(out.Outgoing, r)
			} else {
				out.Incoming = append(out.Incoming, r)
			}
		}
		return nil
	})
	return out, err
}

// Unpair clears the partner link on both sides
func (s *Service) Unpair(ctx context.Context, userID uuid.UUID) error {
	var partner uuid.UUID
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		u, err := tx.User(ctx, userID)
		if errors.Is(err, store.ErrNotFound) {
			return apperr.New(apperr.ErrNotFound, "user not found")
		}
		if err != nil {
			return fmt.Errorf("loading user: %w", err)
		}
		if u.PartnerID == nil {
			return apperr.New(apperr.ErrNotPaired, "you do not have a partner")
		}
		partner = *u.PartnerID

		users, err := lockUsers(ctx, tx, userID, partner)
		if err != nil {
			return err
		}
		if p := users[userID].PartnerID; p == nil || *p != partner {
			return apperr.New(apperr.ErrNotPaired, "your partner link changed, try again")
		}
		for _, link := range [][2]uuid.UUID{{userID, partner}, {partner, userID}} {
			ok, err := tx.SetPartner(ctx, link[0], &link[1], nil)
			if err != nil {
				return fmt.Errorf("clearing partner of %s: %w", link[0], err)
			}
			if !ok {
				return fmt.Errorf("partner link between %s and %s is not symmetric", userID, partner)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.audit.Record(ctx, "partner.unpair", userID, map[string]any{"partner_id": partner})
	return nil
}

// CurrentPartner returns userID's partner, or nil when unpaired
func (s *Service) CurrentPartner(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var out *models.User
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		u, err := tx.User(ctx, userID)
		if errors.Is(err, store.ErrNotFound) {
			return apperr.New(apperr.ErrNotFound, "user not found")
		}
		if err != nil {
			return fmt.Errorf("loading user: %w", err)
		}
		if u.PartnerID == nil {
			return nil
		}
		p, err := tx.User(ctx, *u.PartnerID)
		if err != nil {
			return fmt.Errorf("loading partner: %w", err)
		}
		out = &p
		return nil
	})
	return out, err
}

// State reports where userID stands in the pairing lifecycle
func (s *Service) State(ctx context.Context, userID uuid.UUID) (State, error) {
	state := StateUnpaired
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		u, err := tx.User(ctx, userID)
		if errors.Is(err, store.ErrNotFound) {
			return apperr.New(apperr.ErrNotFound, "user not found")
		}
		if err != nil {
			return fmt.Errorf("loading user: %w", err)
		}
		if u.IsPaired() {
			state = StatePaired
			return nil
		}
		pending, err := tx.PendingRequests(ctx, userID)
		if err != nil {
			return fmt.Errorf("listing pending requests: %w", err)
		}
		for _, r := range pending {
			if r.FromUserID == userID {
				state = StateRequestSent
				return nil
			}
			state = StateRequestReceived
		}
		return nil
	})
	return state, err
}
