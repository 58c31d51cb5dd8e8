package pairing

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/oatsaysai/partner-ledger/internal/apperr"
	"github.com/oatsaysai/partner-ledger/internal/audit"
	"github.com/oatsaysai/partner-ledger/internal/models"
	"github.com/oatsaysai/partner-ledger/internal/store"
	"github.com/oatsaysai/partner-ledger/internal/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	ctx   context.Context
	store *memory.Store
	svc   *Service
	ids   []uuid.UUID
}

func newFixture() *fixture {
	st := memory.New()
	return &fixture{ctx: context.Background(), store: st, svc: NewService(st, audit.NewRecorder(st))}
}

// user creates a Discord-backed account registered as name@example.com
func (f *fixture) user(t *testing.T, name string) uuid.UUID {
	t.Helper()
	u, err := f.svc.GetOrCreateUser(f.ctx, "discord-"+name, name)
	require.NoError(t, err)
	_, err = f.svc.Register(f.ctx, u.ID, name+"@example.com", "")
	require.NoError(t, err)
	f.ids = append(f.ids, u.ID)
	return u.ID
}

func (f *fixture) partnerOf(t *testing.T, id uuid.UUID) *uuid.UUID {
	t.Helper()
	var u models.User
	require.NoError(t, f.store.WithTx(f.ctx, func(tx store.Tx) error {
		var err error
		u, err = tx.User(f.ctx, id)
		return err
	}))
	return u.PartnerID
}

// requireSymmetric checks that every partner link points back
func (f *fixture) requireSymmetric(t *testing.T) {
	t.Helper()
	for _, id := range f.ids {
		p := f.partnerOf(t, id)
		if p == nil {
			continue
		}
		back := f.partnerOf(t, *p)
		require.NotNil(t, back, "%s points to %s which points nowhere", id, *p)
		assert.Equal(t, id, *back)
	}
}

func (f *fixture) state(t *testing.T, id uuid.UUID) State {
	t.Helper()
	st, err := f.svc.State(f.ctx, id)
	require.NoError(t, err)
	return st
}

func TestPairing_HappyPath(t *testing.T) {
	f := newFixture()
	alice, bob := f.user(t, "alice"), f.user(t, "bob")
	assert.Equal(t, StateUnpaired, f.state(t, alice))

	req, err := f.svc.SendRequest(f.ctx, alice, "  BOB@example.com ")
	require.NoError(t, err)
	assert.Equal(t, models.RequestPending, req.Status)
	assert.Equal(t, bob, req.ToUserID)
	assert.Equal(t, StateRequestSent, f.state(t, alice))
	assert.Equal(t, StateRequestReceived, f.state(t, bob))

	reqs, err := f.svc.ListRequests(f.ctx, bob)
	require.NoError(t, err)
	require.Len(t, reqs.Incoming, 1)
	assert.Empty(t, reqs.Outgoing)

	got, err := f.svc.RespondToRequest(f.ctx, req.ID, bob, true)
	require.NoError(t, err)
	assert.Equal(t, models.RequestAccepted, got.Status)
	require.NotNil(t, got.RespondedAt)

	assert.Equal(t, StatePaired, f.state(t, alice))
	partner, err := f.svc.CurrentPartner(f.ctx, alice)
	require.NoError(t, err)
	require.NotNil(t, partner)
	assert.Equal(t, bob, partner.ID)
	f.requireSymmetric(t)

	require.NoError(t, f.svc.Unpair(f.ctx, bob))
	assert.Nil(t, f.partnerOf(t, alice))
	assert.Nil(t, f.partnerOf(t, bob))
	partner, err = f.svc.CurrentPartner(f.ctx, alice)
	require.NoError(t, err)
	assert.Nil(t, partner)

	err = f.svc.Unpair(f.ctx, alice)
	require.ErrorIs(t, err, apperr.ErrNotPaired)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	var actions []string
	for _, e := range f.store.AuditEntries() {
		actions = append(actions, e.Action)
	}
	assert.Subset(t, actions, []string{"partner.request", "partner.accepted", "partner.unpair"})
}

func TestSendRequest_Failures(t *testing.T) {
	f := newFixture()
	alice, bob, carol, dave := f.user(t, "alice"), f.user(t, "bob"), f.user(t, "carol"), f.user(t, "dave")

	// carol and dave are paired
	r, err := f.svc.SendRequest(f.ctx, carol, "dave@example.com")
	require.NoError(t, err)
	_, err = f.svc.RespondToRequest(f.ctx, r.ID, dave, true)
	require.NoError(t, err)

	_, err = f.svc.SendRequest(f.ctx, alice, "bob@example.com")
	require.NoError(t, err)

	tests := []struct {
		name   string
		from   uuid.UUID
		email  string
		target error
	}{
		{"malformed email", alice, "not-an-email", apperr.ErrValidation},
		{"unknown account", alice, "nobody@example.com", apperr.ErrTargetNotFound},
		{"self", bob, "bob@example.com", apperr.ErrSelfPairing},
		{"target paired", bob, "carol@example.com", apperr.ErrAlreadyPaired},
		{"sender paired", dave, "bob@example.com", apperr.ErrAlreadyPaired},
		{"same direction twice", alice, "bob@example.com", apperr.ErrDuplicateRequest},
		{"reverse direction", bob, "alice@example.com", apperr.ErrDuplicateRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.SendRequest(f.ctx, tt.from, tt.email)
			require.ErrorIs(t, err, tt.target)
		})
	}

	// one outbound pending request at a time
	erin := f.user(t, "erin")
	_, err = f.svc.SendRequest(f.ctx, alice, "erin@example.com")
	require.ErrorIs(t, err, apperr.ErrDuplicateRequest)
	_, err = f.svc.SendRequest(f.ctx, erin, "alice@example.com")
	require.NoError(t, err, "alice may still receive requests")
}

func TestRespondToRequest_Failures(t *testing.T) {
	f := newFixture()
	alice, bob, carol := f.user(t, "alice"), f.user(t, "bob"), f.user(t, "carol")
	req, err := f.svc.SendRequest(f.ctx, alice, "bob@example.com")
	require.NoError(t, err)

	_, err = f.svc.RespondToRequest(f.ctx, uuid.New(), bob, true)
	require.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.svc.RespondToRequest(f.ctx, req.ID, carol, true)
	require.ErrorIs(t, err, apperr.ErrForbidden)
	_, err = f.svc.RespondToRequest(f.ctx, req.ID, alice, true)
	require.ErrorIs(t, err, apperr.ErrForbidden, "the sender cannot accept their own request")

	declined, err := f.svc.RespondToRequest(f.ctx, req.ID, bob, false)
	require.NoError(t, err)
	assert.Equal(t, models.RequestDeclined, declined.Status)
	assert.Nil(t, f.partnerOf(t, alice))

	_, err = f.svc.RespondToRequest(f.ctx, req.ID, bob, true)
	require.ErrorIs(t, err, apperr.ErrAlreadyResolved)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	// a declined request no longer blocks a new one
	_, err = f.svc.SendRequest(f.ctx, alice, "bob@example.com")
	require.NoError(t, err)
}

func TestRespondToRequest_AcceptAfterPartyPairedLeavesRequestPending(t *testing.T) {
	f := newFixture()
	alice, bob := f.user(t, "alice"), f.user(t, "bob")
	f.user(t, "carol")

	fromAlice, err := f.svc.SendRequest(f.ctx, alice, "carol@example.com")
	require.NoError(t, err)
	fromBob, err := f.svc.SendRequest(f.ctx, bob, "carol@example.com")
	require.NoError(t, err)
	carol := fromAlice.ToUserID

	_, err = f.svc.RespondToRequest(f.ctx, fromAlice.ID, carol, true)
	require.NoError(t, err)

	_, err = f.svc.RespondToRequest(f.ctx, fromBob.ID, carol, true)
	require.ErrorIs(t, err, apperr.ErrAlreadyPaired)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	assert.Nil(t, f.partnerOf(t, bob))

	reqs, err := f.svc.ListRequests(f.ctx, bob)
	require.NoError(t, err)
	require.Len(t, reqs.Outgoing, 1)
	assert.Equal(t, models.RequestPending, reqs.Outgoing[0].Status)

	// bob can still withdraw it
	require.NoError(t, f.svc.CancelRequest(f.ctx, fromBob.ID, bob))
	f.requireSymmetric(t)
}

func TestRespondToRequest_ConcurrentAcceptsPairOnce(t *testing.T) {
	f := newFixture()
	x := f.user(t, "x")
	var reqs []models.PartnerRequest
	for _, name := range []string{"a", "b", "c", "d"} {
		from := f.user(t, name)
		r, err := f.svc.SendRequest(f.ctx, from, "x@example.com")
		require.NoError(t, err)
		reqs = append(reqs, r)
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		accepted  []models.PartnerRequest
		conflicts int
	)
	for _, r := range reqs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := f.svc.RespondToRequest(f.ctx, r.ID, x, true)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
				conflicts++
				return
			}
			accepted = append(accepted, got)
		}()
	}
	wg.Wait()

	require.Len(t, accepted, 1)
	assert.Equal(t, len(reqs)-1, conflicts)
	partner := f.partnerOf(t, x)
	require.NotNil(t, partner)
	assert.Equal(t, accepted[0].FromUserID, *partner)
	f.requireSymmetric(t)

	paired := 0
	for _, id := range f.ids {
		if f.partnerOf(t, id) != nil {
			paired++
		}
	}
	assert.Equal(t, 2, paired)
}

func TestCancelRequest(t *testing.T) {
	f := newFixture()
	alice, bob := f.user(t, "alice"), f.user(t, "bob")
	req, err := f.svc.SendRequest(f.ctx, alice, "bob@example.com")
	require.NoError(t, err)

	err = f.svc.CancelRequest(f.ctx, req.ID, bob)
	require.ErrorIs(t, err, apperr.ErrForbidden)

	require.NoError(t, f.svc.CancelRequest(f.ctx, req.ID, alice))
	assert.Equal(t, StateUnpaired, f.state(t, alice))
	assert.Equal(t, StateUnpaired, f.state(t, bob))

	_, err = f.svc.RespondToRequest(f.ctx, req.ID, bob, true)
	require.ErrorIs(t, err, apperr.ErrAlreadyResolved)
	err = f.svc.CancelRequest(f.ctx, req.ID, alice)
	require.ErrorIs(t, err, apperr.ErrAlreadyResolved)
}

func TestUsers(t *testing.T) {
	f := newFixture()
	first, err := f.svc.GetOrCreateUser(f.ctx, "123", "Alice")
	require.NoError(t, err)
	again, err := f.svc.GetOrCreateUser(f.ctx, "123", "Someone else")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, "Alice", again.DisplayName)

	_, err = f.svc.GetOrCreateUser(f.ctx, "", "x")
	require.ErrorIs(t, err, apperr.ErrValidation)

	u, err := f.svc.Register(f.ctx, first.ID, "Alice@Example.com", "")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.Equal(t, "Alice", u.DisplayName)

	other, err := f.svc.GetOrCreateUser(f.ctx, "456", "Bob")
	require.NoError(t, err)
	_, err = f.svc.Register(f.ctx, other.ID, "ALICE@example.com", "")
	require.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.svc.Register(f.ctx, other.ID, "bob at example", "")
	require.ErrorIs(t, err, apperr.ErrValidation)
	_, err = f.svc.Register(f.ctx, uuid.New(), "ghost@example.com", "")
	require.ErrorIs(t, err, apperr.ErrNotFound)
}
