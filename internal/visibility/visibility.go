// Package visibility decides which wallets, and through them which transactions, a user
// may edit, only view, or not see at all.
//
// Resolution is a pure function of the acting user, that user's partner (if any) and the
// wallet. The ledger calls it on locked rows right before every mutation.
package visibility

import (
	"github.com/google/uuid"
	"github.com/oatsaysai/partner-ledger/internal/models"
)

// Level is the access a user has to a wallet
type Level int

const (
	Hidden Level = iota
	ViewOnly
	Editable
)

func (l Level) String() string {
	switch l {
	case Editable:
		return "editable"
	case ViewOnly:
		return "view_only"
	default:
		return "hidden"
	}
}

// CanView reports whether l allows reading
func (l Level) CanView() bool { return l >= ViewOnly }

// CanEdit reports whether l allows mutation
func (l Level) CanEdit() bool { return l == Editable }

// Viewer is the acting user together with the partner link read in the same scope
type Viewer struct {
	UserID    uuid.UUID
	PartnerID *uuid.UUID
}

// ViewerOf builds a Viewer from a user row
func ViewerOf(u models.User) Viewer {
	return Viewer{UserID: u.ID, PartnerID: u.PartnerID}
}

func (v Viewer) isPartner(id uuid.UUID) bool {
	return v.PartnerID != nil && *v.PartnerID == id
}

// Member reports whether id is the viewer or the viewer's partner. Household records
// (debts, goals) owned by a member are editable by the viewer.
func (v Viewer) Member(id uuid.UUID) bool {
	return id == v.UserID || v.isPartner(id)
}

// Wallet resolves the viewer's access to w. Rules apply in order:
//  1. shared wallets are editable by the owner and the owner's partner, hidden otherwise
//  2. own wallets are editable
//  3. the partner's personal wallets are view-only
//  4. everything else is hidden
//
// Deleted and ownerless wallets are always hidden.
func (v Viewer) Wallet(w models.Wallet) Level {
	if w.DeletedAt != nil || w.OwnerID == nil {
		return Hidden
	}
	if w.Kind == models.WalletShared {
		if v.Member(*w.OwnerID) {
			return Editable
		}
		return Hidden
	}
	if *w.OwnerID == v.UserID {
		return Editable
	}
	if v.isPartner(*w.OwnerID) {
		return ViewOnly
	}
	return Hidden
}

// Wallets resolves every wallet, keyed by id
func (v Viewer) Wallets(wallets []models.Wallet) map[uuid.UUID]Level {
	levels := make(map[uuid.UUID]Level, len(wallets))
	for _, w := range wallets {
		levels[w.ID] = v.Wallet(w)
	}
	return levels
}

// Transaction returns the access to t given precomputed wallet levels. A transaction is
// as visible as the most visible wallet it touches; unknown wallets count as hidden.
func Transaction(levels map[uuid.UUID]Level, t models.Transaction) Level {
	level := Hidden
	for _, id := range t.WalletIDs() {
		if l := levels[id]; l > level {
			level = l
		}
	}
	return level
}
