package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oatsaysai/partner-ledger/internal/apperr"
	"github.com/oatsaysai/partner-ledger/internal/models"
	"github.com/oatsaysai/partner-ledger/internal/store"
	"github.com/oatsaysai/partner-ledger/internal/visibility"
	"github.com/shopspring/decimal"
)

// NewGoal is the input of CreateGoal
type NewGoal struct {
	Name         string
	TargetAmount decimal.Decimal
	Currency     string
	TargetDate   *time.Time
	Icon         string
	Color        string
}

// GoalUpdate edits a goal. Nil fields are left untouched; CurrentAmount only moves
// through contributions and withdrawals.
type GoalUpdate struct {
	Name         *string
	TargetAmount *decimal.Decimal
	TargetDate   *time.Time
	Icon         *string
	Color        *string
}

// GoalMovement is the input of ContributeToGoal and WithdrawFromGoal
type GoalMovement struct {
	GoalID   uuid.UUID
	WalletID uuid.UUID
	Amount   decimal.Decimal
	Note     string
}

// CreateGoal creates a savings goal owned by actor
func (s *Service) CreateGoal(ctx context.Context, actor uuid.UUID, in NewGoal) (models.Goal, error) {
	name, err := requireName(in.Name)
	if err != nil {
		return models.Goal{}, err
	}
	if err := requirePositive(in.TargetAmount, "target amount"); err != nil {
		return models.Goal{}, err
	}
	cur, err := requireCurrency(in.Currency)
	if err != nil {
		return models.Goal{}, err
	}
	if err := requireScale(in.TargetAmount, cur, "target amount"); err != nil {
		return models.Goal{}, err
	}
	g := models.Goal{
		ID:            uuid.New(),
		OwnerID:       actor,
		Name:          name,
		TargetAmount:  in.TargetAmount,
		CurrentAmount: decimal.Zero,
		Currency:      cur,
		TargetDate:    in.TargetDate,
		Icon:          in.Icon,
		Color:         in.Color,
		CreatedAt:     s.clock(),
	}
	err = s.store.WithTx(ctx, func(tx store.Tx) error {
		if _, err := tx.User(ctx, actor); err != nil {
			return notFound(err, "user")
		}
		return tx.InsertGoal(ctx, g)
	})
	if err != nil {
		return models.Goal{}, err
	}
	s.audit.Record(ctx, "goal.create", actor, map[string]any{
		"goal_id": g.ID, "target": g.TargetAmount.String(), "currency": g.Currency,
	})
	return g, nil
}

func lockGoal(ctx context.Context, tx store.Tx, v visibility.Viewer, id uuid.UUID) (models.Goal, error) {
	g, err := tx.LockGoal(ctx, id)
	if err != nil {
		return g, notFound(err, "goal")
	}
	if !v.Member(g.OwnerID) {
		return g, apperr.Newf(apperr.ErrForbidden, "goal %s belongs to another household", id)
	}
	return g, nil
}

// UpdateGoal edits a goal's name, target or display fields
func (s *Service) UpdateGoal(ctx context.Context, actor, goalID uuid.UUID, in GoalUpdate) (models.Goal, error) {
	var out models.Goal
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		v, err := viewer(ctx, tx, actor, true)
		if err != nil {
			return err
		}
		g, err := lockGoal(ctx, tx, v, goalID)
		if err != nil {
			return err
		}
		if in.Name != nil {
			if g.Name, err = requireName(*in.Name); err != nil {
				return err
			}
		}
		if in.TargetAmount != nil {
			if err := requirePositive(*in.TargetAmount, "target amount"); err != nil {
				return err
			}
			if err := requireScale(*in.TargetAmount, g.Currency, "target amount"); err != nil {
				return err
			}
			g.TargetAmount = *in.TargetAmount
		}
		if in.TargetDate != nil {
			g.TargetDate = in.TargetDate
		}
		if in.Icon != nil {
			g.Icon = *in.Icon
		}
		if in.Color != nil {
			g.Color = *in.Color
		}
		out = g
		return tx.UpdateGoalDetails(ctx, g)
	})
	if err != nil {
		return models.Goal{}, err
	}
	s.audit.Record(ctx, "goal.update", actor, map[string]any{"goal_id": goalID})
	return out, nil
}

// DeleteGoal soft-deletes an empty goal. Money still held by a goal must be withdrawn
// first so that it returns to a wallet.
func (s *Service) DeleteGoal(ctx context.Context, actor, goalID uuid.UUID) error {
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		v, err := viewer(ctx, tx, actor, true)
		if err != nil {
			return err
		}
		g, err := lockGoal(ctx, tx, v, goalID)
		if err != nil {
			return err
		}
		if !g.CurrentAmount.IsZero() {
			return apperr.Validation("goal still holds %s %s, withdraw it first", g.CurrentAmount, g.Currency)
		}
		return tx.SoftDeleteGoal(ctx, goalID, s.clock())
	})
	if err != nil {
		return err
	}
	s.audit.Record(ctx, "goal.delete", actor, map[string]any{"goal_id": goalID})
	return nil
}

// ListGoals returns the household's live goals
func (s *Service) ListGoals(ctx context.Context, actor uuid.UUID) ([]models.Goal, error) {
	var out []models.Goal
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		v, err := viewer(ctx, tx, actor, false)
		if err != nil {
			return err
		}
		out, err = tx.GoalsFor(ctx, household(v)...)
		return err
	})
	return out, err
}

// GoalContributions returns the contribution log of a goal
func (s *Service) GoalContributions(ctx context.Context, actor, goalID uuid.UUID) ([]models.GoalContribution, error) {
	var out []models.GoalContribution
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		v, err := viewer(ctx, tx, actor, false)
		if err != nil {
			return err
		}
		if _, err := lockGoal(ctx, tx, v, goalID); err != nil {
			return err
		}
		out, err = tx.GoalContributions(ctx, goalID)
		return err
	})
	return out, err
}

// ContributeToGoal moves amount from a wallet into a goal
func (s *Service) ContributeToGoal(ctx context.Context, actor uuid.UUID, in GoalMovement) (models.GoalContribution, error) {
	return s.moveGoal(ctx, actor, in, models.ContributionDeposit)
}

// WithdrawFromGoal moves amount from a goal back into a wallet
func (s *Service) WithdrawFromGoal(ctx context.Context, actor uuid.UUID, in GoalMovement) (models.GoalContribution, error) {
	return s.moveGoal(ctx, actor, in, models.ContributionWithdrawal)
}

func (s *Service) moveGoal(ctx context.Context, actor uuid.UUID, in GoalMovement, typ models.ContributionType) (models.GoalContribution, error) {
	if err := requirePositive(in.Amount, "amount"); err != nil {
		return models.GoalContribution{}, err
	}
	var c models.GoalContribution
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		v, err := viewer(ctx, tx, actor, true)
		if err != nil {
			return err
		}
		g, err := lockGoal(ctx, tx, v, in.GoalID)
		if err != nil {
			return err
		}
		if err := requireScale(in.Amount, g.Currency, "amount"); err != nil {
			return err
		}
		if typ == models.ContributionWithdrawal && in.Amount.GreaterThan(g.CurrentAmount) {
			return apperr.Newf(apperr.ErrInsufficientGoalFunds, "goal %q holds %s, cannot withdraw %s", g.Name, g.CurrentAmount, in.Amount)
		}
		w, err := pickWallet(ctx, tx, v, &in.WalletID, g.Currency)
		if err != nil {
			return err
		}

		now := s.clock()
		kind, current, verb := models.KindExpense, g.CurrentAmount.Add(in.Amount), "Contribution to"
		if typ == models.ContributionWithdrawal {
			kind, current, verb = models.KindIncome, g.CurrentAmount.Sub(in.Amount), "Withdrawal from"
			if current.IsNegative() {
				current = decimal.Zero
			}
		}
		posted := models.Transaction{
			ID:             uuid.New(),
			SourceWalletID: w.ID,
			Kind:           kind,
			Amount:         in.Amount,
			Currency:       g.Currency,
			Category:       models.CategorySavings,
			Description:    fmt.Sprintf("%s goal: %s", verb, g.Name),
			Notes:          strings.TrimSpace(in.Note),
			Source:         models.SourceGoalContribution,
			OccurredAt:     now,
			CreatedBy:      actor,
			CreatedAt:      now,
		}
		if err := s.post(ctx, tx, v, posted); err != nil {
			return err
		}
		if err := tx.SetGoalAmount(ctx, g.ID, current); err != nil {
			return fmt.Errorf("updating goal amount: %w", err)
		}
		c = models.GoalContribution{
			ID:            uuid.New(),
			GoalID:        g.ID,
			Amount:        in.Amount,
			WalletID:      w.ID,
			TransactionID: posted.ID,
			Type:          typ,
			ContributedBy: actor,
			ContributedAt: now,
			Note:          strings.TrimSpace(in.Note),
		}
		return tx.InsertGoalContribution(ctx, c)
	})
	if err != nil {
		return models.GoalContribution{}, err
	}
	s.audit.Record(ctx, "goal."+string(typ), actor, map[string]any{
		"goal_id": in.GoalID, "contribution_id": c.ID, "wallet_id": in.WalletID, "amount": in.Amount.String(),
	})
	return c, nil
}
