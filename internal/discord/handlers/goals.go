package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/oatsaysai/partner-ledger/internal/ledger"
	"github.com/oatsaysai/partner-ledger/internal/models"
	"github.com/oatsaysai/partner-ledger/pkg/currency"
)

// HandleGoals handles the !goals command
func HandleGoals(ctx context.Context, u models.User, args []string) (string, error) {
	goals, err := ledgerService.ListGoals(ctx, u.ID)
	if err != nil {
		return "", err
	}
	if len(goals) == 0 {
		return "No savings goals yet. Create one with `!newgoal USD 1000 Holiday`", nil
	}

	var response strings.Builder
	response.WriteString("**Goals:**\n")
	for _, g := range goals {
		pct := g.CurrentAmount.Div(g.TargetAmount).Shift(2).Round(0)
		response.WriteString(fmt.Sprintf("- `%s` **%s**: %s / %s (%s%%)",
			shortID(g.ID), g.Name,
			currency.Format(g.CurrentAmount, g.Currency), currency.Format(g.TargetAmount, g.Currency), pct))
		if g.TargetDate != nil {
			response.WriteString(" · by " + g.TargetDate.Format("2006-01-02"))
		}
		response.WriteString("\n")
	}
	return response.String(), nil
}

// HandleNewGoal handles the !newgoal command
func HandleNewGoal(ctx context.Context, u models.User, args []string) (string, error) {
	if len(args) < 4 {
		return "", usageError("!newgoal <currency> <target> <name...>")
	}
	target, err := parseAmount(args[2])
	if err != nil {
		return "", err
	}
	g, err := ledgerService.CreateGoal(ctx, u.ID, ledger.NewGoal{
		Name:         strings.Join(args[3:], " "),
		TargetAmount: target,
		Currency:     args[1],
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("✅ Created goal **%s** (`%s`) for %s",
		g.Name, shortID(g.ID), currency.Format(g.TargetAmount, g.Currency)), nil
}

// HandleContribute handles the !contribute command
func HandleContribute(ctx context.Context, u models.User, args []string) (string, error) {
	return moveGoal(ctx, u, args, models.ContributionDeposit)
}

// HandleWithdraw handles the !withdraw command
func HandleWithdraw(ctx context.Context, u models.User, args []string) (string, error) {
	return moveGoal(ctx, u, args, models.ContributionWithdrawal)
}

func moveGoal(ctx context.Context, u models.User, args []string, typ models.ContributionType) (string, error) {
	if len(args) < 4 {
		return "", usageError(fmt.Sprintf("%s <goal> <wallet> <amount> [note...]", args[0]))
	}
	goals, err := ledgerService.ListGoals(ctx, u.ID)
	if err != nil {
		return "", err
	}
	g, err := matchRef(args[1], "goal", goals,
		func(g models.Goal) string { return g.Name },
		func(g models.Goal) uuid.UUID { return g.ID })
	if err != nil {
		return "", err
	}
	w, err := findWallet(ctx, u, args[2])
	if err != nil {
		return "", err
	}
	amount, err := parseAmount(args[3])
	if err != nil {
		return "", err
	}
	in := ledger.GoalMovement{GoalID: g.ID, WalletID: w.ID, Amount: amount, Note: strings.Join(args[4:], " ")}

	var c models.GoalContribution
	if typ == models.ContributionWithdrawal {
		c, err = ledgerService.WithdrawFromGoal(ctx, u.ID, in)
	} else {
		c, err = ledgerService.ContributeToGoal(ctx, u.ID, in)
	}
	if err != nil {
		return "", err
	}
	if typ == models.ContributionWithdrawal {
		return fmt.Sprintf("✅ Withdrew %s from **%s** into **%s**", currency.Format(c.Amount, g.Currency), g.Name, w.Name), nil
	}
	return fmt.Sprintf("✅ Added %s to **%s** from **%s**", currency.Format(c.Amount, g.Currency), g.Name, w.Name), nil
}
