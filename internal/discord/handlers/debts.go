package handlers

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/oatsaysai/partner-ledger/internal/ledger"
	"github.com/oatsaysai/partner-ledger/internal/models"
	"github.com/oatsaysai/partner-ledger/pkg/currency"
)

// HandleDebts handles the !debts command
func HandleDebts(ctx context.Context, u models.User, args []string) (string, error) {
	debts, err := ledgerService.ListDebts(ctx, u.ID)
	if err != nil {
		return "", err
	}
	internal, err := ledgerService.InternalBalance(ctx, u.ID)
	if err != nil {
		return "", err
	}

	var response strings.Builder
	response.WriteString("**Debts:**\n")
	if len(debts) == 0 {
		response.WriteString("No open debts! 🎉\n")
	}
	for _, d := range debts {
		line := fmt.Sprintf("- `%s` **%s** (%s): %s of %s left",
			shortID(d.ID), d.Name, d.Kind,
			currency.Format(d.RemainingAmount, d.Currency), currency.Format(d.TotalAmount, d.Currency))
		if d.ExternalName != "" {
			line += " · " + d.ExternalName
		}
		if d.DueDate != nil {
			line += " · due " + d.DueDate.Format("2006-01-02")
		}
		response.WriteString(line + "\n")
	}

	codes := make([]string, 0, len(internal))
	for cur, amount := range internal {
		if !amount.IsZero() {
			codes = append(codes, cur)
		}
	}
	sort.Strings(codes)
	for _, cur := range codes {
		amount := internal[cur]
		if amount.IsPositive() {
			response.WriteString(fmt.Sprintf("Your partner owes you %s\n", currency.Format(amount, cur)))
		} else {
			response.WriteString(fmt.Sprintf("You owe your partner %s\n", currency.Format(amount.Neg(), cur)))
		}
	}
	return response.String(), nil
}

// HandleNewDebt handles the !newdebt command
func HandleNewDebt(ctx context.Context, u models.User, args []string) (string, error) {
	if len(args) < 5 {
		return "", usageError("!newdebt <we_owe|owed_to_us|internal> <currency> <amount> <name...>")
	}
	amount, err := parseAmount(args[3])
	if err != nil {
		return "", err
	}
	d, err := ledgerService.CreateDebt(ctx, u.ID, ledger.NewDebt{
		Kind:        models.DebtKind(strings.ToLower(args[1])),
		Name:        strings.Join(args[4:], " "),
		TotalAmount: amount,
		Currency:    args[2],
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("✅ Recorded debt **%s** (`%s`) of %s",
		d.Name, shortID(d.ID), currency.Format(d.TotalAmount, d.Currency)), nil
}

// HandlePayDebt handles the !paydebt command
func HandlePayDebt(ctx context.Context, u models.User, args []string) (string, error) {
	if len(args) < 3 {
		return "", usageError("!paydebt <debt> <amount> [wallet]")
	}
	debts, err := ledgerService.ListDebts(ctx, u.ID)
	if err != nil {
		return "", err
	}
	d, err := matchRef(args[1], "debt", debts,
		func(d models.Debt) string { return d.Name },
		func(d models.Debt) uuid.UUID { return d.ID })
	if err != nil {
		return "", err
	}
	amount, err := parseAmount(args[2])
	if err != nil {
		return "", err
	}
	in := ledger.DebtPaymentInput{DebtID: d.ID, Amount: amount}
	if len(args) > 3 {
		w, err := findWallet(ctx, u, args[3])
		if err != nil {
			return "", err
		}
		in.WalletID = &w.ID
	}

	p, _, err := ledgerService.PayDebt(ctx, u.ID, in)
	if err != nil {
		return "", err
	}
	remaining := d.RemainingAmount.Sub(p.Amount)
	if remaining.IsZero() {
		return fmt.Sprintf("✅ Paid %s on **%s**. Debt settled! 🎉", currency.Format(p.Amount, d.Currency), d.Name), nil
	}
	return fmt.Sprintf("✅ Paid %s on **%s**, %s left",
		currency.Format(p.Amount, d.Currency), d.Name, currency.Format(remaining, d.Currency)), nil
}
