package handlers

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/oatsaysai/partner-ledger/internal/ledger"
	"github.com/oatsaysai/partner-ledger/internal/models"
	"github.com/oatsaysai/partner-ledger/pkg/currency"
)

const defaultHistoryLimit = 10

// HandleIncome handles the !income command
func HandleIncome(ctx context.Context, u models.User, args []string) (string, error) {
	return record(ctx, u, args, models.KindIncome)
}

// HandleExpense handles the !expense command
func HandleExpense(ctx context.Context, u models.User, args []string) (string, error) {
	return record(ctx, u, args, models.KindExpense)
}

// record parses "<wallet> <amount> [category] [description...]". The third argument is
// taken as the category only when it names one valid for the kind.
func record(ctx context.Context, u models.User, args []string, kind models.TransactionKind) (string, error) {
	if len(args) < 3 {
		return "", usageError(fmt.Sprintf("!%s <wallet> <amount> [category] [description...]", kind))
	}
	w, err := findWallet(ctx, u, args[1])
	if err != nil {
		return "", err
	}
	amount, err := parseAmount(args[2])
	if err != nil {
		return "", err
	}
	rest := args[3:]
	var category models.Category
	if len(rest) > 0 && models.Category(strings.ToLower(rest[0])).ValidFor(kind) {
		category = models.Category(strings.ToLower(rest[0]))
		rest = rest[1:]
	}

	t, err := ledgerService.RecordTransaction(ctx, u.ID, ledger.NewTransaction{
		SourceWalletID: w.ID,
		Kind:           kind,
		Amount:         amount,
		Currency:       w.Currency,
		Category:       category,
		Description:    strings.Join(rest, " "),
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("✅ Recorded %s of %s (%s) on **%s** (`%s`)",
		t.Kind, currency.Format(t.Amount, t.Currency), t.Category, w.Name, shortID(t.ID)), nil
}

// HandleTransfer handles the !transfer command
func HandleTransfer(ctx context.Context, u models.User, args []string) (string, error) {
	if len(args) < 4 {
		return "", usageError("!transfer <from> <to> <amount> [description...]")
	}
	from, err := findWallet(ctx, u, args[1])
	if err != nil {
		return "", err
	}
	to, err := findWallet(ctx, u, args[2])
	if err != nil {
		return "", err
	}
	amount, err := parseAmount(args[3])
	if err != nil {
		return "", err
	}
	t, err := ledgerService.RecordTransaction(ctx, u.ID, ledger.NewTransaction{
		SourceWalletID:      from.ID,
		DestinationWalletID: &to.ID,
		Kind:                models.KindTransfer,
		Amount:              amount,
		Currency:            from.Currency,
		Description:         strings.Join(args[4:], " "),
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("✅ Moved %s from **%s** to **%s** (`%s`)",
		currency.Format(t.Amount, t.Currency), from.Name, to.Name, shortID(t.ID)), nil
}

// HandleHistory handles the !history command
func HandleHistory(ctx context.Context, u models.User, args []string) (string, error) {
	q := ledger.TransactionQuery{Limit: defaultHistoryLimit}
	for _, arg := range args[1:] {
		if n, err := strconv.Atoi(arg); err == nil && n > 0 {
			q.Limit = n
			continue
		}
		w, err := findWallet(ctx, u, arg)
		if err != nil {
			return "", err
		}
		q.WalletID = &w.ID
	}

	txs, err := ledgerService.ListTransactions(ctx, u.ID, q)
	if err != nil {
		return "", err
	}
	if len(txs) == 0 {
		return "No transactions found.", nil
	}

	var response strings.Builder
	response.WriteString("**Recent transactions:**\n")
	for _, t := range txs {
		sign := ""
		switch t.Kind {
		case models.KindIncome:
			sign = "+"
		case models.KindExpense:
			sign = "-"
		}
		response.WriteString(fmt.Sprintf("- `%s` %s %s%s %s",
			shortID(t.ID), t.OccurredAt.Format("2006-01-02"), sign, currency.Format(t.Amount, t.Currency), t.Category))
		if t.Description != "" {
			response.WriteString(" · " + t.Description)
		}
		response.WriteString("\n")
	}
	return response.String(), nil
}

// HandleStats handles the !stats command. Arguments are an optional number of days
// (default 30) and an optional report currency.
func HandleStats(ctx context.Context, u models.User, args []string) (string, error) {
	days := 30
	var q ledger.StatsQuery
	for _, arg := range args[1:] {
		if n, err := strconv.Atoi(arg); err == nil {
			if n <= 0 {
				return "", usageError("!stats [days] [currency]")
			}
			days = n
			continue
		}
		q.Currency = arg
	}
	from := time.Now().UTC().AddDate(0, 0, -days)
	q.From = &from

	st, err := ledgerService.Stats(ctx, u.ID, q)
	if err != nil {
		return "", err
	}

	var response strings.Builder
	response.WriteString(fmt.Sprintf("**Last %d days** (%d transactions)\n", days, st.Count))
	if st.Currency != "" {
		response.WriteString(fmt.Sprintf("Income: %s\nExpense: %s\nNet: %s\n",
			currency.Format(st.Income, st.Currency),
			currency.Format(st.Expense, st.Currency),
			currency.Format(st.Net, st.Currency)))
	}
	codes := make([]string, 0, len(st.Unconverted))
	for cur := range st.Unconverted {
		codes = append(codes, cur)
	}
	sort.Strings(codes)
	for _, cur := range codes {
		tot := st.Unconverted[cur]
		response.WriteString(fmt.Sprintf("%s: income %s, expense %s\n",
			cur, currency.Format(tot.Income, cur), currency.Format(tot.Expense, cur)))
	}
	return response.String(), nil
}
