package ledger

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/oatsaysai/partner-ledger/internal/models"
	"github.com/oatsaysai/partner-ledger/internal/store"
	"github.com/oatsaysai/partner-ledger/pkg/currency"
	"github.com/oatsaysai/partner-ledger/pkg/rates"
	"github.com/shopspring/decimal"
)

// StatsQuery selects the transactions aggregated by Stats
type StatsQuery struct {
	From, To *time.Time
	Currency string // report currency; empty means no conversion
}

// Stats aggregates income and expense over a date range. Amounts that could not be
// converted into the report currency are kept per currency in Unconverted and left out
// of Income, Expense and Net.
type Stats struct {
	Currency    string
	Income      decimal.Decimal
	Expense     decimal.Decimal
	Net         decimal.Decimal
	Count       int
	Unconverted map[string]Totals
}

// Totals is a raw income/expense pair in one currency
type Totals struct {
	Income  decimal.Decimal
	Expense decimal.Decimal
}

// Balance is the sum of the visible wallet balances
type Balance struct {
	Currency    string
	Total       decimal.Decimal
	Unconverted map[string]decimal.Decimal
}

// converter converts into one report currency, falling back to "no conversion" when the
// provider is missing or failing.
type converter struct {
	to    string
	table map[string]decimal.Decimal
}

func (s *Service) converter(ctx context.Context, to string) converter {
	c := converter{to: to}
	if to == "" || s.rates == nil {
		return c
	}
	table, err := s.rates.Rates(ctx, to)
	if err != nil {
		log.Printf("Error fetching rates for %s, reporting unconverted totals: %v", to, err)
		return c
	}
	c.table = table
	return c
}

func (c converter) convert(amount decimal.Decimal, from string) (decimal.Decimal, bool) {
	if c.to == "" {
		return decimal.Zero, false
	}
	if from == c.to {
		return amount, true
	}
	if c.table == nil {
		return decimal.Zero, false
	}
	out, err := rates.Convert(amount, from, c.to, c.table)
	if err != nil {
		return decimal.Zero, false
	}
	return currency.Round(out, c.to), true
}

// Stats returns income and expense totals over the visible, non-deleted transactions in
// the range. Transfers only count toward Count.
func (s *Service) Stats(ctx context.Context, actor uuid.UUID, q StatsQuery) (Stats, error) {
	report := ""
	if q.Currency != "" {
		cur, err := requireCurrency(q.Currency)
		if err != nil {
			return Stats{}, err
		}
		report = cur
	}

	var txs []models.Transaction
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		v, err := viewer(ctx, tx, actor, false)
		if err != nil {
			return err
		}
		wallets, levels, err := visibleWallets(ctx, tx, v)
		if err != nil {
			return err
		}
		var ids []uuid.UUID
		for _, w := range wallets {
			if levels[w.ID].CanView() {
				ids = append(ids, w.ID)
			}
		}
		if len(ids) == 0 {
			return nil
		}
		txs, err = tx.ListTransactions(ctx, store.TransactionFilter{WalletIDs: ids, From: q.From, To: q.To})
		if err != nil {
			return fmt.Errorf("listing transactions: %w", err)
		}
		return nil
	})
	if err != nil {
		return Stats{}, err
	}

	conv := s.converter(ctx, report)
	out := Stats{
		Currency:    report,
		Income:      decimal.Zero,
		Expense:     decimal.Zero,
		Unconverted: make(map[string]Totals),
	}
	for _, t := range txs {
		out.Count++
		if t.Kind == models.KindTransfer {
			continue
		}
		amount, ok := conv.convert(t.Amount, t.Currency)
		if !ok {
			raw := out.Unconverted[t.Currency]
			if t.Kind == models.KindIncome {
				raw.Income = raw.Income.Add(t.Amount)
			} else {
				raw.Expense = raw.Expense.Add(t.Amount)
			}
			out.Unconverted[t.Currency] = raw
			continue
		}
		if t.Kind == models.KindIncome {
			out.Income = out.Income.Add(amount)
		} else {
			out.Expense = out.Expense.Add(amount)
		}
	}
	out.Net = out.Income.Sub(out.Expense)
	return out, nil
}

// TotalBalance sums the balances of every wallet actor can see into currency
func (s *Service) TotalBalance(ctx context.Context, actor uuid.UUID, cur string) (Balance, error) {
	report := ""
	if cur != "" {
		var err error
		if report, err = requireCurrency(cur); err != nil {
			return Balance{}, err
		}
	}
	views, err := s.ListWallets(ctx, actor)
	if err != nil {
		return Balance{}, err
	}

	conv := s.converter(ctx, report)
	out := Balance{Currency: report, Total: decimal.Zero, Unconverted: make(map[string]decimal.Decimal)}
	for _, w := range views {
		amount, ok := conv.convert(w.Balance, w.Currency)
		if !ok {
			out.Unconverted[w.Currency] = out.Unconverted[w.Currency].Add(w.Balance)
			continue
		}
		out.Total = out.Total.Add(amount)
	}
	return out, nil
}
