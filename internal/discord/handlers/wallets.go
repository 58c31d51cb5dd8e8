package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/oatsaysai/partner-ledger/internal/ledger"
	"github.com/oatsaysai/partner-ledger/internal/models"
	"github.com/oatsaysai/partner-ledger/pkg/currency"
)

// HandleRegister handles the !register command
func HandleRegister(ctx context.Context, u models.User, args []string) (string, error) {
	if len(args) < 2 {
		return "", usageError("!register <email>")
	}
	u, err := pairingService.Register(ctx, u.ID, args[1], "")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("✅ Registered as **%s**. Your partner can now send you a request with `!partner request %s`", u.Email, u.Email), nil
}

// HandleWallets handles the !wallets command
func HandleWallets(ctx context.Context, u models.User, args []string) (string, error) {
	wallets, err := ledgerService.ListWallets(ctx, u.ID)
	if err != nil {
		return "", err
	}
	if len(wallets) == 0 {
		return "You have no wallets yet. Create one with `!newwallet personal USD 0 Cash`", nil
	}

	var response strings.Builder
	response.WriteString("**Wallets:**\n")
	for _, w := range wallets {
		response.WriteString(fmt.Sprintf("- `%s` **%s** (%s, %s): %s\n",
			shortID(w.ID), w.Name, w.Kind, w.Access, currency.Format(w.Balance, w.Currency)))
	}

	if len(args) > 1 {
		total, err := ledgerService.TotalBalance(ctx, u.ID, args[1])
		if err != nil {
			return "", err
		}
		response.WriteString(fmt.Sprintf("\n**Total:** %s", currency.Format(total.Total, total.Currency)))
		for cur, amount := range total.Unconverted {
			response.WriteString(fmt.Sprintf(" + %s (no rate)", currency.Format(amount, cur)))
		}
		response.WriteString("\n")
	}
	return response.String(), nil
}

// HandleNewWallet handles the !newwallet command
func HandleNewWallet(ctx context.Context, u models.User, args []string) (string, error) {
	if len(args) < 5 {
		return "", usageError("!newwallet <personal|shared> <currency> <initial> <name...>")
	}
	initial, err := parseAmount(args[3])
	if err != nil {
		return "", err
	}
	w, err := ledgerService.CreateWallet(ctx, u.ID, ledger.NewWallet{
		Name:           strings.Join(args[4:], " "),
		Kind:           models.WalletKind(strings.ToLower(args[1])),
		Currency:       args[2],
		InitialBalance: initial,
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("✅ Created %s wallet **%s** (`%s`) with %s",
		w.Kind, w.Name, shortID(w.ID), currency.Format(w.Balance, w.Currency)), nil
}
