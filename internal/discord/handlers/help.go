package handlers

import (
	"context"

	"github.com/oatsaysai/partner-ledger/internal/models"
)

// HandleHelpCommand handles the !help command
func HandleHelpCommand(ctx context.Context, u models.User, args []string) (string, error) {
	helpMessage := `
**Account:**
- ` + "`!register <email>`" + ` - set the email your partner uses to find you
- ` + "`!partner request <email>`" + ` - ask someone to be your partner
- ` + "`!partner accept [id]`" + ` / ` + "`!partner decline [id]`" + ` - answer an incoming request
- ` + "`!partner cancel`" + ` - withdraw your outgoing request
- ` + "`!partner status`" + ` / ` + "`!partner unpair`" + `

**Wallets & transactions:**
- ` + "`!wallets [currency]`" + ` - list wallets, optionally with a converted total
- ` + "`!newwallet <personal|shared> <currency> <initial> <name...>`" + `
- ` + "`!income <wallet> <amount> [category] [description...]`" + `
- ` + "`!expense <wallet> <amount> [category] [description...]`" + `
- ` + "`!transfer <from> <to> <amount> [description...]`" + `
- ` + "`!history [wallet] [limit]`" + `
- ` + "`!stats [days] [currency]`" + `

**Debts & goals:**
- ` + "`!debts`" + ` - open debts and what you and your partner owe each other
- ` + "`!newdebt <we_owe|owed_to_us|internal> <currency> <amount> <name...>`" + `
- ` + "`!paydebt <debt> <amount> [wallet]`" + `
- ` + "`!goals`" + `
- ` + "`!newgoal <currency> <target> <name...>`" + `
- ` + "`!contribute <goal> <wallet> <amount> [note...]`" + `
- ` + "`!withdraw <goal> <wallet> <amount> [note...]`" + `

Wallets, debts and goals can be referred to by their name (one word) or by the short id shown in listings.
`
	return helpMessage, nil
}
