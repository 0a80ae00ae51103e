package plaidclient

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/plaid/plaid-go/v24/plaid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/GregMSThompson/expense-backend/internal/dto"
	"github.com/GregMSThompson/expense-backend/internal/models"
)

const (
	syncPageSize     = 500
	uncategorizedPFC = "OTHER"
	categoryIDPrefix = "plaid-"
	plaidDateLayout  = "2006-01-02"
)

type Adapter struct {
	client *plaid.APIClient
	loc    *time.Location
}

func NewAdapter(clientID, secret string, env dto.PlaidEnvironment, loc *time.Location) *Adapter {
	cfg := plaid.NewConfiguration()
	cfg.AddDefaultHeader("PLAID-CLIENT-ID", clientID)
	cfg.AddDefaultHeader("PLAID-SECRET", secret)
	cfg.UseEnvironment(toPlaidEnv(env))

	if loc == nil {
		loc = time.Local
	}
	return &Adapter{
		client: plaid.NewAPIClient(cfg),
		loc:    loc,
	}
}

func (a *Adapter) CreateLinkToken(ctx context.Context, uid string) (string, error) {
	req := plaid.NewLinkTokenCreateRequest(
		"Expense Tracker",
		"en",
		[]plaid.CountryCode{plaid.COUNTRYCODE_US},
		plaid.LinkTokenCreateRequestUser{ClientUserId: uid},
	)
	req.SetProducts([]plaid.Products{plaid.PRODUCTS_TRANSACTIONS})

	resp, _, err := a.client.PlaidApi.LinkTokenCreate(ctx).LinkTokenCreateRequest(*req).Execute()
	if err != nil {
		return "", err
	}
	return resp.GetLinkToken(), nil
}

func (a *Adapter) ExchangePublicToken(ctx context.Context, publicToken string) (itemID, accessToken string, err error) {
	req := plaid.NewItemPublicTokenExchangeRequest(publicToken)
	resp, _, err := a.client.PlaidApi.ItemPublicTokenExchange(ctx).ItemPublicTokenExchangeRequest(*req).Execute()
	if err != nil {
		return "", "", err
	}
	return resp.GetItemId(), resp.GetAccessToken(), nil
}

func (a *Adapter) SyncTransactions(ctx context.Context, bankID string, accessToken string, cursor *string) (dto.PlaidSyncPage, error) {
	req := plaid.NewTransactionsSyncRequest(accessToken)
	if cursor != nil {
		req.SetCursor(*cursor)
	}
	req.SetCount(syncPageSize)
	opts := plaid.NewTransactionsSyncRequestOptions()
	opts.SetIncludePersonalFinanceCategory(true)
	req.SetOptions(*opts)

	var page dto.PlaidSyncPage

	resp, _, err := a.client.PlaidApi.TransactionsSync(ctx).TransactionsSyncRequest(*req).Execute()
	if err != nil {
		return page, err
	}

	now := time.Now()
	txs := make([]models.Transaction, 0, len(resp.GetAdded())+len(resp.GetModified()))
	for _, t := range resp.GetAdded() {
		if tx, ok := toTransaction(t, bankID, a.loc, now); ok {
			txs = append(txs, tx)
		}
	}
	for _, t := range resp.GetModified() {
		if tx, ok := toTransaction(t, bankID, a.loc, now); ok {
			txs = append(txs, tx)
		}
	}

	removed := make([]string, 0, len(resp.GetRemoved()))
	for _, r := range resp.GetRemoved() {
		if id := r.GetTransactionId(); id != "" {
			removed = append(removed, id)
		}
	}

	page.Transactions = txs
	page.RemovedIDs = removed
	page.Cursor = resp.GetNextCursor()
	page.HasMore = resp.GetHasMore()

	return page, nil
}

// toTransaction maps a Plaid row onto the ledger. Plaid reports money leaving
// the account as a positive amount. Pending and zero-amount rows are skipped.
func toTransaction(t plaid.Transaction, bankID string, loc *time.Location, now time.Time) (models.Transaction, bool) {
	amount := t.GetAmount()
	if t.GetPending() || amount == 0 || math.IsNaN(amount) {
		return models.Transaction{}, false
	}

	typ := models.TransactionExpense
	if amount < 0 {
		typ = models.TransactionIncome
	}

	date, err := time.ParseInLocation(plaidDateLayout, t.GetDate(), loc)
	if err != nil {
		date = now
	}

	pfc := t.GetPersonalFinanceCategory()
	primary := pfc.GetPrimary()
	if primary == "" {
		primary = uncategorizedPFC
	}

	note := t.GetMerchantName()
	if note == "" {
		note = t.GetName()
	}

	return models.Transaction{
		TransactionID: t.GetTransactionId(),
		Type:          typ,
		Amount:        math.Abs(amount),
		CategoryID:    categoryIDPrefix + strings.ToLower(primary),
		CategoryName:  CategoryName(primary),
		Note:          note,
		Date:          date,
		PaymentMethod: t.GetPaymentChannel(),
		BankID:        bankID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, true
}

var titleCaser = cases.Title(language.English)

// CategoryName turns a Plaid category code such as FOOD_AND_DRINK into
// "Food and Drink".
func CategoryName(primary string) string {
	words := strings.Fields(strings.ReplaceAll(strings.ToLower(primary), "_", " "))
	for i, w := range words {
		if i > 0 && (w == "and" || w == "or" || w == "of") {
			continue
		}
		words[i] = titleCaser.String(w)
	}
	return strings.Join(words, " ")
}

func toPlaidEnv(env dto.PlaidEnvironment) plaid.Environment {
	switch env {
	case dto.PlaidSandbox:
		return plaid.Sandbox
	case dto.PlaidDevelopment:
		return plaid.Development
	default: // dto.PlaidProduction:
		return plaid.Production
	}
}
