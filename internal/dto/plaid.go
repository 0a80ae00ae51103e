package dto

import (
	"github.com/GregMSThompson/expense-backend/internal/models"
)

// Metadata from the transaction sync process
type PlaidServiceSyncResult struct {
	BanksSynced          int    `json:"banksSynced"`
	TransactionsUpserted int    `json:"transactionsUpserted"`
	TransactionsRemoved  int    `json:"transactionsRemoved"`
	Cursor               string `json:"cursor,omitempty"` // latest cursor if syncing one bank; empty when multiple
}

// Plaid adapter result - represents one page from /transactions/sync
type PlaidSyncPage struct {
	Transactions []models.Transaction
	RemovedIDs   []string
	Cursor       string
	HasMore      bool
}

type PlaidEnvironment string

const (
	PlaidSandbox     PlaidEnvironment = "sandbox"
	PlaidDevelopment PlaidEnvironment = "development"
	PlaidProduction  PlaidEnvironment = "production"
)

type LinkTokenResponse struct {
	LinkToken string `json:"linkToken"`
}

type LinkBankRequest struct {
	PublicToken     string `json:"publicToken"`
	InstitutionName string `json:"institutionName,omitempty"`
}

// LinkBankResponse is also returned when a bank is unlinked.
type LinkBankResponse struct {
	BankID string `json:"bankId"`
}

// SyncRequest syncs every linked bank when BankID is nil.
type SyncRequest struct {
	BankID *string `json:"bankId,omitempty"`
}
