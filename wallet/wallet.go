package wallet

import (
	"time"

	"github.com/shopspring/decimal"
)

// Page count bounds for one collection cycle.
const (
	MinPages = 1
	MaxPages = 50
)

// Snapshot is one wallet's balance data as observed during a single collection cycle.
// Date fields use the "2006-01-02" layout; empty string means the source page had
// no value for that cell.
type Snapshot struct {
	Address   string          `json:"address"`
	Balance   decimal.Decimal `json:"balance"`
	FirstIn   string          `json:"first_in,omitempty"`
	LastIn    string          `json:"last_in,omitempty"`
	LastOut   string          `json:"last_out,omitempty"`
	Rank      int             `json:"rank"`
	ScrapedAt time.Time       `json:"scraped_at"`
}

// DuplicateGroup is a set of addresses sharing an identical current balance.
type DuplicateGroup struct {
	Balance decimal.Decimal `json:"balance"`
	Wallets []Snapshot      `json:"wallets"`
}

// GroupSummary counts the members of one duplicate-balance group.
type GroupSummary struct {
	Balance decimal.Decimal `json:"balance"`
	Wallets int             `json:"wallets"`
}

// CycleResult reports the outcome of one collection cycle.
type CycleResult struct {
	StartedAt     time.Time     `json:"started_at"`
	Duration      time.Duration `json:"duration"`
	PagesFetched  int           `json:"pages_fetched"`
	PagesFailed   int           `json:"pages_failed"`
	WalletsStored int           `json:"wallets_stored"`
}
