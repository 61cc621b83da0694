package db

import (
	"database/sql"
	"sort"
	"time"
	"walletwatch/wallet"

	"github.com/shopspring/decimal"
)

// TimeFormat is the fixed-width scraped_at column layout. Lexicographic order
// on the column equals chronological order, which the latest-per-address
// query relies on.
const TimeFormat = "2006-01-02 15:04:05.000000"

const createTableStmt = `
CREATE TABLE IF NOT EXISTS wallets (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	address    TEXT    NOT NULL,
	balance    TEXT    NOT NULL,
	first_in   TEXT,
	last_in    TEXT,
	last_out   TEXT,
	rank       INTEGER NOT NULL DEFAULT 0,
	scraped_at TEXT    NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_wallets_addr_time ON wallets (address, scraped_at);
CREATE INDEX IF NOT EXISTS idx_wallets_time ON wallets (scraped_at);
CREATE INDEX IF NOT EXISTS idx_wallets_balance ON wallets (balance);`

func createSchema() error {
	_, err := db.Exec(createTableStmt)
	return err
}

// InsertSnapshots appends one history row per snapshot. History is
// append-only; nothing is ever updated in place.
func InsertSnapshots(snaps []wallet.Snapshot) error {
	if len(snaps) == 0 {
		return nil
	}

	const insertStmt = "INSERT INTO wallets (address, balance, first_in, last_in, last_out, rank, scraped_at) VALUES (?, ?, ?, ?, ?, ?, ?)"

	return transact(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(insertStmt)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, snap := range snaps {
			_, err := stmt.Exec(
				snap.Address,
				snap.Balance.String(),
				nullable(snap.FirstIn),
				nullable(snap.LastIn),
				nullable(snap.LastOut),
				snap.Rank,
				snap.ScrapedAt.UTC().Format(TimeFormat),
			)
			if err != nil {
				return err
			}
		}

		return nil
	})
}

// Latest returns the most recent snapshot per address, ordered by listing
// rank. When the same address was stored twice in one cycle the row appended
// last wins.
func Latest() ([]wallet.Snapshot, error) {
	const query = `
SELECT address, balance, first_in, last_in, last_out, rank, scraped_at
FROM wallets w
WHERE w.id = (
	SELECT id FROM wallets
	WHERE address = w.address
	ORDER BY scraped_at DESC, id DESC
	LIMIT 1
)
ORDER BY rank ASC, address ASC`

	rows, err := db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

// DuplicateGroups returns the latest snapshots grouped by identical balance,
// restricted to groups of two or more wallets, ordered by balance descending.
// Addresses within a group are sorted ascending for determinism.
func DuplicateGroups() ([]wallet.DuplicateGroup, error) {
	latest, err := Latest()
	if err != nil {
		return nil, err
	}

	// Balances are compared as exact decimals, not as column text, so
	// "5.0" and "5.00" land in the same group and "9.5" sorts below "10".
	sort.Slice(latest, func(i, j int) bool {
		if !latest[i].Balance.Equal(latest[j].Balance) {
			return latest[i].Balance.GreaterThan(latest[j].Balance)
		}
		return latest[i].Address < latest[j].Address
	})

	groups := []wallet.DuplicateGroup{}

	for start := 0; start < len(latest); {
		end := start + 1
		for end < len(latest) && latest[end].Balance.Equal(latest[start].Balance) {
			end++
		}

		if end-start >= 2 {
			groups = append(groups, wallet.DuplicateGroup{
				Balance: latest[start].Balance,
				Wallets: latest[start:end],
			})
		}

		start = end
	}

	return groups, nil
}

// GroupSummaries condenses DuplicateGroups into per-balance member counts,
// ordered by member count descending, then balance descending.
func GroupSummaries() ([]wallet.GroupSummary, error) {
	groups, err := DuplicateGroups()
	if err != nil {
		return nil, err
	}

	summaries := make([]wallet.GroupSummary, 0, len(groups))
	for _, g := range groups {
		summaries = append(summaries, wallet.GroupSummary{
			Balance: g.Balance,
			Wallets: len(g.Wallets),
		})
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].Wallets > summaries[j].Wallets
	})

	return summaries, nil
}

// History returns all stored rows for one address, oldest first.
// limit <= 0 returns the full history.
func History(address string, limit int) ([]wallet.Snapshot, error) {
	query := `
SELECT address, balance, first_in, last_in, last_out, rank, scraped_at
FROM wallets
WHERE address = ?
ORDER BY scraped_at ASC, id ASC`

	args := []interface{}{address}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

// ScanStats sums one cycle's stored rows for the post-cycle log line.
func ScanStats(scrapedAt time.Time) (wallets int, total decimal.Decimal, err error) {
	const query = "SELECT balance FROM wallets WHERE scraped_at = ?"

	rows, err := db.Query(query, scrapedAt.UTC().Format(TimeFormat))
	if err != nil {
		return 0, decimal.Decimal{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return 0, decimal.Decimal{}, err
		}

		balance, err := decimal.NewFromString(raw)
		if err != nil {
			return 0, decimal.Decimal{}, err
		}

		wallets++
		total = total.Add(balance)
	}

	return wallets, total, rows.Err()
}

func scanSnapshots(rows *sql.Rows) ([]wallet.Snapshot, error) {
	result := []wallet.Snapshot{}

	for rows.Next() {
		var (
			snap                     wallet.Snapshot
			balance, scrapedAt       string
			firstIn, lastIn, lastOut sql.NullString
		)

		err := rows.Scan(
			&snap.Address,
			&balance,
			&firstIn,
			&lastIn,
			&lastOut,
			&snap.Rank,
			&scrapedAt,
		)
		if err != nil {
			return nil, err
		}

		snap.Balance, err = decimal.NewFromString(balance)
		if err != nil {
			return nil, err
		}

		snap.ScrapedAt, err = time.Parse(TimeFormat, scrapedAt)
		if err != nil {
			return nil, err
		}

		snap.FirstIn = firstIn.String
		snap.LastIn = lastIn.String
		snap.LastOut = lastOut.String

		result = append(result, snap)
	}

	return result, rows.Err()
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
