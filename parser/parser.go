package parser

import (
	"strconv"
	"strings"
	"time"
	"walletwatch/util"
	"walletwatch/wallet"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"
)

// tableSelector locates the rich-list table on a listing page.
const tableSelector = "table#tblOne"

// dateLayouts are the formats the source renders transaction dates in.
var dateLayouts = []string{
	"2006-01-02 15:04",
	"2006-01-02",
}

// Column layout of one listing row:
// rank | address | balance | % of coins | first in | last in | last out.
const (
	colRank = iota
	colAddress
	colBalance
	colShare
	colFirstIn
	colLastIn
	colLastOut
)

// Parse extracts wallet rows from the markup of one listing page.
//
// Rows missing an address or carrying an unparseable balance are skipped;
// failure is per-row, never per-page. A page without the table yields an
// empty slice, not an error.
func Parse(html string) ([]wallet.Snapshot, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	snaps := []wallet.Snapshot{}

	doc.Find(tableSelector + " tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		// Header rows render th cells, malformed rows miss columns.
		if cells.Length() <= colLastIn {
			return
		}

		snap, ok := parseRow(cells)
		if !ok {
			return
		}

		if snap.Rank == 0 {
			snap.Rank = len(snaps) + 1
		}

		snaps = append(snaps, snap)
	})

	return snaps, nil
}

func parseRow(cells *goquery.Selection) (wallet.Snapshot, bool) {
	snap := wallet.Snapshot{}

	snap.Address = util.ExtractAddress(cellText(cells, colAddress))
	if snap.Address == "" {
		return snap, false
	}

	balance, ok := ParseBalance(cellText(cells, colBalance))
	if !ok {
		return snap, false
	}
	snap.Balance = balance

	snap.Rank = parseRank(cellText(cells, colRank))
	snap.FirstIn = parseDate(cellText(cells, colFirstIn))
	snap.LastIn = parseDate(cellText(cells, colLastIn))
	snap.LastOut = parseDate(cellText(cells, colLastOut))

	return snap, true
}

func cellText(cells *goquery.Selection, i int) string {
	if i >= cells.Length() {
		return ""
	}
	return strings.TrimSpace(cells.Eq(i).Text())
}

// ParseBalance turns balance cell text like "1,234.5 BTC ($86,624,113)"
// into a decimal amount. Thousands separators and everything after the
// numeric token are stripped.
func ParseBalance(text string) (decimal.Decimal, bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return decimal.Decimal{}, false
	}

	raw := strings.ReplaceAll(fields[0], ",", "")
	balance, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, false
	}

	if balance.IsNegative() {
		return decimal.Decimal{}, false
	}

	return balance, true
}

func parseRank(text string) int {
	text = strings.TrimRight(strings.TrimSpace(text), ".,")
	rank, err := strconv.Atoi(text)
	if err != nil || rank < 0 {
		return 0
	}
	return rank
}

// parseDate normalizes a date cell to "2006-01-02". Absent cells and
// placeholders like "Never" map to the empty string.
func parseDate(text string) string {
	if text == "" || strings.EqualFold(text, "never") {
		return ""
	}

	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, text); err == nil {
			return ts.Format("2006-01-02")
		}
	}

	return ""
}
