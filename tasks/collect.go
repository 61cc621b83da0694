package tasks

import (
	"time"
	"walletwatch/db"
	"walletwatch/log"
	"walletwatch/parser"
	"walletwatch/scrape"
	"walletwatch/wallet"

	eParser "github.com/go-errors/errors"
)

// Swappable in tests so a cycle runs without network or delays.
var (
	fetchPage = scrape.FetchPage
	throttle  = scrape.Throttle
)

// Collect runs one collection cycle across the given number of pages.
//
// A failed page is logged, counted and skipped; the cycle continues with the
// next page. A storage write failure aborts the cycle. Rows stored by earlier
// pages of an aborted cycle stay in place, history is never rolled back.
func Collect(pages int) (wallet.CycleResult, error) {
	res := wallet.CycleResult{StartedAt: time.Now().UTC()}

	if pages < wallet.MinPages || pages > wallet.MaxPages {
		return res, wallet.ErrPageCount
	}

	// One timestamp per cycle tags every row of this scan.
	scrapedAt := res.StartedAt

	for page := 1; page <= pages; page++ {
		if page > 1 {
			throttle()
		}

		res.PagesFetched++

		html, err := fetchPage(page)
		if err != nil {
			log.Error.Printf("Skipping page %d: %v\n", page, err)
			res.PagesFailed++
			continue
		}

		snaps, err := parser.Parse(html)
		if err != nil {
			log.Error.Printf("Skipping page %d, markup unreadable: %v\n", page, err)
			res.PagesFailed++
			continue
		}

		for i := range snaps {
			snaps[i].ScrapedAt = scrapedAt
		}

		if err := db.InsertSnapshots(snaps); err != nil {
			res.Duration = time.Since(res.StartedAt)
			return res, eParser.WrapPrefix(err, "store wallets", 0)
		}

		res.WalletsStored += len(snaps)
	}

	res.Duration = time.Since(res.StartedAt)

	return res, nil
}
