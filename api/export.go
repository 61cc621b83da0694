package api

import (
	"encoding/csv"
	"net/http"
	"walletwatch/db"
	"walletwatch/wallet"
)

func handleWalletsCSV(w http.ResponseWriter, r *http.Request) {
	snaps, err := db.Latest()
	if err != nil {
		serverError(w, err)
		return
	}

	writeCSV(w, "btc_wallets.csv", [][]string{
		{"address", "balance", "first_in", "last_in", "last_out"},
	}, snapshotRows(snaps, ""))
}

func handleDuplicatesCSV(w http.ResponseWriter, r *http.Request) {
	groups, err := db.DuplicateGroups()
	if err != nil {
		serverError(w, err)
		return
	}

	rows := [][]string{}
	for _, g := range groups {
		rows = append(rows, snapshotRows(g.Wallets, g.Balance.String())...)
	}

	writeCSV(w, "btc_duplicate_balances.csv", [][]string{
		{"group_balance", "address", "balance", "first_in", "last_in", "last_out"},
	}, rows)
}

// snapshotRows renders snapshots as CSV records. A non-empty groupBalance is
// prepended to every row for the duplicate-balance export.
func snapshotRows(snaps []wallet.Snapshot, groupBalance string) [][]string {
	rows := make([][]string, 0, len(snaps))

	for _, s := range snaps {
		row := []string{s.Address, s.Balance.String(), s.FirstIn, s.LastIn, s.LastOut}
		if groupBalance != "" {
			row = append([]string{groupBalance}, row...)
		}
		rows = append(rows, row)
	}

	return rows
}

func writeCSV(w http.ResponseWriter, filename string, header, rows [][]string) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)

	cw := csv.NewWriter(w)
	defer cw.Flush()

	for _, record := range append(header, rows...) {
		if err := cw.Write(record); err != nil {
			return
		}
	}
}
