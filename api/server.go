// Package api exposes the read views, the manual refresh trigger and the CSV
// export over HTTP. Rendering is left to whatever frontend consumes this.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"
	"walletwatch/cache"
	"walletwatch/config"
	"walletwatch/db"
	"walletwatch/log"
	"walletwatch/mail"
	"walletwatch/tasks"
	"walletwatch/wallet"
)

// historyLimit caps a history response when the caller gives no limit.
const historyLimit = 1000

// Start runs the HTTP API in a background goroutine.
func Start() {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/wallets", handleWallets)
	mux.HandleFunc("/api/duplicates", handleDuplicates)
	mux.HandleFunc("/api/groups", handleGroups)
	mux.HandleFunc("/api/history", handleHistory)
	mux.HandleFunc("/api/status", handleStatus)
	mux.HandleFunc("/api/refresh", handleRefresh)
	mux.HandleFunc("/export/wallets.csv", handleWalletsCSV)
	mux.HandleFunc("/export/duplicates.csv", handleDuplicatesCSV)

	server := &http.Server{
		Addr:              config.GetListen(),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		defer mail.AlertIfErr()

		log.Printf("HTTP API listening on %s\n", config.GetListen())

		if err := server.ListenAndServe(); err != nil {
			panic(err)
		}
	}()
}

func handleWallets(w http.ResponseWriter, r *http.Request) {
	snaps, err := db.Latest()
	if err != nil {
		serverError(w, err)
		return
	}

	writeJSON(w, snaps)
}

func handleDuplicates(w http.ResponseWriter, r *http.Request) {
	groups, err := db.DuplicateGroups()
	if err != nil {
		serverError(w, err)
		return
	}

	writeJSON(w, groups)
}

func handleGroups(w http.ResponseWriter, r *http.Request) {
	summaries, err := db.GroupSummaries()
	if err != nil {
		serverError(w, err)
		return
	}

	writeJSON(w, summaries)
}

func handleHistory(w http.ResponseWriter, r *http.Request) {
	address := r.URL.Query().Get("address")
	if address == "" {
		http.Error(w, "address parameter is required", http.StatusBadRequest)
		return
	}

	limit := historyLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			http.Error(w, "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	history, err := db.History(address, limit)
	if err != nil {
		serverError(w, err)
		return
	}

	writeJSON(w, history)
}

func handleStatus(w http.ResponseWriter, r *http.Request) {
	type status struct {
		Running   bool                `json:"running"`
		Cycles    int                 `json:"cycles"`
		LastCycle *wallet.CycleResult `json:"last_cycle,omitempty"`
	}

	s := status{
		Running: tasks.Running(),
		Cycles:  cache.Cycles(),
	}

	if last, ok := cache.LastCycle(); ok {
		s.LastCycle = &last
	}

	writeJSON(w, s)
}

func handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "use POST", http.StatusMethodNotAllowed)
		return
	}

	pages := config.GetPages()
	if raw := r.URL.Query().Get("pages"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "pages must be an integer", http.StatusBadRequest)
			return
		}
		pages = parsed
	}

	started, err := tasks.Trigger(pages)
	if errors.Is(err, wallet.ErrPageCount) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		serverError(w, err)
		return
	}

	if !started {
		writeJSONStatus(w, http.StatusConflict,
			map[string]interface{}{"started": false, "reason": "a cycle is already running"})
		return
	}

	writeJSONStatus(w, http.StatusAccepted,
		map[string]interface{}{"started": true, "pages": pages})
}

func writeJSON(w http.ResponseWriter, payload interface{}) {
	writeJSONStatus(w, http.StatusOK, payload)
}

func writeJSONStatus(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error.Printf("Failed to encode response: %v\n", err)
	}
}

func serverError(w http.ResponseWriter, err error) {
	log.Error.Println(err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}
