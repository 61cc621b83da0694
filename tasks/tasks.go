package tasks

import (
	"fmt"
	"sync/atomic"
	"walletwatch/cache"
	"walletwatch/config"
	"walletwatch/db"
	"walletwatch/log"
	"walletwatch/mail"
	"walletwatch/util"
	"walletwatch/wallet"

	"github.com/robfig/cron/v3"
)

// running holds the scheduler state: 0 idle, 1 running.
// CAS on it guarantees at most one concurrent cycle.
var running uint32

// Run starts the daily collection schedule.
func Run() {
	c := cron.New()

	spec := fmt.Sprintf("0 %d * * *", config.GetScheduleHour())
	_, err := c.AddFunc(spec, scheduledCycle)
	if err != nil {
		panic(err)
	}

	c.Start()

	log.Printf("Scheduler started: daily collection at %02d:00 across %d pages\n",
		config.GetScheduleHour(), config.GetPages())
}

func scheduledCycle() {
	started, err := Trigger(config.GetPages())
	if err != nil {
		log.Error.Printf("Scheduled cycle rejected: %v\n", err)
		return
	}

	if !started {
		log.Printf("Scheduled cycle skipped, a cycle is already running\n")
	}
}

// Trigger starts a collection cycle in the background unless one is already
// running. The second of two overlapping triggers is a no-op, not an error.
func Trigger(pages int) (bool, error) {
	if pages < wallet.MinPages || pages > wallet.MaxPages {
		return false, wallet.ErrPageCount
	}

	if !atomic.CompareAndSwapUint32(&running, 0, 1) {
		return false, nil
	}

	go runCycle(pages)

	return true, nil
}

// Running reports whether a collection cycle is currently in flight.
func Running() bool {
	return atomic.LoadUint32(&running) == 1
}

func runCycle(pages int) {
	defer atomic.StoreUint32(&running, 0)
	defer mail.AlertIfErr()

	log.Printf("Starting collection cycle across %d pages\n", pages)

	res, err := Collect(pages)
	cache.SetLastCycle(res)

	if err != nil {
		log.Error.Printf("Collection cycle failed after %d pages: %v\n", res.PagesFetched, err)
		mail.CycleFailed(pages, err.Error())
		return
	}

	if res.PagesFetched > 0 && res.PagesFailed == res.PagesFetched {
		log.Error.Printf("Collection cycle stored nothing, all %d pages failed\n", res.PagesFailed)
		mail.CycleFailed(pages, fmt.Sprintf("all %d pages unreachable", res.PagesFailed))
		return
	}

	logCycleStats(res)
}

func logCycleStats(res wallet.CycleResult) {
	count, total, err := db.ScanStats(res.StartedAt)
	if err != nil {
		log.Error.Printf("Failed to read scan stats: %v\n", err)
		count = res.WalletsStored
	}

	log.Printf("Cycle done in %s: %d wallets stored, %d of %d pages failed, total balance %s BTC\n",
		util.HumanDuration(res.Duration), count, res.PagesFailed, res.PagesFetched, total)
}
