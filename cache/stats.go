// Package cache keeps the last collection outcome in memory so the status
// endpoint never touches the database.
package cache

import (
	"sync"
	"sync/atomic"
	"walletwatch/wallet"
)

var (
	mu        sync.Mutex
	lastCycle wallet.CycleResult
	hasCycle  bool

	cycles int64
)

// SetLastCycle records the outcome of the most recent collection cycle.
func SetLastCycle(res wallet.CycleResult) {
	mu.Lock()
	defer mu.Unlock()

	lastCycle = res
	hasCycle = true

	atomic.AddInt64(&cycles, 1)
}

// LastCycle returns the most recent cycle outcome, if any cycle ran yet.
func LastCycle() (wallet.CycleResult, bool) {
	mu.Lock()
	defer mu.Unlock()

	return lastCycle, hasCycle
}

// Cycles returns how many cycles completed since process start.
func Cycles() int {
	return int(atomic.LoadInt64(&cycles))
}
