package tasks

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
	"walletwatch/db"
	"walletwatch/log"
	"walletwatch/wallet"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pageMarkup = `
<table id="tblOne">
<tr><th>h</th></tr>
<tr>
  <td>%d</td>
  <td>addr-page-%d</td>
  <td>%d.5 BTC</td>
  <td>0.1%%</td>
  <td>2024-01-01</td>
  <td>2024-01-02</td>
  <td>Never</td>
</tr>
</table>`

func setupCycleTest(t *testing.T) {
	t.Helper()

	log.Init()
	t.Cleanup(func() { os.Remove("error.log") })

	require.NoError(t, db.Open(filepath.Join(t.TempDir(), "wallets.db")))
	t.Cleanup(func() { db.Close() })

	origFetch, origThrottle := fetchPage, throttle
	throttle = func() {}
	t.Cleanup(func() { fetchPage = origFetch; throttle = origThrottle })
}

func TestCollectFetchesEveryPage(t *testing.T) {
	for _, pages := range []int{1, 7, 50} {
		t.Run(fmt.Sprintf("%d_pages", pages), func(t *testing.T) {
			setupCycleTest(t)

			attempts := 0
			fetchPage = func(page int) (string, error) {
				attempts++
				return fmt.Sprintf(pageMarkup, page, page, page), nil
			}

			res, err := Collect(pages)
			require.NoError(t, err)

			assert.Equal(t, pages, attempts)
			assert.Equal(t, pages, res.PagesFetched)
			assert.Equal(t, 0, res.PagesFailed)
			assert.Equal(t, pages, res.WalletsStored)
		})
	}
}

func TestCollectRejectsPageCountOutOfRange(t *testing.T) {
	setupCycleTest(t)

	attempts := 0
	fetchPage = func(page int) (string, error) {
		attempts++
		return "", nil
	}

	for _, pages := range []int{0, -1, 51} {
		_, err := Collect(pages)
		assert.ErrorIs(t, err, wallet.ErrPageCount, "pages=%d", pages)
	}

	assert.Zero(t, attempts, "no fetch may happen for a rejected page count")
}

func TestCollectSkipsFailedPages(t *testing.T) {
	setupCycleTest(t)

	fetchPage = func(page int) (string, error) {
		if page == 2 {
			return "", &wallet.FetchError{Page: page, Err: errors.New("status 503")}
		}
		return fmt.Sprintf(pageMarkup, page, page, page), nil
	}

	res, err := Collect(3)
	require.NoError(t, err, "a failed page must not abort the cycle")

	assert.Equal(t, 3, res.PagesFetched)
	assert.Equal(t, 1, res.PagesFailed)
	assert.Equal(t, 2, res.WalletsStored)

	latest, err := db.Latest()
	require.NoError(t, err)
	assert.Len(t, latest, 2)
}

func TestCollectAllPagesFailed(t *testing.T) {
	setupCycleTest(t)

	fetchPage = func(page int) (string, error) {
		return "", &wallet.FetchError{Page: page, Err: errors.New("unreachable")}
	}

	res, err := Collect(4)
	require.NoError(t, err)

	assert.Equal(t, 4, res.PagesFailed)
	assert.Zero(t, res.WalletsStored)
}

func TestCollectAbortsOnStorageFailure(t *testing.T) {
	setupCycleTest(t)

	fetchPage = func(page int) (string, error) {
		return fmt.Sprintf(pageMarkup, page, page, page), nil
	}

	// Closing the handle makes every insert fail.
	require.NoError(t, db.Close())

	res, err := Collect(3)
	require.Error(t, err)
	assert.False(t, errors.Is(err, wallet.ErrPageCount))
	assert.LessOrEqual(t, res.PagesFetched, 3)
}

func TestTriggerCoalescesConcurrentRuns(t *testing.T) {
	setupCycleTest(t)

	release := make(chan struct{})
	entered := make(chan struct{})
	var once sync.Once

	fetchPage = func(page int) (string, error) {
		once.Do(func() { close(entered) })
		<-release
		return "", &wallet.FetchError{Page: page, Err: errors.New("aborted by test")}
	}

	started, err := Trigger(1)
	require.NoError(t, err)
	require.True(t, started)

	<-entered
	assert.True(t, Running())

	// Second trigger while the first cycle is in flight is a no-op.
	startedAgain, err := Trigger(1)
	require.NoError(t, err)
	assert.False(t, startedAgain)

	close(release)

	waitIdle(t)
}

func TestTriggerRejectsBadPageCount(t *testing.T) {
	setupCycleTest(t)

	started, err := Trigger(0)
	assert.False(t, started)
	assert.ErrorIs(t, err, wallet.ErrPageCount)
	assert.False(t, Running())
}

func waitIdle(t *testing.T) {
	t.Helper()

	for i := 0; i < 200; i++ {
		if !Running() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}

	t.Fatal("cycle never returned to idle")
}
