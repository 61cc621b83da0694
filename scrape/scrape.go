package scrape

import (
	"fmt"
	"time"
	"walletwatch/config"
	"walletwatch/wallet"

	eParser "github.com/go-errors/errors"
	"github.com/valyala/fasthttp"
)

var client = &fasthttp.Client{}

// PageURL builds the listing URL for the given page index. The first page
// carries no index suffix on the source site.
func PageURL(page int) string {
	return pageURL(config.GetBaseURL(), page)
}

func pageURL(baseURL string, page int) string {
	if page <= 1 {
		return fmt.Sprintf(baseURL, "")
	}
	return fmt.Sprintf(baseURL, fmt.Sprintf("-%d", page))
}

// FetchPage downloads the markup of one listing page. Transport errors,
// timeouts and non-200 responses come back as a page-tagged FetchError so
// the collector can skip the page and keep the cycle going.
func FetchPage(page int) (string, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.SetUserAgent(config.GetUserAgent())
	req.SetRequestURI(PageURL(page))

	if err := client.DoTimeout(req, resp, config.GetFetchTimeout()); err != nil {
		return "", &wallet.FetchError{Page: page, Err: eParser.Wrap(err, 0)}
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		return "", &wallet.FetchError{
			Page: page,
			Err:  fmt.Errorf("unexpected status %d", resp.StatusCode()),
		}
	}

	return string(resp.Body()), nil
}

// Throttle pauses between page fetches so the source is not hammered.
func Throttle() {
	time.Sleep(config.GetPageDelay())
}
