package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"jobsieve/internal/util"
)

const defaultUserAgent = "jobsieve/1.0"

// descriptionSelectors are tried in order; the first non-empty match wins.
// Boards wrap the posting body in wildly different markup, so the fallback is
// the whole page body.
var descriptionSelectors = []string{
	".job-description",
	"[class*=description]",
	"article",
	"main",
}

// HTTPFetcher fetches posting pages over HTTP and extracts their readable
// text. The underlying http.Client is safe for concurrent use, so one fetcher
// serves the whole worker pool.
type HTTPFetcher struct {
	client    *http.Client
	limiter   *HostLimiter
	logger    *zap.Logger
	UserAgent string
}

func NewHTTP(timeout time.Duration, reqPerSec float64, logger *zap.Logger) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPFetcher{
		client:    &http.Client{Timeout: timeout},
		limiter:   NewHostLimiter(reqPerSec, 1),
		logger:    logger,
		UserAgent: defaultUserAgent,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	if err := f.limiter.WaitURL(ctx, rawURL); err != nil {
		return "", &Error{Kind: KindTimeout, URL: rawURL, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", &Error{Kind: KindNetwork, URL: rawURL, Err: err}
	}
	req.Header.Set("User-Agent", f.UserAgent)

	if f.logger != nil {
		f.logger.Debug("fetching description", zap.String("url", rawURL))
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", &Error{Kind: classify(err), URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", &Error{Kind: KindNotFound, URL: rawURL}
	case resp.StatusCode != http.StatusOK:
		return "", &Error{Kind: KindNetwork, URL: rawURL, Err: fmt.Errorf("bad status: %s", resp.Status)}
	}

	text, err := ExtractText(resp.Body)
	if err != nil {
		return "", &Error{Kind: KindParse, URL: rawURL, Err: err}
	}
	if text == "" {
		return "", &Error{Kind: KindEmpty, URL: rawURL}
	}
	return text, nil
}

// ExtractText pulls the readable job description out of an HTML page,
// preferring dedicated description containers over the whole body.
func ExtractText(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", err
	}

	doc.Find("script, style, noscript, nav, header, footer").Remove()

	for _, sel := range descriptionSelectors {
		node := doc.Find(sel).First()
		if node.Length() == 0 {
			continue
		}
		if text := util.CleanText(node.Text()); text != "" {
			return text, nil
		}
	}
	return util.CleanText(doc.Find("body").Text()), nil
}

// classify maps a transport error to a failure kind. Timeouts get their own
// kind because the enricher treats them like any other non-fatal fetch error
// but the report wants them distinguishable.
func classify(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return KindTimeout
	}
	return KindNetwork
}
