package listing

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	jlog "jobsieve/internal/logger"
)

const (
	boardPath = "/v1/boards/%s/postings"
	// Max value for postings per page.
	perPage = "100"

	contentType     = "application/json"
	contentEncoding = "gzip, deflate, br"

	userAgent = "jobsieve/1.0"
)

// Client talks to a job board listing API serving paginated JSON postings.
type Client struct {
	endpoint string
	board    string
	token    string
	logger   *zap.Logger

	HTTPClient *http.Client
	UserAgent  string
}

func NewClient(endpoint, board, token string, logger *zap.Logger) *Client {
	return &Client{
		endpoint: endpoint,
		board:    board,
		token:    token,
		logger:   jlog.WithSourceFields(logger, "board-api", board),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		UserAgent: userAgent,
	}
}

func (c *Client) Name() string { return c.board }

type itemResponse struct {
	Items   []any
	Found   int
	Pages   int
	Page    int
	PerPage int `json:"per_page"`
}

// Fetch returns the postings of the board from all pages.
func (c *Client) Fetch(ctx context.Context) ([]Posting, error) {
	boardURL := fmt.Sprintf("%s"+boardPath, c.endpoint, c.board)

	q := url.Values{}
	// Set per_page max as possible. It should be faster.
	q.Set("per_page", perPage)

	response, err := c.getPage(ctx, boardURL, q)
	if err != nil {
		return nil, err
	}

	items := append([]any(nil), response.Items...)

	for response.Page < (response.Pages - 1) {
		c.logger.Debug("additional listing request needed", zap.String("reason", fmt.Sprintf(
			"current page (%d) < all page count (%d)", response.Page+1, response.Pages),
		))

		q.Set("page", strconv.Itoa(response.Page+1))
		response, err = c.getPage(ctx, boardURL, q)
		if err != nil {
			return nil, err
		}

		items = append(items, response.Items...)
	}

	var postings []Posting
	cfg := &mapstructure.DecoderConfig{
		Metadata: nil,
		Result:   &postings,
		TagName:  "json",
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(items); err != nil {
		return nil, fmt.Errorf("decoding postings: %w", err)
	}

	return postings, nil
}

func (c *Client) getPage(ctx context.Context, boardURL string, q url.Values) (*itemResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, boardURL, nil)
	if err != nil {
		return nil, err
	}

	c.setHeaders(req)
	req.URL.RawQuery = q.Encode()

	c.logger.Debug("make listing request", zap.String("url", req.URL.String()))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}

	response, err := c.parseItemResponse(resp)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("got listing response",
		zap.Int("page", response.Page),
		zap.Int("pages", response.Pages),
		zap.Int("items", len(response.Items)),
	)

	return response, nil
}

func (c *Client) parseItemResponse(resp *http.Response) (*itemResponse, error) {
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("bad status: %s", resp.Status)
	}

	var body io.ReadCloser
	var err error
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		body, err = gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer body.Close()
	default:
		body = resp.Body
		defer body.Close()
	}

	var response *itemResponse
	if err := json.NewDecoder(body).Decode(&response); err != nil {
		return nil, err
	}

	return response, nil
}

func (c *Client) setHeaders(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept-Encoding", contentEncoding)
}
