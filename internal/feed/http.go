package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/core-coin/blocksage/internal/models"
	"github.com/core-coin/blocksage/pkg/logger"
)

// Pagination represents the pagination info of a feed page
type Pagination struct {
	HasNext bool   `json:"hasNext"`
	Cursor  string `json:"cursor"`
}

type page[T any] struct {
	Items      []T        `json:"items"`
	Pagination Pagination `json:"pagination"`
}

// maxPages stops a feed that keeps returning hasNext from looping forever.
const maxPages = 1000

// HTTPFeed reads wallet portfolios from a remote portfolio service.
type HTTPFeed struct {
	logger  *logger.Logger
	baseURL string
	client  *http.Client
}

var _ models.PortfolioFeed = (*HTTPFeed)(nil)

// NewHTTPFeed creates a feed client for the service at baseURL
func NewHTTPFeed(baseURL string, logger *logger.Logger) *HTTPFeed {
	return &HTTPFeed{
		logger:  logger,
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Snapshot fetches the token holdings and transactions of address concurrently.
// Derived risk fields sent by the service are dropped; they are recomputed on every scan.
func (f *HTTPFeed) Snapshot(ctx context.Context, address string) ([]models.TokenRecord, []models.TransactionRecord, error) {
	var (
		tokens []models.TokenRecord
		txs    []models.TransactionRecord
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		items, err := fetchAll[models.TokenRecord](ctx, f, f.endpoint(address, "tokens.json"))
		if err != nil {
			return fmt.Errorf("failed to fetch tokens: %w", err)
		}
		tokens = items
		return nil
	})
	g.Go(func() error {
		items, err := fetchAll[models.TransactionRecord](ctx, f, f.endpoint(address, "transactions.json"))
		if err != nil {
			return fmt.Errorf("failed to fetch transactions: %w", err)
		}
		txs = items
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	for i := range tokens {
		tokens[i].RiskScore = 0
		tokens[i].RiskLevel = ""
		tokens[i].Issues = nil
	}
	for i := range txs {
		txs[i].RiskLevel = ""
		txs[i].Warning = ""
	}

	f.logger.Debug("Fetched portfolio snapshot", "address", address, "tokens", len(tokens), "transactions", len(txs))
	return tokens, txs, nil
}

func (f *HTTPFeed) endpoint(address, resource string) string {
	return fmt.Sprintf("%s/portfolio/%s/%s", f.baseURL, url.PathEscape(address), resource)
}

// fetchAll follows the cursor until the service reports no further page
func fetchAll[T any](ctx context.Context, f *HTTPFeed, endpoint string) ([]T, error) {
	var all []T
	cursor := ""

	for i := 0; i < maxPages; i++ {
		target := endpoint
		if cursor != "" {
			target = fmt.Sprintf("%s?cursor=%s", endpoint, url.QueryEscape(cursor))
		}

		var p page[T]
		if err := f.getJSON(ctx, target, &p); err != nil {
			return nil, err
		}
		all = append(all, p.Items...)

		if !p.Pagination.HasNext {
			return all, nil
		}
		if p.Pagination.Cursor == "" || p.Pagination.Cursor == cursor {
			return nil, fmt.Errorf("feed reported another page without advancing the cursor")
		}
		cursor = p.Pagination.Cursor
	}

	return nil, fmt.Errorf("feed exceeded %d pages", maxPages)
}

func (f *HTTPFeed) getJSON(ctx context.Context, target string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return &models.NetworkError{Op: "GET " + target, Err: err, Timeout: isTimeout(err), Canceled: ctx.Err() != nil}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &models.NetworkError{Op: "GET " + target, StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &models.MalformedResponseError{Reason: "failed to decode feed page", Err: err}
	}
	return nil
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
