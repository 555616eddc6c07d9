package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/oddsedge/internal/metrics"
	"github.com/yourusername/oddsedge/internal/models"
)

const oddsAPISourceName = "odds_api"

// Usage is the request quota reported by the provider on every response
type Usage struct {
	Remaining int
	Used      int
}

// OddsAPIClient implements OddsProvider against the v4 REST API
type OddsAPIClient struct {
	httpClient  *RateLimitedHTTPClient
	baseURL     string
	apiKey      string
	regions     string
	oddsFormat  string
	gameMarkets []string
	logger      *logrus.Entry

	usageMu sync.Mutex
	usage   Usage
}

// OddsAPIOptions configures the request parameters of the client
type OddsAPIOptions struct {
	BaseURL     string
	APIKey      string
	Regions     string
	OddsFormat  string
	GameMarkets []string
}

// NewOddsAPIClient creates a new client
func NewOddsAPIClient(httpClient *RateLimitedHTTPClient, opts OddsAPIOptions, logger *logrus.Entry) *OddsAPIClient {
	if logger == nil {
		logger = discardLogger()
	}
	return &OddsAPIClient{
		httpClient:  httpClient,
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		apiKey:      opts.APIKey,
		regions:     opts.Regions,
		oddsFormat:  opts.OddsFormat,
		gameMarkets: opts.GameMarkets,
		logger:      logger,
	}
}

// Name returns the name of the provider
func (c *OddsAPIClient) Name() string {
	return oddsAPISourceName
}

// Usage returns the most recent quota reported by the provider
func (c *OddsAPIClient) Usage() Usage {
	c.usageMu.Lock()
	defer c.usageMu.Unlock()
	return c.usage
}

// ListSports retrieves the sport catalogue
func (c *OddsAPIClient) ListSports(ctx context.Context) ([]models.Sport, error) {
	var sports []models.Sport
	if err := c.getJSON(ctx, "sports", "/v4/sports", nil, &sports); err != nil {
		return nil, err
	}
	return sports, nil
}

// FetchOdds retrieves game-line odds for every upcoming event of a sport
func (c *OddsAPIClient) FetchOdds(ctx context.Context, sport string) ([]Event, error) {
	params := url.Values{}
	params.Set("regions", c.regions)
	params.Set("markets", strings.Join(c.gameMarkets, ","))
	params.Set("oddsFormat", c.oddsFormat)

	var events []Event
	if err := c.getJSON(ctx, "odds", "/v4/sports/"+url.PathEscape(sport)+"/odds", params, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// FetchEvents retrieves upcoming events of a sport
func (c *OddsAPIClient) FetchEvents(ctx context.Context, sport string) ([]Event, error) {
	var events []Event
	if err := c.getJSON(ctx, "events", "/v4/sports/"+url.PathEscape(sport)+"/events", nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// FetchEventOdds retrieves prop markets for a single event
func (c *OddsAPIClient) FetchEventOdds(ctx context.Context, sport, eventID string, markets []string) (*Event, error) {
	params := url.Values{}
	params.Set("regions", c.regions)
	params.Set("markets", strings.Join(markets, ","))
	params.Set("oddsFormat", c.oddsFormat)

	path := fmt.Sprintf("/v4/sports/%s/events/%s/odds", url.PathEscape(sport), url.PathEscape(eventID))

	var event Event
	if err := c.getJSON(ctx, "event_odds", path, params, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

// FetchScores retrieves live and recently completed events
func (c *OddsAPIClient) FetchScores(ctx context.Context, sport string, daysFrom int) ([]ScoreEvent, error) {
	params := url.Values{}
	if daysFrom > 0 {
		params.Set("daysFrom", strconv.Itoa(daysFrom))
	}

	var scores []ScoreEvent
	if err := c.getJSON(ctx, "scores", "/v4/sports/"+url.PathEscape(sport)+"/scores", params, &scores); err != nil {
		return nil, err
	}
	return scores, nil
}

// getJSON issues a GET and decodes the body. The endpoint label names the
// request in metrics without the sport or event IDs.
func (c *OddsAPIClient) getJSON(ctx context.Context, endpointLabel, path string, params url.Values, out interface{}) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("apiKey", c.apiKey)
	endpoint := c.baseURL + path + "?" + params.Encode()

	start := time.Now()
	resp, err := c.httpClient.Get(ctx, endpoint)
	if err != nil {
		metrics.RecordProviderRequest(endpointLabel, "error", time.Since(start).Seconds())
		return NewProviderError(oddsAPISourceName, ErrCodeNetworkError, "request to "+path+" failed", 0, err)
	}
	defer resp.Body.Close()

	metrics.RecordProviderRequest(endpointLabel, strconv.Itoa(resp.StatusCode), time.Since(start).Seconds())
	c.recordUsage(resp.Header)
	c.logger.WithFields(logrus.Fields{
		"path":   path,
		"status": resp.StatusCode,
	}).Debug("Provider response")

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return NewProviderError(oddsAPISourceName, ErrCodeAuthenticationFailed, "invalid API key", resp.StatusCode, nil)
	case resp.StatusCode == http.StatusTooManyRequests:
		return NewProviderError(oddsAPISourceName, ErrCodeRateLimitExceeded, "rate limit exceeded", resp.StatusCode, nil)
	case resp.StatusCode == http.StatusNotFound:
		return NewProviderError(oddsAPISourceName, ErrCodeNotFound, path+" not found", resp.StatusCode, nil)
	case resp.StatusCode == http.StatusUnprocessableEntity || resp.StatusCode == http.StatusBadRequest:
		return NewProviderError(oddsAPISourceName, ErrCodeInvalidRequest, readMessage(resp.Body), resp.StatusCode, nil)
	case resp.StatusCode != http.StatusOK:
		return NewProviderError(oddsAPISourceName, ErrCodeServerError,
			fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, readMessage(resp.Body)), resp.StatusCode, nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return NewProviderError(oddsAPISourceName, ErrCodeInvalidData, "failed to parse "+path, resp.StatusCode, err)
	}
	return nil
}

func (c *OddsAPIClient) recordUsage(h http.Header) {
	remaining, errR := strconv.Atoi(h.Get("x-requests-remaining"))
	used, errU := strconv.Atoi(h.Get("x-requests-used"))
	if errR != nil && errU != nil {
		return
	}

	c.usageMu.Lock()
	defer c.usageMu.Unlock()
	if errR == nil {
		c.usage.Remaining = remaining
		metrics.UpdateRequestsRemaining(remaining)
	}
	if errU == nil {
		c.usage.Used = used
	}
}

func readMessage(body io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(body, 512))
	return strings.TrimSpace(string(b))
}
