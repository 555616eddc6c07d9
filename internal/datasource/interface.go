package datasource

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yourusername/oddsedge/internal/models"
)

// OddsProvider fetches odds snapshots from the upstream provider. Every
// method honours ctx cancellation.
type OddsProvider interface {
	// ListSports returns the provider's sport catalogue
	ListSports(ctx context.Context) ([]models.Sport, error)

	// FetchOdds returns events with game-line markets for a sport
	FetchOdds(ctx context.Context, sport string) ([]Event, error)

	// FetchEvents returns upcoming events of a sport without odds
	FetchEvents(ctx context.Context, sport string) ([]Event, error)

	// FetchEventOdds returns one event with the requested prop markets
	FetchEventOdds(ctx context.Context, sport, eventID string, markets []string) (*Event, error)

	// FetchScores returns live and recently completed events of a sport
	FetchScores(ctx context.Context, sport string, daysFrom int) ([]ScoreEvent, error)

	// Name returns the name of the provider
	Name() string
}

// Event is the provider's event payload
type Event struct {
	ID           string      `json:"id"`
	SportKey     string      `json:"sport_key"`
	SportTitle   string      `json:"sport_title"`
	CommenceTime time.Time   `json:"commence_time"`
	HomeTeam     string      `json:"home_team"`
	AwayTeam     string      `json:"away_team"`
	Bookmakers   []Bookmaker `json:"bookmakers"`
}

// Bookmaker is one bookie's markets for an event
type Bookmaker struct {
	Key        string    `json:"key"`
	Title      string    `json:"title"`
	LastUpdate time.Time `json:"last_update"`
	Markets    []Market  `json:"markets"`
}

// Market is one market of a bookmaker
type Market struct {
	Key        string     `json:"key"`
	LastUpdate *time.Time `json:"last_update,omitempty"`
	Outcomes   []Outcome  `json:"outcomes"`
}

// Outcome is one priced outcome. For player props Name carries the bet
// type (Over, Under, Yes, No) and Description carries the player.
type Outcome struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Price       float64  `json:"price"`
	Point       *float64 `json:"point,omitempty"`
}

// ScoreEvent is the provider's scores payload
type ScoreEvent struct {
	ID           string      `json:"id"`
	SportKey     string      `json:"sport_key"`
	SportTitle   string      `json:"sport_title"`
	CommenceTime time.Time   `json:"commence_time"`
	Completed    bool        `json:"completed"`
	HomeTeam     string      `json:"home_team"`
	AwayTeam     string      `json:"away_team"`
	Scores       []TeamScore `json:"scores"`
	LastUpdate   *time.Time  `json:"last_update"`
}

// TeamScore is a team's current score; the provider sends it as a string
type TeamScore struct {
	Name  string `json:"name"`
	Score string `json:"score"`
}

// ProviderError represents errors from provider operations
type ProviderError struct {
	Source     string // Provider name
	Code       string // Error code
	Message    string // Error message
	StatusCode int    // HTTP status, 0 when no response was received
	Err        error  // Underlying error
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("%s: %s: %s", e.Source, e.Code, e.Message)
	if e.Err != nil {
		msg += " (" + e.Err.Error() + ")"
	}
	return msg
}

// Unwrap returns the underlying error
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel that corresponds to the error code
func (e *ProviderError) Is(target error) bool {
	return codeSentinels[e.Code] == target
}

// Common error codes
const (
	ErrCodeRateLimitExceeded    = "rate_limit_exceeded"
	ErrCodeAuthenticationFailed = "authentication_failed"
	ErrCodeNotFound             = "not_found"
	ErrCodeInvalidRequest       = "invalid_request"
	ErrCodeInvalidData          = "invalid_data"
	ErrCodeNetworkError         = "network_error"
	ErrCodeServerError          = "server_error"
)

// Sentinels matched by errors.Is against a ProviderError
var (
	ErrRateLimitExceeded    = errors.New("rate limit exceeded")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrNotFound             = errors.New("data not found")
	ErrInvalidRequest       = errors.New("invalid request")
	ErrInvalidData          = errors.New("invalid data format")
	ErrNetworkError         = errors.New("network error")
	ErrServerError          = errors.New("server error")
)

var codeSentinels = map[string]error{
	ErrCodeRateLimitExceeded:    ErrRateLimitExceeded,
	ErrCodeAuthenticationFailed: ErrAuthenticationFailed,
	ErrCodeNotFound:             ErrNotFound,
	ErrCodeInvalidRequest:       ErrInvalidRequest,
	ErrCodeInvalidData:          ErrInvalidData,
	ErrCodeNetworkError:         ErrNetworkError,
	ErrCodeServerError:          ErrServerError,
}

// NewProviderError creates a new provider error
func NewProviderError(source, code, message string, status int, err error) *ProviderError {
	return &ProviderError{
		Source:     source,
		Code:       code,
		Message:    message,
		StatusCode: status,
		Err:        err,
	}
}

// IsFatal reports whether err must abort the whole run. Only invalid
// credentials qualify; every other provider error skips a single unit.
func IsFatal(err error) bool {
	return errors.Is(err, ErrAuthenticationFailed)
}
