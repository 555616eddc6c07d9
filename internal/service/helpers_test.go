package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/yourusername/oddsedge/internal/datasource"
	"github.com/yourusername/oddsedge/internal/logger"
	"github.com/yourusername/oddsedge/internal/models"
)

func point(v float64) *float64 { return &v }

func testRunLogger() (*logger.RunLogger, *test.Hook) {
	base, hook := test.NewNullLogger()
	base.SetLevel(logrus.DebugLevel)
	return logger.NewRunLogger(base, "run-1"), hook
}

// gameEvent builds an event with a moneyline quoted by each bookie
func gameEvent(sport, id, home, away string, start time.Time, prices map[string][2]float64) datasource.Event {
	updated := time.Now().Add(-time.Minute).UTC().Truncate(time.Second)
	ev := datasource.Event{
		ID:           id,
		SportKey:     sport,
		CommenceTime: start,
		HomeTeam:     home,
		AwayTeam:     away,
	}
	for _, bookie := range sortedKeys(prices) {
		p := prices[bookie]
		ev.Bookmakers = append(ev.Bookmakers, datasource.Bookmaker{
			Key:        bookie,
			Title:      bookie,
			LastUpdate: updated,
			Markets: []datasource.Market{{
				Key: "h2h",
				Outcomes: []datasource.Outcome{
					{Name: home, Price: p[0]},
					{Name: away, Price: p[1]},
				},
			}},
		})
	}
	return ev
}

func sortedKeys(m map[string][2]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// fakeProvider serves canned payloads per sport and records calls
type fakeProvider struct {
	mu         sync.Mutex
	sports     []models.Sport
	odds       map[string][]datasource.Event
	events     map[string][]datasource.Event
	scores     map[string][]datasource.ScoreEvent
	props      map[string]*datasource.Event
	errs       map[string]error
	listCalls  int
	propCalls  []string
	propMarket map[string][]string
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		odds:       make(map[string][]datasource.Event),
		events:     make(map[string][]datasource.Event),
		scores:     make(map[string][]datasource.ScoreEvent),
		props:      make(map[string]*datasource.Event),
		errs:       make(map[string]error),
		propMarket: make(map[string][]string),
	}
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) ListSports(ctx context.Context) ([]models.Sport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if err := f.errs["sports"]; err != nil {
		return nil, err
	}
	return f.sports, nil
}

func (f *fakeProvider) FetchOdds(ctx context.Context, sport string) ([]datasource.Event, error) {
	if err := f.err("odds:" + sport); err != nil {
		return nil, err
	}
	return f.odds[sport], nil
}

func (f *fakeProvider) FetchEvents(ctx context.Context, sport string) ([]datasource.Event, error) {
	if err := f.err("events:" + sport); err != nil {
		return nil, err
	}
	return f.events[sport], nil
}

func (f *fakeProvider) FetchEventOdds(ctx context.Context, sport, eventID string, markets []string) (*datasource.Event, error) {
	f.mu.Lock()
	f.propCalls = append(f.propCalls, eventID)
	f.propMarket[eventID] = markets
	f.mu.Unlock()

	if err := f.err("props:" + eventID); err != nil {
		return nil, err
	}
	if ev, ok := f.props[eventID]; ok {
		return ev, nil
	}
	return &datasource.Event{ID: eventID}, nil
}

func (f *fakeProvider) FetchScores(ctx context.Context, sport string, daysFrom int) ([]datasource.ScoreEvent, error) {
	if err := f.err("scores:" + sport); err != nil {
		return nil, err
	}
	return f.scores[sport], nil
}

func (f *fakeProvider) err(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errs[key]
}
