package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/oddsedge/internal/config"
	"github.com/yourusername/oddsedge/internal/models"
)

type fakeStreams struct {
	added  []*redis.XAddArgs
	failOn string
}

func (f *fakeStreams) XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd {
	if a.Stream == f.failOn {
		return redis.NewStringResult("", errors.New("connection refused"))
	}
	f.added = append(f.added, a)
	return redis.NewStringResult("1-0", nil)
}

func TestPublishEV(t *testing.T) {
	fake := &fakeStreams{}
	p := newStreamPublisher(fake, config.PublisherConfig{StreamPrefix: "opps", MaxLen: 500})

	n, err := p.PublishEV(context.Background(), []models.EVCandidate{{
		GameID:        "g1",
		SportType:     "basketball_nba",
		Bookie:        "FanDuel",
		MarketKey:     "h2h",
		Selector:      "Celtics",
		Odds:          120,
		ExpectedValue: 4.5,
	}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.Len(t, fake.added, 2)
	assert.Equal(t, "opps.basketball_nba", fake.added[0].Stream)
	assert.Equal(t, "opps", fake.added[1].Stream)
	assert.Equal(t, int64(500), fake.added[0].MaxLen)
	assert.True(t, fake.added[0].Approx)

	values := fake.added[0].Values.(map[string]interface{})
	assert.Equal(t, TypeEV, values["type"])

	var got models.EVCandidate
	require.NoError(t, json.Unmarshal([]byte(values["data"].(string)), &got))
	assert.Equal(t, "Celtics", got.Selector)
	assert.Equal(t, 4.5, got.ExpectedValue)
}

func TestPublishArbitrage(t *testing.T) {
	fake := &fakeStreams{}
	p := newStreamPublisher(fake, config.PublisherConfig{})

	n, err := p.PublishArbitrage(context.Background(), []models.ArbitrageOpportunity{
		{GameID: "g1", SportType: "americanfootball_nfl", ProfitPercentage: 2.1},
		{GameID: "g2", SportType: "americanfootball_nfl", ProfitPercentage: 1.4},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, fake.added, 4)
	assert.Equal(t, "opportunities.americanfootball_nfl", fake.added[0].Stream)
	assert.Zero(t, fake.added[0].MaxLen)
}

func TestPublishStopsOnError(t *testing.T) {
	fake := &fakeStreams{failOn: "opportunities"}
	p := newStreamPublisher(fake, config.PublisherConfig{})

	n, err := p.PublishEV(context.Background(), []models.EVCandidate{
		{GameID: "g1", SportType: "basketball_nba"},
		{GameID: "g2", SportType: "basketball_nba"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stream opportunities")
	assert.Equal(t, 0, n)
}

func TestPublishEmpty(t *testing.T) {
	fake := &fakeStreams{}
	p := newStreamPublisher(fake, config.PublisherConfig{})

	n, err := p.PublishEV(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, fake.added)
}
