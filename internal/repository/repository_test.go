package repository

import (
	"context"
	"testing"
	"time"

	"BrentCast/internal/domain/models"
	domrepo "BrentCast/internal/domain/repository"
	"BrentCast/pkg/cache"
	pkgkafka "BrentCast/pkg/kafka"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSeries() models.TimeSeries {
	d := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	return models.TimeSeries{
		{Date: d, Price: 76.5},
		{Date: d.AddDate(0, 0, 1), Price: 78.25},
	}
}

func TestBuildInsert(t *testing.T) {
	q, args := buildInsert("brentcast.daily_prices", "EIA366_PBRENT366", sampleSeries())
	assert.Equal(t, "INSERT INTO brentcast.daily_prices (code, d, price) VALUES (?, ?, ?),(?, ?, ?)", q)
	require.Len(t, args, 6)
	assert.Equal(t, "EIA366_PBRENT366", args[0])
	assert.Equal(t, 78.25, args[5])
}

func TestSeriesSchema(t *testing.T) {
	stmts := SeriesSchema("brentcast")
	require.Len(t, stmts, 2)
	assert.Contains(t, stmts[1], "ReplacingMergeTree")
	assert.Contains(t, stmts[1], "brentcast.daily_prices")
}

func TestMemorySeriesStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySeriesStore()
	_, err := s.Load(ctx, "x")
	assert.ErrorIs(t, err, domrepo.ErrSeriesNotFound)

	require.NoError(t, s.Save(ctx, "x", sampleSeries()))
	got, err := s.Load(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, sampleSeries(), got)
}

type countingStore struct {
	*MemorySeriesStore
	loads int
}

func (c *countingStore) Load(ctx context.Context, code string) (models.TimeSeries, error) {
	c.loads++
	return c.MemorySeriesStore.Load(ctx, code)
}

func TestCachedSeriesStore(t *testing.T) {
	ctx := context.Background()
	inner := &countingStore{MemorySeriesStore: NewMemorySeriesStore()}
	require.NoError(t, inner.MemorySeriesStore.Save(ctx, "x", sampleSeries()))

	s := NewCachedSeriesStore(inner, cache.NewMemoryCache(), time.Minute)
	for i := 0; i < 3; i++ {
		got, err := s.Load(ctx, "x")
		require.NoError(t, err)
		assert.Equal(t, sampleSeries(), got)
	}
	assert.Equal(t, 1, inner.loads)

	require.NoError(t, s.Invalidate(ctx, "x"))
	_, err := s.Load(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.loads)

	_, err = s.Load(ctx, "missing")
	assert.ErrorIs(t, err, domrepo.ErrSeriesNotFound)
}

type recordingProducer struct {
	keys   []string
	values []interface{}
}

func (r *recordingProducer) Publish(_ context.Context, _ string, key []byte, value interface{}) error {
	r.keys = append(r.keys, string(key))
	r.values = append(r.values, value)
	return nil
}

func (r *recordingProducer) PublishBatch(_ context.Context, _ string, msgs []pkgkafka.Message) error {
	for _, m := range msgs {
		r.keys = append(r.keys, string(m.Key))
		r.values = append(r.values, m.Value)
	}
	return nil
}

func (r *recordingProducer) Close() error { return nil }

func TestKafkaForecastPublisher_KeysByModel(t *testing.T) {
	rp := &recordingProducer{}
	p := &KafkaForecastPublisher{producer: rp, topic: "forecasts"}

	res := &models.ForecastResult{Model: "xgboost", Horizon: 15}
	require.NoError(t, p.Publish(context.Background(), res))
	require.NoError(t, p.PublishAll(context.Background(), []*models.ForecastResult{{Model: "lstm"}, {Model: "xgboost"}}))

	assert.Equal(t, []string{"xgboost", "lstm", "xgboost"}, rp.keys)
	assert.Same(t, res, rp.values[0])
}
