package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polyarb/arbot/internal/domain"
)

type fakeOppStore struct {
	inserted []domain.OpportunityRecord
	err      error
}

func (f *fakeOppStore) Insert(_ context.Context, rec domain.OpportunityRecord) error {
	if f.err != nil {
		return f.err
	}
	f.inserted = append(f.inserted, rec)
	return nil
}

func (f *fakeOppStore) ListRecent(context.Context, int) ([]domain.OpportunityRecord, error) {
	return f.inserted, f.err
}

func (f *fakeOppStore) CountByKind(context.Context, time.Time) (map[domain.Kind]int64, error) {
	counts := make(map[domain.Kind]int64)
	for _, rec := range f.inserted {
		counts[rec.Kind]++
	}
	return counts, f.err
}

type fakeBus struct {
	published [][]byte
	err       error
}

func (f *fakeBus) Publish(_ context.Context, _ string, payload []byte) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, payload)
	return nil
}

func (f *fakeBus) Subscribe(context.Context, string) (<-chan []byte, error) { return nil, nil }
func (f *fakeBus) Close() error                                            { return nil }

type fakeAudit struct {
	events []string
}

func (f *fakeAudit) Log(_ context.Context, event string, _ map[string]any) error {
	f.events = append(f.events, event)
	return nil
}

func (f *fakeAudit) List(context.Context, domain.ListOpts) ([]domain.AuditEntry, error) {
	return nil, nil
}

func scoredBatch() []domain.ScoredOpportunity {
	return []domain.ScoredOpportunity{
		{
			Opportunity: domain.ImbalanceOpportunity{
				Market:           domain.Snapshot{MarketID: "mkt-1"},
				Action:           domain.ImbalanceBuyBoth,
				ProfitPercentage: 4.17,
				ExpectedProfit:   4.0,
			},
			Score: 80,
		},
		{
			Opportunity: domain.SpreadOpportunity{
				Market:  domain.Snapshot{MarketID: "mkt-2"},
				Outcome: domain.OutcomeYes,
			},
			Score: 45,
		},
	}
}

func TestRecordBatchPersistsAndPublishes(t *testing.T) {
	store := &fakeOppStore{}
	bus := &fakeBus{}
	audit := &fakeAudit{}
	s := NewOpportunityService(store, bus, audit, testLogger())

	recs := s.RecordBatch(context.Background(), scoredBatch())
	require.Len(t, recs, 2)
	assert.NotEmpty(t, recs[0].ID)
	assert.NotEqual(t, recs[0].ID, recs[1].ID)
	assert.Equal(t, domain.KindYesNoImbalance, recs[0].Kind)

	assert.Len(t, store.inserted, 2)
	assert.Len(t, bus.published, 2)
	assert.Equal(t, []string{"opportunities_detected"}, audit.events)
}

func TestRecordBatchToleratesStoreFailure(t *testing.T) {
	store := &fakeOppStore{err: errors.New("db down")}
	bus := &fakeBus{err: errors.New("redis down")}
	s := NewOpportunityService(store, bus, &fakeAudit{}, testLogger())

	recs := s.RecordBatch(context.Background(), scoredBatch())
	assert.Len(t, recs, 2, "sink failures never drop records")
}

func TestRecordBatchNilSinks(t *testing.T) {
	s := NewOpportunityService(nil, nil, nil, testLogger())
	recs := s.RecordBatch(context.Background(), scoredBatch())
	assert.Len(t, recs, 2)
}

func TestRecordBatchEmpty(t *testing.T) {
	audit := &fakeAudit{}
	s := NewOpportunityService(&fakeOppStore{}, &fakeBus{}, audit, testLogger())

	recs := s.RecordBatch(context.Background(), nil)
	assert.Empty(t, recs)
	assert.Empty(t, audit.events, "no audit entry for an empty batch")
}

func TestCountByKind(t *testing.T) {
	store := &fakeOppStore{}
	s := NewOpportunityService(store, nil, nil, testLogger())

	s.RecordBatch(context.Background(), scoredBatch())
	counts, err := s.CountByKind(context.Background(), time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[domain.KindYesNoImbalance])
	assert.Equal(t, int64(1), counts[domain.KindOrderBookSpread])
}
