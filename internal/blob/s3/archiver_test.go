package s3blob

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polyarb/arbot/internal/domain"
)

type fakeWriter struct {
	key         string
	data        []byte
	contentType string
	calls       int
}

func (f *fakeWriter) Write(_ context.Context, key string, data []byte, contentType string) error {
	f.key = key
	f.data = data
	f.contentType = contentType
	f.calls++
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestArchiveBatchWritesJSONL(t *testing.T) {
	fw := &fakeWriter{}
	a := NewArchiver(fw, "opportunities", testLogger())
	a.now = func() time.Time {
		return time.Date(2026, 8, 29, 15, 30, 0, 0, time.UTC)
	}

	recs := []domain.OpportunityRecord{
		{ID: "a", Kind: domain.KindYesNoImbalance, MarketIDs: []string{"m1"}, ProfitPct: 2.5},
		{ID: "b", Kind: domain.KindCrossMarket, MarketIDs: []string{"m1", "m2"}, ProfitPct: 4.0},
	}

	require.NoError(t, a.ArchiveBatch(context.Background(), recs))
	assert.Equal(t, "opportunities/2026/08/29/opportunities-153000.jsonl", fw.key)
	assert.Equal(t, "application/x-ndjson", fw.contentType)

	lines := strings.Split(strings.TrimSpace(string(fw.data)), "\n")
	require.Len(t, lines, 2)

	var first domain.OpportunityRecord
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "a", first.ID)
	assert.Equal(t, domain.KindYesNoImbalance, first.Kind)
}

func TestArchiveBatchEmptyIsNoop(t *testing.T) {
	fw := &fakeWriter{}
	a := NewArchiver(fw, "opportunities", testLogger())

	require.NoError(t, a.ArchiveBatch(context.Background(), nil))
	assert.Zero(t, fw.calls)
}

func TestArchiveBatchNoPrefix(t *testing.T) {
	fw := &fakeWriter{}
	a := NewArchiver(fw, "", testLogger())
	a.now = func() time.Time {
		return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	}

	require.NoError(t, a.ArchiveBatch(context.Background(), []domain.OpportunityRecord{{ID: "x"}}))
	assert.Equal(t, "2026/01/02/opportunities-030405.jsonl", fw.key)
}
