package polymarket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polyarb/arbot/internal/domain"
)

func TestSnapshotsFiltersAndConverts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "true", r.URL.Query().Get("active"))
		assert.Equal(t, "politics", r.URL.Query().Get("tag"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"id":"m1","question":"A?","active":true,"closed":false,
			 "outcomes":"[\"Yes\",\"No\"]","outcomePrices":"[\"0.40\",\"0.60\"]"},
			{"id":"m2","question":"B?","active":true,"closed":true,
			 "outcomes":"[\"Yes\",\"No\"]","outcomePrices":"[\"0.50\",\"0.50\"]"},
			{"id":"m3","question":"C?","active":true,"closed":false,
			 "outcomes":"[\"A\",\"B\",\"C\"]","outcomePrices":"[\"0.3\",\"0.3\",\"0.4\"]"}
		]`))
	}))
	defer srv.Close()

	client := NewGammaClient(srv.URL, nil)

	snaps, err := client.Snapshots(context.Background(), "politics", 10)
	require.NoError(t, err)

	// m2 is closed, m3 is not binary.
	require.Len(t, snaps, 1)
	assert.Equal(t, "m1", snaps[0].MarketID)
	assert.Equal(t, 0.40, snaps[0].YesPrice)
}

func TestSnapshotsHonorsLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"id":"m1","active":true,"outcomes":"[\"Yes\",\"No\"]","outcomePrices":"[\"0.5\",\"0.5\"]"},
			{"id":"m2","active":true,"outcomes":"[\"Yes\",\"No\"]","outcomePrices":"[\"0.5\",\"0.5\"]"},
			{"id":"m3","active":true,"outcomes":"[\"Yes\",\"No\"]","outcomePrices":"[\"0.5\",\"0.5\"]"}
		]`))
	}))
	defer srv.Close()

	client := NewGammaClient(srv.URL, nil)

	snaps, err := client.Snapshots(context.Background(), "", 2)
	require.NoError(t, err)
	assert.Len(t, snaps, 2)
}

func TestSnapshotsRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewGammaClient(srv.URL, nil)

	_, err := client.Snapshots(context.Background(), "", 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRateLimited)
}

func TestSnapshotsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewGammaClient(srv.URL, nil)

	_, err := client.Snapshots(context.Background(), "", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}
