package executor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/polyarb/arbot/internal/domain"
)

func TestDedupSuppressesWithinTTL(t *testing.T) {
	d := NewDedup(time.Minute)

	assert.False(t, d.IsDuplicate("k"))
	assert.True(t, d.IsDuplicate("k"))
	assert.False(t, d.IsDuplicate("other"))
}

func TestDedupExpires(t *testing.T) {
	d := NewDedup(10 * time.Millisecond)

	assert.False(t, d.IsDuplicate("k"))
	time.Sleep(20 * time.Millisecond)
	assert.False(t, d.IsDuplicate("k"))
}

func TestDedupCleanup(t *testing.T) {
	d := NewDedup(10 * time.Millisecond)
	d.IsDuplicate("a")
	d.IsDuplicate("b")

	time.Sleep(20 * time.Millisecond)
	d.Cleanup()
	assert.Empty(t, d.seen)
}

func TestOpportunityKeyIgnoresPrices(t *testing.T) {
	a := domain.ImbalanceOpportunity{
		Market:   domain.Snapshot{MarketID: "mkt-1"},
		YesPrice: 0.48,
	}
	b := domain.ImbalanceOpportunity{
		Market:   domain.Snapshot{MarketID: "mkt-1"},
		YesPrice: 0.47, // quote moved, same mispricing
	}
	assert.Equal(t, OpportunityKey(a), OpportunityKey(b))

	c := domain.CrossMarketOpportunity{
		BuyMarket:  domain.Snapshot{MarketID: "mkt-1"},
		SellMarket: domain.Snapshot{MarketID: "mkt-2"},
	}
	assert.NotEqual(t, OpportunityKey(a), OpportunityKey(c))
	assert.Equal(t, "cross_market:mkt-1,mkt-2", OpportunityKey(c))
}
