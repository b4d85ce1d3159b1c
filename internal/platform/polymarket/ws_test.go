package polymarket

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNextReconnectDelay(t *testing.T) {
	// first disconnect starts at the base delay
	d := nextReconnectDelay(0, time.Second)
	assert.Equal(t, reconnectDelay, d)

	// rapid failures double up to the cap and stay there
	d = nextReconnectDelay(d, time.Second)
	assert.Equal(t, 2*reconnectDelay, d)
	for i := 0; i < 10; i++ {
		d = nextReconnectDelay(d, time.Second)
	}
	assert.Equal(t, maxReconnectDelay, d)

	// a long-lived connection resets the backoff to the base delay
	d = nextReconnectDelay(d, 5*time.Minute)
	assert.Equal(t, reconnectDelay, d)
}
