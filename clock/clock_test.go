package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/decred/walletkernel/types"
)

func TestManualAdvance(t *testing.T) {
	start := time.Unix(1000, 0)
	m := NewManual(start)
	require.Equal(t, start, m.Now())

	m.Advance(5 * time.Second)
	require.Equal(t, start.Add(5*time.Second), m.Now())
}

func TestManualSet(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	later := time.Unix(100, 0)
	m.Set(later)
	require.Equal(t, later, m.Now())
}

func TestBlockTimestampOf(t *testing.T) {
	ts := time.Unix(42, 0)
	block := types.ResolvedBlock{Meta: types.Meta{Timestamp: ts}}
	require.Equal(t, ts, BlockTimestampOf(block))
}

func TestRealNowAdvances(t *testing.T) {
	r := Real{}
	first := r.Now()
	time.Sleep(time.Millisecond)
	require.True(t, r.Now().After(first) || r.Now().Equal(first))
}
