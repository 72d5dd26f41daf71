package transform

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIdentityReturnsInputUnchanged(t *testing.T) {
	in := []byte{1, 2, 3, 4}
	out := Identity{}.Process(in, PriorityLow)
	require.Equal(t, in, out)
}

func TestDelayWaitsBeforeDelegating(t *testing.T) {
	d := Delay{Wait: 20 * time.Millisecond, Inner: Identity{}}
	start := time.Now()
	out := d.Process([]byte("x"), PriorityHigh)
	require.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	require.Equal(t, []byte("x"), out)
}

func TestDelayWithoutInnerReturnsInput(t *testing.T) {
	d := Delay{Wait: time.Millisecond}
	out := d.Process([]byte("y"), PriorityLow)
	require.Equal(t, []byte("y"), out)
}
