package browser

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScrollUntilStableStopsOnFirstStableProbe(t *testing.T) {
	probes := 0
	scrolls := 0

	// Listing is fully loaded: the count never grows past the initial probe.
	probe := func() (int, error) {
		probes++
		return 12, nil
	}
	scroll := func() error {
		scrolls++
		return nil
	}

	count, err := scrollUntilStable(probe, scroll, func() {}, 10, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 12, count)
	assert.Equal(t, 2, probes, "initial probe plus one stability check")
	assert.Equal(t, 1, scrolls, "no extra scroll attempts after a stable probe")
}

func TestScrollUntilStableFollowsGrowth(t *testing.T) {
	counts := []int{0, 10, 20, 20}
	probes := 0
	probe := func() (int, error) {
		c := counts[probes]
		probes++
		return c, nil
	}
	scrolls := 0
	scroll := func() error {
		scrolls++
		return nil
	}

	count, err := scrollUntilStable(probe, scroll, func() {}, 10, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 20, count)
	assert.Equal(t, 3, scrolls)
}

func TestScrollUntilStableRespectsMaxScrolls(t *testing.T) {
	n := 0
	probe := func() (int, error) {
		n += 5
		return n, nil
	}
	scrolls := 0
	scroll := func() error {
		scrolls++
		return nil
	}

	count, err := scrollUntilStable(probe, scroll, func() {}, 3, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 3, scrolls)
	assert.Equal(t, 20, count)
}

func TestScrollUntilStableReturnsLastCountOnScrollError(t *testing.T) {
	probe := func() (int, error) { return 7, nil }
	scroll := func() error { return errors.New("page detached") }

	count, err := scrollUntilStable(probe, scroll, func() {}, 5, time.Millisecond)
	assert.Error(t, err)
	assert.Equal(t, 7, count)
}
