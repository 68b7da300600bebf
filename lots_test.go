package lotbook

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kmenon/lotbook/date"
)

func TestReplayLotsAppliesSplit(t *testing.T) {
	l := newTestLedger(t, equity("rel"))
	buy(t, l, "rel", date.New(2023, time.January, 10), 10, 300)
	require.NoError(t, newTestActions(t, l).ApplySplit(
		NewSplit(testPortfolio, "rel", date.New(2023, time.May, 1), 3, 1)))

	lots := AvailableLots(l, "rel", date.New(2023, time.June, 1))
	require.Len(t, lots, 1)
	requireQty(t, 30, lots[0].Available)
	requireAmount(t, 100, lots[0].UnitCost)
}

// Split consideration invariance: quantity × unit cost is the same before
// and after the split, and a replay dated before the split sees the
// original units.
func TestSplitConsiderationInvariance(t *testing.T) {
	l := newTestLedger(t, equity("rel"))
	buy(t, l, "rel", date.New(2023, time.January, 10), 10, 300)
	require.NoError(t, newTestActions(t, l).ApplySplit(
		NewSplit(testPortfolio, "rel", date.New(2023, time.May, 1), 5, 1)))

	before := AvailableLots(l, "rel", date.New(2023, time.April, 30))
	after := AvailableLots(l, "rel", date.New(2023, time.May, 1))
	require.Len(t, before, 1)
	require.Len(t, after, 1)
	requireQty(t, 10, before[0].Available)
	requireQty(t, 50, after[0].Available)
	require.True(t, before[0].UnitCost.Mul(before[0].Available).
		Equal(after[0].UnitCost.Mul(after[0].Available)))
}

func TestReplayLotsSellBeforeAndAfterSplit(t *testing.T) {
	l := newTestLedger(t, equity("rel"))
	buy(t, l, "rel", date.New(2023, time.January, 10), 10, 300)
	sale(t, l, "rel", date.New(2023, time.March, 1), 4, 350)
	require.NoError(t, newTestActions(t, l).ApplySplit(
		NewSplit(testPortfolio, "rel", date.New(2023, time.May, 1), 2, 1)))
	sale(t, l, "rel", date.New(2023, time.June, 1), 2, 180)

	// 10 bought, 4 sold pre-split (6 left), doubled to 12, 2 sold
	lots := AvailableLots(l, "rel", date.New(2023, time.December, 31))
	require.Len(t, lots, 1)
	requireQty(t, 10, lots[0].Available)
	requireAmount(t, 150, lots[0].UnitCost)
}

func TestFifoConsumeSameDayLast(t *testing.T) {
	open := []Lot{
		{AcquiredOn: date.New(2023, time.June, 1), Available: Q(5)}, // same day as the sell
		{AcquiredOn: date.New(2023, time.January, 1), Available: Q(3)},
	}
	rest := fifoConsume(open, Q(6), date.New(2023, time.June, 1))
	requireQty(t, 0, rest)
	requireQty(t, 0, open[1].Available) // dated lot drained first
	requireQty(t, 2, open[0].Available)
}

func TestReplayLotsRetiredByMerger(t *testing.T) {
	l := newTestLedger(t, equity("old"), equity("new"))
	buy(t, l, "old", date.New(2023, time.January, 10), 10, 100)
	require.NoError(t, newTestActions(t, l).ApplyMerger(
		NewMerger(testPortfolio, "old", "new", date.New(2023, time.May, 1), 1, 2)))

	assert.Empty(t, AvailableLots(l, "old", date.New(2023, time.June, 1)))

	lots := AvailableLots(l, "new", date.New(2023, time.June, 1))
	require.Len(t, lots, 1)
	requireQty(t, 5, lots[0].Available)
	requireAmount(t, 200, lots[0].UnitCost)
	// holding period carries over
	assert.Equal(t, date.New(2023, time.January, 10), lots[0].AcquiredOn)
}
