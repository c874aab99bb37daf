package diff

import (
	"testing"

	"github.com/stretchr/testify/require"

	"zipmarket/internal/domain"
)

func TestCompareSelfIsUnchanged(t *testing.T) {
	t.Parallel()

	records := map[string]domain.Record{
		"78209": {"median_sale_price": 650000.0, "city": "Alamo Heights", "metro": nil},
		"78212": {"median_sale_price": 410000.0, "city": "San Antonio", "metro": nil},
	}

	res := Compare(records, records)
	require.True(t, res.Unchanged())
	require.Zero(t, res.ZipsChanged())
	require.Zero(t, res.DataPointsChanged)
}

func TestCompareCountsModifiedAndAdded(t *testing.T) {
	t.Parallel()

	old := map[string]domain.Record{
		"00001": {"x": 1.0},
	}
	new := map[string]domain.Record{
		"00001": {"x": 2.0},
		"00002": {"x": 1.0},
	}

	res := Compare(old, new)
	require.Equal(t, 1, res.ZipsModified)
	require.Equal(t, 1, res.ZipsAdded)
	require.Equal(t, 2, res.ZipsChanged())
	require.GreaterOrEqual(t, res.DataPointsChanged, 2)
}

func TestCompareCountsRemovals(t *testing.T) {
	t.Parallel()

	old := map[string]domain.Record{
		"00001": {"x": 1.0},
		"00002": {"x": 1.0},
	}
	new := map[string]domain.Record{
		"00001": {"x": 1.0},
	}

	res := Compare(old, new)
	require.Equal(t, 1, res.ZipsRemoved)
	require.Equal(t, 1, res.ZipsChanged())
	require.Zero(t, res.DataPointsChanged)
}

func TestCompareNewFieldInExistingZipCounts(t *testing.T) {
	t.Parallel()

	old := map[string]domain.Record{
		"78209": {"median_sale_price": 650000.0},
	}
	new := map[string]domain.Record{
		"78209": {"median_sale_price": 650000.0, "zhvi": 540000.0},
	}

	res := Compare(old, new)
	require.Equal(t, 1, res.ZipsModified)
	require.Equal(t, 1, res.DataPointsChanged)
}

func TestCompareNullTransitions(t *testing.T) {
	t.Parallel()

	old := map[string]domain.Record{
		"78209": {"inventory": nil, "homes_sold": 9.0},
	}
	new := map[string]domain.Record{
		"78209": {"inventory": 31.0, "homes_sold": nil},
	}

	res := Compare(old, new)
	require.Equal(t, 1, res.ZipsModified)
	require.Equal(t, 2, res.DataPointsChanged)
}

func TestCompareAddedZipCountsNonNullFields(t *testing.T) {
	t.Parallel()

	new := map[string]domain.Record{
		"78209": {"inventory": 31.0, "homes_sold": nil, "city": "Alamo Heights"},
	}

	res := Compare(map[string]domain.Record{}, new)
	require.Equal(t, 1, res.ZipsAdded)
	require.Equal(t, 2, res.DataPointsChanged)
}
