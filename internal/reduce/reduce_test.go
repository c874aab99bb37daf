package reduce

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"zipmarket/internal/domain"
)

func row(zip, period string, fields map[string]string) domain.MarketRow {
	t, err := time.Parse("2006-01-02", period)
	if err != nil {
		panic(err)
	}
	return domain.MarketRow{Zip: zip, PeriodEnd: t, Fields: fields}
}

func TestLatestKeepsMaxPeriodRegardlessOfOrder(t *testing.T) {
	t.Parallel()

	jan := row("78209", "2025-01-31", map[string]string{"homes_sold": "10"})
	feb := row("78209", "2025-02-28", map[string]string{"homes_sold": "12"})
	mar := row("78209", "2025-03-31", map[string]string{"homes_sold": "9"})

	permutations := [][]domain.MarketRow{
		{jan, feb, mar},
		{jan, mar, feb},
		{mar, feb, jan},
		{feb, jan, mar},
	}

	for _, perm := range permutations {
		l := NewLatest()
		for _, r := range perm {
			l.Add(r)
		}
		require.Equal(t, 1, l.Len())
		require.Equal(t, mar.PeriodEnd, l.Rows()["78209"].PeriodEnd)
		require.Equal(t, "9", l.Rows()["78209"].Fields["homes_sold"])
	}
}

func TestLatestChunkMergeMatchesSinglePass(t *testing.T) {
	t.Parallel()

	rows := []domain.MarketRow{
		row("78209", "2025-01-31", map[string]string{"homes_sold": "10"}),
		row("78212", "2025-03-31", map[string]string{"homes_sold": "4"}),
		row("78209", "2025-03-31", map[string]string{"homes_sold": "9"}),
		row("78212", "2025-02-28", map[string]string{"homes_sold": "6"}),
	}

	single := NewLatest()
	for _, r := range rows {
		single.Add(r)
	}

	chunkA := NewLatest()
	chunkA.Add(rows[0])
	chunkA.Add(rows[1])
	chunkB := NewLatest()
	chunkB.Add(rows[2])
	chunkB.Add(rows[3])

	ab := NewLatest()
	ab.Merge(chunkA)
	ab.Merge(chunkB)

	ba := NewLatest()
	ba.Merge(chunkB)
	ba.Merge(chunkA)

	require.Equal(t, single.Rows(), ab.Rows())
	require.Equal(t, single.Rows(), ba.Rows())
}

func TestLatestTieBreakPrefersFewerGaps(t *testing.T) {
	t.Parallel()

	sparse := row("78209", "2025-03-31", map[string]string{"homes_sold": "9", "inventory": ""})
	dense := row("78209", "2025-03-31", map[string]string{"homes_sold": "9", "inventory": "31"})

	l := NewLatest()
	l.Add(sparse)
	l.Add(dense)
	require.Equal(t, "31", l.Rows()["78209"].Fields["inventory"])

	// Same outcome when the dense row arrives first.
	l = NewLatest()
	l.Add(dense)
	l.Add(sparse)
	require.Equal(t, "31", l.Rows()["78209"].Fields["inventory"])
}

func TestLatestTieBreakKeepsIncumbentOnFullTie(t *testing.T) {
	t.Parallel()

	first := row("78209", "2025-03-31", map[string]string{"homes_sold": "9"})
	second := row("78209", "2025-03-31", map[string]string{"homes_sold": "11"})

	l := NewLatest()
	l.Add(first)
	l.Add(second)
	require.Equal(t, "9", l.Rows()["78209"].Fields["homes_sold"])
}
