package fsrs

import (
	"testing"
	"time"

	"github.com/phrazzld/vocab-review/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTime(t *testing.T) {
	t.Parallel()

	want := time.Date(2025, 1, 18, 14, 0, 0, 0, time.UTC)
	for _, in := range []string{
		"2025-01-18T14:00:00Z",
		"2025-01-18T14:00:00+00:00",
		"2025-01-18T15:00:00+01:00",
		"2025-01-18T14:00:00",
		"2025-01-18T14:00:00.000000",
		"2025-01-18 14:00:00",
	} {
		got, err := parseTime(in)
		require.NoError(t, err, in)
		assert.True(t, got.Equal(want), "%s parsed as %v", in, got)
		assert.Equal(t, time.UTC, got.Location(), in)
	}

	_, err := parseTime("")
	assert.Error(t, err)
	_, err = parseTime("yesterday")
	assert.Error(t, err)
}

func TestToWire_ReviewedCard(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("CET", 3600)
	last := time.Date(2025, 1, 15, 11, 30, 0, 0, loc)
	d := 5.0
	w := toWire(domain.CardState{
		Difficulty: &d,
		DueAt:      time.Date(2025, 1, 18, 11, 30, 0, 0, loc),
		State:      domain.CardStatusReview,
		LastReview: &last,
		Reps:       2,
	})

	require.NotNil(t, w.Due)
	assert.Equal(t, "2025-01-18T10:30:00Z", *w.Due)
	require.NotNil(t, w.LastReview)
	assert.Equal(t, "2025-01-15T10:30:00Z", *w.LastReview)
	assert.Equal(t, "REVIEW", w.State)
	require.NotNil(t, w.Step)
	assert.Equal(t, 2, *w.Step)
	assert.Nil(t, w.Stability)
}

func TestFromWire_RequiresDueAndLastReview(t *testing.T) {
	t.Parallel()

	due := "2025-01-21T14:00:00Z"
	_, err := fromWire(wireCard{State: "Review", Due: &due}, domain.CardState{})
	assert.Error(t, err)

	last := "2025-01-18T14:00:00Z"
	_, err = fromWire(wireCard{State: "Review", LastReview: &last}, domain.CardState{})
	assert.Error(t, err)

	card, err := fromWire(wireCard{State: "learning", Due: &due, LastReview: &last}, domain.CardState{Reps: 6})
	require.NoError(t, err)
	assert.Equal(t, domain.CardStatusLearning, card.State)
	assert.Equal(t, 7, card.Reps)
}
