package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransition(t *testing.T) {
	tests := []struct {
		from ReactionState
		p    Polarity
		want ReactionState
	}{
		{StateNone, PolarityLike, StateLiked},
		{StateNone, PolarityDislike, StateDisliked},
		{StateLiked, PolarityLike, StateNone},
		{StateLiked, PolarityDislike, StateDisliked},
		{StateDisliked, PolarityDislike, StateNone},
		{StateDisliked, PolarityLike, StateLiked},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s_%s", tt.from, tt.p), func(t *testing.T) {
			assert.Equal(t, tt.want, Transition(tt.from, tt.p))
		})
	}

	t.Run("same_polarity_twice_returns_to_none", func(t *testing.T) {
		for _, p := range []Polarity{PolarityLike, PolarityDislike} {
			s := Transition(Transition(StateNone, p), p)
			assert.Equal(t, StateNone, s)
		}
	})
}

func TestStatePolarityRoundTrip(t *testing.T) {
	assert.Equal(t, StateLiked, StateOf(StateLiked.Polarity()))
	assert.Equal(t, StateDisliked, StateOf(StateDisliked.Polarity()))
	assert.Equal(t, StateNone, StateOf(StateNone.Polarity()))
	assert.Equal(t, Polarity(""), StateNone.Polarity())
}

func TestParseTargetType(t *testing.T) {
	t.Run("accepts_known_types_case_insensitive", func(t *testing.T) {
		tt, err := ParseTargetType(" Comment ")
		require.NoError(t, err)
		assert.Equal(t, TargetComment, tt)
	})

	t.Run("rejects_unknown_type", func(t *testing.T) {
		_, err := ParseTargetType("playlist")
		require.Error(t, err)
		assert.Equal(t, CodeValidation, CodeOf(err))
	})
}

func TestParsePolarity(t *testing.T) {
	p, err := ParsePolarity("DISLIKE")
	require.NoError(t, err)
	assert.Equal(t, PolarityDislike, p)

	_, err = ParsePolarity("love")
	assert.Equal(t, CodeValidation, CodeOf(err))
}

func TestParseTimeRange(t *testing.T) {
	tr, err := ParseTimeRange("")
	require.NoError(t, err)
	assert.Equal(t, Range7d, tr)
	assert.Equal(t, 7*24*time.Hour, tr.Duration())

	tr, err = ParseTimeRange("1d")
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, tr.Duration())

	tr, err = ParseTimeRange("30D")
	require.NoError(t, err)
	assert.Equal(t, 30*24*time.Hour, tr.Duration())

	_, err = ParseTimeRange("2w")
	assert.Equal(t, CodeValidation, CodeOf(err))
}

func TestErrorHelpers(t *testing.T) {
	wrapped := fmt.Errorf("toggle: %w", ErrConflict)
	assert.True(t, IsConflict(wrapped))
	assert.False(t, IsRetryable(wrapped))

	assert.True(t, IsRetryable(ErrUnavailable("query timed out")))
	assert.Equal(t, ErrCode(""), CodeOf(errors.New("plain")))

	assert.Equal(t, "not_found: video not found", ErrNotFound("video not found").Error())
}
