package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StudyBoard/internal/state"
)

func TestSegmentsSpanThePath(t *testing.T) {
	pts := []state.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 20, Y: 10}, {X: 30, Y: 10}}
	segs := Segments(pts)
	require.Len(t, segs, 3)
	assert.Equal(t, pts[0], segs[0].From)
	assert.Equal(t, pts[3], segs[2].To)
	for i := 1; i < len(segs); i++ {
		assert.Equal(t, segs[i-1].To, segs[i].From)
	}
	assert.Nil(t, Segments(pts[:1]))
}

func TestLiveSegmentMatchesReplay(t *testing.T) {
	pts := []state.Point{{X: 0, Y: 0}, {X: 4, Y: 8}, {X: 9, Y: 3}, {X: 15, Y: 15}, {X: 20, Y: 2}}
	full := Segments(pts)
	for k := 3; k <= len(pts); k++ {
		seg, ok := LiveSegment(pts[:k])
		require.True(t, ok)
		assert.Equal(t, full[k-3], seg, "k=%d", k)
	}

	_, ok := LiveSegment(pts[:1])
	assert.False(t, ok)
	seg, ok := LiveSegment(pts[:2])
	require.True(t, ok)
	assert.Equal(t, pts[0], seg.From)
}
