package ai

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StudyBoard/internal/state"
)

func TestLayoutCentresCards(t *testing.T) {
	l := Layout{Width: 100, Height: 50, Spacing: 20}
	pos := l.Positions(3, state.Point{X: 0, Y: 0})
	require.Len(t, pos, 3)
	// Total width 340, so the row spans -170..170.
	assert.Equal(t, state.Point{X: -170, Y: -25}, pos[0])
	assert.Equal(t, state.Point{X: -50, Y: -25}, pos[1])
	assert.Equal(t, state.Point{X: 70, Y: -25}, pos[2])
	assert.Nil(t, l.Positions(0, state.Point{}))
}

func TestNamespacesAreDistinct(t *testing.T) {
	a, b := NewNamespace(), NewNamespace()
	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(a, NamespacePrefix))
	assert.False(t, strings.HasPrefix(a, b) || strings.HasPrefix(b, a))
}

func TestMergeCardsUpdatesInPlace(t *testing.T) {
	b := state.NewBoard()
	m := NewMerger(b, DefaultLayout, func() state.Point { return state.Point{X: 500, Y: 400} })
	ns := NewNamespace()

	require.NoError(t, m.MergeCards(ns, "generated", []GeneratedCard{{ID: "a", Title: "A"}}))
	require.NoError(t, m.MergeCards(ns, "generated", []GeneratedCard{{ID: "a", Title: "A2"}, {ID: "b", Title: "B"}}))

	cards := b.CardsInNamespace(ns)
	require.Len(t, cards, 2)
	assert.Equal(t, DeriveID(ns, "a"), cards[0].ID)
	assert.Equal(t, "A2", cards[0].Title)
	assert.Equal(t, "generated", cards[0].Kind)
	assert.Less(t, cards[0].X, cards[1].X)
}

func TestMergeCardsFillsMissingIDs(t *testing.T) {
	b := state.NewBoard()
	m := NewMerger(b, DefaultLayout, nil)
	ns := NewNamespace()
	require.NoError(t, m.MergeCards(ns, "x", []GeneratedCard{{Title: "one"}, {Title: "two"}, {ID: "card-0", Title: "dup"}}))
	assert.Len(t, b.CardsInNamespace(ns), 3)
}

func TestFallbackIDsAvoidRealIDs(t *testing.T) {
	b := state.NewBoard()
	m := NewMerger(b, DefaultLayout, nil)

	ns := NewNamespace()
	require.NoError(t, m.MergeCards(ns, "x", []GeneratedCard{{ID: "card-1", Title: "real"}, {Title: "anon"}, {Title: "anon2"}}))
	cards := b.CardsInNamespace(ns)
	require.Len(t, cards, 3)
	assert.Equal(t, DeriveID(ns, "card-1"), cards[0].ID)
	assert.Equal(t, "real", cards[0].Title)

	ns = NewNamespace()
	require.NoError(t, m.MergeCards(ns, "x", []GeneratedCard{{Title: "anon"}, {ID: "card-0", Title: "real"}, {ID: "card-0", Title: "copy"}}))
	cards = b.CardsInNamespace(ns)
	require.Len(t, cards, 3)
	titles := map[string]string{}
	for _, c := range cards {
		titles[c.ID] = c.Title
	}
	assert.Equal(t, "real", titles[DeriveID(ns, "card-0")])
}

func TestMergeTextIsSingleCard(t *testing.T) {
	b := state.NewBoard()
	m := NewMerger(b, DefaultLayout, nil)
	ns := NewNamespace()
	require.NoError(t, m.MergeText(ns, "summarize", "Summary", "par"))
	require.NoError(t, m.MergeText(ns, "summarize", "Summary", "partial text"))
	cards := b.CardsInNamespace(ns)
	require.Len(t, cards, 1)
	assert.Equal(t, "partial text", cards[0].Content)
	assert.Equal(t, "Summary", cards[0].Title)
}
