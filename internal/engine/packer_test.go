package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/hypernest/internal/geometry"
	"github.com/piwi3910/hypernest/internal/model"
)

func box(x, y, w, h float64) geometry.BBox {
	return geometry.BBox{Min: geometry.Pt(x, y), Max: geometry.Pt(x+w, y+h)}
}

func TestRectPacker_FirstInsertAtInsetCorner(t *testing.T) {
	rp := newRectPacker(box(5, 5, 100, 50), 2)
	ok, x, y := rp.insert(10, 10)
	require.True(t, ok)
	assert.Equal(t, 5.0, x)
	assert.Equal(t, 5.0, y)
}

func TestRectPacker_LastPartTouchesInsetEdge(t *testing.T) {
	// two 10 wide parts plus one kerf fill a 21 wide inset exactly
	rp := newRectPacker(box(0, 0, 21, 5), 1)

	ok, x, _ := rp.insert(10, 5)
	require.True(t, ok)
	assert.Equal(t, 0.0, x)

	ok, x, _ = rp.insert(10, 5)
	require.True(t, ok)
	assert.Equal(t, 11.0, x)

	ok, _, _ = rp.insert(1, 1)
	assert.False(t, ok, "inset is full")
}

func TestRectPacker_KeepsKerfBetweenParts(t *testing.T) {
	const kerf = 3.0
	rp := newRectPacker(box(0, 0, 100, 100), kerf)

	var placed []geometry.BBox
	for i := 0; i < 20; i++ {
		ok, x, y := rp.insert(17, 11)
		if !ok {
			break
		}
		placed = append(placed, box(x, y, 17, 11))
	}
	require.NotEmpty(t, placed)

	inset := box(0, 0, 100, 100)
	for i, a := range placed {
		assert.True(t, inset.ContainsBox(a), "box %d outside inset: %+v", i, a)
		for j := i + 1; j < len(placed); j++ {
			assert.False(t, a.Expand(kerf/2).Overlaps(placed[j].Expand(kerf/2)),
				"boxes %d and %d closer than kerf", i, j)
		}
	}
	// 5 columns need 5*17+4*3 = 97 <= 100, 7 rows need 7*11+6*3 = 95 <= 100
	assert.Len(t, placed, 20)
}

func TestRectPacker_Occupy(t *testing.T) {
	rp := newRectPacker(box(0, 0, 20, 10), 0)
	rp.occupy(box(0, 0, 10, 10))

	ok, x, y := rp.insert(10, 10)
	require.True(t, ok)
	assert.Equal(t, 10.0, x)
	assert.Equal(t, 0.0, y)

	ok, _, _ = rp.insert(10, 10)
	assert.False(t, ok)
}

func TestPruneContained_KeepsOneOfIdenticalRects(t *testing.T) {
	rects := pruneContained([]rect{{0, 0, 5, 5}, {0, 0, 5, 5}, {1, 1, 2, 2}})
	assert.Equal(t, []rect{{0, 0, 5, 5}}, rects)
}

func TestPlacer_FallsBackToOtherRotation(t *testing.T) {
	settings := testSettings()
	settings.Spacing = model.Spacing{}
	settings.RotationAngles = []float64{0, 90}
	prob := mustProblem(t,
		[]model.Part{rectPart("long", 20, 5, 1)},
		[]model.Sheet{{ID: "s", Name: "narrow", Width: 10, Height: 30, Quantity: 1}},
		settings)

	g := newPlacer(prob).place(0, 0)
	require.Equal(t, 0, g.slot)
	assert.Equal(t, 90.0, g.angle)
	assert.True(t, geometry.Contains(prob.slots[0].inset, prob.polygon(g)))
}

func TestPlacer_UsesNextSlotWhenFull(t *testing.T) {
	settings := testSettings()
	settings.Spacing = model.Spacing{}
	prob := mustProblem(t,
		[]model.Part{rectPart("square", 10, 10, 2)},
		[]model.Sheet{{ID: "s", Name: "tile", Width: 10, Height: 10, Quantity: 2}},
		settings)

	pl := newPlacer(prob)
	first := pl.place(0, 0)
	second := pl.place(1, 0)
	assert.Equal(t, 0, first.slot)
	assert.Equal(t, 1, second.slot)

	third := pl.place(1, 0)
	assert.Equal(t, unplacedSlot, third.slot)
}

func TestPlacer_TooLargeIsUnplaced(t *testing.T) {
	prob := mustProblem(t,
		[]model.Part{rectPart("huge", 100, 100, 1)},
		[]model.Sheet{{ID: "s", Name: "small", Width: 10, Height: 10, Quantity: 1}},
		testSettings())

	g := newPlacer(prob).place(0, 90)
	assert.Equal(t, unplacedSlot, g.slot)
	assert.Equal(t, 90.0, g.angle)
}
