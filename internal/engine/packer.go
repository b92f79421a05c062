package engine

import (
	"github.com/piwi3910/hypernest/internal/geometry"
)

// packEps is the slack allowed when fitting a box into a free rectangle.
const packEps = geometry.Zeroish

// rectPacker implements maximal-rectangles bin packing on one sheet slot.
// It maintains a list of free rectangles and splits them on each insertion.
// Every occupied box is grown by the kerf on its right and top side so that
// neighbours keep the part-to-part spacing.
type rectPacker struct {
	freeRects []rect
	kerf      float64
}

type rect struct {
	x, y, w, h float64
}

// newRectPacker creates a packer for the inset of a slot. The free area
// extends one kerf past the inset so the last part in a row can touch the
// inset edge.
func newRectPacker(inset geometry.BBox, kerf float64) *rectPacker {
	return &rectPacker{
		freeRects: []rect{{inset.Min.X, inset.Min.Y, inset.Width() + kerf, inset.Height() + kerf}},
		kerf:      kerf,
	}
}

// insert tries to place a box of the given dimensions. Returns success and
// the lower-left position. Uses the Best Area Fit heuristic, ties broken by
// the lowest then leftmost position.
func (rp *rectPacker) insert(w, h float64) (bool, float64, float64) {
	bestIdx := -1
	bestAreaFit := float64(-1)
	wk := w + rp.kerf
	hk := h + rp.kerf

	for i, r := range rp.freeRects {
		if wk <= r.w+packEps && hk <= r.h+packEps {
			areaFit := (r.w * r.h) - (w * h)
			if bestIdx < 0 || areaFit < bestAreaFit ||
				(areaFit == bestAreaFit && lowerLeft(r, rp.freeRects[bestIdx])) {
				bestIdx = i
				bestAreaFit = areaFit
			}
		}
	}

	if bestIdx < 0 {
		return false, 0, 0
	}

	chosen := rp.freeRects[bestIdx]
	rp.splitAroundPlacement(rect{x: chosen.x, y: chosen.y, w: wk, h: hk})
	return true, chosen.x, chosen.y
}

// occupy marks an already placed box as used.
func (rp *rectPacker) occupy(b geometry.BBox) {
	rp.splitAroundPlacement(rect{x: b.Min.X, y: b.Min.Y, w: b.Width() + rp.kerf, h: b.Height() + rp.kerf})
}

func lowerLeft(a, b rect) bool {
	if a.y != b.y {
		return a.y < b.y
	}
	return a.x < b.x
}

// splitAroundPlacement removes all free rects that overlap with the placed rect
// and generates maximal sub-rects from each overlap. Then prunes contained rects.
func (rp *rectPacker) splitAroundPlacement(placed rect) {
	var newRects []rect

	for _, r := range rp.freeRects {
		if !rectsOverlap(r, placed) {
			newRects = append(newRects, r)
			continue
		}

		// Left strip (full height of original rect)
		if placed.x > r.x+packEps {
			newRects = append(newRects, rect{
				x: r.x, y: r.y,
				w: placed.x - r.x, h: r.h,
			})
		}
		// Right strip (full height of original rect)
		if placed.x+placed.w < r.x+r.w-packEps {
			newRects = append(newRects, rect{
				x: placed.x + placed.w, y: r.y,
				w: (r.x + r.w) - (placed.x + placed.w), h: r.h,
			})
		}
		// Bottom strip (full width of original rect)
		if placed.y > r.y+packEps {
			newRects = append(newRects, rect{
				x: r.x, y: r.y,
				w: r.w, h: placed.y - r.y,
			})
		}
		// Top strip (full width of original rect)
		if placed.y+placed.h < r.y+r.h-packEps {
			newRects = append(newRects, rect{
				x: r.x, y: placed.y + placed.h,
				w: r.w, h: (r.y + r.h) - (placed.y + placed.h),
			})
		}
	}

	rp.freeRects = pruneContained(newRects)
}

// rectsOverlap returns true if two rectangles overlap (not just touch).
func rectsOverlap(a, b rect) bool {
	return a.x < b.x+b.w-packEps && a.x+a.w > b.x+packEps &&
		a.y < b.y+b.h-packEps && a.y+a.h > b.y+packEps
}

// pruneContained removes any rect that is fully contained within another.
// Of two identical rects the first is kept.
func pruneContained(rects []rect) []rect {
	if len(rects) <= 1 {
		return rects
	}
	kept := make([]rect, 0, len(rects))
	for i, a := range rects {
		contained := false
		for j, b := range rects {
			if i == j || !containsRect(b, a) {
				continue
			}
			if !containsRect(a, b) || j < i {
				contained = true
				break
			}
		}
		if !contained {
			kept = append(kept, a)
		}
	}
	return kept
}

// containsRect returns true if outer fully contains inner.
func containsRect(outer, inner rect) bool {
	return outer.x <= inner.x+packEps && outer.y <= inner.y+packEps &&
		outer.x+outer.w >= inner.x+inner.w-packEps &&
		outer.y+outer.h >= inner.y+inner.h-packEps
}

// placer positions instances by their rotated bounding boxes, trying slots
// in order. It backs Init, repair of crossover children and relocation of
// unplaced genes.
type placer struct {
	prob    *problem
	packers []*rectPacker // Per slot, created on first use
}

func newPlacer(prob *problem) *placer {
	return &placer{prob: prob, packers: make([]*rectPacker, len(prob.slots))}
}

func (pl *placer) packer(s int) *rectPacker {
	if pl.packers[s] == nil {
		pl.packers[s] = newRectPacker(pl.prob.slots[s].box, pl.prob.settings.Spacing.PartToPart)
	}
	return pl.packers[s]
}

// occupy reserves the area of a placed gene.
func (pl *placer) occupy(g gene) {
	if g.slot == unplacedSlot {
		return
	}
	box := pl.prob.shape(g.instance, g.angle).box.Translate(g.dx, g.dy)
	pl.packer(g.slot).occupy(box)
}

// place finds a position for inst, preferring angle and falling back to the
// instance's other allowed rotations. The returned gene is unplaced when
// nothing fits.
func (pl *placer) place(inst int, angle float64) gene {
	if g, ok := pl.placeAt(inst, angle); ok {
		return g
	}
	if !pl.prob.shareRotations {
		for _, alt := range pl.prob.instances[inst].rotations {
			if alt == angle {
				continue
			}
			if g, ok := pl.placeAt(inst, alt); ok {
				return g
			}
		}
	}
	return gene{instance: inst, angle: angle, slot: unplacedSlot}
}

func (pl *placer) placeAt(inst int, angle float64) (gene, bool) {
	box := pl.prob.shape(inst, angle).box
	for s := range pl.prob.slots {
		ok, x, y := pl.packer(s).insert(box.Width(), box.Height())
		if ok {
			return gene{
				instance: inst,
				angle:    angle,
				slot:     s,
				dx:       x - box.Min.X,
				dy:       y - box.Min.Y,
			}, true
		}
	}
	return gene{}, false
}
