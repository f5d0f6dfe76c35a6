package bot

import "github.com/borglike/bot/internal/world"

// Grid buffers are flat arrays indexed y*w+x, re-used across ticks. They are
// sized lazily on first use and re-sized only when the level dimensions
// change, so the per-tick hot paths never allocate.

// DangerGrid is a per-tile threat field.
type DangerGrid struct {
	W, H  int
	Cells []int16
}

// Resize re-shapes the grid and zeroes it.
func (g *DangerGrid) Resize(w, h int) {
	n := w * h
	if cap(g.Cells) < n {
		g.Cells = make([]int16, n)
	}
	g.Cells = g.Cells[:n]
	g.W, g.H = w, h
	for i := range g.Cells {
		g.Cells[i] = 0
	}
}

// At returns the danger at (x, y), or 0 outside the grid.
func (g *DangerGrid) At(x, y int) int {
	if x < 0 || y < 0 || x >= g.W || y >= g.H {
		return 0
	}
	return int(g.Cells[y*g.W+x])
}

// AtPoint returns the danger at p.
func (g *DangerGrid) AtPoint(p world.Point) int { return g.At(p.X, p.Y) }

func (g *DangerGrid) add(x, y, v int) {
	i := y*g.W + x
	nv := int(g.Cells[i]) + v
	if nv > 32000 {
		nv = 32000
	}
	g.Cells[i] = int16(nv)
}

// Flow field sentinels.
const (
	flowMax         = 254
	FlowUnreachable = 255
)

// FlowGrid is a shortest-path cost field from one or more sources.
// 255 marks unreachable tiles; reachable costs saturate at 254.
type FlowGrid struct {
	W, H  int
	Cells []uint8
}

// Resize re-shapes the grid and fills it with the unreachable sentinel.
func (g *FlowGrid) Resize(w, h int) {
	n := w * h
	if cap(g.Cells) < n {
		g.Cells = make([]uint8, n)
	}
	g.Cells = g.Cells[:n]
	g.W, g.H = w, h
	for i := range g.Cells {
		g.Cells[i] = FlowUnreachable
	}
}

// At returns the flow cost at (x, y), or FlowUnreachable outside the grid.
func (g *FlowGrid) At(x, y int) int {
	if x < 0 || y < 0 || x >= g.W || y >= g.H {
		return FlowUnreachable
	}
	return int(g.Cells[y*g.W+x])
}

// AtPoint returns the flow cost at p.
func (g *FlowGrid) AtPoint(p world.Point) int { return g.At(p.X, p.Y) }

// SeenGrid tracks tiles seen during the current level visit. The count field
// mirrors the number of set cells at all times.
type SeenGrid struct {
	W, H  int
	cells []bool
	count int
}

// Reset re-shapes the grid and clears it.
func (g *SeenGrid) Reset(w, h int) {
	n := w * h
	if cap(g.cells) < n {
		g.cells = make([]bool, n)
	}
	g.cells = g.cells[:n]
	g.W, g.H = w, h
	for i := range g.cells {
		g.cells[i] = false
	}
	g.count = 0
}

// Add marks (x, y) seen this visit.
func (g *SeenGrid) Add(x, y int) {
	if x < 0 || y < 0 || x >= g.W || y >= g.H {
		return
	}
	i := y*g.W + x
	if !g.cells[i] {
		g.cells[i] = true
		g.count++
	}
}

// Has reports whether (x, y) was seen this visit.
func (g *SeenGrid) Has(x, y int) bool {
	if x < 0 || y < 0 || x >= g.W || y >= g.H {
		return false
	}
	return g.cells[y*g.W+x]
}

// Count returns the number of seen cells.
func (g *SeenGrid) Count() int { return g.count }

// bfsCell is one pending BFS expansion.
type bfsCell struct {
	x, y uint16
	cost uint8
}

// bfsQueue is a pre-allocated circular FIFO sized to the level area. The BFS
// never enqueues a tile twice, so capacity w*h cannot overflow.
type bfsQueue struct {
	buf        []bfsCell
	head, tail int
	size       int
}

func (q *bfsQueue) ensure(n int) {
	if cap(q.buf) < n {
		q.buf = make([]bfsCell, n)
	}
	q.buf = q.buf[:n]
	q.head, q.tail, q.size = 0, 0, 0
}

func (q *bfsQueue) push(c bfsCell) {
	if q.size == len(q.buf) {
		return
	}
	q.buf[q.tail] = c
	q.tail++
	if q.tail == len(q.buf) {
		q.tail = 0
	}
	q.size++
}

func (q *bfsQueue) pop() (bfsCell, bool) {
	if q.size == 0 {
		return bfsCell{}, false
	}
	c := q.buf[q.head]
	q.head++
	if q.head == len(q.buf) {
		q.head = 0
	}
	q.size--
	return c, true
}
