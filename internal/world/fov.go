package world

// ComputeFOV recomputes the visible bitmap around origin with the given
// radius, marking everything visible as explored. Line of sight is a
// Bresenham walk that stops behind the first opaque tile.
func ComputeFOV(l *Level, origin Point, radius int) {
	l.ClearVisible()
	if radius <= 0 {
		return
	}
	if !l.InBounds(origin.X, origin.Y) {
		return
	}
	for y := origin.Y - radius; y <= origin.Y+radius; y++ {
		for x := origin.X - radius; x <= origin.X+radius; x++ {
			if !l.InBounds(x, y) {
				continue
			}
			if Chebyshev(origin, Point{X: x, Y: y}) > radius {
				continue
			}
			if lineOfSight(l, origin, Point{X: x, Y: y}) {
				l.Visible[l.Idx(x, y)] = true
				l.MarkExplored(x, y)
			}
		}
	}
}

// lineOfSight walks the Bresenham line from a to b; every intermediate tile
// must be transparent. The endpoints themselves do not block.
func lineOfSight(l *Level, a, b Point) bool {
	x0, y0 := a.X, a.Y
	x1, y1 := b.X, b.Y
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx := 1
	if x0 > x1 {
		sx = -1
	}
	sy := 1
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		if x0 == x1 && y0 == y1 {
			return true
		}
		if (x0 != a.X || y0 != a.Y) && l.TileAt(x0, y0).Opaque() {
			return false
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
