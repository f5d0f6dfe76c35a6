package world

import "math/rand"

// Level generators for the sim world. Layout fidelity is not the point —
// they exist to exercise the agent against the three topologies it
// distinguishes (rooms, caverns, labyrinths) plus the fixed town.

const (
	dungeonWidth  = 80
	dungeonHeight = 40
)

// GenerateLevel builds one dungeon floor. The generator type cycles by
// depth: every 5th floor is a cavern, every 7th a labyrinth, rooms
// otherwise (labyrinth wins ties).
func GenerateLevel(rng *rand.Rand, depth int) *Level {
	gen := GenClassic
	switch {
	case depth > 1 && depth%7 == 0:
		gen = GenLabyrinth
	case depth > 1 && depth%5 == 0:
		gen = GenCavern
	}
	var l *Level
	switch gen {
	case GenCavern:
		l = generateCavern(rng, depth)
	case GenLabyrinth:
		l = generateLabyrinth(rng, depth)
	default:
		l = generateClassic(rng, depth)
	}
	placeStairs(rng, l, depth)
	return l
}

func generateClassic(rng *rand.Rand, depth int) *Level {
	l := NewLevel(dungeonWidth, dungeonHeight, depth, GenClassic)

	type room struct{ x, y, w, h int }
	var rooms []room
	attempts := 40
	for i := 0; i < attempts; i++ {
		w := 4 + rng.Intn(8)
		h := 3 + rng.Intn(5)
		x := 1 + rng.Intn(dungeonWidth-w-2)
		y := 1 + rng.Intn(dungeonHeight-h-2)
		overlaps := false
		for _, r := range rooms {
			if x < r.x+r.w+1 && x+w+1 > r.x && y < r.y+r.h+1 && y+h+1 > r.y {
				overlaps = true
				break
			}
		}
		if overlaps {
			continue
		}
		for yy := y; yy < y+h; yy++ {
			for xx := x; xx < x+w; xx++ {
				l.SetTile(xx, yy, TileFloor)
			}
		}
		rooms = append(rooms, room{x, y, w, h})
	}

	// L-corridors between consecutive room centres, with the odd door.
	for i := 1; i < len(rooms); i++ {
		ax, ay := rooms[i-1].x+rooms[i-1].w/2, rooms[i-1].y+rooms[i-1].h/2
		bx, by := rooms[i].x+rooms[i].w/2, rooms[i].y+rooms[i].h/2
		x, y := ax, ay
		for x != bx {
			carveCorridor(l, x, y, rng)
			x += sign(bx - x)
		}
		for y != by {
			carveCorridor(l, x, y, rng)
			y += sign(by - y)
		}
	}
	return l
}

func carveCorridor(l *Level, x, y int, rng *rand.Rand) {
	if l.TileAt(x, y) == TileWall {
		if rng.Intn(20) == 0 {
			l.SetTile(x, y, TileDoorClosed)
		} else {
			l.SetTile(x, y, TileFloor)
		}
	}
}

func generateCavern(rng *rand.Rand, depth int) *Level {
	l := NewLevel(dungeonWidth, dungeonHeight, depth, GenCavern)
	// Drunkard's walk from the centre until ~40% of the grid is open.
	x, y := dungeonWidth/2, dungeonHeight/2
	target := dungeonWidth * dungeonHeight * 2 / 5
	carved := 0
	for carved < target {
		if l.TileAt(x, y) == TileWall {
			l.SetTile(x, y, TileFloor)
			carved++
		}
		switch rng.Intn(4) {
		case 0:
			x++
		case 1:
			x--
		case 2:
			y++
		default:
			y--
		}
		if x < 1 {
			x = 1
		}
		if x > dungeonWidth-2 {
			x = dungeonWidth - 2
		}
		if y < 1 {
			y = 1
		}
		if y > dungeonHeight-2 {
			y = dungeonHeight - 2
		}
	}
	return l
}

func generateLabyrinth(rng *rand.Rand, depth int) *Level {
	l := NewLevel(dungeonWidth, dungeonHeight, depth, GenLabyrinth)
	// Recursive backtracker on the odd lattice.
	type cell struct{ x, y int }
	start := cell{1, 1}
	l.SetTile(start.x, start.y, TileFloor)
	stack := []cell{start}
	dirs := [4][2]int{{2, 0}, {-2, 0}, {0, 2}, {0, -2}}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		perm := rng.Perm(4)
		carvedAny := false
		for _, pi := range perm {
			d := dirs[pi]
			nx, ny := cur.x+d[0], cur.y+d[1]
			if nx < 1 || ny < 1 || nx >= dungeonWidth-1 || ny >= dungeonHeight-1 {
				continue
			}
			if l.TileAt(nx, ny) != TileWall {
				continue
			}
			l.SetTile(cur.x+d[0]/2, cur.y+d[1]/2, TileFloor)
			l.SetTile(nx, ny, TileFloor)
			stack = append(stack, cell{nx, ny})
			carvedAny = true
			break
		}
		if !carvedAny {
			stack = stack[:len(stack)-1]
		}
	}
	return l
}

// placeStairs drops stairs up and down on distant open tiles. Depth 50 has
// no way further down.
func placeStairs(rng *rand.Rand, l *Level, depth int) {
	up := FindOpenPosition(rng, l)
	l.SetTile(up.X, up.Y, TileStairsUp)
	l.StairsUp = &up
	if depth < 50 {
		for i := 0; i < 200; i++ {
			down := FindOpenPosition(rng, l)
			if Chebyshev(up, down) > 15 || i == 199 {
				l.SetTile(down.X, down.Y, TileStairsDown)
				l.StairsDown = &down
				break
			}
		}
	}
}

// FindOpenPosition returns a random plain floor tile.
func FindOpenPosition(rng *rand.Rand, l *Level) Point {
	for i := 0; i < 10000; i++ {
		x := rng.Intn(l.Width)
		y := rng.Intn(l.Height)
		if l.TileAt(x, y) == TileFloor {
			return Point{X: x, Y: y}
		}
	}
	// Degenerate map: first passable tile wins.
	for y := 0; y < l.Height; y++ {
		for x := 0; x < l.Width; x++ {
			if l.IsPassable(x, y) {
				return Point{X: x, Y: y}
			}
		}
	}
	return Point{}
}

// GenerateTown builds the fixed depth-0 town: a grass field with shop
// counters, a healer, fountain, altar and the dungeon entrance.
func GenerateTown() *Level {
	const w, h = 40, 24
	l := NewLevel(w, h, 0, GenClassic)
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			l.SetTile(x, y, TileGrass)
		}
	}
	// A few trees for texture.
	for i := 0; i < 14; i++ {
		l.SetTile(3+(i*7)%(w-6), 3+(i*5)%(h-6), TileTree)
	}
	l.SetTile(8, 5, TileShopWeapon)
	l.SetTile(14, 5, TileShopArmor)
	l.SetTile(20, 5, TileShopAlchemy)
	l.SetTile(26, 5, TileShopGeneral)
	l.SetTile(12, 12, TileHealer)
	l.SetTile(20, 12, TileFountainActive)
	l.SetTile(28, 12, TileAltar)
	entrance := Point{X: w / 2, Y: h - 3}
	l.SetTile(entrance.X, entrance.Y, TileDungeonEntrance)
	l.StairsDown = &entrance
	return l
}
