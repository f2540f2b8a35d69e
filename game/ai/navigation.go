package ai

import "github.com/kasuganosora/ghostai/game/board"

// breadcrumb records how BFS first reached a square.
type breadcrumb struct {
	from *board.Square
	dir  board.Direction
}

// ShortestPath finds a minimum-length route from start to target using
// breadth-first search. An edge exists from a square to its neighbor in
// direction d iff that neighbor is accessible to mover. Neighbors are
// expanded in board.Directions order (north, east, south, west), so among
// equally short routes the one that turns earliest in that order wins.
//
// Returns the steps excluding the start, or nil if target is unreachable,
// either endpoint is nil, or start == target.
func ShortestPath(start, target *board.Square, mover board.Unit) []board.Direction {
	if start == nil || target == nil || start == target {
		return nil
	}

	visited := map[*board.Square]breadcrumb{start: {}}
	queue := []*board.Square{start}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for _, d := range board.Directions {
			next := cur.SquareAt(d)
			if next == nil {
				continue
			}
			if _, seen := visited[next]; seen {
				continue
			}
			if !next.IsAccessibleTo(mover) {
				continue
			}
			visited[next] = breadcrumb{from: cur, dir: d}
			if next == target {
				return reconstruct(visited, start, target)
			}
			queue = append(queue, next)
		}
	}
	return nil // no path found
}

// Distance returns the BFS step count from start to target for mover.
// ok is false when no path exists; start == target is distance 0.
func Distance(start, target *board.Square, mover board.Unit) (n int, ok bool) {
	if start != nil && start == target {
		return 0, true
	}
	path := ShortestPath(start, target, mover)
	if path == nil {
		return 0, false
	}
	return len(path), true
}

func reconstruct(visited map[*board.Square]breadcrumb, start, target *board.Square) []board.Direction {
	var path []board.Direction
	for sq := target; sq != start; {
		b := visited[sq]
		path = append(path, b.dir)
		sq = b.from
	}
	// Reverse.
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// FindNearest scans outward from `from` ring by ring and returns the first
// unit of the requested kind, or nil if none is on the board.
// Walls do not stop the scan: this is a proximity query, not a route.
func FindNearest(kind board.Kind, from *board.Square) board.Unit {
	if from == nil {
		return nil
	}
	visited := map[*board.Square]bool{from: true}
	queue := []*board.Square{from}

	for len(queue) > 0 {
		sq := queue[0]
		queue = queue[1:]

		for _, u := range sq.Occupants() {
			if u.Kind() == kind {
				return u
			}
		}
		for _, d := range board.Directions {
			next := sq.SquareAt(d)
			if next == nil || visited[next] {
				continue
			}
			visited[next] = true
			queue = append(queue, next)
		}
	}
	return nil
}
