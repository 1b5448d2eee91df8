// Package board implements the card ordering rules shared by every mutation
// path. Positions are dense zero-based ranks per column; any change to a
// column's membership is expressed as a rebuild of its ordered id list,
// after which each card's position is its index in that list.
package board

// Clamp bounds a desired position to [0, n].
func Clamp(pos, n int) int {
	if pos < 0 {
		return 0
	}
	if pos > n {
		return n
	}
	return pos
}

// Remove returns ids without the given id. The input slice is not modified.
func Remove(ids []int64, id int64) []int64 {
	out := make([]int64, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// Place inserts id into the ordered id list at the desired position,
// removing any existing occurrence first. Out-of-range positions clamp to
// the nearest end. Placing an id at its current index is a no-op in effect.
func Place(ids []int64, id int64, pos int) []int64 {
	rest := Remove(ids, id)
	pos = Clamp(pos, len(rest))
	out := make([]int64, 0, len(rest)+1)
	out = append(out, rest[:pos]...)
	out = append(out, id)
	out = append(out, rest[pos:]...)
	return out
}

// Ranks maps each id to its index in the ordered list.
func Ranks(ids []int64) map[int64]int {
	ranks := make(map[int64]int, len(ids))
	for i, id := range ids {
		ranks[id] = i
	}
	return ranks
}
