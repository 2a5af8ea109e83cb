package scene

// idAllocator hands out layer ids. Released ids are reused last-in first-out
// before new ones are taken from the counter.
type idAllocator struct {
	free []int
	next int
}

func (a *idAllocator) acquire() int {
	if n := len(a.free); n > 0 {
		id := a.free[n-1]
		a.free = a.free[:n-1]
		return id
	}
	id := a.next
	a.next++
	return id
}

func (a *idAllocator) release(id int) {
	a.free = append(a.free, id)
}
