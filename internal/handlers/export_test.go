package handlers

// SetOrderNumberGenerator swaps the order number source and returns the
// previous one so tests can force collisions.
func SetOrderNumberGenerator(f func() string) func() string {
	old := newOrderNumber
	newOrderNumber = f
	return old
}
