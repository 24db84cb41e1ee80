package lightatlas

// SlotGrid hands out uniform square cells of a gridSize x gridSize
// layout in normalized [0, 1] atlas coordinates. Cells are assigned in
// row-major order, columns varying fastest, so slot k lands at column
// k % gridSize and row k / gridSize.
//
// The shadow atlas resets and refills the grid every active frame; a
// light's slot is only stable within a frame.
type SlotGrid struct {
	gridSize int // Cells per side
	next     int // Next cell index
}

// NewSlotGrid creates a grid with gridSize cells per side. A gridSize
// below 1 is clamped to 1.
func NewSlotGrid(gridSize int) *SlotGrid {
	if gridSize < 1 {
		gridSize = 1
	}
	return &SlotGrid{gridSize: gridSize}
}

// Take returns the next available cell as a normalized rectangle.
// Returns a zero Rect and false if the grid is full.
func (g *SlotGrid) Take() (Rect, bool) {
	if g.next >= g.gridSize*g.gridSize {
		return Rect{}, false
	}

	col := g.next % g.gridSize
	row := g.next / g.gridSize
	inv := 1.0 / float64(g.gridSize)
	g.next++

	return Rect{
		X: float64(col) * inv,
		Y: float64(row) * inv,
		W: inv,
		H: inv,
	}, true
}

// Reset clears all assignments.
func (g *SlotGrid) Reset() {
	g.next = 0
}

// GridSize returns the number of cells per side.
func (g *SlotGrid) GridSize() int {
	return g.gridSize
}

// Capacity returns the maximum number of cells that can be taken.
func (g *SlotGrid) Capacity() int {
	return g.gridSize * g.gridSize
}

// Allocated returns the number of cells currently taken.
func (g *SlotGrid) Allocated() int {
	return g.next
}

// Remaining returns the number of cells still available.
func (g *SlotGrid) Remaining() int {
	return g.Capacity() - g.next
}

// IsFull returns true if no more cells can be taken.
func (g *SlotGrid) IsFull() bool {
	return g.next >= g.Capacity()
}

// Utilization returns the fraction of cells taken (0.0 to 1.0).
func (g *SlotGrid) Utilization() float64 {
	capacity := g.Capacity()
	if capacity <= 0 {
		return 0
	}
	return float64(g.next) / float64(capacity)
}
