// Package grid converts between linear cell indexes and (x, y) coordinates on
// row-major grids, with toroidal wrap-around.
package grid

// GetGridCoords returns the column and row of a row-major index.
func GetGridCoords(index, cols int) (x, y int) {
	return index % cols, index / cols
}

// Index returns the row-major index of (x, y).
func Index(x, y, cols int) int {
	return y*cols + x
}

// Wrap folds v into [0, size) so coordinates past either edge re-enter on the
// opposite side.
func Wrap(v, size int) int {
	v %= size
	if v < 0 {
		v += size
	}
	return v
}
