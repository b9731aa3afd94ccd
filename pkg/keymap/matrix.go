// Package keymap mirrors the peer half's key matrix from delivered
// key transitions.
package keymap

// Matrix dimensions, fixed by the wire format's key body layout.
const (
	Rows = 16
	Cols = 8
)

// Matrix is a bitmap of pressed keys, one row per entry with the
// column in the bit index.
type Matrix [Rows]uint8

// Set marks a key pressed. Out-of-range positions are ignored.
func (m *Matrix) Set(row, col uint8) {
	if row < Rows && col < Cols {
		m[row] |= 1 << col
	}
}

// Clear marks a key released.
func (m *Matrix) Clear(row, col uint8) {
	if row < Rows && col < Cols {
		m[row] &^= 1 << col
	}
}

// IsSet indicates if a key is pressed.
func (m Matrix) IsSet(row, col uint8) bool {
	return row < Rows && col < Cols && m[row]&(1<<col) != 0
}

// Pressed lists the pressed keys as row, col pairs in scan order.
func (m Matrix) Pressed() [][2]uint8 {
	var keys [][2]uint8
	for row := uint8(0); row < Rows; row++ {
		for col := uint8(0); col < Cols; col++ {
			if m[row]&(1<<col) != 0 {
				keys = append(keys, [2]uint8{row, col})
			}
		}
	}
	return keys
}
