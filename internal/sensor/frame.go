package sensor

// Grid geometry of the pressure mat. Every frame is a flattened
// Rows x Cols snapshot in row-major order.
const (
	Rows = 32
	Cols = 32

	// FrameSize is the fixed length of every Frame.
	FrameSize = Rows * Cols

	// BaselineValue substitutes malformed or missing samples so that a dirty
	// reading degrades to a quiet sensor cell instead of failing the parse.
	BaselineValue = 1.0
)

// Frame is one flattened snapshot of sensor-grid values at an instant.
// A Frame always holds exactly FrameSize samples and is never mutated
// after it is produced by the parser.
type Frame []float64

// At returns the sample at the given grid position.
func (f Frame) At(row, col int) float64 {
	return f[row*Cols+col]
}

// Bounds returns the observed minimum and maximum sample values.
// A zero-length or flat frame reports (0, 1) so that consumers can
// normalize without a division by zero.
func (f Frame) Bounds() (min, max float64) {
	if len(f) == 0 {
		return 0, 1
	}
	min, max = f[0], f[0]
	for _, v := range f[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if min == max {
		return min, min + 1
	}
	return min, max
}

// zeroFrame returns a frame with all samples at zero.
func zeroFrame() Frame {
	return make(Frame, FrameSize)
}
