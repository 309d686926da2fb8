package renderer

// Point is a normalized position on a canvas, (0,0) top-left, (1,1) bottom-right.
type Point struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// CameraState represents the visible window at a specific moment
type CameraState struct {
	Center Point   // Window center, normalized to the canvas
	Scale  float64 // Visible fraction of canvas width and height (1.0 = whole canvas)
}

// Interpolate blends two camera states linearly, without easing.
// progress 0 yields from, progress 1 yields to.
func Interpolate(from, to CameraState, progress float64) CameraState {
	return CameraState{
		Center: LerpPoint(from.Center, to.Center, progress),
		Scale:  lerp(from.Scale, to.Scale, progress),
	}
}

// Progress is the position of local frame n on a timeline of total frames.
func Progress(n, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(n) / float64(total)
}

// LerpPoint interpolates both coordinates independently
func LerpPoint(a, b Point, t float64) Point {
	return Point{X: lerp(a.X, b.X, t), Y: lerp(a.Y, b.Y, t)}
}

// lerp performs linear interpolation between a and b
func lerp(a, b, t float64) float64 {
	return a*(1-t) + b*t
}
