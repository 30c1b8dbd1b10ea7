package component

import "github.com/go-gl/mathgl/mgl64"

// Spin rotates the owning entity's scene node around Axis every tick.
type Spin struct {
	Axis             mgl64.Vec3 `yaml:"axis"`
	DegreesPerSecond float64    `yaml:"degrees_per_second"`
}
