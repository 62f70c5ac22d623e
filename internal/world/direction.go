package world

import "github.com/go-gl/mathgl/mgl32"

// Direction is one of the six axis-aligned unit directions.
// The numeric value is the stable index used for per-face arrays.
type Direction uint8

const (
	PosX Direction = iota
	PosY
	PosZ
	NegX
	NegY
	NegZ
)

// Directions lists all six directions in index order.
var Directions = [6]Direction{PosX, PosY, PosZ, NegX, NegY, NegZ}

var directionOffsets = [6][3]int{
	PosX: {1, 0, 0},
	PosY: {0, 1, 0},
	PosZ: {0, 0, 1},
	NegX: {-1, 0, 0},
	NegY: {0, -1, 0},
	NegZ: {0, 0, -1},
}

var directionNames = [6]string{"+X", "+Y", "+Z", "-X", "-Y", "-Z"}

// Index returns the stable array slot for d.
func (d Direction) Index() int { return int(d) }

// Opposite returns the direction pointing the other way along the same axis.
func (d Direction) Opposite() Direction {
	return (d + 3) % 6
}

// Offset returns the integer unit step for d.
func (d Direction) Offset() (dx, dy, dz int) {
	o := directionOffsets[d]
	return o[0], o[1], o[2]
}

// Axis returns 0, 1 or 2 for X, Y or Z.
func (d Direction) Axis() int { return int(d % 3) }

// Positive reports whether d points along the positive half of its axis.
func (d Direction) Positive() bool { return d < NegX }

// Normal returns the unit face normal for d.
func (d Direction) Normal() mgl32.Vec3 {
	o := directionOffsets[d]
	return mgl32.Vec3{float32(o[0]), float32(o[1]), float32(o[2])}
}

func (d Direction) String() string {
	if int(d) < len(directionNames) {
		return directionNames[d]
	}
	return "invalid"
}
