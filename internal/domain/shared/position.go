package shared

import (
	"fmt"
	"strings"
)

// BlockPos is an integer grid position. It doubles as a relative offset.
type BlockPos struct {
	X, Y, Z int32
}

// Add returns p+o
func (p BlockPos) Add(o BlockPos) BlockPos {
	return BlockPos{X: p.X + o.X, Y: p.Y + o.Y, Z: p.Z + o.Z}
}

// Offset returns the neighbouring position in the given direction
func (p BlockPos) Offset(d Direction) BlockPos {
	return p.Add(d.Vector())
}

func (p BlockPos) String() string {
	return fmt.Sprintf("(%d,%d,%d)", p.X, p.Y, p.Z)
}

// Direction is one of the six faces of a grid cell
type Direction uint8

const (
	Down Direction = iota
	Up
	North
	South
	West
	East
)

// AllDirections lists the six directions in a stable order
var AllDirections = [6]Direction{Down, Up, North, South, West, East}

var directionNames = [6]string{"down", "up", "north", "south", "west", "east"}

// Vector returns the unit offset for the direction. North is -Z, East is +X.
func (d Direction) Vector() BlockPos {
	switch d {
	case Down:
		return BlockPos{Y: -1}
	case Up:
		return BlockPos{Y: 1}
	case North:
		return BlockPos{Z: -1}
	case South:
		return BlockPos{Z: 1}
	case West:
		return BlockPos{X: -1}
	case East:
		return BlockPos{X: 1}
	}
	return BlockPos{}
}

// Opposite returns the facing direction on the neighbour's side
func (d Direction) Opposite() Direction {
	switch d {
	case Down:
		return Up
	case Up:
		return Down
	case North:
		return South
	case South:
		return North
	case West:
		return East
	case East:
		return West
	}
	return d
}

// IsHorizontal reports whether the direction lies in the XZ plane
func (d Direction) IsHorizontal() bool {
	return d >= North && d <= East
}

func (d Direction) String() string {
	if int(d) < len(directionNames) {
		return directionNames[d]
	}
	return fmt.Sprintf("Direction(%d)", d)
}

// ParseDirection parses a direction name, case-insensitively
func ParseDirection(s string) (Direction, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range directionNames {
		if name == s {
			return Direction(i), nil
		}
	}
	return Down, NewValidationError("direction", fmt.Sprintf("unknown direction %q", s))
}

// Rotate maps an offset defined for a north-facing anchor onto the given facing.
// Non-horizontal facings leave the offset unchanged.
func Rotate(offset BlockPos, facing Direction) BlockPos {
	switch facing {
	case South:
		return BlockPos{X: -offset.X, Y: offset.Y, Z: -offset.Z}
	case East:
		return BlockPos{X: -offset.Z, Y: offset.Y, Z: offset.X}
	case West:
		return BlockPos{X: offset.Z, Y: offset.Y, Z: -offset.X}
	}
	return offset
}
