package memory

import (
	"crypto/sha256"
	"encoding/binary"
	"math"
)

// Point is a location in the bounded coordinate plane [-2,2]x[-2,2].
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance returns the Euclidean distance to another point.
func (p Point) Distance(q Point) float64 {
	dx := p.X - q.X
	dy := p.Y - q.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// CoordinateFunc maps a key to its point in the plane. It must be a pure
// function of the key: recomputing the coordinate for the same key must
// yield a bit-identical result.
type CoordinateFunc func(key string) Point

// HashCoordinate derives a point from the SHA-256 digest of the key. The
// two halves of the digest are read as fixed-point fractions and scaled
// into [-2,2].
func HashCoordinate(key string) Point {
	sum := sha256.Sum256([]byte(key))
	x := binary.BigEndian.Uint64(sum[0:8])
	y := binary.BigEndian.Uint64(sum[16:24])
	return Point{
		X: float64(x)/float64(1<<32)/float64(1<<32)*4 - 2,
		Y: float64(y)/float64(1<<32)/float64(1<<32)*4 - 2,
	}
}
