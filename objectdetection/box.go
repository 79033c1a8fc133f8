package objectdetection

import (
	"encoding/json"
	"math"

	"github.com/pkg/errors"
)

// BoundingBox is an axis-aligned box in pixel coordinates, stored in the
// (x, y, w, h) form the segmentation collaborator produces. On the wire it is
// a 4-element JSON array, matching the collaborator's mask output.
type BoundingBox struct {
	X float64
	Y float64
	W float64
	H float64
}

// Area returns the box area in square pixels.
func (b BoundingBox) Area() float64 {
	return b.W * b.H
}

// XYXY returns the corner form (x1, y1, x2, y2).
func (b BoundingBox) XYXY() [4]float64 {
	return [4]float64{b.X, b.Y, b.X + b.W, b.Y + b.H}
}

// Center returns the center form (cx, cy, w, h).
func (b BoundingBox) Center() [4]float64 {
	return [4]float64{b.X + b.W/2., b.Y + b.H/2., b.W, b.H}
}

// MarshalJSON encodes the box as [x, y, w, h].
func (b BoundingBox) MarshalJSON() ([]byte, error) {
	return json.Marshal([4]float64{b.X, b.Y, b.W, b.H})
}

// UnmarshalJSON decodes a [x, y, w, h] array.
func (b *BoundingBox) UnmarshalJSON(data []byte) error {
	var arr []float64
	if err := json.Unmarshal(data, &arr); err != nil {
		return errors.Wrap(err, "bounding box must be a JSON array")
	}
	if len(arr) != 4 {
		return errors.Errorf("bounding box must have 4 elements, got %d", len(arr))
	}
	b.X, b.Y, b.W, b.H = arr[0], arr[1], arr[2], arr[3]
	return nil
}

// IoU returns the intersection over union of two boxes. The result is always
// in [0, 1]; boxes that do not overlap, or whose union has no area, score 0.
func IoU(a, b BoundingBox) float64 {
	x1 := math.Max(a.X, b.X)
	y1 := math.Max(a.Y, b.Y)
	x2 := math.Min(a.X+a.W, b.X+b.W)
	y2 := math.Min(a.Y+a.H, b.Y+b.H)
	if x2 <= x1 || y2 <= y1 {
		return 0.0
	}
	intersection := (x2 - x1) * (y2 - y1)
	union := a.Area() + b.Area() - intersection
	if union <= 0 {
		return 0.0
	}
	return intersection / union
}
