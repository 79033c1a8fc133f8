package objectdetection

import (
	"encoding/json"
	"testing"

	"go.viam.com/test"
)

func TestIoU(t *testing.T) {
	t.Parallel()
	b := BoundingBox{X: 10, Y: 20, W: 30, H: 40}
	// identical boxes
	test.That(t, IoU(b, b), test.ShouldEqual, 1.0)
	// symmetry
	other := BoundingBox{X: 25, Y: 30, W: 30, H: 40}
	test.That(t, IoU(b, other), test.ShouldEqual, IoU(other, b))
	test.That(t, IoU(b, other), test.ShouldBeBetweenOrEqual, 0.0, 1.0)
	// disjoint boxes
	far := BoundingBox{X: 1000, Y: 1000, W: 5, H: 5}
	test.That(t, IoU(b, far), test.ShouldEqual, 0.0)
	// sharing only an edge is not an overlap
	touching := BoundingBox{X: 40, Y: 20, W: 30, H: 40}
	test.That(t, IoU(b, touching), test.ShouldEqual, 0.0)
	// known value: two 10x10 boxes offset by 5 in x
	a := BoundingBox{X: 0, Y: 0, W: 10, H: 10}
	c := BoundingBox{X: 5, Y: 0, W: 10, H: 10}
	// intersection 50, union 150
	test.That(t, IoU(a, c), test.ShouldAlmostEqual, 1./3., 1e-9)
	// zero union
	degenerate := BoundingBox{X: 0, Y: 0, W: 0, H: 0}
	test.That(t, IoU(degenerate, degenerate), test.ShouldEqual, 0.0)
}

func TestBoundingBoxForms(t *testing.T) {
	t.Parallel()
	b := BoundingBox{X: 10, Y: 20, W: 30, H: 40}
	test.That(t, b.Area(), test.ShouldEqual, 1200.)
	test.That(t, b.XYXY(), test.ShouldResemble, [4]float64{10, 20, 40, 60})
	test.That(t, b.Center(), test.ShouldResemble, [4]float64{25, 40, 30, 40})
}

func TestBoundingBoxJSON(t *testing.T) {
	t.Parallel()
	b := BoundingBox{X: 1, Y: 2, W: 3, H: 4}
	data, err := json.Marshal(b)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(data), test.ShouldEqual, "[1,2,3,4]")

	var decoded BoundingBox
	test.That(t, json.Unmarshal(data, &decoded), test.ShouldBeNil)
	test.That(t, decoded, test.ShouldResemble, b)

	err = json.Unmarshal([]byte("[1,2,3]"), &decoded)
	test.That(t, err.Error(), test.ShouldContainSubstring, "4 elements")
	err = json.Unmarshal([]byte(`{"x":1}`), &decoded)
	test.That(t, err.Error(), test.ShouldContainSubstring, "JSON array")
}
