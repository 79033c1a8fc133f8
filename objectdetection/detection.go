// Package objectdetection provides the data model and geometric post-processing
// for per-segment object classification candidates: ingestion validation,
// confidence calibration, filtering, and non-maximum suppression.
package objectdetection

import (
	"sort"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// SizeFactor buckets a segment by area.
type SizeFactor string

// The size buckets used by confidence calibration and reporting.
const (
	SizeSmall  = SizeFactor("small")
	SizeMedium = SizeFactor("medium")
	SizeLarge  = SizeFactor("large")
)

// RawSegment is one candidate object region produced by the upstream
// segmentation+classification collaborator. It is immutable once ingested.
type RawSegment struct {
	SegmentID     int         `json:"segment_id"`
	BoundingBox   BoundingBox `json:"bounding_box"`
	RawLabel      string      `json:"raw_label"`
	RawConfidence float64     `json:"raw_confidence"`
}

// Validate checks the collaborator's contract for a single segment.
func (s *RawSegment) Validate() error {
	if s.BoundingBox.W <= 0 || s.BoundingBox.H <= 0 {
		return errors.Errorf("segment %d: bounding box has no extent", s.SegmentID)
	}
	if s.BoundingBox.X < 0 || s.BoundingBox.Y < 0 {
		return errors.Errorf("segment %d: bounding box has negative origin", s.SegmentID)
	}
	if s.RawConfidence < 0 || s.RawConfidence > 1 {
		return errors.Errorf("segment %d: confidence %v outside [0, 1]", s.SegmentID, s.RawConfidence)
	}
	if s.RawLabel == "" {
		return errors.Errorf("segment %d: empty label", s.SegmentID)
	}
	return nil
}

// ValidateSegments checks every segment of a request and reports all
// violations at once. Any error rejects the whole request.
func ValidateSegments(segments []RawSegment) error {
	var err error
	for i := range segments {
		err = multierr.Combine(err, segments[i].Validate())
	}
	return errors.Wrap(err, "invalid raw segments")
}

// Detection is a raw segment with its calibrated confidence attached.
// Derived once by the calibrator, never mutated afterwards.
type Detection struct {
	RawSegment
	Confidence float64    `json:"confidence"`
	SizeFactor SizeFactor `json:"size_factor"`
	// ConfidenceAdjustment is calibrated/raw, 1.0 when raw is 0.
	ConfidenceAdjustment float64 `json:"confidence_adjustment"`
}

// Area returns the detection's bounding box area.
func (d *Detection) Area() float64 {
	return d.BoundingBox.Area()
}

// SortByConfidence orders detections by descending calibrated confidence,
// keeping the original order between equal scores.
func SortByConfidence(dets []Detection) {
	sort.SliceStable(dets, func(i, j int) bool {
		return dets[i].Confidence > dets[j].Confidence
	})
}
