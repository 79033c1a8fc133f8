package objectdetection

import "strings"

// biasedClasses are labels the upstream ImageNet classifier historically
// over-reports; their confidence is discounted during calibration.
var biasedClasses = []string{
	"egyptian cat", "sports car", "convertible", "limousine",
	"airship", "dirigible", "balloon", "parachute",
}

// Calibration factors. Very small segments carry little signal, very large
// ones are often background, and biased classes are over-confident.
const (
	smallSegmentArea   = 1000.
	largeSegmentArea   = 50000.
	smallSegmentFactor = 0.7
	largeSegmentFactor = 0.8
	biasedClassFactor  = 0.6
)

// Calibrate adjusts a segment's raw confidence by reliability heuristics and
// returns the derived detection. The result is always in [0, 1].
func Calibrate(seg RawSegment) Detection {
	area := seg.BoundingBox.Area()
	confidence := seg.RawConfidence

	if area < smallSegmentArea {
		confidence *= smallSegmentFactor
	} else if area > largeSegmentArea {
		confidence *= largeSegmentFactor
	}
	if isBiasedClass(seg.RawLabel) {
		confidence *= biasedClassFactor
	}
	confidence = clamp01(confidence)

	adjustment := 1.0
	if seg.RawConfidence > 0 {
		adjustment = confidence / seg.RawConfidence
	}
	return Detection{
		RawSegment:           seg,
		Confidence:           confidence,
		SizeFactor:           sizeFactor(area),
		ConfidenceAdjustment: adjustment,
	}
}

func isBiasedClass(label string) bool {
	lowered := strings.ToLower(label)
	for _, biased := range biasedClasses {
		if strings.Contains(lowered, biased) {
			return true
		}
	}
	return false
}

func sizeFactor(area float64) SizeFactor {
	switch {
	case area < smallSegmentArea:
		return SizeSmall
	case area <= largeSegmentArea:
		return SizeMedium
	default:
		return SizeLarge
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
