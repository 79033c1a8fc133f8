package aggregation

import (
	"testing"

	"go.viam.com/test"

	"go.viam.com/detect/labelmap"
	"go.viam.com/detect/objectdetection"
)

func resolved(id int, label string, conf, w, h float64) labelmap.ResolvedDetection {
	return labelmap.ResolvedDetection{
		Detection: objectdetection.Detection{
			RawSegment: objectdetection.RawSegment{
				SegmentID:     id,
				BoundingBox:   objectdetection.BoundingBox{X: 0, Y: 0, W: w, H: h},
				RawLabel:      label,
				RawConfidence: conf,
			},
			Confidence:           conf,
			SizeFactor:           objectdetection.SizeMedium,
			ConfidenceAdjustment: 1,
		},
		Resolution: labelmap.Resolution{
			RawLabel:          label,
			CanonicalLabel:    label,
			Method:            labelmap.MethodNone,
			MappingConfidence: conf,
		},
	}
}

func TestStats(t *testing.T) {
	t.Parallel()
	s := newStats([]float64{1, 2, 3, 4})
	test.That(t, s.Mean, test.ShouldEqual, 2.5)
	test.That(t, s.Median, test.ShouldEqual, 2.5)
	test.That(t, s.Min, test.ShouldEqual, 1.)
	test.That(t, s.Max, test.ShouldEqual, 4.)
	// population std of 1..4
	test.That(t, s.Std, test.ShouldAlmostEqual, 1.118033988749895, 1e-12)

	s = newStats([]float64{5})
	test.That(t, s.Std, test.ShouldEqual, 0.)
	test.That(t, s.Median, test.ShouldEqual, 5.)

	test.That(t, newStats(nil), test.ShouldResemble, Stats{})
}

func TestAggregate(t *testing.T) {
	t.Parallel()
	dets := []labelmap.ResolvedDetection{
		resolved(0, "dog", 0.9, 100, 100),
		resolved(1, "dog", 0.7, 50, 50),
		resolved(2, "tree", 0.6, 200, 200),
	}
	enriched, stats := Aggregate(dets)
	test.That(t, enriched, test.ShouldHaveLength, 3)
	test.That(t, stats, test.ShouldHaveLength, 2)

	// groups partition the detections exactly
	totalCount := 0
	for _, cs := range stats {
		totalCount += cs.Count
	}
	test.That(t, totalCount, test.ShouldEqual, len(dets))
	test.That(t, Labels(stats), test.ShouldResemble, []string{"dog", "tree"})

	dog := stats["dog"]
	test.That(t, dog.Count, test.ShouldEqual, 2)
	test.That(t, dog.Confidence.Mean, test.ShouldAlmostEqual, 0.8, 1e-9)
	test.That(t, dog.Confidence.Min, test.ShouldEqual, 0.7)
	test.That(t, dog.Confidence.Max, test.ShouldEqual, 0.9)
	test.That(t, dog.Area.Total, test.ShouldEqual, 12500.)
	test.That(t, dog.Buckets, test.ShouldResemble, ConfidenceBuckets{High: 1, Medium: 1})
	// both dogs are above 0.7? only one is, so not a reliable majority
	test.That(t, dog.Reliable, test.ShouldBeFalse)
	test.That(t, stats["tree"].Reliable, test.ShouldBeFalse)

	// enrichment preserves order and fills class context
	test.That(t, enriched[0].SegmentID, test.ShouldEqual, 0)
	test.That(t, enriched[0].ClassStats, test.ShouldResemble, dog)
	test.That(t, enriched[0].RelativeConfidence, test.ShouldAlmostEqual, 0.9/0.8, 1e-9)
	test.That(t, enriched[2].RelativeConfidence, test.ShouldAlmostEqual, 1.0, 1e-9)
	test.That(t, enriched[0].XYXY, test.ShouldResemble, [4]float64{0, 0, 100, 100})
	test.That(t, enriched[0].Center, test.ShouldResemble, [4]float64{50, 50, 100, 100})
}

func TestAggregateReliableMajority(t *testing.T) {
	t.Parallel()
	dets := []labelmap.ResolvedDetection{
		resolved(0, "dog", 0.9, 10, 10),
		resolved(1, "dog", 0.8, 10, 10),
		resolved(2, "dog", 0.2, 10, 10),
	}
	_, stats := Aggregate(dets)
	test.That(t, stats["dog"].Reliable, test.ShouldBeTrue)
}

func TestAggregateZeroConfidenceGroup(t *testing.T) {
	t.Parallel()
	dets := []labelmap.ResolvedDetection{resolved(0, "dog", 0, 10, 10)}
	enriched, _ := Aggregate(dets)
	test.That(t, enriched[0].RelativeConfidence, test.ShouldEqual, 1.0)
}

func TestAggregateEmpty(t *testing.T) {
	t.Parallel()
	enriched, stats := Aggregate(nil)
	test.That(t, enriched, test.ShouldHaveLength, 0)
	test.That(t, stats, test.ShouldHaveLength, 0)
}

func TestAggregateNegativeAreaPanics(t *testing.T) {
	t.Parallel()
	bad := resolved(0, "dog", 0.5, 10, 10)
	bad.Detection.BoundingBox.W = -10
	test.That(t, func() { Aggregate([]labelmap.ResolvedDetection{bad}) }, test.ShouldPanic)
}
