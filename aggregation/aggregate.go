package aggregation

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"

	"go.viam.com/detect/labelmap"
)

// ConfidenceBuckets counts detections by confidence band.
type ConfidenceBuckets struct {
	High   int `json:"high"`   // > 0.8
	Medium int `json:"medium"` // [0.5, 0.8]
	Low    int `json:"low"`    // < 0.5
}

// Add counts conf into its bucket.
func (b *ConfidenceBuckets) Add(conf float64) {
	switch {
	case conf > 0.8:
		b.High++
	case conf >= 0.5:
		b.Medium++
	default:
		b.Low++
	}
}

// AreaStats are summary statistics over the areas of one class.
type AreaStats struct {
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Total float64 `json:"total"`
}

// ClassStatistics summarizes all detections sharing one canonical label.
type ClassStatistics struct {
	Count      int               `json:"count"`
	Confidence Stats             `json:"confidence_stats"`
	Area       AreaStats         `json:"area_stats"`
	Buckets    ConfidenceBuckets `json:"confidence_buckets"`
	// Reliable reports whether the majority of the class's detections have
	// confidence above 0.7.
	Reliable bool `json:"reliable"`
}

// EnrichedDetection is a resolved detection annotated with its class context
// and alternate bounding box encodings.
type EnrichedDetection struct {
	labelmap.ResolvedDetection
	ClassStats ClassStatistics `json:"class_stats"`
	// RelativeConfidence compares the detection to its class average,
	// 1.0 when the class average is 0.
	RelativeConfidence float64    `json:"relative_confidence"`
	XYXY               [4]float64 `json:"bbox_xyxy"`
	Center             [4]float64 `json:"bbox_center"`
}

// GroupByClass partitions detections by canonical label. Every detection
// belongs to exactly one group.
func GroupByClass(dets []labelmap.ResolvedDetection) map[string][]labelmap.ResolvedDetection {
	groups := map[string][]labelmap.ResolvedDetection{}
	for _, d := range dets {
		groups[d.CanonicalLabel] = append(groups[d.CanonicalLabel], d)
	}
	return groups
}

// ClassDistribution returns per-class detection counts.
func ClassDistribution(dets []labelmap.ResolvedDetection) map[string]int {
	dist := map[string]int{}
	for _, d := range dets {
		dist[d.CanonicalLabel]++
	}
	return dist
}

func classStatistics(group []labelmap.ResolvedDetection) ClassStatistics {
	confidences := make([]float64, 0, len(group))
	areas := make([]float64, 0, len(group))
	var buckets ConfidenceBuckets
	reliable := 0
	for _, d := range group {
		area := d.Area()
		if area < 0 {
			panic(fmt.Sprintf("negative area for segment %d", d.SegmentID))
		}
		confidences = append(confidences, d.Confidence)
		areas = append(areas, area)
		buckets.Add(d.Confidence)
		if d.Confidence > 0.7 {
			reliable++
		}
	}
	areaStats := newStats(areas)
	var total float64
	for _, a := range areas {
		total += a
	}
	return ClassStatistics{
		Count:      len(group),
		Confidence: newStats(confidences),
		Area: AreaStats{
			Mean:  areaStats.Mean,
			Std:   areaStats.Std,
			Min:   areaStats.Min,
			Max:   areaStats.Max,
			Total: total,
		},
		Buckets:  buckets,
		Reliable: len(group) > 0 && float64(reliable)/float64(len(group)) > 0.5,
	}
}

// Aggregate computes per-class statistics and enriches every detection with
// its class context, relative confidence, and alternate bbox forms. Input
// order is preserved. The returned map partitions the input exactly.
func Aggregate(dets []labelmap.ResolvedDetection) ([]EnrichedDetection, map[string]ClassStatistics) {
	groups := GroupByClass(dets)
	stats := make(map[string]ClassStatistics, len(groups))
	avgConfidence := make(map[string]float64, len(groups))
	for label, group := range groups {
		stats[label] = classStatistics(group)
		confidences := make([]float64, 0, len(group))
		for _, d := range group {
			confidences = append(confidences, d.Confidence)
		}
		avgConfidence[label] = stat.Mean(confidences, nil)
	}

	enriched := make([]EnrichedDetection, 0, len(dets))
	for _, d := range dets {
		relative := 1.0
		if avg := avgConfidence[d.CanonicalLabel]; avg > 0 {
			relative = d.Confidence / avg
		}
		enriched = append(enriched, EnrichedDetection{
			ResolvedDetection:  d,
			ClassStats:         stats[d.CanonicalLabel],
			RelativeConfidence: relative,
			XYXY:               d.BoundingBox.XYXY(),
			Center:             d.BoundingBox.Center(),
		})
	}
	return enriched, stats
}

// Labels returns the canonical labels present in stats, sorted.
func Labels(stats map[string]ClassStatistics) []string {
	out := make([]string, 0, len(stats))
	for label := range stats {
		out = append(out, label)
	}
	sort.Strings(out)
	return out
}
