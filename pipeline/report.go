package pipeline

import (
	"math"

	"go.viam.com/detect/aggregation"
)

// Summary condenses one pipeline run over a single image.
type Summary struct {
	TotalObjects           int                           `json:"total_objects"`
	UniqueClasses          int                           `json:"unique_classes"`
	ClassDistribution      map[string]int                `json:"class_distribution"`
	AverageConfidence      float64                       `json:"average_confidence"`
	ConfidenceDistribution aggregation.ConfidenceBuckets `json:"confidence_distribution"`
	SegmentsGenerated      int                           `json:"segments_generated"`
	AfterFiltering         int                           `json:"after_filtering"`
	AfterNMS               int                           `json:"after_nms"`
	ProcessingEfficiency   float64                       `json:"processing_efficiency"`
	Quality                aggregation.Assessment        `json:"quality"`
	ProcessingSeconds      float64                       `json:"processing_seconds"`
	Note                   string                        `json:"note,omitempty"`
}

// Report is the full output of one pipeline run: the enriched detections
// plus a summary of what happened to the raw segments along the way.
type Report struct {
	Image      string                          `json:"image"`
	Detections []aggregation.EnrichedDetection `json:"detections"`
	Summary    Summary                         `json:"summary"`
}

func newSummary(generated, filtered, deduped int, dets []aggregation.EnrichedDetection,
	quality aggregation.Assessment, elapsedSeconds float64,
) Summary {
	summary := Summary{
		TotalObjects:      len(dets),
		ClassDistribution: map[string]int{},
		SegmentsGenerated: generated,
		AfterFiltering:    filtered,
		AfterNMS:          deduped,
		Quality:           quality,
		ProcessingSeconds: elapsedSeconds,
	}
	confSum := 0.
	for _, det := range dets {
		summary.ClassDistribution[det.CanonicalLabel]++
		summary.ConfidenceDistribution.Add(det.Confidence)
		confSum += det.Confidence
	}
	summary.UniqueClasses = len(summary.ClassDistribution)
	if len(dets) > 0 {
		summary.AverageConfidence = round3(confSum / float64(len(dets)))
	} else {
		summary.Note = "no detections survived post-processing"
	}
	if generated > 0 {
		summary.ProcessingEfficiency = math.Round(float64(deduped)/float64(generated)*1000) / 10
	}
	return summary
}

func round3(x float64) float64 {
	return math.Round(x*1000) / 1000
}
