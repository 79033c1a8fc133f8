package aggregation

import (
	"math"

	"go.viam.com/detect/labelmap"
)

// QualityLevel grades a detection set.
type QualityLevel string

// Quality levels, best to worst. NoDetections marks the valid empty result.
const (
	QualityExcellent    = QualityLevel("EXCELLENT")
	QualityGood         = QualityLevel("GOOD")
	QualityFair         = QualityLevel("FAIR")
	QualityPoor         = QualityLevel("POOR")
	QualityNoDetections = QualityLevel("NO_DETECTIONS")
)

// Diagnostic flags raised by the quality assessor.
const (
	FlagHighConfidence = "HIGH_CONFIDENCE_DETECTIONS"
	FlagLowConfidence  = "LOW_CONFIDENCE_DETECTIONS"
	FlagImbalanced     = "IMBALANCED_CLASS_DISTRIBUTION"
	FlagHighDensity    = "HIGH_DETECTION_DENSITY"
	FlagLowDensity     = "LOW_DETECTION_DENSITY"
	FlagSizeVariation  = "HIGH_SIZE_VARIATION"
	FlagManySmallAreas = "MANY_SMALL_OBJECTS"
	FlagManyLargeAreas = "MANY_LARGE_OBJECTS"
)

// QualityStatistics is the raw data the assessment was derived from.
type QualityStatistics struct {
	TotalDetections        int               `json:"total_detections"`
	ConfidenceDistribution ConfidenceBuckets `json:"confidence_distribution"`
	ClassDistribution      map[string]int    `json:"class_distribution"`
	AreaMean               float64           `json:"area_mean"`
	AreaStd                float64           `json:"area_std"`
	AreaCount              int               `json:"area_count"`
}

// Assessment is the quality assessor's verdict on one detection set.
type Assessment struct {
	Level             QualityLevel      `json:"overall_quality"`
	Score             float64           `json:"quality_score"`
	ConfidenceQuality float64           `json:"confidence_quality"`
	Flags             []string          `json:"flags"`
	Recommendations   []string          `json:"recommendations"`
	Statistics        QualityStatistics `json:"statistics"`
}

// Assess computes diagnostic flags, recommendations, and a composite quality
// score for a resolved detection set. It is pure: the same input always
// yields the same assessment.
func Assess(dets []labelmap.ResolvedDetection) Assessment {
	if len(dets) == 0 {
		return Assessment{
			Level:           QualityNoDetections,
			Flags:           []string{},
			Recommendations: []string{},
			Statistics:      QualityStatistics{ClassDistribution: map[string]int{}},
		}
	}

	flags := []string{}
	recommendations := []string{}
	total := len(dets)

	var buckets ConfidenceBuckets
	areas := make([]float64, 0, total)
	for _, d := range dets {
		buckets.Add(d.Confidence)
		if a := d.Area(); a > 0 {
			areas = append(areas, a)
		}
	}

	confidenceQuality := float64(buckets.High) / float64(total)
	if confidenceQuality > 0.7 {
		flags = append(flags, FlagHighConfidence)
	} else if confidenceQuality < 0.3 {
		flags = append(flags, FlagLowConfidence)
		recommendations = append(recommendations, "Consider lowering confidence thresholds or improving model")
	}

	distribution := ClassDistribution(dets)
	maxCount, minCount := 0, total+1
	for _, count := range distribution {
		if count > maxCount {
			maxCount = count
		}
		if count < minCount {
			minCount = count
		}
	}
	if float64(maxCount)/float64(minCount) > 5 {
		flags = append(flags, FlagImbalanced)
		recommendations = append(recommendations, "Class distribution is highly imbalanced")
	}

	if total > 50 {
		flags = append(flags, FlagHighDensity)
		recommendations = append(recommendations, "Consider applying stricter filtering or NMS")
	} else if total < 5 {
		flags = append(flags, FlagLowDensity)
		recommendations = append(recommendations, "Consider lowering confidence thresholds")
	}

	var areaMean, areaStd float64
	if len(areas) > 0 {
		areaMean = newStats(areas).Mean
		areaStd = popStd(areas)
		if areaMean > 0 && areaStd/areaMean > 2 {
			flags = append(flags, FlagSizeVariation)
		}
		verySmall, veryLarge := 0, 0
		for _, a := range areas {
			if a < 500 {
				verySmall++
			}
			if a > 50000 {
				veryLarge++
			}
		}
		if float64(verySmall)/float64(len(areas)) > 0.3 {
			flags = append(flags, FlagManySmallAreas)
			recommendations = append(recommendations, "Consider increasing minimum area threshold")
		}
		if float64(veryLarge)/float64(len(areas)) > 0.2 {
			flags = append(flags, FlagManyLargeAreas)
			recommendations = append(recommendations, "Large objects detected - verify they are not background")
		}
	}

	score := confidenceQuality*0.4 +
		math.Min(1.0, float64(total)/20.)*0.3 +
		(1-math.Min(1.0, float64(len(distribution))/10.))*0.3
	if score < 0 {
		score = 0
	} else if score > 1 {
		score = 1
	}

	var level QualityLevel
	switch {
	case score > 0.8:
		level = QualityExcellent
	case score > 0.6:
		level = QualityGood
	case score > 0.4:
		level = QualityFair
	default:
		level = QualityPoor
		recommendations = append(recommendations, "Consider reviewing detection pipeline parameters")
	}

	return Assessment{
		Level:             level,
		Score:             round3(score),
		ConfidenceQuality: confidenceQuality,
		Flags:             flags,
		Recommendations:   recommendations,
		Statistics: QualityStatistics{
			TotalDetections:        total,
			ConfidenceDistribution: buckets,
			ClassDistribution:      distribution,
			AreaMean:               areaMean,
			AreaStd:                areaStd,
			AreaCount:              len(areas),
		},
	}
}
