package objectdetection

import "strings"

// Postprocessor defines a function that filters/modifies on an incoming array of Detections.
type Postprocessor func([]Detection) []Detection

// NewScoreFilter returns a function that filters out detections below a certain
// calibrated confidence.
func NewScoreFilter(conf float64) Postprocessor {
	return func(in []Detection) []Detection {
		out := make([]Detection, 0, len(in))
		for _, d := range in {
			if d.Confidence >= conf {
				out = append(out, d)
			}
		}
		return out
	}
}

// NewMinAreaFilter returns a function that filters out detections below a certain area.
func NewMinAreaFilter(area float64) Postprocessor {
	return func(in []Detection) []Detection {
		out := make([]Detection, 0, len(in))
		for _, d := range in {
			if d.Area() >= area {
				out = append(out, d)
			}
		}
		return out
	}
}

// NewMaxAreaFilter returns a function that filters out detections above a certain area.
func NewMaxAreaFilter(area float64) Postprocessor {
	return func(in []Detection) []Detection {
		out := make([]Detection, 0, len(in))
		for _, d := range in {
			if d.Area() <= area {
				out = append(out, d)
			}
		}
		return out
	}
}

// NewConfidenceBoost returns a function that multiplies the confidence of
// detections with one of the given labels by factor, capped at 1.0. Label
// comparison is case-insensitive. An empty label list boosts nothing.
func NewConfidenceBoost(labels []string, factor float64) Postprocessor {
	boosted := make(map[string]bool, len(labels))
	for _, l := range labels {
		boosted[strings.ToLower(l)] = true
	}
	return func(in []Detection) []Detection {
		if len(boosted) < 1 {
			return in
		}
		out := make([]Detection, 0, len(in))
		for _, d := range in {
			if boosted[strings.ToLower(d.RawLabel)] {
				d.Confidence = clamp01(d.Confidence * factor)
			}
			out = append(out, d)
		}
		return out
	}
}

// ComposePostprocessors chains postprocessors left to right.
func ComposePostprocessors(pps ...Postprocessor) Postprocessor {
	return func(in []Detection) []Detection {
		for _, pp := range pps {
			in = pp(in)
		}
		return in
	}
}
