package objectdetection

// NewNMSFilter returns a function that removes overlapping detections of the
// same underlying region with non-maximum suppression: detections are walked
// in descending confidence order (stable on input order for ties) and every
// later detection whose IoU with an accepted one exceeds iouThreshold is
// suppressed. The output stays in descending confidence order.
func NewNMSFilter(iouThreshold float64) Postprocessor {
	return func(in []Detection) []Detection {
		if len(in) == 0 {
			return []Detection{}
		}
		sorted := make([]Detection, len(in))
		copy(sorted, in)
		SortByConfidence(sorted)

		suppressed := make([]bool, len(sorted))
		out := make([]Detection, 0, len(sorted))
		for i, d := range sorted {
			if suppressed[i] {
				continue
			}
			out = append(out, d)
			for j := i + 1; j < len(sorted); j++ {
				if suppressed[j] {
					continue
				}
				if IoU(d.BoundingBox, sorted[j].BoundingBox) > iouThreshold {
					suppressed[j] = true
				}
			}
		}
		return out
	}
}
