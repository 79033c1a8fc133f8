package labelmap

// Predefined candidate label sets for common scenes.
var candidateSets = map[string][]string{
	"general": {"person", "car", "dog", "cat", "bird", "bicycle", "motorcycle", "bus", "truck", "tree", "building"},
	"traffic": {"person", "car", "truck", "bus", "motorcycle", "bicycle", "traffic_light", "stop_sign", "road"},
	"indoor":  {"person", "chair", "table", "cup", "bottle", "computer", "phone", "tv", "book"},
	"outdoor": {"person", "car", "tree", "building", "dog", "cat", "bird", "bicycle", "road", "sky"},
	"animals": {"dog", "cat", "bird", "horse", "cow", "sheep", "elephant", "bear", "zebra", "giraffe"},
}

// CandidateSet returns a copy of the named candidate label set, falling back
// to the general set for unknown names.
func CandidateSet(name string) []string {
	set, ok := candidateSets[name]
	if !ok {
		set = candidateSets["general"]
	}
	out := make([]string, len(set))
	copy(out, set)
	return out
}
