package labelmap

import (
	"context"
	"testing"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/detect/objectdetection"
)

// countingClassifier always ranks the first candidate highest and counts
// calls.
type countingClassifier struct {
	calls int
	score float64
	err   error
}

func (cc *countingClassifier) Classify(ctx context.Context, query string, candidates []string) ([]Ranking, error) {
	cc.calls++
	if cc.err != nil {
		return nil, cc.err
	}
	rankings := make([]Ranking, 0, len(candidates))
	score := cc.score
	for _, c := range candidates {
		rankings = append(rankings, Ranking{Label: c, Score: score})
		score /= 2
	}
	return rankings, nil
}

func TestResolveDirectMatch(t *testing.T) {
	t.Parallel()
	r := NewResolver(ResolverConfig{}, nil, golog.NewTestLogger(t))
	got := r.Resolve(context.Background(), "red sports car", 0.95, []string{"car", "tree"})
	test.That(t, got.CanonicalLabel, test.ShouldEqual, "car")
	test.That(t, got.Method, test.ShouldEqual, MethodDirectMatch)
	test.That(t, got.MappingConfidence, test.ShouldEqual, 0.95)

	// the substring match works in both directions
	got = r.Resolve(context.Background(), "van", 0.95, []string{"caravan"})
	test.That(t, got.Method, test.ShouldEqual, MethodDirectMatch)
	test.That(t, got.CanonicalLabel, test.ShouldEqual, "caravan")

	// not at or below 0.8 confidence
	got = r.Resolve(context.Background(), "red sports car", 0.8, []string{"car", "tree"})
	test.That(t, got.Method, test.ShouldNotEqual, MethodDirectMatch)
}

func TestResolveSynonym(t *testing.T) {
	t.Parallel()
	r := NewResolver(ResolverConfig{}, nil, golog.NewTestLogger(t))
	got := r.Resolve(context.Background(), "puppy", 0.7, nil)
	test.That(t, got.CanonicalLabel, test.ShouldEqual, "dog")
	test.That(t, got.Method, test.ShouldEqual, MethodSynonym)
	test.That(t, got.MappingConfidence, test.ShouldEqual, 1.0)

	// every synonym of an unambiguous canonical label resolves to it, and
	// canonical labels resolve to themselves
	for _, canonical := range []string{"person", "dog", "cat", "tree", "phone"} {
		got = r.Resolve(context.Background(), canonical, 0.7, nil)
		test.That(t, got.CanonicalLabel, test.ShouldEqual, canonical)
		for _, syn := range r.Table().Synonyms(canonical) {
			got = r.Resolve(context.Background(), syn, 0.7, nil)
			test.That(t, got.CanonicalLabel, test.ShouldEqual, canonical)
			test.That(t, got.Method, test.ShouldEqual, MethodSynonym)
		}
	}
}

func TestResolveZeroShot(t *testing.T) {
	t.Parallel()
	logger := golog.NewTestLogger(t)
	candidates := []string{"horse", "cow"}

	// accepted: score above threshold and well above the raw confidence
	cc := &countingClassifier{score: 0.85}
	r := NewResolver(ResolverConfig{}, cc, logger)
	got := r.Resolve(context.Background(), "palomino", 0.7, candidates)
	test.That(t, got.Method, test.ShouldEqual, MethodZeroShot)
	test.That(t, got.CanonicalLabel, test.ShouldEqual, "horse")
	test.That(t, got.MappingConfidence, test.ShouldEqual, 0.85)

	// accepted: weak original prediction even without a score margin
	cc = &countingClassifier{score: 0.55}
	r = NewResolver(ResolverConfig{}, cc, logger)
	got = r.Resolve(context.Background(), "palomino", 0.5, candidates)
	test.That(t, got.Method, test.ShouldEqual, MethodZeroShot)

	// rejected: score under the mapping threshold
	cc = &countingClassifier{score: 0.4}
	r = NewResolver(ResolverConfig{}, cc, logger)
	got = r.Resolve(context.Background(), "palomino", 0.5, candidates)
	test.That(t, got.Method, test.ShouldEqual, MethodNone)
	test.That(t, got.CanonicalLabel, test.ShouldEqual, "palomino")
	test.That(t, got.Reason, test.ShouldEqual, "mapping confidence too low")

	// rejected: confident original with no margin
	cc = &countingClassifier{score: 0.75}
	r = NewResolver(ResolverConfig{}, cc, logger)
	got = r.Resolve(context.Background(), "palomino", 0.7, candidates)
	test.That(t, got.Method, test.ShouldEqual, MethodNone)
	test.That(t, got.Reason, test.ShouldEqual, "original prediction more confident")

	// skipped: original prediction too confident to second-guess
	cc = &countingClassifier{score: 0.99}
	r = NewResolver(ResolverConfig{}, cc, logger)
	got = r.Resolve(context.Background(), "palomino", 0.9, candidates)
	test.That(t, got.Method, test.ShouldEqual, MethodNone)
	test.That(t, got.Reason, test.ShouldEqual, "original prediction too confident for mapping")
	test.That(t, cc.calls, test.ShouldEqual, 0)

	// skipped entirely without candidates
	cc = &countingClassifier{score: 0.99}
	r = NewResolver(ResolverConfig{}, cc, logger)
	got = r.Resolve(context.Background(), "palomino", 0.5, nil)
	test.That(t, got.Method, test.ShouldEqual, MethodNone)
	test.That(t, got.Reason, test.ShouldEqual, "no mapping needed")
	test.That(t, cc.calls, test.ShouldEqual, 0)
}

func TestResolveClassifierFailure(t *testing.T) {
	t.Parallel()
	logger, observed := golog.NewObservedTestLogger(t)
	cc := &countingClassifier{err: errors.New("model exploded")}
	r := NewResolver(ResolverConfig{}, cc, logger)

	got := r.Resolve(context.Background(), "palomino", 0.5, []string{"horse"})
	test.That(t, got.CanonicalLabel, test.ShouldEqual, "palomino")
	test.That(t, got.Method, test.ShouldEqual, MethodNone)
	test.That(t, got.Reason, test.ShouldEqual, "semantic classifier unavailable")
	test.That(t, observed.FilterMessageSnippet("zero-shot classification failed").Len(), test.ShouldEqual, 1)
}

func TestResolveMemoization(t *testing.T) {
	t.Parallel()
	cc := &countingClassifier{score: 0.85}
	r := NewResolver(ResolverConfig{}, cc, golog.NewTestLogger(t))
	candidates := []string{"horse", "cow"}

	for i := 0; i < 5; i++ {
		r.Resolve(context.Background(), "palomino", 0.5, candidates)
	}
	test.That(t, cc.calls, test.ShouldEqual, 1)

	// a different candidate set is a different key
	r.Resolve(context.Background(), "palomino", 0.5, []string{"horse"})
	test.That(t, cc.calls, test.ShouldEqual, 2)
	// same set in a different order is the same key
	r.Resolve(context.Background(), "palomino", 0.5, []string{"cow", "horse"})
	test.That(t, cc.calls, test.ShouldEqual, 2)
}

func TestResolveExpiredContext(t *testing.T) {
	t.Parallel()
	cc := &countingClassifier{score: 0.85}
	r := NewResolver(ResolverConfig{}, cc, golog.NewTestLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	got := r.Resolve(ctx, "palomino", 0.5, []string{"horse"})
	test.That(t, got.Method, test.ShouldEqual, MethodNone)
	test.That(t, got.Reason, test.ShouldEqual, "semantic classifier unavailable")
	test.That(t, cc.calls, test.ShouldEqual, 0)
}

func TestResolveAll(t *testing.T) {
	t.Parallel()
	r := NewResolver(ResolverConfig{}, nil, golog.NewTestLogger(t))
	dets := []objectdetection.Detection{
		{
			RawSegment: objectdetection.RawSegment{
				SegmentID:     0,
				BoundingBox:   objectdetection.BoundingBox{W: 10, H: 10},
				RawLabel:      "puppy",
				RawConfidence: 0.7,
			},
			Confidence:           0.7,
			SizeFactor:           objectdetection.SizeSmall,
			ConfidenceAdjustment: 1,
		},
	}
	resolved := r.ResolveAll(context.Background(), dets, nil)
	test.That(t, resolved, test.ShouldHaveLength, 1)
	test.That(t, resolved[0].CanonicalLabel, test.ShouldEqual, "dog")
	test.That(t, resolved[0].SegmentID, test.ShouldEqual, 0)
}
