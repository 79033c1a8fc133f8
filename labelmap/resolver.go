package labelmap

import (
	"context"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"

	"go.viam.com/detect/objectdetection"
)

// MappingMethod records which resolution rule produced a canonical label.
type MappingMethod string

// The resolution methods, in ladder order.
const (
	MethodNone        = MappingMethod("none")
	MethodDirectMatch = MappingMethod("direct_match")
	MethodSynonym     = MappingMethod("synonym")
	MethodZeroShot    = MappingMethod("zero_shot")
)

// Resolution reasons surfaced in reports. Classifier failures show up here
// and nowhere else.
const (
	reasonDirectMatch     = "high confidence direct match"
	reasonSynonym         = "synonym table match"
	reasonZeroShot        = "beneficial zero-shot mapping"
	reasonScoreTooLow     = "mapping confidence too low"
	reasonOriginalBetter  = "original prediction more confident"
	reasonTooConfident    = "original prediction too confident for mapping"
	reasonUnavailable     = "semantic classifier unavailable"
	reasonNoMappingNeeded = "no mapping needed"
)

// Resolution is the outcome of resolving one raw label. CanonicalLabel is
// never empty; it falls back to the raw label.
type Resolution struct {
	RawLabel          string        `json:"raw_label"`
	CanonicalLabel    string        `json:"canonical_label"`
	Method            MappingMethod `json:"mapping_method"`
	MappingConfidence float64       `json:"mapping_confidence"`
	Reason            string        `json:"mapping_reason"`
}

// ResolvedDetection is a detection together with its label resolution.
type ResolvedDetection struct {
	objectdetection.Detection
	Resolution
}

// ResolverConfig holds the resolver's tunables. The zero value takes
// defaults on every field.
type ResolverConfig struct {
	// MappingThreshold is the minimum zero-shot score to consider a mapping.
	MappingThreshold float64 `json:"mapping_threshold"`
	// Synonyms overlays the built-in synonym table.
	Synonyms  map[string][]string `json:"synonyms"`
	CacheSize int                 `json:"cache_size"`
	CacheTTL  time.Duration       `json:"-"`
}

// DefaultMappingThreshold is the minimum zero-shot score considered.
const DefaultMappingThreshold = 0.5

// Resolver maps raw classifier labels to canonical labels. It holds an
// explicit synonym table and an optional semantic classifier; there is no
// process-global state. Safe for concurrent use.
type Resolver struct {
	table      *SynonymTable
	classifier Classifier
	threshold  float64
	cache      *resultCache
	logger     golog.Logger
}

// NewResolver builds a resolver. classifier may be nil, in which case the
// zero-shot rule is skipped entirely.
func NewResolver(cfg ResolverConfig, classifier Classifier, logger golog.Logger) *Resolver {
	threshold := cfg.MappingThreshold
	if threshold <= 0 {
		threshold = DefaultMappingThreshold
	}
	return &Resolver{
		table:      NewSynonymTable(cfg.Synonyms),
		classifier: classifier,
		threshold:  threshold,
		cache:      newResultCache(cfg.CacheSize, cfg.CacheTTL, clock.New()),
		logger:     logger,
	}
}

// Table exposes the resolver's synonym table for runtime extension.
func (r *Resolver) Table() *SynonymTable {
	return r.table
}

// Resolve maps one raw label to a canonical label. The ladder terminates at
// the first accepting rule: direct candidate match, synonym lookup,
// zero-shot fallback, then the raw label itself. confidence is the
// detection's calibrated confidence.
func (r *Resolver) Resolve(ctx context.Context, rawLabel string, confidence float64, candidates []string) Resolution {
	res := Resolution{
		RawLabel:          rawLabel,
		CanonicalLabel:    rawLabel,
		Method:            MethodNone,
		MappingConfidence: confidence,
		Reason:            reasonNoMappingNeeded,
	}

	// Rule 1: a high-confidence prediction already naming a candidate is
	// kept as-is. The substring check is deliberately fuzzy in both
	// directions ("van" matches inside "caravan"); the matched candidate is
	// recorded so over-matches stay visible.
	if len(candidates) > 0 && confidence > 0.8 {
		lowered := strings.ToLower(rawLabel)
		for _, candidate := range candidates {
			lc := strings.ToLower(candidate)
			if strings.Contains(lowered, lc) || strings.Contains(lc, lowered) {
				res.CanonicalLabel = candidate
				res.Method = MethodDirectMatch
				res.Reason = reasonDirectMatch
				return res
			}
		}
	}

	// Rule 2: synonym table.
	if canonical, ok := r.table.Lookup(rawLabel); ok && canonical != rawLabel {
		res.CanonicalLabel = canonical
		res.Method = MethodSynonym
		res.MappingConfidence = 1.0
		res.Reason = reasonSynonym
		return res
	}

	// Rule 3: zero-shot fallback, only for uncertain predictions.
	if r.classifier != nil && len(candidates) > 0 {
		if confidence >= 0.9 {
			res.Reason = reasonTooConfident
			return res
		}
		outcome := r.classify(ctx, rawLabel, candidates)
		switch {
		case outcome.unavailable:
			res.Reason = reasonUnavailable
		case outcome.top.Score < r.threshold:
			res.Reason = reasonScoreTooLow
		case outcome.top.Score > confidence+0.1 || confidence < 0.6:
			res.CanonicalLabel = outcome.top.Label
			res.Method = MethodZeroShot
			res.MappingConfidence = outcome.top.Score
			res.Reason = reasonZeroShot
		default:
			res.Reason = reasonOriginalBetter
		}
	}

	// Rule 4: keep the raw label.
	return res
}

// ResolveAll resolves a batch of detections against one candidate list,
// preserving order.
func (r *Resolver) ResolveAll(
	ctx context.Context,
	dets []objectdetection.Detection,
	candidates []string,
) []ResolvedDetection {
	out := make([]ResolvedDetection, 0, len(dets))
	for _, d := range dets {
		out = append(out, ResolvedDetection{
			Detection:  d,
			Resolution: r.Resolve(ctx, d.RawLabel, d.Confidence, candidates),
		})
	}
	return out
}

// classifyOutcome is the resolver's view of one zero-shot call: either a top
// ranking or classifier unavailability. Errors never leave the resolver.
type classifyOutcome struct {
	top         Ranking
	unavailable bool
}

func (r *Resolver) classify(ctx context.Context, query string, candidates []string) classifyOutcome {
	key := cacheKey(query, candidates)
	if rankings, ok := r.cache.get(key); ok {
		return classifyOutcome{top: rankings[0]}
	}
	// A caller-imposed deadline that already passed means remaining
	// zero-shot calls are abandoned, not that the image fails.
	if ctx.Err() != nil {
		r.logger.Debugw("zero-shot call abandoned", "label", query, "error", ctx.Err())
		return classifyOutcome{unavailable: true}
	}
	rankings, err := r.classifier.Classify(ctx, query, candidates)
	if err != nil {
		r.logger.Debugw("zero-shot classification failed", "label", query, "error", err)
		return classifyOutcome{unavailable: true}
	}
	if len(rankings) == 0 {
		r.logger.Debugw("zero-shot classification returned no rankings", "label", query)
		return classifyOutcome{unavailable: true}
	}
	r.cache.put(key, rankings)
	return classifyOutcome{top: rankings[0]}
}
