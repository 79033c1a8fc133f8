package pipeline

import (
	"context"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.viam.com/utils"

	"go.viam.com/detect/aggregation"
	"go.viam.com/detect/labelmap"
	"go.viam.com/detect/objectdetection"
)

// Pipeline runs the full post-processing sequence over raw segments:
// calibration, confidence and area filtering, non-maximum suppression,
// label resolution, per-class aggregation, and quality assessment.
// Safe for concurrent use.
type Pipeline struct {
	cfg      Config
	filter   objectdetection.Postprocessor
	nms      objectdetection.Postprocessor
	resolver *labelmap.Resolver
	logger   golog.Logger
	clock    clock.Clock
}

// New builds a pipeline from a validated config. classifier may be nil, in
// which case zero-shot label resolution is skipped.
func New(cfg Config, classifier labelmap.Classifier, logger golog.Logger) (*Pipeline, error) {
	if err := cfg.Validate("pipeline"); err != nil {
		return nil, err
	}
	filters := []objectdetection.Postprocessor{
		objectdetection.NewConfidenceBoost(cfg.BoostClasses, cfg.BoostFactor),
		objectdetection.NewScoreFilter(cfg.ConfidenceThreshold),
		objectdetection.NewMinAreaFilter(cfg.MinArea),
	}
	if cfg.MaxArea > 0 {
		filters = append(filters, objectdetection.NewMaxAreaFilter(cfg.MaxArea))
	}
	resolver := labelmap.NewResolver(labelmap.ResolverConfig{
		MappingThreshold: cfg.MappingThreshold,
		Synonyms:         cfg.Synonyms,
		CacheSize:        cfg.CacheSize,
		CacheTTL:         cfg.cacheTTL(),
	}, classifier, logger)
	return &Pipeline{
		cfg:      cfg,
		filter:   objectdetection.ComposePostprocessors(filters...),
		nms:      objectdetection.NewNMSFilter(cfg.IoUThreshold),
		resolver: resolver,
		logger:   logger,
		clock:    clock.New(),
	}, nil
}

// Resolver exposes the pipeline's label resolver, e.g. to extend its
// synonym table at runtime.
func (p *Pipeline) Resolver() *labelmap.Resolver {
	return p.resolver
}

// Process post-processes one image's raw segments into a report. The input
// slice is not modified. Returns an error only when a segment is malformed;
// ctx expiry degrades zero-shot resolution instead of failing the image.
func (p *Pipeline) Process(ctx context.Context, image string, segments []objectdetection.RawSegment) (*Report, error) {
	start := p.clock.Now()
	if err := objectdetection.ValidateSegments(segments); err != nil {
		return nil, errors.Wrapf(err, "cannot process %q", image)
	}

	calibrated := p.calibrate(segments)
	filtered := p.filter(calibrated)
	deduped := p.nms(filtered)

	// An expired ctx does not abort the image: the resolver abandons
	// zero-shot calls and falls back to its other rules.
	resolved := p.resolver.ResolveAll(ctx, deduped, p.cfg.candidates())

	enriched, classStats := aggregation.Aggregate(resolved)
	quality := aggregation.Assess(resolved)

	elapsed := p.clock.Since(start).Seconds()
	report := &Report{
		Image:      image,
		Detections: enriched,
		Summary:    newSummary(len(segments), len(filtered), len(deduped), enriched, quality, round3(elapsed)),
	}
	p.logger.Debugw("processed image",
		"image", image,
		"segments", len(segments),
		"detections", len(enriched),
		"classes", len(classStats),
		"quality", quality.Level,
	)
	return report, nil
}

// calibrate runs per-segment calibration across a bounded worker pool.
// Workers write to their own indices, so the output order matches the input.
func (p *Pipeline) calibrate(segments []objectdetection.RawSegment) []objectdetection.Detection {
	dets := make([]objectdetection.Detection, len(segments))
	workers := p.cfg.workerCount()
	if workers > len(segments) {
		workers = len(segments)
	}
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		stride := w
		utils.PanicCapturingGo(func() {
			defer wg.Done()
			for i := stride; i < len(segments); i += workers {
				dets[i] = objectdetection.Calibrate(segments[i])
			}
		})
	}
	wg.Wait()
	return dets
}
