package pipeline

import (
	"context"
	"math"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"go.viam.com/detect/objectdetection"
)

// CrossImageStats describes how one class behaves across a batch of images.
type CrossImageStats struct {
	AppearsInImages  int     `json:"appears_in_images"`
	TotalImages      int     `json:"total_images"`
	Frequency        float64 `json:"frequency"`
	AvgCountPerImage float64 `json:"avg_count_per_image"`
	CountVariance    float64 `json:"count_variance"`
	// ConsistencyScore is 1 - std/mean of per-image counts, floored at 0;
	// a class detected the same number of times everywhere scores 1.
	ConsistencyScore float64 `json:"consistency_score"`
}

// BatchSummary condenses a batch run.
type BatchSummary struct {
	Images          int     `json:"images"`
	TotalDetections int     `json:"total_detections"`
	UniqueClasses   int     `json:"unique_classes"`
	AverageQuality  float64 `json:"average_quality"`
}

// BatchReport is the output of processing several images with one pipeline.
type BatchReport struct {
	Reports    map[string]*Report         `json:"reports"`
	CrossImage map[string]CrossImageStats `json:"cross_image"`
	Summary    BatchSummary               `json:"summary"`
}

// ProcessBatch runs the pipeline over a set of images concurrently, bounded
// by the configured worker count. The first per-image error aborts the
// batch.
func (p *Pipeline) ProcessBatch(ctx context.Context, images map[string][]objectdetection.RawSegment) (*BatchReport, error) {
	reports := make(map[string]*Report, len(images))
	var mu sync.Mutex
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(p.cfg.workerCount())
	for image, segments := range images {
		image, segments := image, segments
		group.Go(func() error {
			report, err := p.Process(groupCtx, image, segments)
			if err != nil {
				return err
			}
			mu.Lock()
			reports[image] = report
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return newBatchReport(reports), nil
}

func newBatchReport(reports map[string]*Report) *BatchReport {
	batch := &BatchReport{
		Reports:    reports,
		CrossImage: map[string]CrossImageStats{},
		Summary:    BatchSummary{Images: len(reports)},
	}

	// Per-class counts per image, in sorted image order so derived stats
	// are reproducible.
	imageNames := make([]string, 0, len(reports))
	for name := range reports {
		imageNames = append(imageNames, name)
	}
	sort.Strings(imageNames)

	counts := map[string][]float64{}
	qualitySum := 0.
	for _, name := range imageNames {
		report := reports[name]
		batch.Summary.TotalDetections += report.Summary.TotalObjects
		qualitySum += report.Summary.Quality.Score
		for label, count := range report.Summary.ClassDistribution {
			counts[label] = append(counts[label], float64(count))
		}
	}
	batch.Summary.UniqueClasses = len(counts)
	if len(reports) > 0 {
		batch.Summary.AverageQuality = round3(qualitySum / float64(len(reports)))
	}

	for label, perImage := range counts {
		batch.CrossImage[label] = crossImageStats(perImage, len(reports))
	}
	return batch
}

func crossImageStats(perImage []float64, totalImages int) CrossImageStats {
	stats := CrossImageStats{
		AppearsInImages: len(perImage),
		TotalImages:     totalImages,
	}
	if totalImages > 0 {
		stats.Frequency = round3(float64(len(perImage)) / float64(totalImages))
	}
	mean := stat.Mean(perImage, nil)
	stats.AvgCountPerImage = round3(mean)
	variance := 0.
	if len(perImage) > 1 {
		variance = stat.PopVariance(perImage, nil)
		stats.CountVariance = round3(variance)
	}
	if mean > 0 {
		stats.ConsistencyScore = round3(math.Max(0, 1-math.Sqrt(variance)/mean))
	}
	return stats
}
