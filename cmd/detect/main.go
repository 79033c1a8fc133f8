// Command detect post-processes raw segmentation output into a detection
// report: calibration, filtering, deduplication, label resolution,
// aggregation, and quality assessment.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/edaniels/golog"

	"go.viam.com/detect/labelmap"
	"go.viam.com/detect/objectdetection"
	"go.viam.com/detect/pipeline"
)

func main() {
	segmentsPtr := flag.String("segments", "", "path to a json file of raw segments")
	configPtr := flag.String("config", "", "path to a pipeline config file (defaults apply when empty)")
	classifierPtr := flag.String("classifier", "", "url of a zero-shot classification service")
	imagePtr := flag.String("image", "input", "image name to record in the report")
	outPtr := flag.String("out", "", "write the report to this file instead of stdout")
	flag.Parse()
	logger := golog.NewLogger("detect")
	run(*segmentsPtr, *configPtr, *classifierPtr, *imagePtr, *outPtr, logger)
	os.Exit(0)
}

func run(segmentsPath, configPath, classifierURL, image, outPath string, logger golog.Logger) {
	cfg := pipeline.DefaultConfig()
	if configPath != "" {
		loaded, err := pipeline.LoadConfig(configPath)
		if err != nil {
			logger.Fatal(err)
		}
		cfg = *loaded
	}

	var classifier labelmap.Classifier
	if classifierURL != "" {
		classifier = labelmap.NewRemoteClassifier(classifierURL, cfg.ClassifierTimeout())
	}

	p, err := pipeline.New(cfg, classifier, logger)
	if err != nil {
		logger.Fatal(err)
	}

	//nolint:gosec
	body, err := os.ReadFile(segmentsPath)
	if err != nil {
		logger.Fatal(err)
	}
	var segments []objectdetection.RawSegment
	if err := json.Unmarshal(body, &segments); err != nil {
		logger.Fatal(err)
	}

	report, err := p.Process(context.Background(), image, segments)
	if err != nil {
		logger.Fatal(err)
	}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		logger.Fatal(err)
	}
	if outPath == "" {
		//nolint:forbidigo
		fmt.Println(string(out))
		return
	}
	if err := os.WriteFile(outPath, append(out, '\n'), 0o600); err != nil {
		logger.Fatal(err)
	}
	logger.Infof("wrote report for %q to %s", image, outPath)
}
