// Command crackscan runs the crack detection pipeline over image files
// and writes an annotated copy next to each input. Useful for tuning the
// sensitivity and edge thresholds against captured frames.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/png"
	"log"
	"math"
	"os"
	"path/filepath"
	"strings"

	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"

	"github.com/banshee-data/sitescan/internal/config"
	"github.com/banshee-data/sitescan/internal/vision"
)

var (
	configPath  = flag.String("config", "", "Path to tuning config JSON")
	sensitivity = flag.Float64("sensitivity", 0, "Override crack sensitivity (0 keeps config value)")
	noAnnotate  = flag.Bool("no-annotate", false, "Skip writing annotated copies")
)

func annotatedPath(input string) string {
	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + "_cracks.png"
}

func scanFile(det *vision.CrackDetector, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return fmt.Errorf("failed to decode: %w", err)
	}
	frame, err := vision.NewFrame(img)
	if err != nil {
		return err
	}

	res, err := det.Detect(frame)
	if err != nil {
		return err
	}

	fmt.Printf("%s (%s %dx%d): cracks=%d confidence=%.2f total_length=%.0fpx\n",
		path, format, frame.Width(), frame.Height(),
		res.CrackCount, res.Confidence, res.TotalLength)
	for _, seg := range res.Segments {
		fmt.Printf("  segment (%.0f,%.0f)-(%.0f,%.0f) length=%.0fpx angle=%.0fdeg\n",
			seg.X1, seg.Y1, seg.X2, seg.Y2, seg.Length(), seg.Angle()*180/math.Pi)
	}

	if *noAnnotate || res.CrackCount == 0 {
		return nil
	}
	out := annotatedPath(path)
	w, err := os.Create(out)
	if err != nil {
		return err
	}
	defer w.Close()
	if err := png.Encode(w, res.Annotated.Image()); err != nil {
		return err
	}
	fmt.Printf("  wrote %s\n", out)
	return nil
}

func main() {
	flag.Parse()
	if flag.NArg() == 0 {
		log.Fatal("usage: crackscan [flags] image...")
	}

	cfg := config.EmptyTuningConfig()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadTuningConfig(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}

	sens := cfg.GetCameraCrackThreshold()
	if *sensitivity > 0 {
		sens = *sensitivity
	}
	det, err := vision.NewCrackDetector(vision.DetectorConfig{
		Sensitivity:       sens,
		MinCrackLength:    cfg.GetMinCrackLength(),
		EdgeLowThreshold:  cfg.GetEdgeLowThreshold(),
		EdgeHighThreshold: cfg.GetEdgeHighThreshold(),
	})
	if err != nil {
		log.Fatalf("invalid detector config: %v", err)
	}

	failed := 0
	for _, path := range flag.Args() {
		if err := scanFile(det, path); err != nil {
			log.Printf("%s: %v", path, err)
			failed++
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
}
