// Command inspect checks a reconstruction dataset and runs the data module
// loaders over it, without training anything.
//
// It validates the split layout, sets up the fit and/or test stages, reads the
// requested number of epochs from every loader and reports throughput. With
// -plot it also writes a histogram of how many times each training image was
// drawn, which is useful to check the oversampling of small datasets.
//
// Usage:
//
//	go run ./cmd/inspect -data_dir ~/data/coco -num_samples 2000 -stage fit -plot draws.png
//
// Options can also be set with AME_* environment variables (e.g. AME_DATA_DIR),
// flags take precedence.
package main

import (
	"context"
	"flag"
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/bozeklab/AME/datamodule"
	"github.com/dustin/go-humanize"
	"github.com/janpfeifer/must"
	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"k8s.io/klog/v2"
)

var (
	flagStage    = flag.String("stage", "all", "Stages to run: \"fit\", \"test\" or \"all\".")
	flagEpochs   = flag.Int("epochs", 1, "Number of epochs to read from each loader.")
	flagPlot     = flag.String("plot", "", "If set, path of a PNG histogram of the number of draws per training image.")
	flagProgress = flag.Bool("progress", true, "Display a progress bar while reading epochs.")
)

func main() {
	klog.InitFlags(nil)
	cfg := datamodule.DefaultConfig()
	must.M(cfg.LoadEnv())
	cfg.RegisterFlags(flag.CommandLine)
	flag.Parse()
	defer klog.Flush()

	stages, err := parseStages(*flagStage)
	if err != nil {
		klog.Exitf("invalid -stage: %v", err)
	}
	dm := must.M1(datamodule.New(cfg))
	if err := dm.PrepareData(); err != nil {
		klog.Exitf("dataset %q is not usable: %v", cfg.DataDir, err)
	}
	for _, stage := range stages {
		must.M(runStage(dm, stage, *flagEpochs, *flagProgress, *flagPlot))
	}
}

func parseStages(name string) ([]datamodule.Stage, error) {
	if name == "all" {
		return []datamodule.Stage{datamodule.StageFit, datamodule.StageTest}, nil
	}
	stage, err := datamodule.ParseStage(name)
	if err != nil {
		return nil, err
	}
	return []datamodule.Stage{stage}, nil
}

// runStage sets up stage and reads numEpochs epochs of each of its loaders.
func runStage(dm *datamodule.DataModule, stage datamodule.Stage, numEpochs int, progress bool, plotPath string) error {
	if err := dm.Setup(stage); err != nil {
		return err
	}
	switch stage {
	case datamodule.StageFit:
		train, err := dm.TrainLoader()
		if err != nil {
			return err
		}
		draws := make([]int, train.Dataset().Len())
		for range numEpochs {
			if err := readEpoch(train, progress, draws); err != nil {
				return err
			}
		}
		if plotPath != "" {
			if err := plotDraws(draws, plotPath); err != nil {
				return err
			}
			klog.Infof("Wrote training draws histogram to %s", plotPath)
		}
		val, err := dm.ValLoader()
		if err != nil {
			return err
		}
		for range numEpochs {
			if err := readEpoch(val, progress, nil); err != nil {
				return err
			}
		}
	case datamodule.StageTest:
		test, err := dm.TestLoader()
		if err != nil {
			return err
		}
		for range numEpochs {
			if err := readEpoch(test, progress, nil); err != nil {
				return err
			}
		}
	}
	return nil
}

// readEpoch consumes one epoch of loader. If draws is not nil, it counts how
// many times each dataset index was yielded.
func readEpoch(loader *datamodule.Loader, progress bool, draws []int) error {
	var pBar *progressbar.ProgressBar
	if progress {
		pBar = progressbar.NewOptions(loader.NumSamples(),
			progressbar.OptionSetDescription(loader.Name()),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("images"),
			progressbar.OptionSetTheme(progressbar.ThemeUnicode),
		)
	}
	start := time.Now()
	epoch := loader.Iter(context.Background())
	defer epoch.Close()
	var numImages, numBytes int
	for {
		batch, err := epoch.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.WithMessagef(err, "reading %s", loader.Name())
		}
		for i, sample := range batch.Samples {
			numBytes += 4 * len(sample.Pixels)
			if draws != nil {
				draws[batch.Indices[i]]++
			}
		}
		numImages += batch.Len()
		if pBar != nil {
			_ = pBar.Add(batch.Len())
		}
	}
	if pBar != nil {
		_ = pBar.Finish()
		fmt.Fprintln(os.Stderr)
	}
	elapsed := time.Since(start)
	klog.Infof("%s: %s images in %d batches (%s of pixels) in %s, %.1f images/s",
		loader.Name(), humanize.Comma(int64(numImages)), loader.NumBatches(),
		humanize.Bytes(uint64(numBytes)), elapsed.Round(time.Millisecond),
		float64(numImages)/max(elapsed.Seconds(), 1e-9))
	return nil
}

// plotDraws writes a histogram of the number of draws per image.
func plotDraws(draws []int, path string) error {
	if len(draws) == 0 {
		return errors.New("no training images to plot")
	}
	values := make(plotter.Values, len(draws))
	for i, d := range draws {
		values[i] = float64(d)
	}
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Draws per training image (%s images)", humanize.Comma(int64(len(draws))))
	p.X.Label.Text = "draws"
	p.Y.Label.Text = "images"
	bins := min(len(draws), 50)
	hist, err := plotter.NewHist(values, bins)
	if err != nil {
		return errors.Wrap(err, "failed to build histogram")
	}
	hist.FillColor = color.RGBA{R: 20, G: 80, B: 200, A: 220}
	p.Add(hist)
	p.Add(plotter.NewGrid())

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return p.Save(8*vg.Inch, 6*vg.Inch, path)
}
