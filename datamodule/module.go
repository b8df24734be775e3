// Package datamodule wires reconstruction datasets to batch loaders for the
// fit and test stages of a training run.
//
// A DataModule resolves the train, val and test directories of a dataset root
// (see Variant), checks they exist (PrepareData), builds the datasets of a
// stage (SetupFit, SetupTest) and creates the loaders of each split:
//
//   - train: TrainBatchSize, random sampling with replacement of NumSamples images per epoch.
//   - val and test: EvalBatchSize, every image once, in index order.
//
// The loaders of a stage hang off the value returned when the stage is set up,
// so they can't be requested before the datasets exist:
//
//	dm := must.M1(datamodule.New(cfg))
//	fit := must.M1(dm.SetupFit())
//	trainDS := fit.TrainLoader() // implements gomlx train.Dataset.
//
// For callers that prefer the stateful style, Setup(stage) keeps the datasets
// in the DataModule, and TrainLoader, ValLoader and TestLoader return a
// *StageError if the matching stage was not set up.
package datamodule

import (
	"os"

	"github.com/bozeklab/AME/dataloader"
	"github.com/bozeklab/AME/datasets"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Stage of a training run.
type Stage int

const (
	// StageNone is the stage of a DataModule before Setup is called.
	StageNone Stage = iota
	StageFit
	StageTest
)

func (s Stage) String() string {
	switch s {
	case StageNone:
		return "none"
	case StageFit:
		return "fit"
	case StageTest:
		return "test"
	}
	return "unknown"
}

// ParseStage converts "fit" or "test" to a Stage.
func ParseStage(name string) (Stage, error) {
	switch name {
	case "fit":
		return StageFit, nil
	case "test":
		return StageTest, nil
	}
	return StageNone, errors.Wrapf(ErrUnimplementedStage, "%q", name)
}

// Loader is the batch provider type returned for every split.
type Loader = dataloader.Loader[datasets.Sample]

// Reporter receives the number of samples loaded for a split.
type Reporter func(split Split, numSamples int)

// LogReporter is the default Reporter: it logs the count with klog.
func LogReporter(split Split, numSamples int) {
	klog.Infof("Loaded %d %s samples", numSamples, split)
}

// DataModule resolves the splits of a dataset and builds their loaders.
type DataModule struct {
	// Reporter is called with the number of samples of each dataset loaded. Defaults to LogReporter.
	Reporter Reporter

	cfg     Config
	variant Variant
	paths   SplitPaths

	prepared bool

	// Set by Setup.
	stage Stage
	fit   *FitData
	test  *TestData
}

// New creates a DataModule for cfg. It validates cfg and resolves the split
// directories, but doesn't touch the filesystem.
func New(cfg Config) (*DataModule, error) {
	if cfg.Variant == "" {
		cfg.Variant = Coco2014.Name
	}
	variant, err := LookupVariant(cfg.Variant)
	if err != nil {
		return nil, err
	}
	return NewWithVariant(cfg, variant)
}

// NewWithVariant is like New, but uses the given variant instead of looking up cfg.Variant.
func NewWithVariant(cfg Config, variant Variant) (*DataModule, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	paths, err := variant.Resolve(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	cfg.Variant = variant.Name
	return &DataModule{
		Reporter: LogReporter,
		cfg:      cfg,
		variant:  variant,
		paths:    paths,
	}, nil
}

// Config returns the configuration the DataModule was created with.
func (m *DataModule) Config() Config { return m.cfg }

// Paths returns the resolved split directories.
func (m *DataModule) Paths() SplitPaths { return m.paths }

// Stage returns the stage of the last successful Setup, or StageNone.
func (m *DataModule) Stage() Stage { return m.stage }

// PrepareData checks that the three split directories are set and exist.
// Dataset availability is a deployment precondition: any failure is a
// *PreconditionError and nothing is built.
//
// Once it succeeded it is not checked again.
func (m *DataModule) PrepareData() error {
	if m.prepared {
		return nil
	}
	for _, split := range []Split{SplitTrain, SplitVal, SplitTest} {
		path := m.paths.Get(split)
		if path == "" {
			return &PreconditionError{Split: split}
		}
		info, err := os.Stat(path)
		if err != nil {
			return &PreconditionError{Split: split, Path: path, Err: err}
		}
		if !info.IsDir() {
			return &PreconditionError{Split: split, Path: path}
		}
	}
	m.prepared = true
	return nil
}

func (m *DataModule) report(split Split, n int) {
	if m.Reporter != nil {
		m.Reporter(split, n)
	}
}

func (m *DataModule) loadSplit(split Split) (*datasets.ReconstructionDataset, error) {
	ds, err := datasets.NewReconstructionDataset(m.paths.Get(split), m.cfg.ImageSize)
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to load %s split", split)
	}
	return ds, nil
}

// SetupFit builds the train and val datasets.
func (m *DataModule) SetupFit() (*FitData, error) {
	if err := m.PrepareData(); err != nil {
		return nil, err
	}
	train, err := m.loadSplit(SplitTrain)
	if err != nil {
		return nil, err
	}
	m.report(SplitTrain, train.Len())
	val, err := m.loadSplit(SplitVal)
	if err != nil {
		return nil, err
	}
	m.report(SplitVal, val.Len())
	return &FitData{Train: train, Val: val, cfg: m.cfg}, nil
}

// SetupTest builds the test dataset only.
func (m *DataModule) SetupTest() (*TestData, error) {
	if err := m.PrepareData(); err != nil {
		return nil, err
	}
	test, err := m.loadSplit(SplitTest)
	if err != nil {
		return nil, err
	}
	if m.cfg.ReportValCountOnTest {
		// Legacy diagnostic: the val count, from the last fit setup if any.
		n := 0
		if m.fit != nil {
			n = m.fit.Val.Len()
		}
		m.report(SplitTest, n)
	} else {
		m.report(SplitTest, test.Len())
	}
	return &TestData{Test: test, cfg: m.cfg}, nil
}

// Setup enters the given stage, building and keeping its datasets in the
// DataModule. The datasets of the other stage are released.
func (m *DataModule) Setup(stage Stage) error {
	switch stage {
	case StageFit:
		fit, err := m.SetupFit()
		if err != nil {
			return err
		}
		m.fit, m.test = fit, nil
	case StageTest:
		test, err := m.SetupTest()
		if err != nil {
			return err
		}
		m.fit, m.test = nil, test
	default:
		return errors.Wrapf(ErrUnimplementedStage, "%s", stage)
	}
	m.stage = stage
	return nil
}

// TrainLoader returns the training loader of the stage entered with Setup(StageFit).
func (m *DataModule) TrainLoader() (*Loader, error) {
	if m.fit == nil {
		return nil, &StageError{Split: SplitTrain, Required: StageFit, Current: m.stage}
	}
	return m.fit.TrainLoader(), nil
}

// ValLoader returns the validation loader of the stage entered with Setup(StageFit).
func (m *DataModule) ValLoader() (*Loader, error) {
	if m.fit == nil {
		return nil, &StageError{Split: SplitVal, Required: StageFit, Current: m.stage}
	}
	return m.fit.ValLoader(), nil
}

// TestLoader returns the test loader of the stage entered with Setup(StageTest).
func (m *DataModule) TestLoader() (*Loader, error) {
	if m.test == nil {
		return nil, &StageError{Split: SplitTest, Required: StageTest, Current: m.stage}
	}
	return m.test.TestLoader(), nil
}

// FitData holds the datasets of the fit stage.
type FitData struct {
	Train, Val *datasets.ReconstructionDataset
	cfg        Config
}

// TrainLoader returns a loader drawing NumSamples training images per epoch,
// uniformly with replacement, in batches of TrainBatchSize.
func (f *FitData) TrainLoader() *Loader {
	return dataloader.New[datasets.Sample](f.Train, dataloader.Options[datasets.Sample]{
		BatchSize:  f.cfg.TrainBatchSize,
		NumWorkers: f.cfg.NumWorkers,
		Sampler:    dataloader.NewRandomSampler(f.Train.Len(), f.cfg.NumSamples, f.cfg.Seed),
		Collate:    datasets.CollateReconstruction,
	})
}

// ValLoader returns a loader over every validation image in order, in batches of EvalBatchSize.
func (f *FitData) ValLoader() *Loader {
	return evalLoader(f.Val, f.cfg)
}

// TestData holds the dataset of the test stage.
type TestData struct {
	Test *datasets.ReconstructionDataset
	cfg  Config
}

// TestLoader returns a loader over every test image in order, in batches of EvalBatchSize.
func (t *TestData) TestLoader() *Loader {
	return evalLoader(t.Test, t.cfg)
}

func evalLoader(ds *datasets.ReconstructionDataset, cfg Config) *Loader {
	return dataloader.New[datasets.Sample](ds, dataloader.Options[datasets.Sample]{
		BatchSize:  cfg.EvalBatchSize,
		NumWorkers: cfg.NumWorkers,
		Sampler:    dataloader.SequentialSampler{N: ds.Len()},
		Collate:    datasets.CollateReconstruction,
	})
}
