package datamodule

import (
	"flag"
	"fmt"
	"strconv"

	"github.com/caarlos0/env/v11"
	"github.com/pkg/errors"
)

// EnvPrefix is the prefix of the environment variables read by Config.LoadEnv,
// e.g. AME_DATA_DIR or AME_TRAIN_BATCH_SIZE.
const EnvPrefix = "AME_"

// Config holds the options of a DataModule. It is consumed by New and not
// modified afterwards.
type Config struct {
	DataDir        string `env:"DATA_DIR"`
	TrainBatchSize int    `env:"TRAIN_BATCH_SIZE"`
	EvalBatchSize  int    `env:"EVAL_BATCH_SIZE"`
	NumWorkers     int    `env:"NUM_WORKERS"`
	NumSamples     int    `env:"NUM_SAMPLES"`

	// Variant is the name of a registered dataset Variant.
	Variant string `env:"VARIANT"`

	// ImageSize is the side of the square crop every image is resized to.
	ImageSize int `env:"IMAGE_SIZE"`

	// Seed for the training sampler. 0 draws a different sequence on each run.
	Seed uint64 `env:"SEED"`

	// ReportValCountOnTest makes Setup(StageTest) log the number of validation
	// samples instead of test samples, as older versions of this module did.
	ReportValCountOnTest bool `env:"REPORT_VAL_COUNT_ON_TEST"`
}

// DefaultConfig returns the configuration with every option at its default.
// DataDir has no default and must be set.
func DefaultConfig() Config {
	return Config{
		TrainBatchSize: 16,
		EvalBatchSize:  64,
		NumWorkers:     4,
		NumSamples:     50000,
		Variant:        Coco2014.Name,
		ImageSize:      256,
	}
}

// Option describes one configuration option, for command-line or config-file front ends.
type Option struct {
	Name     string
	Help     string
	Kind     string // "string", "int", "uint" or "bool".
	Default  string
	Required bool
}

// Options lists the recognized options with their help and defaults.
func Options() []Option {
	d := DefaultConfig()
	return []Option{
		{Name: "data_dir", Help: "dataset location", Kind: "string", Required: true},
		{Name: "train_batch_size", Help: "batch size for training", Kind: "int", Default: strconv.Itoa(d.TrainBatchSize)},
		{Name: "eval_batch_size", Help: "batch size for validation and testing", Kind: "int", Default: strconv.Itoa(d.EvalBatchSize)},
		{Name: "num_workers", Help: "dataloader workers per process", Kind: "int", Default: strconv.Itoa(d.NumWorkers)},
		{Name: "num_samples", Help: "number of images to sample in each training epoch", Kind: "int", Default: strconv.Itoa(d.NumSamples)},
		{Name: "variant", Help: "dataset variant, defines the split directories", Kind: "string", Default: d.Variant},
		{Name: "image_size", Help: "side of the square crop images are resized to", Kind: "int", Default: strconv.Itoa(d.ImageSize)},
		{Name: "seed", Help: "seed for the training sampler, 0 for a random one", Kind: "uint", Default: "0"},
		{Name: "report_val_count_on_test", Help: "log the validation sample count when setting up the test stage (legacy behavior)",
			Kind: "bool", Default: "false"},
	}
}

// RegisterFlags binds the options to flags in fs, using the current values of
// c as defaults. Call it on a DefaultConfig (optionally after LoadEnv) before fs.Parse.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	for _, opt := range Options() {
		help := opt.Help
		if opt.Required {
			help += " (required)"
		}
		switch opt.Name {
		case "data_dir":
			fs.StringVar(&c.DataDir, opt.Name, c.DataDir, help)
		case "train_batch_size":
			fs.IntVar(&c.TrainBatchSize, opt.Name, c.TrainBatchSize, help)
		case "eval_batch_size":
			fs.IntVar(&c.EvalBatchSize, opt.Name, c.EvalBatchSize, help)
		case "num_workers":
			fs.IntVar(&c.NumWorkers, opt.Name, c.NumWorkers, help)
		case "num_samples":
			fs.IntVar(&c.NumSamples, opt.Name, c.NumSamples, help)
		case "variant":
			fs.StringVar(&c.Variant, opt.Name, c.Variant, fmt.Sprintf("%s, one of %q", help, VariantNames()))
		case "image_size":
			fs.IntVar(&c.ImageSize, opt.Name, c.ImageSize, help)
		case "seed":
			fs.Uint64Var(&c.Seed, opt.Name, c.Seed, help)
		case "report_val_count_on_test":
			fs.BoolVar(&c.ReportValCountOnTest, opt.Name, c.ReportValCountOnTest, help)
		}
	}
}

// LoadEnv overrides the options set in the environment (AME_DATA_DIR, AME_NUM_WORKERS, ...).
// Unset variables leave the current values untouched.
func (c *Config) LoadEnv() error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return errors.Wrap(err, "failed to read data module configuration from the environment")
	}
	return nil
}

// Validate checks that the required options are set and values are in range.
func (c Config) Validate() error {
	if c.DataDir == "" {
		return ErrMissingDataDir
	}
	checks := []struct {
		name  string
		value int
		min   int
	}{
		{"train_batch_size", c.TrainBatchSize, 1},
		{"eval_batch_size", c.EvalBatchSize, 1},
		{"num_workers", c.NumWorkers, 0},
		{"num_samples", c.NumSamples, 1},
		{"image_size", c.ImageSize, 1},
	}
	for _, check := range checks {
		if check.value < check.min {
			return errors.Wrapf(ErrInvalidConfig, "%s must be >= %d, got %d", check.name, check.min, check.value)
		}
	}
	return nil
}
