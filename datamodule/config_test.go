package datamodule

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "", cfg.DataDir)
	assert.Equal(t, 16, cfg.TrainBatchSize)
	assert.Equal(t, 64, cfg.EvalBatchSize)
	assert.Equal(t, 4, cfg.NumWorkers)
	assert.Equal(t, 50000, cfg.NumSamples)
	assert.Equal(t, "coco2014", cfg.Variant)
	assert.False(t, cfg.ReportValCountOnTest)

	require.ErrorIs(t, cfg.Validate(), ErrMissingDataDir)
	cfg.DataDir = "/data/coco"
	require.NoError(t, cfg.Validate())
}

func TestOptions(t *testing.T) {
	byName := make(map[string]Option)
	for _, opt := range Options() {
		byName[opt.Name] = opt
		assert.NotEmpty(t, opt.Help, "option %q", opt.Name)
	}
	for _, name := range []string{"data_dir", "train_batch_size", "eval_batch_size", "num_workers", "num_samples"} {
		assert.Contains(t, byName, name)
	}
	assert.True(t, byName["data_dir"].Required)
	assert.Equal(t, "string", byName["data_dir"].Kind)
	assert.False(t, byName["num_samples"].Required)
	assert.Equal(t, "50000", byName["num_samples"].Default)
	assert.Equal(t, "16", byName["train_batch_size"].Default)
	assert.Equal(t, "64", byName["eval_batch_size"].Default)
	assert.Equal(t, "4", byName["num_workers"].Default)
}

func TestRegisterFlags(t *testing.T) {
	cfg := DefaultConfig()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg.RegisterFlags(fs)
	for _, opt := range Options() {
		assert.NotNil(t, fs.Lookup(opt.Name), "flag %q not registered", opt.Name)
	}
	require.NoError(t, fs.Parse([]string{
		"-data_dir", "/data/coco", "-train_batch_size=8", "-num_workers", "0",
		"-seed=3", "-report_val_count_on_test",
	}))
	assert.Equal(t, "/data/coco", cfg.DataDir)
	assert.Equal(t, 8, cfg.TrainBatchSize)
	assert.Equal(t, 64, cfg.EvalBatchSize)
	assert.Equal(t, 0, cfg.NumWorkers)
	assert.Equal(t, uint64(3), cfg.Seed)
	assert.True(t, cfg.ReportValCountOnTest)
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("AME_DATA_DIR", "/env/coco")
	t.Setenv("AME_EVAL_BATCH_SIZE", "32")
	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadEnv())
	assert.Equal(t, "/env/coco", cfg.DataDir)
	assert.Equal(t, 32, cfg.EvalBatchSize)
	// Unset variables keep their values.
	assert.Equal(t, 16, cfg.TrainBatchSize)

	// Flags override the environment.
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg.RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"-eval_batch_size=8"}))
	assert.Equal(t, 8, cfg.EvalBatchSize)
	assert.Equal(t, "/env/coco", cfg.DataDir)

	t.Setenv("AME_NUM_WORKERS", "many")
	require.Error(t, cfg.LoadEnv())
}

func TestValidate(t *testing.T) {
	base := DefaultConfig()
	base.DataDir = "/data"
	for name, mutate := range map[string]func(*Config){
		"zero train batch": func(c *Config) { c.TrainBatchSize = 0 },
		"zero eval batch":  func(c *Config) { c.EvalBatchSize = 0 },
		"negative workers": func(c *Config) { c.NumWorkers = -1 },
		"zero samples":     func(c *Config) { c.NumSamples = 0 },
		"zero image size":  func(c *Config) { c.ImageSize = 0 },
	} {
		t.Run(name, func(t *testing.T) {
			cfg := base
			mutate(&cfg)
			require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}
