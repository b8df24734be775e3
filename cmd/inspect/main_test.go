package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bozeklab/AME/datamodule"
	"github.com/bozeklab/AME/datasets/datasetstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStages(t *testing.T) {
	stages, err := parseStages("all")
	require.NoError(t, err)
	assert.Equal(t, []datamodule.Stage{datamodule.StageFit, datamodule.StageTest}, stages)

	stages, err = parseStages("test")
	require.NoError(t, err)
	assert.Equal(t, []datamodule.Stage{datamodule.StageTest}, stages)

	_, err = parseStages("predict")
	require.ErrorIs(t, err, datamodule.ErrUnimplementedStage)
}

func TestRunStages(t *testing.T) {
	root := t.TempDir()
	datasetstest.WriteSplits(t, root, map[string]int{"train2014": 3, "val2014": 2, "test2014": 5}, 4)
	cfg := datamodule.DefaultConfig()
	cfg.DataDir = root
	cfg.ImageSize = 4
	cfg.NumSamples = 10
	cfg.TrainBatchSize = 2
	cfg.NumWorkers = 2
	dm, err := datamodule.New(cfg)
	require.NoError(t, err)
	require.NoError(t, dm.PrepareData())

	plotPath := filepath.Join(t.TempDir(), "plots", "draws.png")
	require.NoError(t, runStage(dm, datamodule.StageFit, 2, false, plotPath))
	info, err := os.Stat(plotPath)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	require.NoError(t, runStage(dm, datamodule.StageTest, 1, false, ""))
	require.ErrorIs(t, runStage(dm, datamodule.StageNone, 1, false, ""), datamodule.ErrUnimplementedStage)
}

func TestPlotDrawsEmpty(t *testing.T) {
	require.Error(t, plotDraws(nil, filepath.Join(t.TempDir(), "empty.png")))
}
