package datamodule

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoco2014Resolve(t *testing.T) {
	for _, root := range []string{"/data/coco", "relative/coco", "/"} {
		paths, err := Coco2014.Resolve(root)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "train2014"), paths.Train)
		assert.Equal(t, filepath.Join(root, "val2014"), paths.Val)
		assert.Equal(t, filepath.Join(root, "test2014"), paths.Test)

		seen := map[string]bool{}
		for _, split := range []Split{SplitTrain, SplitVal, SplitTest} {
			p := paths.Get(split)
			require.NotEmpty(t, p)
			assert.Equal(t, filepath.Clean(root), filepath.Dir(p), "%s split not nested under root", split)
			assert.False(t, seen[p], "duplicated path %q", p)
			seen[p] = true
		}

		// Pure: same input, same output.
		again, err := Coco2014.Resolve(root)
		require.NoError(t, err)
		assert.Equal(t, paths, again)
	}

	_, err := Coco2014.Resolve("")
	require.ErrorIs(t, err, ErrEmptyRoot)
}

func TestVariantWithoutResolver(t *testing.T) {
	_, err := Variant{Name: "abstract"}.Resolve("/data")
	require.ErrorIs(t, err, ErrNotImplemented)
	assert.True(t, strings.Contains(err.Error(), "abstract"))
}

func TestVariantRegistry(t *testing.T) {
	v, err := LookupVariant("coco2014")
	require.NoError(t, err)
	assert.Equal(t, "coco2014", v.Name)

	_, err = LookupVariant("imagenet")
	require.ErrorIs(t, err, ErrUnknownVariant)

	RegisterVariant(SuffixVariant("flat-test-variant", "tr", "va", "te"))
	assert.Contains(t, VariantNames(), "flat-test-variant")
	v, err = LookupVariant("flat-test-variant")
	require.NoError(t, err)
	paths, err := v.Resolve("/d")
	require.NoError(t, err)
	assert.Equal(t, SplitPaths{Train: "/d/tr", Val: "/d/va", Test: "/d/te"}, paths)
}

func TestStageAndSplitNames(t *testing.T) {
	assert.Equal(t, "train", SplitTrain.String())
	assert.Equal(t, "val", SplitVal.String())
	assert.Equal(t, "test", SplitTest.String())
	assert.Equal(t, "fit", StageFit.String())
	assert.Equal(t, "none", StageNone.String())

	stage, err := ParseStage("test")
	require.NoError(t, err)
	assert.Equal(t, StageTest, stage)
	_, err = ParseStage("predict")
	require.ErrorIs(t, err, ErrUnimplementedStage)
}
