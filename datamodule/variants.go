package datamodule

import (
	"path/filepath"
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// Split identifies one partition of a dataset.
type Split int

const (
	SplitTrain Split = iota
	SplitVal
	SplitTest
)

func (s Split) String() string {
	switch s {
	case SplitTrain:
		return "train"
	case SplitVal:
		return "val"
	case SplitTest:
		return "test"
	}
	return "unknown"
}

// SplitPaths holds the directories of the three splits of a dataset.
type SplitPaths struct {
	Train, Val, Test string
}

// Get returns the path of the given split.
func (p SplitPaths) Get(split Split) string {
	switch split {
	case SplitTrain:
		return p.Train
	case SplitVal:
		return p.Val
	case SplitTest:
		return p.Test
	}
	return ""
}

// Variant is a dataset flavor, defined by how its splits are laid out under
// the dataset root.
type Variant struct {
	Name string

	// SplitDirs maps the dataset root to the train, val and test directories.
	// It must be pure: no I/O, same output for the same root.
	SplitDirs func(root string) (train, val, test string)
}

// Resolve returns the split directories of the dataset at root.
func (v Variant) Resolve(root string) (SplitPaths, error) {
	if v.SplitDirs == nil {
		return SplitPaths{}, errors.Wrapf(ErrNotImplemented, "variant %q", v.Name)
	}
	if root == "" {
		return SplitPaths{}, errors.Wrapf(ErrEmptyRoot, "variant %q", v.Name)
	}
	train, val, test := v.SplitDirs(root)
	return SplitPaths{Train: train, Val: val, Test: test}, nil
}

// SuffixVariant returns a Variant whose splits are the given subdirectories of the root.
func SuffixVariant(name, train, val, test string) Variant {
	return Variant{
		Name: name,
		SplitDirs: func(root string) (string, string, string) {
			return filepath.Join(root, train), filepath.Join(root, val), filepath.Join(root, test)
		},
	}
}

// Coco2014 is the MS-COCO 2014 layout: train2014/, val2014/ and test2014/.
var Coco2014 = SuffixVariant("coco2014", "train2014", "val2014", "test2014")

var (
	muVariants sync.RWMutex
	variants   = map[string]Variant{}
)

func init() {
	RegisterVariant(Coco2014)
}

// RegisterVariant makes a variant available to LookupVariant, replacing any
// previous one with the same name.
func RegisterVariant(v Variant) {
	muVariants.Lock()
	defer muVariants.Unlock()
	variants[v.Name] = v
}

// LookupVariant returns the registered variant with the given name.
func LookupVariant(name string) (Variant, error) {
	muVariants.RLock()
	defer muVariants.RUnlock()
	v, found := variants[name]
	if !found {
		return Variant{}, errors.Wrapf(ErrUnknownVariant, "%q (known variants: %q)", name, variantNamesLocked())
	}
	return v, nil
}

// VariantNames returns the sorted names of the registered variants.
func VariantNames() []string {
	muVariants.RLock()
	defer muVariants.RUnlock()
	return variantNamesLocked()
}

func variantNamesLocked() []string {
	names := make([]string, 0, len(variants))
	for name := range variants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
