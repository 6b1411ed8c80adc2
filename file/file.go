package file

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jsphweid/perfgrade/midi"
	"github.com/jsphweid/perfgrade/model"
	"github.com/jsphweid/perfgrade/take"
	"github.com/jsphweid/perfgrade/util"
)

const ModelTakeName = "model"

// TakeName is the file name without directory or extension.
func TakeName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// uniqueName returns name, or the first "name (n)" not yet in taken.
func uniqueName(name string, taken map[string]string) string {
	if _, ok := taken[name]; !ok {
		return name
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%v (%d)", name, n)
		if _, ok := taken[candidate]; !ok {
			return candidate
		}
	}
}

// CreateTakeNameMap names every path after its file, numbering repeated
// names in input order ("take", "take (2)", ...). Generated names skip
// names already in use.
func CreateTakeNameMap(paths []string) map[string]string {
	res := make(map[string]string)
	for _, p := range paths {
		res[uniqueName(TakeName(p), res)] = p
	}
	return res
}

// LoadTake reads a MIDI file or a tabular take sheet depending on the
// extension.
func LoadTake(name, path string, headerRows int) (model.Take, error) {
	load := func() (model.Take, error) { return take.Load(path, headerRows) }
	if midi.IsMidiPath(path) {
		load = func() (model.Take, error) { return midi.LoadTake(path) }
	}
	tk, err := load()
	if err != nil {
		return model.Take{}, fmt.Errorf("take %v: %w", path, err)
	}
	tk.Name = name
	return tk, nil
}

// LoadTakes loads every path in name order, followed by the model take when
// modelPath is set.
func LoadTakes(paths []string, modelPath string, headerRows int) ([]model.Take, error) {
	names := CreateTakeNameMap(paths)
	var res []model.Take
	for _, name := range util.GetKeys(names) {
		tk, err := LoadTake(name, names[name], headerRows)
		if err != nil {
			return nil, err
		}
		res = append(res, tk)
	}
	if modelPath != "" {
		tk, err := LoadTake(uniqueName(ModelTakeName, names), modelPath, headerRows)
		if err != nil {
			return nil, err
		}
		tk.IsModel = true
		res = append(res, tk)
	}
	return res, nil
}
