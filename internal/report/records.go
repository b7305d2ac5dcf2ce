// Package report turns sweep output directories into plots.
package report

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/banshee-data/ringroad/internal/fsutil"
	"github.com/banshee-data/ringroad/internal/sweep"
)

// LoadRecords reads every sim-<i>.json in dir, ordered by run index.
// Records with no lanes or a zero max flow rate are skipped; other files in
// the directory are ignored.
func LoadRecords(fs fsutil.FileSystem, dir string) ([]sweep.Record, error) {
	names, err := fs.ListFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}

	var out []sweep.Record
	for _, name := range names {
		index, ok := recordIndex(name)
		if !ok {
			continue
		}
		data, err := fs.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		var rec sweep.Record
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", name, err)
		}
		if rec.Config.NumLanes == 0 || rec.Result.MaxFlowRate == 0 {
			continue
		}
		rec.Index = index
		out = append(out, rec)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out, nil
}

// recordIndex extracts i from "sim-<i>.json".
func recordIndex(name string) (int, bool) {
	stem, ok := strings.CutSuffix(name, ".json")
	if !ok {
		return 0, false
	}
	num, ok := strings.CutPrefix(stem, "sim-")
	if !ok {
		return 0, false
	}
	i, err := strconv.Atoi(num)
	if err != nil || i < 0 {
		return 0, false
	}
	return i, true
}
