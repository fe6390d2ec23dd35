package planner

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/harrison/cadbatch/internal/models"
	"github.com/harrison/cadbatch/internal/pathkey"
)

// Rename records an output name changed by Resolve.
type Rename struct {
	Index int
	From  string
	To    string
}

// Resolve makes output names unique, ignoring case, in a single left-to-right
// pass. The first item using a name keeps it; the second becomes name_2, the
// third name_3 and so on, with the suffix placed before the extension and
// OutputPath rebuilt in the same directory. A suffixed name that is already
// used by another item is skipped over. Names are compared without their
// directory, so the same name in two directories is also suffixed.
//
// items is modified in place and returned. Resolving unique names is a no-op.
func Resolve(items []models.WorkItem) []models.WorkItem {
	taken := make(map[string]bool, len(items))
	for _, item := range items {
		taken[pathkey.FoldName(item.OutputName)] = true
	}

	seen := make(map[string]int, len(items))
	for i := range items {
		key := pathkey.FoldName(items[i].OutputName)
		count, dup := seen[key]
		if !dup {
			seen[key] = 1
			continue
		}

		var candidate string
		for {
			count++
			candidate = suffixed(items[i].OutputName, count)
			if !taken[pathkey.FoldName(candidate)] {
				break
			}
		}
		seen[key] = count
		taken[pathkey.FoldName(candidate)] = true

		items[i].OutputName = candidate
		items[i].OutputPath = filepath.Join(filepath.Dir(items[i].OutputPath), candidate)
	}
	return items
}

// Renames lists the items whose names differ between before and after.
// before holds the names captured prior to Resolve.
func Renames(before []string, after []models.WorkItem) []Rename {
	var out []Rename
	for i := range after {
		if i >= len(before) {
			break
		}
		if before[i] != after[i].OutputName {
			out = append(out, Rename{Index: i, From: before[i], To: after[i].OutputName})
		}
	}
	return out
}

// OutputNames returns the current output names of items.
func OutputNames(items []models.WorkItem) []string {
	names := make([]string, len(items))
	for i, item := range items {
		names[i] = item.OutputName
	}
	return names
}

func (r Rename) String() string {
	return fmt.Sprintf("Renamed %s -> %s (duplicate)", r.From, r.To)
}

func suffixed(name string, n int) string {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	return fmt.Sprintf("%s_%d%s", base, n, ext)
}
