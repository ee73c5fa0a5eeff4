// Package verify checks a generated fixture tree against the configured
// ranges and, optionally, against the report of the run that produced it.
package verify

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/mainbong/storage_fixtures/internal/config"
	"github.com/mainbong/storage_fixtures/internal/filesystem"
	"github.com/mainbong/storage_fixtures/internal/generator"
)

// Issue is a single property violation
type Issue struct {
	Path    string
	Message string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s", i.Path, i.Message)
}

// GroupResult holds the findings for one group directory
type GroupResult struct {
	Group  string
	Dir    string
	Files  int
	Text   int
	Binary int
	Issues []Issue
}

// Result is the outcome of a verification
type Result struct {
	Groups []GroupResult
	// Stray lists fixture-named files found outside every group directory
	Stray []Issue
}

// IssueCount returns the total number of issues
func (r *Result) IssueCount() int {
	total := len(r.Stray)
	for _, g := range r.Groups {
		total += len(g.Issues)
	}
	return total
}

// OK reports whether no issues were found
func (r *Result) OK() bool {
	return r.IssueCount() == 0
}

// Verifier checks fixture trees
type Verifier struct {
	fs  filesystem.FileSystem
	cfg *config.Config
}

// NewVerifier creates a verifier for the configured groups
func NewVerifier(fs filesystem.FileSystem, cfg *config.Config) *Verifier {
	return &Verifier{fs: fs, cfg: cfg}
}

// Verify checks every group directory. When report is non-nil each recorded
// file must exist with its recorded size and checksum, and fixture files not
// in the report are flagged. Without a report only fixture-named files are
// counted, so unrelated files in a group directory are ignored.
func (v *Verifier) Verify(report *generator.Report) (*Result, error) {
	if err := v.cfg.Validate(); err != nil {
		return nil, err
	}

	recorded := make(map[string]*generator.GroupResult)
	if report != nil {
		for i := range report.Groups {
			recorded[report.Groups[i].Group] = &report.Groups[i]
		}
	}

	result := &Result{}
	for _, group := range v.cfg.Groups {
		g, err := v.verifyGroup(group, recorded[group], report != nil)
		if err != nil {
			return nil, err
		}
		result.Groups = append(result.Groups, g)
	}

	stray, err := v.findStray()
	if err != nil {
		return nil, err
	}
	result.Stray = stray

	return result, nil
}

func (v *Verifier) verifyGroup(group string, rec *generator.GroupResult, withReport bool) (GroupResult, error) {
	dir := v.cfg.GroupDir(group)
	result := GroupResult{Group: group, Dir: dir}
	add := func(path, format string, args ...interface{}) {
		result.Issues = append(result.Issues, Issue{Path: path, Message: fmt.Sprintf(format, args...)})
	}

	info, err := v.fs.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			add(dir, "directory does not exist")
			return result, nil
		}
		return result, fmt.Errorf("failed to stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		add(dir, "not a directory")
		return result, nil
	}

	entries, err := v.fs.ReadDir(dir)
	if err != nil {
		return result, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	// Fixture files present on disk, by name
	present := make(map[string]bool)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, _, ok := generator.ParseFileName(entry.Name()); ok {
			present[entry.Name()] = true
		}
	}

	if withReport && rec == nil {
		add(dir, "group missing from manifest")
		withReport = false
	}

	maxIndex := v.cfg.FileCount.Max - 1
	var expected map[string]generator.FileRecord
	if withReport {
		maxIndex = rec.Count - 1
		if rec.Count < v.cfg.FileCount.Min || rec.Count > v.cfg.FileCount.Max {
			add(dir, "recorded count %d outside [%d, %d]", rec.Count, v.cfg.FileCount.Min, v.cfg.FileCount.Max)
		}
		if len(rec.Files) != rec.Count {
			add(dir, "manifest lists %d files for count %d", len(rec.Files), rec.Count)
		}
		expected = make(map[string]generator.FileRecord, len(rec.Files))
		for _, f := range rec.Files {
			expected[f.Name] = f
		}
	}

	names := make([]string, 0, len(present))
	for name := range present {
		names = append(names, name)
	}
	sort.Strings(names)

	if withReport {
		for name := range expected {
			if !present[name] {
				add(filepath.Join(dir, name), "recorded file is missing")
			}
		}
	}

	for _, name := range names {
		path := filepath.Join(dir, name)
		index, _, _ := generator.ParseFileName(name)

		var want *generator.FileRecord
		if withReport {
			f, ok := expected[name]
			if !ok {
				add(path, "fixture file not in manifest")
				continue
			}
			want = &f
		}
		result.Files++

		if index > maxIndex {
			add(path, "index %d outside [0, %d]", index, maxIndex)
		}

		data, err := v.fs.ReadFile(path)
		if err != nil {
			return result, fmt.Errorf("failed to read %s: %w", path, err)
		}
		if len(data) < v.cfg.ContentSize.Min || len(data) > v.cfg.ContentSize.Max {
			add(path, "size %d outside [%d, %d]", len(data), v.cfg.ContentSize.Min, v.cfg.ContentSize.Max)
		}

		isText := generator.IsText(data)
		if isText {
			result.Text++
		} else {
			result.Binary++
		}

		if want == nil {
			continue
		}
		if want.Index != index {
			add(path, "recorded index %d does not match name", want.Index)
		}
		if want.Size != len(data) {
			add(path, "size %d does not match recorded %d", len(data), want.Size)
		}
		sum := sha256.Sum256(data)
		if want.SHA256 != hex.EncodeToString(sum[:]) {
			add(path, "checksum does not match manifest")
		}
		if want.Kind == generator.KindText && !isText {
			add(path, "text file contains bytes outside the alphabet")
		}
	}

	if !withReport && (result.Files < v.cfg.FileCount.Min || result.Files > v.cfg.FileCount.Max) {
		add(dir, "%d fixture files, expected [%d, %d]", result.Files, v.cfg.FileCount.Min, v.cfg.FileCount.Max)
	}

	sort.SliceStable(result.Issues, func(i, j int) bool {
		return result.Issues[i].Path < result.Issues[j].Path
	})

	return result, nil
}

// findStray walks the base directory for fixture-named files whose parent is
// not a group directory
func (v *Verifier) findStray() ([]Issue, error) {
	groupDirs := make(map[string]bool, len(v.cfg.Groups))
	for _, group := range v.cfg.Groups {
		groupDirs[filepath.Clean(v.cfg.GroupDir(group))] = true
	}

	if _, err := v.fs.Stat(v.cfg.BaseDir); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to stat %s: %w", v.cfg.BaseDir, err)
	}

	var stray []Issue
	err := v.fs.Walk(v.cfg.BaseDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if _, _, ok := generator.ParseFileName(info.Name()); !ok {
			return nil
		}
		if !groupDirs[filepath.Dir(path)] {
			stray = append(stray, Issue{Path: path, Message: "fixture file outside every group"})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", v.cfg.BaseDir, err)
	}

	return stray, nil
}
