package generator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/mainbong/storage_fixtures/internal/config"
	"github.com/mainbong/storage_fixtures/internal/filesystem"
)

func testConfig(base string) *config.Config {
	cfg := config.Default()
	cfg.BaseDir = base
	cfg.Seed = 1
	return cfg
}

func newTestGenerator(fs filesystem.FileSystem, cfg *config.Config, seed int64) *Generator {
	return NewGeneratorWithSource(fs, cfg,
		rand.New(rand.NewSource(seed)),
		rand.New(rand.NewSource(seed+1000)))
}

type recordingReporter struct {
	groups    []string
	counts    []int
	files     []FileRecord
	completed *Report
}

func (r *recordingReporter) GroupStarted(dir string, count int) {
	r.groups = append(r.groups, dir)
	r.counts = append(r.counts, count)
}

func (r *recordingReporter) FileWritten(file FileRecord) {
	r.files = append(r.files, file)
}

func (r *recordingReporter) Completed(report *Report) {
	r.completed = report
}

func TestRun_SingleTextFileScenario(t *testing.T) {
	mockFS := filesystem.NewMockFileSystem()
	cfg := testConfig("/tmp/x")
	cfg.Groups = []string{"a"}
	cfg.FileCount = config.Range{Min: 1, Max: 1}
	cfg.TextProbability = 1

	report, err := newTestGenerator(mockFS, cfg, 1).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	entries, err := mockFS.ReadDir("/tmp/x/a")
	if err != nil {
		t.Fatalf("ReadDir() failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected exactly one file, got %d", len(entries))
	}

	data := mockFS.GetFile(filepath.Join("/tmp/x/a", entries[0].Name()))
	if !IsText(data) {
		t.Error("Expected alphabet-only content")
	}
	if len(data) < cfg.ContentSize.Min || len(data) > cfg.ContentSize.Max {
		t.Errorf("Size %d outside %+v", len(data), cfg.ContentSize)
	}
	if report.Groups[0].Files[0].Kind != KindText {
		t.Errorf("Expected text kind, got %s", report.Groups[0].Files[0].Kind)
	}
}

func TestRun_DefaultProperties(t *testing.T) {
	mockFS := filesystem.NewMockFileSystem()
	cfg := testConfig("/fixtures")

	report, err := newTestGenerator(mockFS, cfg, 7).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	if len(report.Groups) != len(config.DefaultGroups) {
		t.Fatalf("Expected %d groups, got %d", len(config.DefaultGroups), len(report.Groups))
	}

	for i, group := range report.Groups {
		if group.Group != config.DefaultGroups[i] {
			t.Errorf("Group %d: expected %s, got %s", i, config.DefaultGroups[i], group.Group)
		}
		if !mockFS.HasDir(group.Dir) {
			t.Errorf("Directory %s was not created", group.Dir)
		}
		if group.Count < 3 || group.Count > 5 || len(group.Files) != group.Count {
			t.Errorf("%s: count %d with %d files", group.Dir, group.Count, len(group.Files))
		}

		for _, f := range group.Files {
			data := mockFS.GetFile(f.Path)
			if len(data) != f.Size {
				t.Errorf("%s: recorded size %d, written %d", f.Path, f.Size, len(data))
			}
			if f.Size < 256 || f.Size > 1024 {
				t.Errorf("%s: size %d out of range", f.Path, f.Size)
			}
			index, _, ok := ParseFileName(f.Name)
			if !ok || index != f.Index || index >= group.Count {
				t.Errorf("%s: bad name for index %d", f.Name, f.Index)
			}
			if f.Kind == KindText && !IsText(data) {
				t.Errorf("%s: text file contains non-alphabet bytes", f.Path)
			}
			sum := sha256.Sum256(data)
			if f.SHA256 != hex.EncodeToString(sum[:]) {
				t.Errorf("%s: checksum mismatch", f.Path)
			}
			if mockFS.FilePerm(f.Path) != config.FilePerm {
				t.Errorf("%s: perm %o", f.Path, mockFS.FilePerm(f.Path))
			}
		}
	}

	if report.TotalFiles() < 12 || report.TotalFiles() > 20 {
		t.Errorf("Unexpected total files: %d", report.TotalFiles())
	}
	if report.Seed != 1 {
		t.Errorf("Expected seed 1 in report, got %d", report.Seed)
	}
}

func TestRun_SubdirGroupCreatesParents(t *testing.T) {
	mockFS := filesystem.NewMockFileSystem()
	cfg := testConfig("/base")
	cfg.Groups = []string{"deep/nested/dir"}

	if _, err := newTestGenerator(mockFS, cfg, 1).Run(context.Background()); err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	for _, dir := range []string{"/base", "/base/deep", "/base/deep/nested", "/base/deep/nested/dir"} {
		if !mockFS.HasDir(dir) {
			t.Errorf("Expected %s to exist", dir)
		}
	}
}

func TestRun_Deterministic(t *testing.T) {
	run := func() *Report {
		mockFS := filesystem.NewMockFileSystem()
		report, err := newTestGenerator(mockFS, testConfig("/det"), 99).Run(context.Background())
		if err != nil {
			t.Fatalf("Run() failed: %v", err)
		}
		return report
	}

	first, second := run(), run()
	if !reflect.DeepEqual(first.Groups, second.Groups) {
		t.Error("Expected identical groups for identical seeds")
	}
}

func TestRun_ProbabilityZeroWritesBinary(t *testing.T) {
	mockFS := filesystem.NewMockFileSystem()
	cfg := testConfig("/bin")
	cfg.TextProbability = 0

	report, err := newTestGenerator(mockFS, cfg, 3).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	for _, g := range report.Groups {
		for _, f := range g.Files {
			if f.Kind != KindBinary {
				t.Errorf("%s: expected binary, got %s", f.Path, f.Kind)
			}
		}
	}
}

func TestRun_LeavesUnrelatedFiles(t *testing.T) {
	mockFS := filesystem.NewMockFileSystem()
	unrelated := "/keep/notes.md"
	insideGroup := "/keep/group1/existing.bin"
	mockFS.AddFile(unrelated, []byte("do not touch"), 0600)
	mockFS.AddFile(insideGroup, []byte{1, 2, 3}, 0600)

	if _, err := newTestGenerator(mockFS, testConfig("/keep"), 5).Run(context.Background()); err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	if string(mockFS.GetFile(unrelated)) != "do not touch" {
		t.Error("Unrelated file was modified")
	}
	if !reflect.DeepEqual(mockFS.GetFile(insideGroup), []byte{1, 2, 3}) {
		t.Error("Pre-existing file inside a group was modified")
	}
	for _, p := range mockFS.Writes() {
		if !strings.HasPrefix(filepath.Base(p), "test_file_") {
			t.Errorf("Unexpected write to %s", p)
		}
	}
}

func TestRun_WriteErrorAborts(t *testing.T) {
	mockFS := filesystem.NewMockFileSystem()
	cfg := testConfig("/fail")
	cfg.Groups = []string{"first", "second"}
	cfg.FileCount = config.Range{Min: 2, Max: 2}

	// Predict the second group's first name with an identically seeded run
	probe := filesystem.NewMockFileSystem()
	probeReport, err := newTestGenerator(probe, cfg, 11).Run(context.Background())
	if err != nil {
		t.Fatalf("probe Run() failed: %v", err)
	}
	failing := probeReport.Groups[1].Files[0].Path
	mockFS.SetWriteError(failing, errors.New("disk full"))

	report, err := newTestGenerator(mockFS, cfg, 11).Run(context.Background())
	if err == nil {
		t.Fatal("Expected write error, got nil")
	}
	if !strings.Contains(err.Error(), failing) || !strings.Contains(err.Error(), "disk full") {
		t.Errorf("Expected error to name %s, got %v", failing, err)
	}

	// The first group is kept, the second group stops before its first file
	if len(mockFS.Writes()) != 2 {
		t.Errorf("Expected 2 successful writes, got %v", mockFS.Writes())
	}
	for _, f := range probeReport.Groups[0].Files {
		if mockFS.GetFile(f.Path) == nil {
			t.Errorf("Expected %s to remain after failure", f.Path)
		}
	}
	if report == nil || len(report.Groups) != 2 || len(report.Groups[1].Files) != 0 {
		t.Errorf("Expected partial report, got %+v", report)
	}
}

func TestRun_MkdirErrorAborts(t *testing.T) {
	mockFS := filesystem.NewMockFileSystem()
	cfg := testConfig("/perm")
	mockFS.SetMkdirError("/perm/group2", os.ErrPermission)

	_, err := newTestGenerator(mockFS, cfg, 1).Run(context.Background())
	if !errors.Is(err, os.ErrPermission) {
		t.Fatalf("Expected permission error, got %v", err)
	}
	if mockFS.HasDir("/perm/group3") {
		t.Error("Groups after the failure must not be created")
	}
	if !mockFS.HasDir("/perm/group1") {
		t.Error("Groups before the failure must remain")
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	cfg := testConfig("/invalid")
	cfg.FileCount = config.Range{Min: 4, Max: 1}

	_, err := newTestGenerator(filesystem.NewMockFileSystem(), cfg, 1).Run(context.Background())
	if !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mockFS := filesystem.NewMockFileSystem()
	_, err := newTestGenerator(mockFS, testConfig("/cancel"), 1).Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if len(mockFS.Writes()) != 0 {
		t.Errorf("Expected no writes, got %v", mockFS.Writes())
	}
}

func TestRun_Reporter(t *testing.T) {
	mockFS := filesystem.NewMockFileSystem()
	gen := newTestGenerator(mockFS, testConfig("/rep"), 2)
	rec := &recordingReporter{}
	gen.SetReporter(rec)

	report, err := gen.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	if len(rec.groups) != len(config.DefaultGroups) {
		t.Errorf("Expected %d GroupStarted calls, got %d", len(config.DefaultGroups), len(rec.groups))
	}
	if len(rec.files) != report.TotalFiles() {
		t.Errorf("Expected %d FileWritten calls, got %d", report.TotalFiles(), len(rec.files))
	}
	if rec.completed != report {
		t.Error("Expected Completed to receive the final report")
	}
	for i, g := range report.Groups {
		if rec.counts[i] != g.Count {
			t.Errorf("Group %d: reporter saw %d, report has %d", i, rec.counts[i], g.Count)
		}
	}
}

func TestRun_OSFileSystem(t *testing.T) {
	base := t.TempDir()
	cfg := testConfig(base)

	unrelated := filepath.Join(base, "README")
	if err := os.WriteFile(unrelated, []byte("keep"), 0644); err != nil {
		t.Fatalf("Failed to write unrelated file: %v", err)
	}

	gen := NewGenerator(filesystem.NewOSFileSystem(), cfg)
	report, err := gen.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	for _, g := range report.Groups {
		entries, err := os.ReadDir(g.Dir)
		if err != nil {
			t.Fatalf("ReadDir(%s) failed: %v", g.Dir, err)
		}
		files := 0
		for _, e := range entries {
			if !e.IsDir() {
				files++
			}
		}
		// group2 also holds the subdir directory; only files count
		if files < len(g.Files) {
			t.Errorf("%s: expected %d files on disk, got %d", g.Dir, len(g.Files), files)
		}
		for _, f := range g.Files {
			info, err := os.Stat(f.Path)
			if err != nil {
				t.Fatalf("Stat(%s) failed: %v", f.Path, err)
			}
			if info.Size() != int64(f.Size) {
				t.Errorf("%s: size %d, recorded %d", f.Path, info.Size(), f.Size)
			}
		}
	}

	if data, _ := os.ReadFile(unrelated); string(data) != "keep" {
		t.Error("Unrelated file was modified")
	}
}

func TestNewRand_ZeroSeedUsesClock(t *testing.T) {
	_, seed := NewRand(0)
	if seed == 0 {
		t.Error("Expected a non-zero seed from the clock")
	}

	_, seed = NewRand(17)
	if seed != 17 {
		t.Errorf("Expected seed 17, got %d", seed)
	}
}

func TestGenerator_SeedMatchesReport(t *testing.T) {
	cfg := config.Default()
	cfg.BaseDir = "/fixtures"
	cfg.Seed = 0

	gen := NewGenerator(filesystem.NewMockFileSystem(), cfg)
	if gen.Seed() == 0 {
		t.Fatal("Expected a clock-derived seed, got 0")
	}

	report, err := gen.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if report.Seed != gen.Seed() {
		t.Errorf("Expected report seed %d, got %d", gen.Seed(), report.Seed)
	}

	cfg.Seed = 99
	if got := NewGenerator(filesystem.NewMockFileSystem(), cfg).Seed(); got != 99 {
		t.Errorf("Expected seed 99, got %d", got)
	}
}
