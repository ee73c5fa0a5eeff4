// Package generator writes random text and binary fixture files into the
// configured group directories.
package generator

import (
	"context"
	crand "crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"math/rand"
	"path/filepath"
	"time"

	"github.com/mainbong/storage_fixtures/internal/config"
	"github.com/mainbong/storage_fixtures/internal/filesystem"
	"github.com/mainbong/storage_fixtures/internal/logger"
)

// FileRecord describes one written file
type FileRecord struct {
	Name   string `json:"name" yaml:"name" toml:"name"`
	Path   string `json:"path" yaml:"path" toml:"path"`
	Index  int    `json:"index" yaml:"index" toml:"index"`
	Kind   Kind   `json:"kind" yaml:"kind" toml:"kind"`
	Size   int    `json:"size" yaml:"size" toml:"size"`
	SHA256 string `json:"sha256" yaml:"sha256" toml:"sha256"`
}

// GroupResult holds the files written into one group directory
type GroupResult struct {
	Group string       `json:"group" yaml:"group" toml:"group"`
	Dir   string       `json:"dir" yaml:"dir" toml:"dir"`
	Count int          `json:"count" yaml:"count" toml:"count"`
	Files []FileRecord `json:"files" yaml:"files" toml:"files"`
}

// Report is the outcome of a run. On failure it holds what was written
// before the error.
type Report struct {
	BaseDir    string        `json:"base_dir" yaml:"base_dir" toml:"base_dir"`
	Seed       int64         `json:"seed" yaml:"seed" toml:"seed"`
	StartedAt  time.Time     `json:"started_at" yaml:"started_at" toml:"started_at"`
	FinishedAt time.Time     `json:"finished_at" yaml:"finished_at" toml:"finished_at"`
	Groups     []GroupResult `json:"groups" yaml:"groups" toml:"groups"`
}

// TotalFiles returns the number of files in the report
func (r *Report) TotalFiles() int {
	total := 0
	for _, g := range r.Groups {
		total += len(g.Files)
	}
	return total
}

// TotalBytes returns the number of payload bytes in the report
func (r *Report) TotalBytes() int64 {
	var total int64
	for _, g := range r.Groups {
		for _, f := range g.Files {
			total += int64(f.Size)
		}
	}
	return total
}

// Reporter receives progress callbacks from a run
type Reporter interface {
	GroupStarted(dir string, count int)
	FileWritten(file FileRecord)
	Completed(report *Report)
}

type nopReporter struct{}

func (nopReporter) GroupStarted(string, int) {}
func (nopReporter) FileWritten(FileRecord)   {}
func (nopReporter) Completed(*Report)        {}

// NewRand returns a generator seeded with seed, or with the clock when seed
// is 0, along with the seed actually used
func NewRand(seed int64) (*rand.Rand, int64) {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed)), seed
}

// Generator populates group directories with fixture files
type Generator struct {
	fs       filesystem.FileSystem
	cfg      *config.Config
	rng      *rand.Rand
	seed     int64
	entropy  io.Reader
	reporter Reporter
}

// NewGenerator creates a generator seeded from cfg.Seed that draws binary
// payloads from crypto/rand
func NewGenerator(fs filesystem.FileSystem, cfg *config.Config) *Generator {
	rng, seed := NewRand(cfg.Seed)
	g := NewGeneratorWithSource(fs, cfg, rng, crand.Reader)
	g.seed = seed
	return g
}

// NewGeneratorWithSource creates a generator with explicit random sources (for testing)
func NewGeneratorWithSource(fs filesystem.FileSystem, cfg *config.Config, rng *rand.Rand, entropy io.Reader) *Generator {
	return &Generator{
		fs:       fs,
		cfg:      cfg,
		rng:      rng,
		seed:     cfg.Seed,
		entropy:  entropy,
		reporter: nopReporter{},
	}
}

// SetReporter sets the progress reporter
func (g *Generator) SetReporter(r Reporter) {
	if r == nil {
		r = nopReporter{}
	}
	g.reporter = r
}

// Seed returns the seed the generator was created with
func (g *Generator) Seed() int64 {
	return g.seed
}

// Run populates every configured group in order. The first error aborts the
// run; files already written stay on disk.
func (g *Generator) Run(ctx context.Context) (*Report, error) {
	if err := g.cfg.Validate(); err != nil {
		return nil, err
	}

	report := &Report{
		BaseDir:   g.cfg.BaseDir,
		Seed:      g.seed,
		StartedAt: time.Now(),
	}
	logger.Info("Generating fixtures under %s (seed %d, %d groups)", g.cfg.BaseDir, g.seed, len(g.cfg.Groups))

	for _, group := range g.cfg.Groups {
		result, err := g.PopulateGroup(ctx, group)
		report.Groups = append(report.Groups, result)
		if err != nil {
			report.FinishedAt = time.Now()
			logger.Error("Generation aborted in %s: %v", result.Dir, err)
			return report, err
		}
	}

	report.FinishedAt = time.Now()
	logger.Info("Generated %d files (%d bytes)", report.TotalFiles(), report.TotalBytes())
	g.reporter.Completed(report)
	return report, nil
}

// Materialize creates dir and any missing parents. Existing directories are fine.
func (g *Generator) Materialize(dir string) error {
	if err := g.fs.MkdirAll(dir, config.DirPerm); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// PopulateGroup creates the group directory and writes a random number of
// files into it
func (g *Generator) PopulateGroup(ctx context.Context, group string) (GroupResult, error) {
	dir := g.cfg.GroupDir(group)
	result := GroupResult{Group: group, Dir: dir}

	if err := g.Materialize(dir); err != nil {
		return result, err
	}

	result.Count = IntBetween(g.rng, g.cfg.FileCount.Min, g.cfg.FileCount.Max)
	result.Files = make([]FileRecord, 0, result.Count)
	g.reporter.GroupStarted(dir, result.Count)
	logger.Info("Generating %d files in %s", result.Count, dir)

	for i := 0; i < result.Count; i++ {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("generation cancelled in %s: %w", dir, err)
		}

		record, err := g.writeFile(dir, i)
		if err != nil {
			return result, err
		}
		result.Files = append(result.Files, record)
		g.reporter.FileWritten(record)
	}

	return result, nil
}

func (g *Generator) writeFile(dir string, index int) (FileRecord, error) {
	name := FileName(g.rng, index)
	path := filepath.Join(dir, name)

	kind := ChooseKind(g.rng, g.cfg.TextProbability)
	size := IntBetween(g.rng, g.cfg.ContentSize.Min, g.cfg.ContentSize.Max)

	var data []byte
	if kind == KindText {
		data = TextContent(g.rng, size)
	} else {
		var err error
		data, err = BinaryContent(g.entropy, size)
		if err != nil {
			return FileRecord{}, fmt.Errorf("failed to generate %s: %w", path, err)
		}
	}

	if err := g.fs.WriteFile(path, data, config.FilePerm); err != nil {
		return FileRecord{}, fmt.Errorf("failed to write %s: %w", path, err)
	}

	sum := sha256.Sum256(data)
	logger.Debug("Wrote %s (%s, %d bytes)", path, kind, size)

	return FileRecord{
		Name:   name,
		Path:   path,
		Index:  index,
		Kind:   kind,
		Size:   size,
		SHA256: hex.EncodeToString(sum[:]),
	}, nil
}
