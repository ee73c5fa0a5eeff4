// Package manifest persists run reports as JSON, YAML or TOML and exports
// group paths in the file-integrity monitor's config format.
package manifest

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/mainbong/storage_fixtures/internal/config"
	"github.com/mainbong/storage_fixtures/internal/filesystem"
	"github.com/mainbong/storage_fixtures/internal/generator"
)

// Format is a manifest encoding
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFor determines the manifest format from the file extension
func FormatFor(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("unsupported manifest extension %q (use .json, .yaml, .yml or .toml)", ext)
	}
}

// Manager reads and writes manifests
type Manager struct {
	fs filesystem.FileSystem
}

// NewManager creates a manifest manager on the real file system
func NewManager() *Manager {
	return NewManagerWithFS(filesystem.NewOSFileSystem())
}

// NewManagerWithFS creates a manifest manager with a custom FileSystem (for testing)
func NewManagerWithFS(fs filesystem.FileSystem) *Manager {
	return &Manager{fs: fs}
}

// CheckLocation rejects manifest paths inside a group directory, where the
// manifest would count against the group's files
func CheckLocation(path string, cfg *config.Config) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	dir := filepath.Dir(abs)
	for _, group := range cfg.Groups {
		groupDir, err := filepath.Abs(cfg.GroupDir(group))
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", group, err)
		}
		if dir == groupDir {
			return fmt.Errorf("manifest %s must not be inside group directory %s", path, groupDir)
		}
	}
	return nil
}

// Encode marshals a report in the given format
func Encode(report *generator.Report, format Format) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	switch format {
	case FormatJSON:
		data, err = json.MarshalIndent(report, "", "  ")
	case FormatYAML:
		data, err = yaml.Marshal(report)
	case FormatTOML:
		data, err = toml.Marshal(report)
	default:
		return nil, fmt.Errorf("unsupported manifest format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s manifest: %w", format, err)
	}
	return data, nil
}

// Decode unmarshals a report in the given format
func Decode(data []byte, format Format) (*generator.Report, error) {
	report := &generator.Report{}
	var err error
	switch format {
	case FormatJSON:
		err = json.Unmarshal(data, report)
	case FormatYAML:
		err = yaml.Unmarshal(data, report)
	case FormatTOML:
		err = toml.Unmarshal(data, report)
	default:
		return nil, fmt.Errorf("unsupported manifest format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s manifest: %w", format, err)
	}
	return report, nil
}

// Write writes the report to path, choosing the format by extension
func (m *Manager) Write(path string, report *generator.Report) error {
	format, err := FormatFor(path)
	if err != nil {
		return err
	}

	data, err := Encode(report, format)
	if err != nil {
		return err
	}

	return m.writeFile(path, data)
}

// Read reads a report from path, choosing the format by extension
func (m *Manager) Read(path string) (*generator.Report, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}

	data, err := m.fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	return Decode(data, format)
}

// WriteMonitoringConfig writes a monitor config for the configured groups
func (m *Manager) WriteMonitoringConfig(path string, cfg *config.Config) error {
	data, err := json.MarshalIndent(NewMonitoringConfig(cfg), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal monitoring config: %w", err)
	}

	return m.writeFile(path, data)
}

func (m *Manager) writeFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := m.fs.MkdirAll(dir, config.DirPerm); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := m.fs.WriteFile(path, data, config.FilePerm); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}
