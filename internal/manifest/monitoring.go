package manifest

import (
	"strings"

	"github.com/mainbong/storage_fixtures/internal/config"
)

// ChecksumAlgorithm matches the digest stored in reports
const ChecksumAlgorithm = "sha256"

// MonitoredEvents are the events a monitor should track for fixture files
var MonitoredEvents = []string{"create", "modify", "delete"}

// MonitoringConfig is the file-integrity monitor's config document
type MonitoringConfig struct {
	Monitoring struct {
		Groups []MonitoringGroup `json:"groups"`
	} `json:"monitoring"`
}

// MonitoringGroup is one monitored group of paths
type MonitoringGroup struct {
	ID          string       `json:"id"`
	Description string       `json:"description"`
	Paths       []PathConfig `json:"paths"`
	Events      []string     `json:"events"`
	Checksum    Checksum     `json:"checksum"`
}

// PathConfig is a monitored path
type PathConfig struct {
	Path      string `json:"path"`
	Recursive bool   `json:"recursive"`
}

// Checksum configures content hashing
type Checksum struct {
	Enabled   bool   `json:"enabled"`
	Algorithm string `json:"algorithm"`
}

// NewMonitoringConfig builds one monitoring group per configured group path.
// Paths are not recursive because nested groups are listed separately.
func NewMonitoringConfig(cfg *config.Config) *MonitoringConfig {
	mc := &MonitoringConfig{}
	for _, group := range cfg.Groups {
		events := make([]string, len(MonitoredEvents))
		copy(events, MonitoredEvents)

		mc.Monitoring.Groups = append(mc.Monitoring.Groups, MonitoringGroup{
			ID:          groupID(group),
			Description: "Fixture files in " + group,
			Paths:       []PathConfig{{Path: cfg.GroupDir(group), Recursive: false}},
			Events:      events,
			Checksum:    Checksum{Enabled: true, Algorithm: ChecksumAlgorithm},
		})
	}
	return mc
}

func groupID(group string) string {
	group = strings.Trim(strings.ReplaceAll(group, "\\", "/"), "/")
	return strings.ReplaceAll(group, "/", "_")
}
