package config

const (
	// DefaultBaseDir is the root every group path is resolved against
	DefaultBaseDir = "/tmp/test_storage"
	// DefaultMinFiles is the smallest number of files written per group
	DefaultMinFiles = 3
	// DefaultMaxFiles is the largest number of files written per group
	DefaultMaxFiles = 5
	// DefaultTextProbability is the chance a file is generated as text
	DefaultTextProbability = 0.6
	// DefaultMinSize is the smallest payload size in bytes
	DefaultMinSize = 256
	// DefaultMaxSize is the largest payload size in bytes
	DefaultMaxSize = 1024
	// DefaultLogLevel is the default log level
	DefaultLogLevel = "info"

	// MinNameSuffix and MaxNameSuffix bound the random number in a file
	// name. Both are four digits wide, which the name pattern relies on.
	MinNameSuffix = 1000
	MaxNameSuffix = 9999

	// DirPerm and FilePerm are the modes for created directories and files
	DirPerm  = 0755
	FilePerm = 0644
)

// DefaultGroups are the group paths populated when nothing else is configured
var DefaultGroups = []string{
	"group1",
	"group2",
	"group2/subdir",
	"group3",
}

// Environment variables consulted by ApplyEnv
const (
	EnvBaseDir  = "STORAGE_FIXTURES_BASE_DIR"
	EnvSeed     = "STORAGE_FIXTURES_SEED"
	EnvLogLevel = "STORAGE_FIXTURES_LOG_LEVEL"
)
