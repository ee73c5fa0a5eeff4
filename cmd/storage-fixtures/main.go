package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mainbong/storage_fixtures/internal/config"
	"github.com/mainbong/storage_fixtures/internal/filesystem"
	"github.com/mainbong/storage_fixtures/internal/logger"
	"github.com/mainbong/storage_fixtures/internal/terminal"
)

var version = "v0.1.0"

var (
	cfg        *config.Config
	osFS       = filesystem.NewOSFileSystem()
	configPath string
	envFile    string
	baseDir    string
	seed       int64
	devMode    bool
	forceInit  bool
)

var rootCmd = &cobra.Command{
	Use:   "storage-fixtures",
	Short: "Populate a directory tree with random fixture files",
	Long: "storage-fixtures writes a random number of randomly named text and binary\n" +
		"files into each configured group directory, for exercising storage monitors.",
	PersistentPreRunE: setup,
	RunE:              runGenerate,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

var versionCmd = &cobra.Command{
	Use:               "version",
	Short:             "Print version information",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("storage-fixtures %s\n", version)
	},
}

// configCmd skips validation so a broken config file can still be repaired
var configCmd = &cobra.Command{
	Use:               "config",
	Short:             "Manage the configuration file",
	PersistentPreRunE: setupUnvalidated,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		fmt.Println(string(data))
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		file := configFile()
		if _, err := osFS.Stat(file); err == nil && !forceInit {
			return fmt.Errorf("%s already exists (use --force to overwrite)", file)
		}
		defaults := config.Default()
		defaults.LogDir = cfg.LogDir
		if err := saveConfig(defaults); err != nil {
			return err
		}
		fmt.Printf("%s Wrote %s\n", color.GreenString("✔"), file)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		// Reload so env and flag overrides are not persisted
		stored, err := loadConfig()
		if err != nil {
			return err
		}
		if err := stored.Set(args[0], args[1]); err != nil {
			return err
		}
		if err := stored.Validate(); err != nil {
			return err
		}
		if err := saveConfig(stored); err != nil {
			return err
		}
		logger.Info("Config %s set to %s", args[0], args[1])
		fmt.Printf("%s = %s\n", args[0], args[1])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(monitorConfigCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configSetCmd)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "config file (default "+config.GetConfigFile()+")")
	flags.StringVar(&envFile, "env-file", ".env", "dotenv file applied before the environment")
	flags.StringVar(&baseDir, "base-dir", "", "root directory for the group paths")
	flags.Int64Var(&seed, "seed", 0, "random seed (0 seeds from the clock)")
	flags.BoolVar(&devMode, "dev", false, "write log files to the current directory")

	addGenerateFlags(rootCmd)
	configInitCmd.Flags().BoolVar(&forceInit, "force", false, "overwrite an existing config file")
}

func configFile() string {
	if configPath != "" {
		return configPath
	}
	return config.GetConfigFile()
}

func loadConfig() (*config.Config, error) {
	var (
		loaded *config.Config
		err    error
	)
	if configPath == "" {
		loaded, err = config.Load()
	} else {
		loaded, err = config.LoadWithFS(osFS, config.GetConfigDir(), configPath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return loaded, nil
}

func saveConfig(c *config.Config) error {
	if configPath == "" {
		return c.Save()
	}
	return c.SaveWithFS(osFS, configPath)
}

// setup resolves the configuration (defaults, file, environment, flags),
// validates it and starts the file logger.
func setup(cmd *cobra.Command, args []string) error {
	return prepare(cmd, true)
}

func setupUnvalidated(cmd *cobra.Command, args []string) error {
	return prepare(cmd, false)
}

func prepare(cmd *cobra.Command, validate bool) error {
	var err error
	cfg, err = loadConfig()
	if err != nil {
		return err
	}

	if err := cfg.ApplyEnv(envFile); err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("base-dir") {
		cfg.BaseDir = baseDir
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}

	if validate {
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		if validate {
			return err
		}
		level = logger.INFO
	}

	logDir := cfg.LogDir
	if devMode {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get working directory: %w", err)
		}
		logDir = cwd
	}

	if err := logger.Init(logDir, level); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Debug("Config loaded: base=%s groups=%v seed=%d", cfg.BaseDir, cfg.Groups, cfg.Seed)
	return nil
}

func main() {
	if !terminal.HasTTY() {
		color.NoColor = true
	}

	err := rootCmd.Execute()
	logger.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", color.RedString("Error:"), err)
		os.Exit(1)
	}
}
