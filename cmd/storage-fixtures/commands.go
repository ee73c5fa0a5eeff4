package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mainbong/storage_fixtures/internal/generator"
	"github.com/mainbong/storage_fixtures/internal/logger"
	"github.com/mainbong/storage_fixtures/internal/manifest"
	"github.com/mainbong/storage_fixtures/internal/terminal"
	"github.com/mainbong/storage_fixtures/internal/verify"
	"github.com/mainbong/storage_fixtures/internal/watch"
)

var (
	manifestPath string
	showProgress bool
	verbose      bool
	summary      bool
	watchTimeout time.Duration
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate fixture files in every group directory",
	Args:  cobra.NoArgs,
	RunE:  runGenerate,
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check the group directories against the configured properties",
	Args:  cobra.NoArgs,
	RunE:  runVerify,
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Report changes to fixture files until interrupted",
	Args:  cobra.NoArgs,
	RunE:  runWatch,
}

var monitorConfigCmd = &cobra.Command{
	Use:   "monitor-config [path]",
	Short: "Write a monitoring config covering the group directories",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "config.json"
		if len(args) > 0 {
			path = args[0]
		}
		if err := manifest.NewManager().WriteMonitoringConfig(path, cfg); err != nil {
			return err
		}
		logger.Info("Monitoring config written to %s", path)
		fmt.Printf("%s Monitoring config written to %s\n", color.GreenString("✔"), path)
		return nil
	},
}

func init() {
	addGenerateFlags(generateCmd)

	verifyCmd.Flags().StringVar(&manifestPath, "manifest", "", "manifest from a previous run to check against")
	watchCmd.Flags().DurationVar(&watchTimeout, "timeout", 0, "stop after this long (0 waits for an interrupt)")
}

func addGenerateFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&manifestPath, "manifest", "", "write a manifest (.json, .yaml, .yml or .toml)")
	flags.BoolVar(&showProgress, "progress", false, "show a progress bar on stderr")
	flags.BoolVarP(&verbose, "verbose", "v", false, "print every written file")
	flags.BoolVar(&summary, "summary", false, "print a per-group summary table")
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	mgr := manifest.NewManager()
	if manifestPath != "" {
		if _, err := manifest.FormatFor(manifestPath); err != nil {
			return err
		}
		if err := manifest.CheckLocation(manifestPath, cfg); err != nil {
			return err
		}
	}

	printer := terminal.NewPrinter(os.Stdout)
	printer.SetVerbose(verbose)
	printer.SetSummary(summary)

	gen := generator.NewGenerator(osFS, cfg)
	if showProgress {
		printer.SetGroupLines(false)
		gen.SetReporter(terminal.MultiReporter{terminal.NewProgress(os.Stderr), printer})
	} else {
		gen.SetReporter(printer)
	}

	if verbose {
		fmt.Printf("%s Seed %d\n", color.CyanString("→"), gen.Seed())
	}

	ctx, cancel := signalContext()
	defer cancel()

	report, err := gen.Run(ctx)
	if err != nil {
		return err
	}

	if manifestPath != "" {
		if err := mgr.Write(manifestPath, report); err != nil {
			return err
		}
		logger.Info("Manifest written to %s", manifestPath)
		fmt.Printf("%s Manifest written to %s\n", color.CyanString("→"), manifestPath)
	}
	return nil
}

func runVerify(cmd *cobra.Command, args []string) error {
	var report *generator.Report
	if manifestPath != "" {
		var err error
		report, err = manifest.NewManager().Read(manifestPath)
		if err != nil {
			return err
		}
	}

	result, err := verify.NewVerifier(osFS, cfg).Verify(report)
	if err != nil {
		return err
	}

	if n := terminal.PrintIssues(os.Stdout, result); n > 0 {
		return fmt.Errorf("verification failed with %d issue(s)", n)
	}
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	monitor, err := watch.NewMonitor(cfg)
	if err != nil {
		return err
	}
	defer monitor.Close()

	dirs, err := monitor.Add()
	if err != nil {
		return err
	}
	for _, dir := range dirs {
		fmt.Printf("%s Watching %s\n", color.CyanString("→"), dir)
	}

	ctx, cancel := signalContext()
	defer cancel()
	if watchTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, watchTimeout)
		defer cancel()
	}

	err = monitor.Watch(ctx, func(e watch.Event) {
		fmt.Println(terminal.FormatEvent(e.Op, e.Path))
	})
	if err == context.Canceled || err == context.DeadlineExceeded {
		return nil
	}
	return err
}
