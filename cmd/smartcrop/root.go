package main

import (
	"fmt"
	"io"
	"log"

	"github.com/spf13/cobra"

	"github.com/menta2k/smartcrop"
	"github.com/menta2k/smartcrop/internal/config"
	"github.com/menta2k/smartcrop/internal/logging"
	"github.com/menta2k/smartcrop/internal/utils"
)

// app carries the state shared by every subcommand
type app struct {
	configPath string
	logFile    string
	verbose    bool

	cfg    *config.Config
	log    *log.Logger
	closer io.Closer
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "smartcrop",
		Short:         "Content aware image cropping",
		Version:       smartcrop.GetVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.closer != nil {
				a.closer.Close()
			}
		},
	}
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file, JSON or YAML (default "+config.GetConfigPath()+" when present)")
	root.PersistentFlags().StringVar(&a.logFile, "log-file", "", "write logs to a rotating file instead of stderr")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log every pipeline stage")

	root.AddCommand(
		newCropCmd(a),
		newBatchCmd(a),
		newAnalyzeCmd(a),
		newTestVisionCmd(a),
		newConfigCmd(a),
	)
	return root
}

// setup loads the configuration and builds the logger. An explicit --config
// must exist; the default path is only used when present.
func (a *app) setup(cmd *cobra.Command) error {
	path := a.configPath
	if path == "" && utils.FileExists(config.GetConfigPath()) {
		path = config.GetConfigPath()
	}

	cfg := config.Default()
	if path != "" {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("log-file") {
		cfg.Log.File = a.logFile
	}
	if a.verbose {
		cfg.Log.Verbose = true
	}

	l, closer, err := logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	a.cfg, a.log, a.closer = cfg, l, closer
	return nil
}
