package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/gantryci/gantry/internal/archive"
	"github.com/gantryci/gantry/internal/config"
	"github.com/gantryci/gantry/internal/engine"
	"github.com/gantryci/gantry/internal/logger"
	"github.com/gantryci/gantry/internal/runenv"
	"github.com/gantryci/gantry/internal/shellexec"
	"github.com/gantryci/gantry/internal/summary"
)

type runOptions struct {
	ConfigPath  string
	Params      []string
	Workspace   string
	ArchiveRoot string
	BuildNumber int
	Verbose     bool
}

var runCmdRunner = runPipeline

func newRunCmd(root *rootFlags) *cobra.Command {
	opts := runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute a pipeline definition",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Verbose = root.verbose
			return runCmdRunner(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to pipeline definition")
	cmd.Flags().StringArrayVarP(&opts.Params, "param", "p", nil, "Pipeline parameter as NAME=VALUE (repeatable)")
	cmd.Flags().StringVar(&opts.Workspace, "workspace", "", "Workspace directory (default: current directory)")
	cmd.Flags().StringVar(&opts.ArchiveRoot, "archive-root", "", "Artifact archive root (default: <workspace>/.gantry/archive)")
	cmd.Flags().IntVar(&opts.BuildNumber, "build-number", 1, "Build number exposed as BUILD_NUMBER")
	cmd.MarkFlagRequired("config") //nolint:errcheck

	return cmd
}

func runPipeline(opts runOptions) error {
	pipeline, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	supplied, err := parseParams(opts.Params)
	if err != nil {
		return err
	}

	workspace := opts.Workspace
	if workspace == "" {
		if workspace, err = os.Getwd(); err != nil {
			return err
		}
	}
	if workspace, err = filepath.Abs(workspace); err != nil {
		return err
	}
	if err := os.MkdirAll(workspace, 0o755); err != nil {
		return err
	}

	archiveRoot := opts.ArchiveRoot
	if archiveRoot == "" {
		archiveRoot = filepath.Join(workspace, ".gantry", "archive")
	}

	runID := uuid.New().String()

	env, err := runenv.Resolve(pipeline.Parameters, supplied, pipeline.Environment, runenv.Metadata{
		Workspace:   workspace,
		BuildNumber: opts.BuildNumber,
		RunID:       runID,
	})
	if err != nil {
		return err
	}

	level := "info"
	if opts.Verbose {
		level = "debug"
	}
	log, err := logger.New(logger.Options{Level: level, HumanReadable: true})
	if err != nil {
		return err
	}
	log = log.WithField("run", runID)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runner := &shellexec.ShellRunner{}
	result := engine.New(runner, log).Execute(ctx, pipeline, env, runID)

	archiver := &archive.Archiver{Root: archiveRoot, Log: log}
	var report *archive.Report

	dispatcher := engine.NewDispatcher(runner, log).WithOnSuccess(func(ctx context.Context) error {
		if len(pipeline.Archive) == 0 {
			return nil
		}
		r, archiveErr := archiver.Archive(runID, workspace, pipeline.Archive)
		report = r
		return archiveErr
	})

	post := dispatcher.Dispatch(ctx, result, pipeline.Post, env)

	colored := term.IsTerminal(int(os.Stdout.Fd()))
	fmt.Fprint(os.Stdout, summary.Renderer{Colored: colored}.Render(result, post, report))

	if result.Failed() {
		return fmt.Errorf("run %s failed", runID)
	}
	return nil
}

func parseParams(pairs []string) (map[string]string, error) {
	params := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid parameter %q, expected NAME=VALUE", pair)
		}
		params[name] = value
	}
	return params, nil
}
