package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dd0wney/parallel-graph/pkg/config"
	"github.com/dd0wney/parallel-graph/pkg/graph"
	"github.com/dd0wney/parallel-graph/pkg/logging"
	"github.com/dd0wney/parallel-graph/pkg/metrics"
	"github.com/dd0wney/parallel-graph/pkg/parallel"
)

var (
	errUsage          = errors.New("usage")
	errVerifyMismatch = errors.New("parallel sum differs from sequential sum")
)

// execute runs the command and returns the process exit code.
func execute(args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stdout, stderr)
	if args == nil {
		// cobra falls back to os.Args on nil
		args = []string{}
	}
	cmd.SetArgs(args)

	if err := cmd.Execute(); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintf(stderr, "Usage: %s input_file\n", cmd.Name())
		} else {
			fmt.Fprintf(stderr, "%s: %v\n", cmd.Name(), err)
		}
		return 1
	}
	return 0
}

type rootOptions struct {
	stdout io.Writer
	stderr io.Writer

	configPath  string
	workers     int
	root        int
	logLevel    string
	metricsFile string
	verify      bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{stdout: stdout, stderr: stderr}
	defaults := config.Default()

	cmd := &cobra.Command{
		Use:   "parallel-graph input_file",
		Short: "Sum the values of every node reachable from a root",
		Long: `Loads a graph and traverses it with a pool of workers, visiting each
node reachable from the root exactly once. The sum of the visited node values
is printed to stdout without a trailing newline.

Input files are plain text ("N M", N values, M undirected edges), YAML
(.yaml/.yml), or either of those compressed with snappy (.sz/.snappy).`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errUsage
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, args[0])
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", errUsage, err)
	})

	flags := cmd.Flags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "YAML config file")
	flags.IntVarP(&opts.workers, "workers", "w", defaults.Workers, "number of worker goroutines")
	flags.IntVarP(&opts.root, "root", "r", defaults.Root, "index of the start node")
	flags.StringVar(&opts.logLevel, "log-level", defaults.LogLevel, "log level (debug, info, warn, error)")
	flags.StringVar(&opts.metricsFile, "metrics-file", "", "write Prometheus metrics to this file after the run")
	flags.BoolVar(&opts.verify, "verify", false, "check the result against a sequential traversal")

	return cmd
}

// resolveConfig layers defaults, config file, environment and explicitly set flags.
func (o *rootOptions) resolveConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		var err error
		if cfg, err = config.Load(o.configPath); err != nil {
			return cfg, err
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("workers") {
		cfg.Workers = o.workers
	}
	if flags.Changed("root") {
		cfg.Root = o.root
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = o.logLevel
	}
	if flags.Changed("metrics-file") {
		cfg.MetricsFile = o.metricsFile
	}
	if flags.Changed("verify") {
		cfg.Verify = o.verify
	}

	return cfg, cfg.Validate()
}

func (o *rootOptions) run(cmd *cobra.Command, path string) error {
	cfg, err := o.resolveConfig(cmd)
	if err != nil {
		return err
	}

	logger := logging.NewJSONLogger(o.stderr, cfg.Level()).With(logging.Component("cli"))

	g, err := graph.LoadFile(path)
	if err != nil {
		return err
	}
	st := g.Stats()
	logger.Info("graph loaded",
		logging.Path(path),
		logging.Int("nodes", st.Nodes),
		logging.Int("edges", st.Edges),
		logging.Int("self_loops", st.SelfLoops),
	)

	var reg *metrics.Registry
	if cfg.MetricsFile != "" {
		reg = metrics.NewRegistry()
	}

	tr, err := parallel.NewTraverser(g,
		parallel.WithWorkers(cfg.Workers),
		parallel.WithLogger(logger),
		parallel.WithMetrics(reg),
	)
	if err != nil {
		return err
	}

	res, runErr := tr.Run(cfg.Root)
	if reg != nil {
		if err := reg.WriteTextfile(cfg.MetricsFile); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	if runErr != nil {
		return runErr
	}

	if cfg.Verify {
		want, err := g.SequentialSum(cfg.Root)
		if err != nil {
			return err
		}
		if want != res.Sum {
			return fmt.Errorf("%w: %d != %d", errVerifyMismatch, res.Sum, want)
		}
		logger.Info("verified", logging.RunID(res.RunID), logging.Int64("sum", want))
	}

	fmt.Fprintf(o.stdout, "%d", res.Sum)
	return nil
}
