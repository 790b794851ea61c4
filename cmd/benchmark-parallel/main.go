package main

import (
	"fmt"
	"io"
	"math/rand"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/dd0wney/parallel-graph/pkg/graph"
	"github.com/dd0wney/parallel-graph/pkg/parallel"
)

type benchOptions struct {
	nodes   int
	degree  int
	workers int
	rounds  int
	seed    int64
}

func main() {
	if err := newBenchCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newBenchCmd(out io.Writer) *cobra.Command {
	opts := &benchOptions{}

	cmd := &cobra.Command{
		Use:           "benchmark-parallel",
		Short:         "Compare sequential and parallel reachability sums on a random graph",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBenchmark(out, opts)
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&opts.nodes, "nodes", 100000, "Number of nodes")
	flags.IntVar(&opts.degree, "degree", 10, "Average out-degree per node")
	flags.IntVar(&opts.workers, "workers", 0, "Number of worker goroutines (0 = CPU count)")
	flags.IntVar(&opts.rounds, "rounds", 5, "Runs per configuration")
	flags.Int64Var(&opts.seed, "seed", 1, "Random seed")

	return cmd
}

// BenchmarkStats summarizes repeated runs of one configuration.
type BenchmarkStats struct {
	NodesVisited int
	Sum          int64
	Duration     time.Duration
	Throughput   float64
}

func runBenchmark(out io.Writer, opts *benchOptions) error {
	if opts.nodes < 1 {
		return fmt.Errorf("--nodes must be at least 1, got %d", opts.nodes)
	}
	if opts.degree < 0 {
		return fmt.Errorf("--degree must not be negative, got %d", opts.degree)
	}
	if opts.workers <= 0 {
		opts.workers = runtime.NumCPU()
	}
	if opts.rounds <= 0 {
		opts.rounds = 1
	}

	fmt.Fprintf(out, "🔬 Parallel Graph Traversal Benchmark\n")
	fmt.Fprintf(out, "======================================\n\n")
	fmt.Fprintf(out, "Configuration:\n")
	fmt.Fprintf(out, "  Nodes:       %d\n", opts.nodes)
	fmt.Fprintf(out, "  Avg Degree:  %d\n", opts.degree)
	fmt.Fprintf(out, "  Rounds:      %d\n", opts.rounds)
	fmt.Fprintf(out, "  CPU Cores:   %d\n", runtime.NumCPU())
	fmt.Fprintf(out, "  Workers:     %d\n\n", opts.workers)

	fmt.Fprintf(out, "📊 Creating test graph...\n")
	g, err := createTestGraph(opts.nodes, opts.degree, opts.seed)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "   Created %d nodes with %d edges\n\n", g.NodeCount(), g.EdgeCount())

	fmt.Fprintf(out, "🐌 Testing sequential sum...\n")
	seq, err := benchmarkSequential(g, opts.rounds)
	if err != nil {
		return err
	}
	printStats(out, seq, seq)

	best := seq
	bestWorkers := 1
	for _, workers := range []int{2, 4, opts.workers} {
		fmt.Fprintf(out, "⚡ Testing parallel sum (%d workers)...\n", workers)
		par, err := benchmarkParallel(g, workers, opts.rounds)
		if err != nil {
			return err
		}
		if par.Sum != seq.Sum || par.NodesVisited != seq.NodesVisited {
			return fmt.Errorf("parallel result (%d over %d nodes) differs from sequential (%d over %d nodes)",
				par.Sum, par.NodesVisited, seq.Sum, seq.NodesVisited)
		}
		printStats(out, par, seq)
		if par.Duration < best.Duration {
			best, bestWorkers = par, workers
		}
	}

	speedup := seq.Duration.Seconds() / best.Duration.Seconds()
	fmt.Fprintf(out, "🎯 Best Speedup: %.2fx with %d workers\n", speedup, bestWorkers)
	return nil
}

func printStats(out io.Writer, stats, baseline BenchmarkStats) {
	fmt.Fprintf(out, "   Nodes Visited: %d\n", stats.NodesVisited)
	fmt.Fprintf(out, "   Sum:           %d\n", stats.Sum)
	fmt.Fprintf(out, "   Duration:      %s\n", stats.Duration)
	fmt.Fprintf(out, "   Throughput:    %.0f nodes/sec\n", stats.Throughput)
	fmt.Fprintf(out, "   Speedup:       %.2fx\n\n", baseline.Duration.Seconds()/stats.Duration.Seconds())
}

func createTestGraph(numNodes, avgDegree int, seed int64) (*graph.Graph, error) {
	rng := rand.New(rand.NewSource(seed))

	values := make([]int64, numNodes)
	adjacency := make([][]int, numNodes)
	for i := range values {
		values[i] = rng.Int63n(1000)
	}

	numEdges := numNodes * avgDegree
	for i := 0; i < numEdges; i++ {
		from := rng.Intn(numNodes)
		adjacency[from] = append(adjacency[from], rng.Intn(numNodes))
	}

	return graph.NewGraph(values, adjacency)
}

func benchmarkSequential(g *graph.Graph, rounds int) (BenchmarkStats, error) {
	var stats BenchmarkStats

	start := time.Now()
	for i := 0; i < rounds; i++ {
		sum, err := g.SequentialSum(0)
		if err != nil {
			return stats, err
		}
		stats.Sum = sum
	}
	stats.Duration = time.Since(start) / time.Duration(rounds)

	reachable, err := g.Reachable(0)
	if err != nil {
		return stats, err
	}
	stats.NodesVisited = len(reachable)
	stats.Throughput = float64(stats.NodesVisited) / stats.Duration.Seconds()
	return stats, nil
}

func benchmarkParallel(g *graph.Graph, workers, rounds int) (BenchmarkStats, error) {
	var stats BenchmarkStats

	traverser, err := parallel.NewTraverser(g, parallel.WithWorkers(workers))
	if err != nil {
		return stats, err
	}

	start := time.Now()
	for i := 0; i < rounds; i++ {
		res, err := traverser.Run(0)
		if err != nil {
			return stats, err
		}
		stats.Sum = res.Sum
		stats.NodesVisited = res.NodesVisited
	}
	stats.Duration = time.Since(start) / time.Duration(rounds)
	stats.Throughput = float64(stats.NodesVisited) / stats.Duration.Seconds()
	return stats, nil
}
