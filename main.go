package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pthm-cable/drift/config"
	"github.com/pthm-cable/drift/sim"
	"github.com/pthm-cable/drift/telemetry"
	"github.com/pthm-cable/drift/viz"
)

// maxPrintableGrid is the largest grid dimension printed to stdout.
const maxPrintableGrid = 64

func main() {
	// CLI flags; zero values defer to the config file.
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	iterations := flag.Int("iterations", 0, "Number of iterations (0 = use config)")
	particles := flag.Int("particles", 0, "Number of particles (0 = use config)")
	gridSize := flag.Int("grid-size", 0, "Grid dimension (0 = use config)")
	radius := flag.Float64("radius", 0, "Containment radius (0 = use config)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = use config)")
	workers := flag.Int("workers", 0, "Worker pool size (0 = use config)")
	checkpointInterval := flag.Int("checkpoint-interval", 0, "Iterations per checkpoint segment (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and images (empty = use config)")
	heatmap := flag.Bool("heatmap", false, "Write heatmap.png to the output directory")
	video := flag.Bool("video", false, "Write diffusion.avi from checkpoint grids")
	eventChart := flag.Bool("chart", false, "Write events.png from checkpoint grids")

	flag.Parse()

	// Set up slog (JSON to stderr so the grid stays clean on stdout)
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	applyOverrides(cfg, *iterations, *particles, *gridSize, *radius, *seed,
		*workers, *checkpointInterval, *outputDir, *heatmap, *video, *eventChart)

	params := paramsFromConfig(cfg)
	if err := params.Validate(); err != nil {
		slog.Error("invalid parameters", "error", err)
		flag.Usage()
		os.Exit(1)
	}

	slog.Info("starting simulation",
		"iterations", params.Iterations,
		"particles", params.Particles,
		"grid_size", params.GridSize,
		"radius", params.Radius,
		"seed", params.Seed,
		"workers", cfg.Runtime.Workers,
	)

	simulator, err := sim.New(params)
	if err != nil {
		slog.Error("failed to build simulator", "error", err)
		os.Exit(1)
	}

	startX := make([]float32, params.Particles)
	startY := make([]float32, params.Particles)
	simulator.Population().Snapshot(startX, startY)

	result, err := simulator.Run(context.Background())
	if err != nil {
		slog.Error("run failed", "error", err)
		os.Exit(1)
	}

	stats := telemetry.ComputeGridStats(result.Grid.Counts())
	finalX := make([]float32, params.Particles)
	finalY := make([]float32, params.Particles)
	simulator.Population().Snapshot(finalX, finalY)
	msd := telemetry.MeanSquaredDisplacement(finalX, finalY, startX, startY)

	slog.Info("run complete",
		"elapsed_ms", result.ElapsedMillis(),
		"events", result.Events,
		"occupied_cells", stats.Occupied,
		"max_count", stats.Max,
		"msd", msd,
	)
	simulator.Perf().LogStats()

	if err := writeOutputs(cfg, params, result, stats, msd); err != nil {
		slog.Error("failed to write outputs", "error", err)
		os.Exit(1)
	}

	if cfg.Output.PrintGrid && params.GridSize <= maxPrintableGrid {
		printGrid(result.Grid)
	}
	fmt.Printf("\nTime: %d ms\n", result.ElapsedMillis())
}

// applyOverrides folds non-zero CLI flags into the loaded config.
func applyOverrides(cfg *config.Config, iterations, particles, gridSize int,
	radius float64, seed int64, workers, checkpointInterval int,
	outputDir string, heatmap, video, eventChart bool) {
	if iterations > 0 {
		cfg.Simulation.Iterations = iterations
	}
	if particles > 0 {
		cfg.Simulation.Particles = particles
		cfg.Simulation.Starts = nil
	}
	if gridSize > 0 {
		cfg.Simulation.GridSize = gridSize
	}
	if radius > 0 {
		cfg.Simulation.Radius = radius
		cfg.Derived.Radius32 = float32(radius)
	}
	if seed != 0 {
		cfg.Simulation.Seed = seed
	}
	if workers > 0 {
		cfg.Runtime.Workers = workers
	}
	if checkpointInterval > 0 {
		cfg.Runtime.CheckpointInterval = checkpointInterval
	}
	if outputDir != "" {
		cfg.Output.Dir = outputDir
	}
	if heatmap {
		cfg.Output.Heatmap = true
	}
	if video {
		cfg.Output.Video = true
	}
	if eventChart {
		cfg.Output.Chart = true
	}
}

// paramsFromConfig maps the loaded configuration onto driver params.
func paramsFromConfig(cfg *config.Config) sim.Params {
	params := sim.Params{
		Iterations:         cfg.Simulation.Iterations,
		Particles:          cfg.Simulation.Particles,
		GridSize:           cfg.Simulation.GridSize,
		Radius:             cfg.Derived.Radius32,
		Seed:               cfg.Simulation.Seed,
		Scale:              cfg.Simulation.Scale,
		Start:              sim.Start{X: cfg.Derived.StartX32, Y: cfg.Derived.StartY32},
		Workers:            cfg.Runtime.Workers,
		ParallelThreshold:  cfg.Runtime.ParallelThreshold,
		MaxParticles:       cfg.Runtime.MaxParticles,
		CheckpointInterval: cfg.Runtime.CheckpointInterval,
	}
	for _, s := range cfg.Simulation.Starts {
		params.Starts = append(params.Starts, sim.Start{X: float32(s.X), Y: float32(s.Y)})
	}
	return params
}

// writeOutputs emits the configured artifacts: runs.csv, grid.csv, a
// config snapshot, and the optional heatmap, video, and chart.
func writeOutputs(cfg *config.Config, params sim.Params, result *sim.Result,
	stats telemetry.GridStats, msd float64) error {
	om, err := telemetry.NewOutputManager(cfg.Output.Dir)
	if err != nil {
		return err
	}
	if om == nil {
		return nil
	}
	defer om.Close()

	if err := cfg.WriteYAML(filepath.Join(om.Dir(), "config.yaml")); err != nil {
		return err
	}

	if len(result.Checkpoints) > 0 {
		for i, cp := range result.Checkpoints {
			cpStats := telemetry.ComputeGridStats(cp.Grid.Counts())
			if err := om.WriteRun(runRecord(i, cp.Iteration, params, cpStats, msd, result)); err != nil {
				return err
			}
		}
	} else {
		if err := om.WriteRun(runRecord(0, params.Iterations, params, stats, msd, result)); err != nil {
			return err
		}
	}

	if err := om.WriteGrid(result.Grid.Size(), result.Grid.Counts()); err != nil {
		return err
	}

	if cfg.Output.Heatmap {
		img := viz.RenderHeatmap(result.Grid, cfg.Output.CellSize)
		if err := viz.SavePNG(img, filepath.Join(om.Dir(), "heatmap.png")); err != nil {
			return err
		}
	}
	if cfg.Output.Video {
		path := filepath.Join(om.Dir(), "diffusion.avi")
		if err := viz.WriteCheckpointVideo(path, result.Checkpoints, cfg.Output.CellSize, cfg.Output.VideoFPS); err != nil {
			return err
		}
	}
	if cfg.Output.Chart && len(result.Checkpoints) >= 2 {
		if err := viz.SaveEventChart(result.Checkpoints, filepath.Join(om.Dir(), "events.png")); err != nil {
			return err
		}
	}
	return nil
}

func runRecord(segment, iteration int, params sim.Params,
	stats telemetry.GridStats, msd float64, result *sim.Result) telemetry.RunRecord {
	return telemetry.RunRecord{
		Segment:   segment,
		Iteration: iteration,
		Particles: params.Particles,
		GridSize:  params.GridSize,
		Radius:    float64(params.Radius),
		Seed:      params.Seed,
		Events:    stats.Events,
		Occupied:  stats.Occupied,
		MeanCount: stats.Mean,
		P90Count:  stats.P90,
		MaxCount:  stats.Max,
		MSD:       msd,
		ElapsedMS: result.ElapsedMillis(),
	}
}

// printGrid writes the grid to stdout with fixed-width columns.
func printGrid(g *sim.Grid) {
	fmt.Println()
	for y := 0; y < g.Size(); y++ {
		for _, c := range g.Row(y) {
			fmt.Printf("%3d ", c)
		}
		fmt.Println()
	}
}
