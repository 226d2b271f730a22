package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/born-ml/deepretina/internal/config"
	"github.com/born-ml/deepretina/internal/evaluate"
	"github.com/born-ml/deepretina/internal/experiments"
	"github.com/born-ml/deepretina/internal/loader"
	"github.com/born-ml/deepretina/internal/store"
)

func runLayers(args []string) error {
	fs := flag.NewFlagSet("layers", flag.ExitOnError)
	modelDir := fs.String("model", ".", "Model directory")
	weightFile := fs.String("weights", "", "Weight file inside the model directory")
	_ = fs.Parse(args)

	if *weightFile == "" {
		return errors.New("-weights is required")
	}
	return loader.ListLayers(os.Stdout, *modelDir, *weightFile)
}

func runWeights(args []string) error {
	fs := flag.NewFlagSet("weights", flag.ExitOnError)
	file := fs.String("file", "", "Path to a weight file")
	layer := fs.String("layer", "layer_0", "Layer group name")
	slotName := fs.String("slot", "weights", "weights or biases")
	_ = fs.Parse(args)

	if *file == "" {
		return errors.New("-file is required")
	}
	slot, err := loader.ParseSlot(*slotName)
	if err != nil {
		return err
	}
	t, err := loader.GetWeights(*file, *layer, slot)
	if err != nil {
		return err
	}

	data := t.Data()
	mean, sd := stat.MeanStdDev(data, nil)
	fmt.Printf("%s %s (%s)\n", *layer, slot, slot.DatasetName())
	fmt.Printf("  shape: %v\n", t.Shape())
	fmt.Printf("  min:   %.6g\n", floats.Min(data))
	fmt.Printf("  max:   %.6g\n", floats.Max(data))
	fmt.Printf("  mean:  %.6g\n", mean)
	fmt.Printf("  std:   %.6g\n", sd)
	return nil
}

func runInit(args []string) error {
	def := loader.DefaultConvNetOptions()

	fs := flag.NewFlagSet("init", flag.ExitOnError)
	modelDir := fs.String("model", "", "Output model directory")
	weightFile := fs.String("weights", "epoch000_iter00000_weights.born", "Weight file name")
	cells := fs.Int("cells", 5, "Number of output cells")
	history := fs.Int("history", evaluate.DefaultHistoryLength, "Stimulus history (frames)")
	height := fs.Int("height", 50, "Stimulus height")
	width := fs.Int("width", 50, "Stimulus width")
	filters := fs.String("filters", fmt.Sprintf("%d,%d", def.NumFilters[0], def.NumFilters[1]), "Convolution filters and hidden units")
	size := fs.Int("size", def.FilterSize, "Convolution kernel size")
	pool := fs.Int("pool", def.PoolSize, "Max pooling size (0 disables pooling)")
	initName := fs.String("init", def.WeightInit, "Weight initializer (normal or glorot_uniform)")
	l2 := fs.Float64("l2", def.L2Reg, "L2 penalty recorded in the architecture")
	seed := fs.Uint64("seed", 0, "PRNG seed (0 uses the current time)")
	_ = fs.Parse(args)

	if *modelDir == "" {
		return errors.New("-model is required")
	}
	nf, err := parsePair(*filters)
	if err != nil {
		return fmt.Errorf("-filters: %w", err)
	}
	if *seed == 0 {
		*seed = uint64(time.Now().UnixNano()) //nolint:gosec // seeds are not secret
	}

	opts := loader.ConvNetOptions{NumFilters: nf, FilterSize: *size, PoolSize: *pool, WeightInit: *initName, L2Reg: *l2}
	arch, err := loader.ConvNet([3]int{*history, *height, *width}, *cells, opts)
	if err != nil {
		return err
	}
	model, err := loader.Build(arch)
	if err != nil {
		return err
	}
	if err := loader.InitWeights(arch, model, *seed); err != nil {
		return err
	}
	if err := loader.SaveModel(*modelDir, *weightFile, arch, model); err != nil {
		return err
	}

	fmt.Println(model)
	fmt.Printf("%d parameters, seed %d, written to %s\n", model.NumParams(), *seed, *modelDir)
	return nil
}

func runEval(args []string) error {
	fs := flag.NewFlagSet("eval", flag.ExitOnError)
	cfgPath := fs.String("config", "configs/eval.yaml", "Path to YAML config")
	modelDir := fs.String("model", "", "Override model directory")
	weightFile := fs.String("weights", "", "Override weight file")
	dataDir := fs.String("data", "", "Override experiment data directory")
	exptDate := fs.String("expt", "", "Override experiment date")
	stimType := fs.String("stim", "", "Override stimulus type")
	cells := fs.String("cells", "", "Override cells, comma separated")
	metric := fs.String("metric", "", "Override metric (cc, lli, rmse, fev)")
	batchSize := fs.Int("batch-size", 0, "Override batch size")
	history := fs.Int("history", 0, "Override stimulus history")
	dbPath := fs.String("db", "", "Override run database")
	quiet := fs.Bool("quiet", false, "Do not log batch progress")
	_ = fs.Parse(args)

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cellList, err := config.ParseCells(*cells)
	if err != nil {
		return fmt.Errorf("-cells: %w", err)
	}
	cfg.ApplyOverrides(config.Overrides{
		ModelDir:   *modelDir,
		WeightFile: *weightFile,
		DataDir:    *dataDir,
		ExptDate:   *exptDate,
		StimType:   *stimType,
		Cells:      cellList,
		Metric:     *metric,
		BatchSize:  *batchSize,
		History:    *history,
		DBPath:     *dbPath,
	})
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	model, err := loader.LoadModel(cfg.ModelDir, cfg.WeightFile)
	if err != nil {
		return err
	}
	log.Printf("model=%s weights=%s layers=%d", cfg.ModelDir, cfg.WeightFile, model.NumLayers())

	opts := evaluate.Options{HistoryLength: cfg.History, BatchSize: cfg.BatchSize, ExptDate: cfg.ExptDate}
	if !*quiet {
		opts.Logger = log.Default()
	}
	ev := evaluate.New(&experiments.FileProvider{Root: cfg.DataDir}, opts)

	scores, err := ev.GetPerformance(model, cfg.StimType, cfg.Cells, cfg.Metric)
	if err != nil {
		return err
	}
	printScores(os.Stdout, cfg.Metric, cfg.Cells, scores)

	if cfg.DBPath == "" {
		return nil
	}
	st, err := store.NewStore(cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	id, err := st.SaveRun(store.Run{
		ModelDir:   cfg.ModelDir,
		WeightFile: cfg.WeightFile,
		ExptDate:   cfg.ExptDate,
		StimType:   cfg.StimType,
		Metric:     cfg.Metric,
		Cells:      cfg.Cells,
		Scores:     scores,
	})
	if err != nil {
		return err
	}
	log.Printf("saved run %s to %s", id, cfg.DBPath)
	return nil
}

func runRuns(args []string) error {
	fs := flag.NewFlagSet("runs", flag.ExitOnError)
	dbPath := fs.String("db", "runs.db", "Run database")
	id := fs.String("id", "", "Show the scores of one run")
	_ = fs.Parse(args)

	st, err := store.NewStore(*dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	if *id != "" {
		run, err := st.GetRun(*id)
		if err != nil {
			return err
		}
		fmt.Printf("run %s (%s)\n", run.ID, run.CreatedAt.Format(time.RFC3339))
		fmt.Printf("model %s/%s on %s/%s\n", run.ModelDir, run.WeightFile, run.ExptDate, run.StimType)
		printScores(os.Stdout, run.Metric, run.Cells, run.Scores)
		return nil
	}

	runs, err := st.ListRuns()
	if err != nil {
		return err
	}
	table := newTable(os.Stdout, "run", "created", "model", "weights", "stimulus", "metric", "mean")
	for _, run := range runs {
		table.Append([]string{
			run.ID,
			run.CreatedAt.Format(time.RFC3339),
			run.ModelDir,
			run.WeightFile,
			run.ExptDate + "/" + run.StimType,
			run.Metric,
			formatScore(meanScore(run.Scores)),
		})
	}
	table.Render()
	return nil
}

func printScores(w io.Writer, metric string, cells []int, scores []float64) {
	table := newTable(w, "cell", metric)
	for i, cell := range cells {
		table.Append([]string{strconv.Itoa(cell), formatScore(scores[i])})
	}
	table.SetFooter([]string{"mean", formatScore(meanScore(scores))})
	table.Render()
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	return table
}

// meanScore averages the finite scores; cells with undefined scores are skipped.
func meanScore(scores []float64) float64 {
	finite := make([]float64, 0, len(scores))
	for _, s := range scores {
		if !math.IsNaN(s) && !math.IsInf(s, 0) {
			finite = append(finite, s)
		}
	}
	if len(finite) == 0 {
		return stat.Mean(scores, nil)
	}
	return stat.Mean(finite, nil)
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func parsePair(s string) ([2]int, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return [2]int{}, fmt.Errorf("want two comma separated values, got %q", s)
	}
	var out [2]int
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return [2]int{}, err
		}
		out[i] = v
	}
	return out, nil
}
