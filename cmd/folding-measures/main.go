package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/spatial/r3"

	"foldingmeasures/internal/logging"
	"foldingmeasures/internal/models"
	"foldingmeasures/pkg/analysis"
	"foldingmeasures/pkg/config"
)

// options holds the raw command line flags
type options struct {
	roiFile       string
	perVertexFile string
	shapeFile     string
	semicolon     bool
	meanOnly      bool
	gaussianOnly  bool
	inclusion     string
	normals       string
	roiSphere     string
	roiBox        string
	roiRange      string
	invert        bool
	dilate        int
	erode         int
	boundaryOnly  bool
	header        string
	configFile    string
	saveConfig    string
	cores         int
	verbose       bool
}

func main() {
	os.Exit(run(os.Args[1:]))
}

// run executes the command and returns the process exit code
func run(args []string) int {
	cmd := newRootCommand()
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return models.ExitCode(err)
	}
	return 0
}

func newRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "folding-measures <coord> <topo> <output-report>",
		Short: "Compute curvature based folding measurements of a surface",
		Long: `Estimates the principal curvatures of every vertex of a triangulated surface
and integrates them over a region of interest into the folding indices
ICI, NICI, GLN, AICI, MCI, NMCI, MLN, AMCI, FI, CI, SI, FICI, FNICI, FMCI,
FNMCI, SH2SH and SK2SK.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.ExactArgs(3)(cmd, args); err != nil {
				return models.WrapError(models.ErrArguments, "", err)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			params, verbose, err := buildParams(cmd, opts, args)
			if err != nil {
				return err
			}
			setupLogging(verbose)

			start := time.Now()
			if err := analysis.NewAnalyzer(params).Process(); err != nil {
				return err
			}
			slog.Info("Folding measurements completed", "output", params.OutputFile,
				"seconds", fmt.Sprintf("%.2f", time.Since(start).Seconds()))
			return nil
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return models.WrapError(models.ErrArguments, "", err)
	})

	f := cmd.Flags()
	f.StringVar(&opts.roiFile, "roi", "", "region of interest file (default: all vertices)")
	f.StringVar(&opts.perVertexFile, "per-vertex", "", "write per-vertex measures to this scalar file")
	f.StringVar(&opts.shapeFile, "shape", "", "surface shape file whose columns get an integrated folding index")
	f.BoolVar(&opts.semicolon, "semicolon", false, "write a semicolon separated report")
	f.BoolVar(&opts.meanOnly, "mean-only", false, "write the mean curvature scalar file instead of the report")
	f.BoolVar(&opts.gaussianOnly, "gaussian-only", false, "write the Gaussian curvature scalar file instead of the report")
	f.StringVar(&opts.inclusion, "inclusion", "all", "triangle inclusion policy: all or any")
	f.StringVar(&opts.normals, "normals", "equal", "vertex normal weighting: equal or area")
	f.StringVar(&opts.roiSphere, "roi-sphere", "", "restrict the region to a sphere given as x,y,z,r")
	f.StringVar(&opts.roiBox, "roi-box", "", "restrict the region to a box given as x0,y0,z0,x1,y1,z1")
	f.StringVar(&opts.roiRange, "roi-range", "", "restrict the region to a shape file column range given as name,lo,hi")
	f.BoolVar(&opts.invert, "invert", false, "invert the region before dilation")
	f.IntVar(&opts.dilate, "dilate", 0, "dilate the region this many times")
	f.IntVar(&opts.erode, "erode", 0, "erode the region this many times")
	f.BoolVar(&opts.boundaryOnly, "boundary-only", false, "keep only the boundary of the region")
	f.StringVar(&opts.header, "header", "", "text printed below the report title")
	f.StringVar(&opts.configFile, "config", "", "YAML configuration file")
	f.StringVar(&opts.saveConfig, "save-config", "", "save the effective configuration to this YAML file")
	f.IntVar(&opts.cores, "cores", 0, "number of CPU cores to use (default: all available)")
	f.BoolVar(&opts.verbose, "verbose", false, "log debug output")

	return cmd
}

// buildParams merges the configuration file with the flags set on the
// command line, which take precedence
func buildParams(cmd *cobra.Command, opts *options, args []string) (*analysis.Params, bool, error) {
	if opts.meanOnly && opts.gaussianOnly {
		return nil, false, models.NewError(models.ErrArguments, "", "--mean-only and --gaussian-only are mutually exclusive")
	}

	cfg := config.DefaultConfig()
	if opts.configFile != "" {
		var err error
		if cfg, err = config.LoadConfig(opts.configFile); err != nil {
			return nil, false, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("cores") {
		cfg.Processing.NumCores = opts.cores
	}
	if flags.Changed("normals") {
		cfg.Surface.NormalWeighting = opts.normals
	}
	if flags.Changed("inclusion") {
		cfg.ROI.Inclusion = opts.inclusion
	}
	if flags.Changed("invert") {
		cfg.ROI.Invert = opts.invert
	}
	if flags.Changed("boundary-only") {
		cfg.ROI.BoundaryOnly = opts.boundaryOnly
	}
	if flags.Changed("dilate") {
		cfg.ROI.Dilate = opts.dilate
	}
	if flags.Changed("erode") {
		cfg.ROI.Erode = opts.erode
	}
	if flags.Changed("semicolon") {
		cfg.Report.Semicolon = opts.semicolon
	}
	if flags.Changed("header") {
		cfg.Report.Header = opts.header
	}
	if flags.Changed("verbose") {
		cfg.Output.Verbose = opts.verbose
	}
	if err := cfg.Validate(); err != nil {
		return nil, false, err
	}
	if opts.saveConfig != "" {
		if err := config.SaveConfig(cfg, opts.saveConfig); err != nil {
			return nil, false, err
		}
	}

	inclusion, _ := models.ParseInclusion(cfg.ROI.Inclusion)
	weighting, _ := models.ParseNormalWeighting(cfg.Surface.NormalWeighting)
	params := &analysis.Params{
		CoordFile:     args[0],
		TopoFile:      args[1],
		OutputFile:    args[2],
		ROIFile:       opts.roiFile,
		PerVertexFile: opts.perVertexFile,
		ShapeFile:     opts.shapeFile,
		Semicolon:     cfg.Report.Semicolon,
		HeaderText:    cfg.Report.Header,
		Inclusion:     inclusion,
		Weighting:     weighting,
		Invert:        cfg.ROI.Invert,
		Dilate:        cfg.ROI.Dilate,
		Erode:         cfg.ROI.Erode,
		BoundaryOnly:  cfg.ROI.BoundaryOnly,
		NumCores:      cfg.Processing.NumCores,
	}
	switch {
	case opts.meanOnly:
		params.Mode = analysis.MeanOnly
	case opts.gaussianOnly:
		params.Mode = analysis.GaussianOnly
	}
	if opts.roiSphere != "" {
		sphere, err := parseSphere(opts.roiSphere)
		if err != nil {
			return nil, false, err
		}
		params.Sphere = sphere
	}
	if opts.roiBox != "" {
		v, err := parseNumbers("--roi-box", opts.roiBox, 6)
		if err != nil {
			return nil, false, err
		}
		params.Box = &analysis.Box{
			Min: r3.Vec{X: v[0], Y: v[1], Z: v[2]},
			Max: r3.Vec{X: v[3], Y: v[4], Z: v[5]},
		}
	}
	if opts.roiRange != "" {
		rng, err := parseRange(opts.roiRange)
		if err != nil {
			return nil, false, err
		}
		params.Range = rng
	}
	return params, cfg.Output.Verbose, nil
}

// parseNumbers reads exactly n comma separated numbers
func parseNumbers(flag, s string, n int) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, models.NewError(models.ErrArguments, "", "%s needs %d comma separated numbers, got %q", flag, n, s)
	}
	v := make([]float64, n)
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, models.NewError(models.ErrArguments, "", "%s value %q is not a number", flag, p)
		}
		v[i] = f
	}
	return v, nil
}

// parseRange reads "name,lo,hi"
func parseRange(s string) (*analysis.ScalarRange, error) {
	name, bounds, ok := strings.Cut(s, ",")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return nil, models.NewError(models.ErrArguments, "", "--roi-range needs name,lo,hi, got %q", s)
	}
	v, err := parseNumbers("--roi-range", bounds, 2)
	if err != nil {
		return nil, err
	}
	return &analysis.ScalarRange{Column: name, Lo: v[0], Hi: v[1]}, nil
}

// parseSphere reads "x,y,z,r"
func parseSphere(s string) (*analysis.Sphere, error) {
	v, err := parseNumbers("--roi-sphere", s, 4)
	if err != nil {
		return nil, err
	}
	if v[3] < 0 {
		return nil, models.NewError(models.ErrArguments, "", "--roi-sphere radius must not be negative")
	}
	return &analysis.Sphere{Center: r3.Vec{X: v[0], Y: v[1], Z: v[2]}, Radius: v[3]}, nil
}

// setupLogging sends pipeline progress to stderr
func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	logging.SetLogger(logger)
}
