// Package analysis runs the folding measurement pipeline: it loads a surface
// and an optional region of interest, estimates curvature, aggregates the
// folding indices and writes the report and scalar outputs.
package analysis

import (
	"errors"
	"fmt"
	"io"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"foldingmeasures/internal/logging"
	"foldingmeasures/internal/models"
	"foldingmeasures/pkg/curvature"
	"foldingmeasures/pkg/folding"
	"foldingmeasures/pkg/mesh"
	"foldingmeasures/pkg/report"
	"foldingmeasures/pkg/roi"
	"foldingmeasures/pkg/surfacefile"
)

// Mode selects what the pipeline writes to the output path
type Mode int

const (
	// FullReport writes the folding measurement report
	FullReport Mode = iota

	// MeanOnly writes the mean curvature of every vertex as a scalar file
	MeanOnly

	// GaussianOnly writes the Gaussian curvature of every vertex as a scalar file
	GaussianOnly
)

// Column names of the single-column curvature outputs
const (
	MeanColumnName     = "Mean Curvature"
	GaussianColumnName = "Gaussian Curvature"
)

// Sphere restricts the region of interest to vertices within Radius of Center
type Sphere struct {
	Center r3.Vec
	Radius float64
}

// Box restricts the region of interest to vertices inside [Min, Max]
type Box struct {
	Min, Max r3.Vec
}

// ScalarRange restricts the region of interest to vertices whose value in
// the named shape file column lies in [Lo, Hi]
type ScalarRange struct {
	Column string
	Lo, Hi float64
}

// Params holds the inputs, outputs and options of one analysis.
type Params struct {
	// CoordFile and TopoFile describe the surface
	CoordFile string
	TopoFile  string

	// OutputFile receives the report, or the curvature column in MeanOnly
	// and GaussianOnly modes
	OutputFile string

	// ROIFile is optional; every vertex is selected when empty
	ROIFile string

	// PerVertexFile optionally receives the per-vertex measure columns
	PerVertexFile string

	// ShapeFile optionally adds an integrated folding index section for
	// each of its columns
	ShapeFile string

	Mode Mode

	// Semicolon writes a semicolon separated report
	Semicolon bool

	// HeaderText is printed below the report title
	HeaderText string

	Inclusion models.Inclusion
	Weighting models.NormalWeighting

	// Sphere, Box and Range, when set, intersect the region in that order
	Sphere *Sphere
	Box    *Box
	Range  *ScalarRange

	// Invert swaps selected and unselected vertices after the intersections
	Invert bool

	// Dilate and Erode iterations applied to the region, dilation first
	Dilate int
	Erode  int

	// BoundaryOnly keeps only the edge of the final region
	BoundaryOnly bool

	// NumCores bounds the curvature workers, 0 uses every core
	NumCores int
}

// Validate checks the parameters before any file is touched
func (p *Params) Validate() error {
	switch {
	case p.CoordFile == "" || p.TopoFile == "" || p.OutputFile == "":
		return models.NewError(models.ErrArguments, "", "coordinate, topology and output files are required")
	case p.Mode != FullReport && (p.PerVertexFile != "" || p.ShapeFile != ""):
		return models.NewError(models.ErrArguments, "", "per-vertex and shape outputs need the full report mode")
	case p.Mode < FullReport || p.Mode > GaussianOnly:
		return models.NewError(models.ErrArguments, "", "unknown output mode %d", p.Mode)
	case p.Sphere != nil && !(p.Sphere.Radius >= 0):
		return models.NewError(models.ErrArguments, "", "sphere radius must not be negative")
	case p.Box != nil && (p.Box.Min.X > p.Box.Max.X || p.Box.Min.Y > p.Box.Max.Y || p.Box.Min.Z > p.Box.Max.Z):
		return models.NewError(models.ErrArguments, "", "box minimum exceeds its maximum")
	case p.Range != nil && p.ShapeFile == "":
		return models.NewError(models.ErrArguments, "", "a scalar range needs a shape file")
	case p.Range != nil && p.Range.Lo > p.Range.Hi:
		return models.NewError(models.ErrArguments, "", "scalar range %g..%g is empty", p.Range.Lo, p.Range.Hi)
	case p.Dilate < 0 || p.Erode < 0:
		return models.NewError(models.ErrArguments, "", "dilate and erode iterations must not be negative")
	case p.NumCores < 0:
		return models.NewError(models.ErrArguments, "", "core count must not be negative")
	}
	return nil
}

// Analyzer runs the pipeline for one set of Params.
//
// The steps are:
// 1. Loading the surface and building the mesh
// 2. Building the region of interest
// 3. Estimating per-vertex curvature
// 4. Aggregating the folding indices
// 5. Writing the outputs
type Analyzer struct {
	params *Params

	mesh         *mesh.Mesh
	selection    *roi.Selection
	curvatures   *curvature.Curvatures
	shapeFile    *surfacefile.ScalarFile
	measurements folding.Measurements
	shapes       []report.ShapeSummary
}

// NewAnalyzer creates an analyzer for params
func NewAnalyzer(params *Params) *Analyzer {
	return &Analyzer{params: params}
}

// Process runs the complete pipeline. Outputs are only written once every
// step has succeeded.
func (a *Analyzer) Process() error {
	log := logging.Logger()
	if err := a.params.Validate(); err != nil {
		return err
	}
	start := time.Now()

	// Step 1: Load the surface
	log.Info("Step 1: Loading surface...", "coord", a.params.CoordFile, "topo", a.params.TopoFile)
	if err := a.loadSurface(); err != nil {
		return fmt.Errorf("failed to load surface: %w", err)
	}

	// Step 2: Build the region of interest
	log.Info("Step 2: Building region of interest...")
	if err := a.buildSelection(); err != nil {
		return fmt.Errorf("failed to build region of interest: %w", err)
	}

	// Step 3: Estimate curvature
	log.Info("Step 3: Estimating curvature...", "vertices", a.mesh.VertexCount())
	a.curvatures = curvature.Engine{NumWorkers: a.params.NumCores}.Compute(a.mesh)
	if a.curvatures.Degenerate > 0 {
		log.Warn("vertices without a curvature fit were given zero curvature", "count", a.curvatures.Degenerate)
	}

	// Step 4: Aggregate
	if a.params.Mode == FullReport {
		log.Info("Step 4: Aggregating folding measurements...")
		if err := a.aggregate(); err != nil {
			return fmt.Errorf("failed to aggregate folding measurements: %w", err)
		}
	}

	// Step 5: Write outputs
	log.Info("Step 5: Writing outputs...", "output", a.params.OutputFile)
	if err := a.writeOutputs(); err != nil {
		return fmt.Errorf("failed to write outputs: %w", err)
	}

	log.Debug("analysis finished", "elapsed", time.Since(start))
	return nil
}

func (a *Analyzer) loadSurface() error {
	cf, err := surfacefile.ReadCoordinateFile(a.params.CoordFile)
	if err != nil {
		return err
	}
	tf, err := surfacefile.ReadTopologyFile(a.params.TopoFile)
	if err != nil {
		return err
	}
	m, err := mesh.New(cf.Coords, tf.Triangles, mesh.Options{Weighting: a.params.Weighting})
	if err != nil {
		// Mesh failures concern the triangulation against the coordinates
		var me *models.Error
		if errors.As(err, &me) && me.Path == "" {
			me.Path = a.params.TopoFile
		}
		return err
	}
	a.mesh = m
	logging.Logger().Debug("surface loaded",
		"vertices", m.VertexCount(), "triangles", m.TriangleCount(), "area", m.TotalArea())

	if a.params.ShapeFile != "" {
		if a.shapeFile, err = surfacefile.ReadScalarFile(a.params.ShapeFile); err != nil {
			return err
		}
	}
	return nil
}

func (a *Analyzer) buildSelection() error {
	var err error
	if a.params.ROIFile == "" {
		a.selection = roi.All(a.mesh, a.params.Inclusion)
	} else {
		a.selection, err = roi.FromFile(a.mesh, a.params.ROIFile, a.params.Inclusion)
		if err != nil {
			return err
		}
	}

	sel := a.selection
	if s := a.params.Sphere; s != nil {
		sel.SelectWithinRadius(s.Center, s.Radius, roi.And)
		sel.SetSource(fmt.Sprintf("%s within %g of (%g, %g, %g)",
			sel.Source(), s.Radius, s.Center.X, s.Center.Y, s.Center.Z))
	}
	if b := a.params.Box; b != nil {
		if lo, hi := a.mesh.Bounds(); !overlaps(b.Min, b.Max, lo, hi) {
			logging.Logger().Warn("box does not overlap the surface", "min", b.Min, "max", b.Max)
		}
		sel.LimitExtent(b.Min, b.Max)
		sel.SetSource(fmt.Sprintf("%s inside (%g, %g, %g)-(%g, %g, %g)", sel.Source(),
			b.Min.X, b.Min.Y, b.Min.Z, b.Max.X, b.Max.Y, b.Max.Z))
	}
	if r := a.params.Range; r != nil {
		j := a.shapeFile.ColumnIndex(r.Column)
		if j < 0 {
			return models.NewError(models.ErrArguments, a.params.ShapeFile, "no column named %q", r.Column)
		}
		if err := sel.SelectScalarRange(a.shapeFile.Column(j), r.Lo, r.Hi, roi.And); err != nil {
			var me *models.Error
			if errors.As(err, &me) && me.Path == "" {
				me.Path = a.params.ShapeFile
			}
			return err
		}
		sel.SetSource(fmt.Sprintf("%s with %s in [%g, %g]", sel.Source(), r.Column, r.Lo, r.Hi))
	}
	if a.params.Invert {
		sel.Invert()
		sel.SetSource("inverse of " + sel.Source())
	}
	if a.params.Dilate > 0 {
		sel.Dilate(a.params.Dilate)
	}
	if a.params.Erode > 0 {
		sel.Erode(a.params.Erode)
	}
	if a.params.BoundaryOnly {
		sel.BoundaryOnly()
		sel.SetSource("boundary of " + sel.Source())
	}

	if !a.selection.Any() {
		logging.Logger().Warn("region of interest is empty", "source", a.selection.Source())
	}
	logging.Logger().Debug("region of interest built",
		"selected", a.selection.Count(), "area", a.selection.RoiTriangleArea())
	return nil
}

func (a *Analyzer) aggregate() error {
	var err error
	a.measurements, err = folding.Aggregate(a.mesh, a.selection, a.curvatures)
	if err != nil {
		return err
	}
	if a.shapeFile == nil {
		return nil
	}
	a.shapes, err = report.SummarizeShapes(a.mesh, a.selection, a.shapeFile)
	if err != nil {
		var me *models.Error
		if errors.As(err, &me) && me.Path == "" {
			me.Path = a.params.ShapeFile
		}
		return err
	}
	return nil
}

// Report assembles the text report of the last Process run
func (a *Analyzer) Report() *report.Report {
	header := report.NewHeader(a.mesh, a.selection, a.params.CoordFile, a.params.TopoFile)
	header.Text = a.params.HeaderText
	return &report.Report{
		Header:       header,
		Measurements: a.measurements,
		Shapes:       a.shapes,
		Semicolon:    a.params.Semicolon,
	}
}

func (a *Analyzer) writeOutputs() error {
	switch a.params.Mode {
	case MeanOnly:
		sf := report.CurvatureColumn(MeanColumnName, a.curvatures.MeanColumn())
		return surfacefile.WriteScalarFile(a.params.OutputFile, sf)
	case GaussianOnly:
		sf := report.CurvatureColumn(GaussianColumnName, a.curvatures.GaussianColumn())
		return surfacefile.WriteScalarFile(a.params.OutputFile, sf)
	}

	var staged []*surfacefile.Staged
	if a.params.PerVertexFile != "" {
		st, err := surfacefile.StageScalarFile(a.params.PerVertexFile, report.PerVertex(a.mesh, a.selection, a.curvatures))
		if err != nil {
			return err
		}
		staged = append(staged, st)
	}

	r := a.Report()
	st, err := surfacefile.Stage(a.params.OutputFile, func(w io.Writer) error {
		if _, err := r.WriteTo(w); err != nil {
			return models.WrapError(models.ErrFileWrite, a.params.OutputFile, err)
		}
		return nil
	})
	if err != nil {
		// Either every output exists or none does
		for _, s := range staged {
			s.Discard()
		}
		return err
	}
	return surfacefile.CommitAll(append(staged, st)...)
}

// Mesh returns the surface built by Process
func (a *Analyzer) Mesh() *mesh.Mesh { return a.mesh }

// Selection returns the region of interest built by Process
func (a *Analyzer) Selection() *roi.Selection { return a.selection }

// Curvatures returns the per-vertex curvature computed by Process
func (a *Analyzer) Curvatures() *curvature.Curvatures { return a.curvatures }

// Measurements returns the folding indices computed by Process
func (a *Analyzer) Measurements() folding.Measurements { return a.measurements }

// overlaps reports whether the boxes [lo1, hi1] and [lo2, hi2] intersect
func overlaps(lo1, hi1, lo2, hi2 r3.Vec) bool {
	return lo1.X <= hi2.X && lo2.X <= hi1.X &&
		lo1.Y <= hi2.Y && lo2.Y <= hi1.Y &&
		lo1.Z <= hi2.Z && lo2.Z <= hi1.Z
}
