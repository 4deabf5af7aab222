package folding

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/spatial/r3"

	"foldingmeasures/internal/meshgen"
	"foldingmeasures/internal/models"
	"foldingmeasures/pkg/curvature"
	"foldingmeasures/pkg/mesh"
	"foldingmeasures/pkg/roi"
)

// analyze builds a mesh, selects every vertex and aggregates its curvature
func analyze(t *testing.T, coords []r3.Vec, tris []models.Triangle) (*mesh.Mesh, Measurements) {
	t.Helper()
	m, err := mesh.New(coords, tris, mesh.Options{})
	if err != nil {
		t.Fatalf("Failed to build mesh: %v", err)
	}
	fm, err := Aggregate(m, roi.All(m, models.AllVertices), curvature.Compute(m))
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	return m, fm
}

// within reports whether got is inside a relative band around want
func within(got, want, rel float64) bool {
	return math.Abs(got-want) <= rel*math.Abs(want)
}

func wavySurface() ([]r3.Vec, []models.Triangle) {
	coords, tris := meshgen.Grid(24, 24, 0.25)
	for i, c := range coords {
		coords[i].Z = 0.4 * math.Sin(c.X) * math.Cos(c.Y)
	}
	return coords, tris
}

// TestUnitSphere checks the global indices of a unit icosphere
func TestUnitSphere(t *testing.T) {
	coords, tris := meshgen.Icosphere(4, 1)
	_, fm := analyze(t, coords, tris)

	for _, c := range []struct {
		name string
		got  float64
	}{{"ICI", fm.ICI}, {"AICI", fm.AICI}, {"MCI", fm.MCI}, {"AMCI", fm.AMCI}, {"FICI", fm.FICI}, {"FMCI", fm.FMCI}} {
		if !within(c.got, 1, 0.05) {
			t.Errorf("%s = %f, want about 1", c.name, c.got)
		}
	}
	if math.Abs(fm.NICI) > 0.05 || math.Abs(fm.NMCI) > 0.05 {
		t.Errorf("Expected NICI and NMCI near 0, got %f %f", fm.NICI, fm.NMCI)
	}
	if math.Abs(fm.FI) > 0.05 {
		t.Errorf("Expected FI near 0, got %f", fm.FI)
	}
	if fm.SI != 0 {
		t.Errorf("Expected SI 0 on an umbilic surface, got %f", fm.SI)
	}
	if math.Abs(fm.Area-4*math.Pi) > 0.05*4*math.Pi {
		t.Errorf("ROI area %f not close to 4*pi", fm.Area)
	}
}

// TestSphereRadius2 checks the indices follow 1/r and 1/r^2
func TestSphereRadius2(t *testing.T) {
	coords, tris := meshgen.Icosphere(4, 2)
	_, fm := analyze(t, coords, tris)
	if !within(fm.ICI, 0.25, 0.05) {
		t.Errorf("ICI = %f, want about 0.25", fm.ICI)
	}
	if !within(fm.MCI, 0.5, 0.05) {
		t.Errorf("MCI = %f, want about 0.5", fm.MCI)
	}
}

// TestPlane verifies every index of a flat grid is exactly zero
func TestPlane(t *testing.T) {
	coords, tris := meshgen.Grid(10, 10, 1)
	_, fm := analyze(t, coords, tris)
	for i, v := range fm.Values() {
		if v != 0 {
			t.Errorf("%s = %g, want exactly 0", models.FoldingIndexNames[i], v)
		}
	}
	if fm.FZICI != 1 || fm.FZMCI != 1 {
		t.Errorf("Expected the whole plane to have zero curvature fractions, got %g %g", fm.FZICI, fm.FZMCI)
	}
	if math.Abs(fm.Area-81) > 1e-9 {
		t.Errorf("Expected ROI area 81, got %f", fm.Area)
	}
}

// TestCylinder checks a ridge-shaped surface: no Gaussian curvature, H = 1/2, FI = 1
func TestCylinder(t *testing.T) {
	coords, tris := meshgen.Cylinder(64, 32, 1, 4)
	_, fm := analyze(t, coords, tris)
	if fm.AICI > 0.05 {
		t.Errorf("AICI = %f, want about 0", fm.AICI)
	}
	if !within(fm.MCI, 0.5, 0.05) || !within(fm.AMCI, 0.5, 0.05) {
		t.Errorf("MCI = %f, AMCI = %f, want about 0.5", fm.MCI, fm.AMCI)
	}
	if !within(fm.FI, 1, 0.05) {
		t.Errorf("FI = %f, want about 1", fm.FI)
	}
	if !within(fm.FMCI, 1, 0.01) {
		t.Errorf("FMCI = %f, want 1", fm.FMCI)
	}
}

// TestSphereSubset verifies indices are normalised by the ROI area
func TestSphereSubset(t *testing.T) {
	coords, tris := meshgen.Icosphere(4, 1)
	m, whole := analyze(t, coords, tris)

	mask := make([]bool, m.VertexCount())
	for v := range mask {
		mask[v] = m.Coord(v).Z > 0.3
	}
	sel, err := roi.FromMask(m, mask, models.AllVertices, "cap")
	if err != nil {
		t.Fatalf("FromMask failed: %v", err)
	}
	fm, err := Aggregate(m, sel, curvature.Compute(m))
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}

	if fm.Area >= 0.5*whole.Area {
		t.Errorf("Cap area %f not smaller than half the sphere %f", fm.Area, whole.Area)
	}
	if !within(fm.ICI, whole.ICI, 0.01) || !within(fm.MCI, whole.MCI, 0.01) {
		t.Errorf("Cap ICI %f MCI %f differ from whole sphere %f %f", fm.ICI, fm.MCI, whole.ICI, whole.MCI)
	}
}

// TestRotatedSphere verifies a rigid rotation leaves the indices unchanged
func TestRotatedSphere(t *testing.T) {
	coords, tris := meshgen.Icosphere(4, 1)
	_, base := analyze(t, coords, tris)

	rot := r3.NewRotation(2.1, r3.Vec{X: 0.3, Y: 1, Z: -0.7})
	_, moved := analyze(t, meshgen.Transform(coords, rot, 1, r3.Vec{X: -5, Y: 2, Z: 9}), tris)

	got, want := moved.Values(), base.Values()
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-6 {
			t.Errorf("%s changed from %.9f to %.9f", models.FoldingIndexNames[i], want[i], got[i])
		}
	}
}

// TestSignBounds checks the sign and ordering properties of the indices
func TestSignBounds(t *testing.T) {
	coords, tris := wavySurface()
	_, fm := analyze(t, coords, tris)

	if fm.ICI < 0 || fm.NICI > 0 || fm.AICI < 0 {
		t.Errorf("Gaussian signs violated: ICI %g NICI %g AICI %g", fm.ICI, fm.NICI, fm.AICI)
	}
	if fm.AICI < math.Abs(fm.ICI) || fm.AICI < math.Abs(fm.NICI) {
		t.Errorf("AICI %g smaller than |ICI| %g or |NICI| %g", fm.AICI, fm.ICI, fm.NICI)
	}
	if fm.MCI < 0 || fm.NMCI > 0 || fm.AMCI < 0 {
		t.Errorf("Mean signs violated: MCI %g NMCI %g AMCI %g", fm.MCI, fm.NMCI, fm.AMCI)
	}
	if fm.AMCI < math.Abs(fm.MCI) || fm.AMCI < math.Abs(fm.NMCI) {
		t.Errorf("AMCI %g smaller than |MCI| %g or |NMCI| %g", fm.AMCI, fm.MCI, fm.NMCI)
	}
	if fm.GLN < 0 || fm.MLN < 0 {
		t.Errorf("Squared integrals negative: GLN %g MLN %g", fm.GLN, fm.MLN)
	}
	if fm.NICI == 0 || fm.ICI == 0 {
		t.Errorf("Expected both signs of Gaussian curvature, got ICI %g NICI %g", fm.ICI, fm.NICI)
	}
}

// TestAreaFractions verifies the sign fractions partition the ROI
func TestAreaFractions(t *testing.T) {
	wavyCoords, wavyTris := wavySurface()
	planeCoords, planeTris := meshgen.Grid(6, 6, 1)

	tests := []struct {
		name   string
		coords []r3.Vec
		tris   []models.Triangle
	}{
		{"Wavy", wavyCoords, wavyTris},
		{"Plane", planeCoords, planeTris},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, fm := analyze(t, tt.coords, tt.tris)
			if s := fm.FICI + fm.FNICI + fm.FZICI; math.Abs(s-1) > 1e-9 {
				t.Errorf("Gaussian fractions sum to %.12f", s)
			}
			if s := fm.FMCI + fm.FNMCI + fm.FZMCI; math.Abs(s-1) > 1e-9 {
				t.Errorf("Mean fractions sum to %.12f", s)
			}
		})
	}
}

// TestScalingLaw verifies how the indices change under uniform scaling
func TestScalingLaw(t *testing.T) {
	coords, tris := wavySurface()
	_, base := analyze(t, coords, tris)

	const s = 2.5
	scaled := make([]r3.Vec, len(coords))
	for i, c := range coords {
		scaled[i] = r3.Scale(s, c)
	}
	_, fm := analyze(t, scaled, tris)

	const tol = 1e-9
	checks := []struct {
		name      string
		got, want float64
	}{
		{"ICI", fm.ICI, base.ICI / (s * s)},
		{"NICI", fm.NICI, base.NICI / (s * s)},
		{"AICI", fm.AICI, base.AICI / (s * s)},
		{"GLN", fm.GLN, base.GLN / (s * s * s * s)},
		{"MCI", fm.MCI, base.MCI / s},
		{"NMCI", fm.NMCI, base.NMCI / s},
		{"AMCI", fm.AMCI, base.AMCI / s},
		{"MLN", fm.MLN, base.MLN / (s * s)},
		{"FI", fm.FI, base.FI / (s * s)},
		{"CI", fm.CI, base.CI / s},
		{"SH2SH", fm.SH2SH, base.SH2SH / s},
		{"SK2SK", fm.SK2SK, base.SK2SK / (s * s)},
		{"Area", fm.Area, base.Area * s * s},
	}
	for _, c := range checks {
		if !scalar.EqualWithinAbsOrRel(c.got, c.want, tol, tol) {
			t.Errorf("%s = %.12g, want %.12g", c.name, c.got, c.want)
		}
	}
	if math.Abs(fm.SI-base.SI) > 1e-6 {
		t.Errorf("SI changed from %g to %g", base.SI, fm.SI)
	}
	if math.Abs(fm.FICI-base.FICI) > 0.01 || math.Abs(fm.FMCI-base.FMCI) > 0.01 {
		t.Errorf("Area fractions changed: FICI %g -> %g, FMCI %g -> %g", base.FICI, fm.FICI, base.FMCI, fm.FMCI)
	}
}

// TestEmptyRegion verifies an empty selection yields zeros without an error
func TestEmptyRegion(t *testing.T) {
	coords, tris := meshgen.Icosphere(2, 1)
	m, err := mesh.New(coords, tris, mesh.Options{})
	if err != nil {
		t.Fatalf("Failed to build mesh: %v", err)
	}
	fm, err := Aggregate(m, roi.None(m, models.AllVertices), curvature.Compute(m))
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if fm != (Measurements{}) {
		t.Errorf("Expected zero measurements, got %+v", fm)
	}
}

// TestInclusionPolicies checks tile weighting on a single triangle
func TestInclusionPolicies(t *testing.T) {
	coords := []r3.Vec{{X: 0}, {X: 1}, {Y: 1}}
	m, err := mesh.New(coords, []models.Triangle{{0, 1, 2}}, mesh.Options{})
	if err != nil {
		t.Fatalf("Failed to build mesh: %v", err)
	}
	curv := &curvature.Curvatures{Records: []curvature.Record{
		curvature.NewRecord(1, 1, m.VertexArea(0)),
		{},
		{},
	}}
	onlyFirst := []bool{true, false, false}

	t.Run("AllVertices", func(t *testing.T) {
		sel, _ := roi.FromMask(m, onlyFirst, models.AllVertices, "first")
		fm, err := Aggregate(m, sel, curv)
		if err != nil {
			t.Fatalf("Aggregate failed: %v", err)
		}
		if fm != (Measurements{}) {
			t.Errorf("Expected a partially selected tile to be excluded, got %+v", fm)
		}
	})

	t.Run("AnyVertex", func(t *testing.T) {
		sel, _ := roi.FromMask(m, onlyFirst, models.AnyVertex, "first")
		fm, err := Aggregate(m, sel, curv)
		if err != nil {
			t.Fatalf("Aggregate failed: %v", err)
		}
		if math.Abs(fm.Area-0.5/3) > 1e-15 {
			t.Errorf("Expected a third of the tile area, got %g", fm.Area)
		}
		if math.Abs(fm.ICI-1.0/3) > 1e-15 || math.Abs(fm.MCI-1.0/3) > 1e-15 {
			t.Errorf("Expected ICI = MCI = 1/3, got %g %g", fm.ICI, fm.MCI)
		}
		if math.Abs(fm.FICI-1.0/3) > 1e-15 {
			t.Errorf("Expected FICI = 1/3, got %g", fm.FICI)
		}
	})

	t.Run("AllSelected", func(t *testing.T) {
		all, err := Aggregate(m, roi.All(m, models.AllVertices), curv)
		if err != nil {
			t.Fatalf("Aggregate failed: %v", err)
		}
		anyPolicy, err := Aggregate(m, roi.All(m, models.AnyVertex), curv)
		if err != nil {
			t.Fatalf("Aggregate failed: %v", err)
		}
		if all != anyPolicy {
			t.Errorf("Policies disagree on a fully selected surface: %+v vs %+v", all, anyPolicy)
		}
		if math.Abs(all.ICI-1.0/3) > 1e-15 || math.Abs(all.Area-0.5) > 1e-15 {
			t.Errorf("Expected ICI 1/3 over area 0.5, got %g over %g", all.ICI, all.Area)
		}
		if math.Abs(all.SH2SH-1) > 1e-15 || math.Abs(all.SK2SK-1) > 1e-15 {
			t.Errorf("Expected unit ratios, got SH2SH %g SK2SK %g", all.SH2SH, all.SK2SK)
		}
	})
}

// TestAggregateSizeMismatch verifies mismatched inputs are rejected
func TestAggregateSizeMismatch(t *testing.T) {
	coords, tris := meshgen.Icosphere(1, 1)
	m, err := mesh.New(coords, tris, mesh.Options{})
	if err != nil {
		t.Fatalf("Failed to build mesh: %v", err)
	}
	other, err := mesh.New(coords, tris, mesh.Options{})
	if err != nil {
		t.Fatalf("Failed to build mesh: %v", err)
	}

	_, err = Aggregate(m, roi.All(m, models.AllVertices), &curvature.Curvatures{Records: make([]curvature.Record, 3)})
	if !errors.Is(err, models.ErrFileFormat) {
		t.Errorf("Expected a format error for short records, got %v", err)
	}
	_, err = Aggregate(m, roi.All(other, models.AllVertices), curvature.Compute(m))
	if !errors.Is(err, models.ErrArguments) {
		t.Errorf("Expected an argument error for a foreign selection, got %v", err)
	}
}

// TestIntegratedIndex checks the integral of the absolute tile mean of a column
func TestIntegratedIndex(t *testing.T) {
	coords, tris := meshgen.Icosphere(3, 1)
	m, err := mesh.New(coords, tris, mesh.Options{})
	if err != nil {
		t.Fatalf("Failed to build mesh: %v", err)
	}
	sel := roi.All(m, models.AllVertices)

	constant := make([]float64, m.VertexCount())
	for v := range constant {
		constant[v] = -2
	}
	ifi, err := IntegratedIndex(m, sel, constant)
	if err != nil {
		t.Fatalf("IntegratedIndex failed: %v", err)
	}
	if math.Abs(ifi-2) > 1e-12 {
		t.Errorf("Expected 2 for a constant column of -2, got %g", ifi)
	}

	// The mean curvature column integrates to MCI on a convex surface
	curv := curvature.Compute(m)
	fm, err := Aggregate(m, sel, curv)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	ifi, err = IntegratedIndex(m, sel, curv.MeanColumn())
	if err != nil {
		t.Fatalf("IntegratedIndex failed: %v", err)
	}
	if math.Abs(ifi-fm.MCI) > 1e-9 {
		t.Errorf("Integrated H %g differs from MCI %g", ifi, fm.MCI)
	}

	empty, err := IntegratedIndex(m, roi.None(m, models.AllVertices), constant)
	if err != nil || empty != 0 {
		t.Errorf("Expected 0 for an empty region, got %g, %v", empty, err)
	}

	if _, err := IntegratedIndex(m, sel, constant[:5]); !errors.Is(err, models.ErrFileFormat) {
		t.Errorf("Expected a format error for a short column, got %v", err)
	}
}

// TestVertexContributions verifies the per-vertex integrands
func TestVertexContributions(t *testing.T) {
	r := curvature.NewRecord(2, -0.5, 1)
	got := VertexContributions(r)
	if len(got) != len(models.FoldingIndexNames) {
		t.Fatalf("Expected %d values, got %d", len(models.FoldingIndexNames), len(got))
	}
	want := []float64{
		0, -1, 1, 1,
		0.75, 0, 0.5625, 0.75,
		3, math.Sqrt(2.125), math.Abs(r.SI),
		0, 1, 1, 0,
		0.75, 1,
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-15 {
			t.Errorf("%s: got %g, want %g", models.FoldingIndexNames[i], got[i], want[i])
		}
	}

	for i, v := range VertexContributions(curvature.Record{}) {
		if v != 0 {
			t.Errorf("%s: expected 0 for a flat vertex, got %g", models.FoldingIndexNames[i], v)
		}
	}
}
