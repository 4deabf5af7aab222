package models

// Triangle is an ordered triple of vertex indices into a mesh
type Triangle [3]int

// Inclusion decides which triangles take part in an ROI integral
type Inclusion int

const (
	// AllVertices includes a triangle only when all three of its vertices
	// are selected. Included tiles count with their full area.
	AllVertices Inclusion = iota

	// AnyVertex includes a triangle when at least one vertex is selected.
	// Its area counts in proportion to the number of selected vertices.
	AnyVertex
)

// String returns the configuration name of the policy
func (i Inclusion) String() string {
	switch i {
	case AllVertices:
		return "all"
	case AnyVertex:
		return "any"
	default:
		return "unknown"
	}
}

// ParseInclusion converts a configuration name into an Inclusion policy
func ParseInclusion(s string) (Inclusion, error) {
	switch s {
	case "", "all":
		return AllVertices, nil
	case "any":
		return AnyVertex, nil
	default:
		return AllVertices, NewError(ErrArguments, "", "unknown triangle inclusion policy %q", s)
	}
}

// NormalWeighting selects how incident triangle normals are averaged
type NormalWeighting int

const (
	// EqualWeight averages the unit normals of incident triangles
	EqualWeight NormalWeighting = iota

	// AreaWeight weights each incident triangle normal by the triangle's area
	AreaWeight
)

// String returns the configuration name of the weighting
func (w NormalWeighting) String() string {
	switch w {
	case EqualWeight:
		return "equal"
	case AreaWeight:
		return "area"
	default:
		return "unknown"
	}
}

// ParseNormalWeighting converts a configuration name into a NormalWeighting
func ParseNormalWeighting(s string) (NormalWeighting, error) {
	switch s {
	case "", "equal":
		return EqualWeight, nil
	case "area":
		return AreaWeight, nil
	default:
		return EqualWeight, NewError(ErrArguments, "", "unknown normal weighting %q", s)
	}
}

// Folding index names in report order
var FoldingIndexNames = []string{
	"ICI", "NICI", "GLN", "AICI",
	"MCI", "NMCI", "MLN", "AMCI",
	"FI", "CI", "SI",
	"FICI", "FNICI", "FMCI", "FNMCI",
	"SH2SH", "SK2SK",
}

// PerVertexColumnNames lists the columns of the per-vertex scalar output
var PerVertexColumnNames = func() []string {
	names := []string{"k1", "k2", "H", "K"}
	names = append(names, FoldingIndexNames...)
	return append(names, "vertex_area")
}()
