package surfacefile

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"foldingmeasures/internal/models"
)

const (
	tagScalarVersion   = "tag-version"
	tagNumberOfNodes   = "tag-number-of-nodes"
	tagNumberOfColumns = "tag-number-of-columns"
	tagBeginData       = "tag-BEGIN-DATA"
	tagColumnNames     = "tag-column-names"
)

// ScalarFile holds per-vertex scalar columns (surface shape or metric data)
type ScalarFile struct {
	Header Header

	// Columns names each column, len(Columns) == M
	Columns []string

	// Values is indexed [vertex][column]
	Values [][]float64
}

// NewScalarFile allocates an all-zero scalar file
func NewScalarFile(numNodes int, columns []string) *ScalarFile {
	values := make([][]float64, numNodes)
	backing := make([]float64, numNodes*len(columns))
	for i := range values {
		values[i] = backing[i*len(columns) : (i+1)*len(columns) : (i+1)*len(columns)]
	}
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &ScalarFile{Header: make(Header), Columns: cols, Values: values}
}

// NumberOfNodes returns the row count
func (sf *ScalarFile) NumberOfNodes() int { return len(sf.Values) }

// NumberOfColumns returns the column count
func (sf *ScalarFile) NumberOfColumns() int { return len(sf.Columns) }

// Column copies one column out of the file
func (sf *ScalarFile) Column(j int) []float64 {
	col := make([]float64, len(sf.Values))
	for i, row := range sf.Values {
		col[i] = row[j]
	}
	return col
}

// ColumnIndex finds a column by name, -1 when absent
func (sf *ScalarFile) ColumnIndex(name string) int {
	for j, c := range sf.Columns {
		if c == name {
			return j
		}
	}
	return -1
}

// ReadScalarFile loads a scalar file from disk
func ReadScalarFile(path string) (*ScalarFile, error) {
	f, err := openForRead(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseScalar(f, path)
}

// ParseScalar reads a scalar file written by WriteScalarFile
func ParseScalar(r io.Reader, path string) (*ScalarFile, error) {
	lr := newLineReader(r, path)
	header, err := lr.readHeader()
	if err != nil {
		return nil, err
	}

	numNodes, numCols := -1, -1
	for {
		s, err := lr.mustNext("scalar tags")
		if err != nil {
			return nil, err
		}
		if s == tagBeginData {
			break
		}
		tag, value, _ := strings.Cut(s, " ")
		value = strings.TrimSpace(value)
		switch tag {
		case tagScalarVersion:
		case tagNumberOfNodes:
			if numNodes, err = strconv.Atoi(value); err != nil || numNodes < 0 {
				return nil, lr.errorf("invalid node count %q", value)
			}
		case tagNumberOfColumns:
			if numCols, err = strconv.Atoi(value); err != nil || numCols < 0 {
				return nil, lr.errorf("invalid column count %q", value)
			}
		default:
			return nil, lr.errorf("unknown tag %q", tag)
		}
	}
	if numNodes < 0 || numCols < 0 {
		return nil, lr.errorf("missing %s or %s before %s", tagNumberOfNodes, tagNumberOfColumns, tagBeginData)
	}

	sf := &ScalarFile{
		Header:  header,
		Columns: make([]string, 0, preallocated(numCols)),
		Values:  make([][]float64, 0, preallocated(numNodes)),
	}
	for i := 0; i < numNodes; i++ {
		fields, err := lr.readRecord("scalar", numCols, i)
		if err != nil {
			return nil, err
		}
		values, err := parseFloats(lr, fields, "scalar")
		if err != nil {
			return nil, err
		}
		sf.Values = append(sf.Values, values)
	}

	s, err := lr.mustNext(tagColumnNames)
	if err != nil {
		return nil, err
	}
	if s != tagColumnNames {
		return nil, lr.errorf("expected %s, found %q", tagColumnNames, s)
	}
	for j := 0; j < numCols; j++ {
		s, err := lr.mustNext("column name")
		if err != nil {
			return nil, err
		}
		idx, name, _ := strings.Cut(s, " ")
		if k, err := strconv.Atoi(idx); err != nil || k != j {
			return nil, lr.errorf("column name record %d has index %q", j, idx)
		}
		sf.Columns = append(sf.Columns, strings.TrimSpace(name))
	}
	if err := lr.expectEnd("column names"); err != nil {
		return nil, err
	}
	return sf, nil
}

// WriteScalarFile saves a scalar file: header tags, the N x M value block and
// the column-name list.
func WriteScalarFile(path string, sf *ScalarFile) error {
	return WriteAtomic(path, scalarWriter(path, sf))
}

// StageScalarFile writes a scalar file next to path without moving it into
// place
func StageScalarFile(path string, sf *ScalarFile) (*Staged, error) {
	return Stage(path, scalarWriter(path, sf))
}

func scalarWriter(path string, sf *ScalarFile) func(w io.Writer) error {
	return func(w io.Writer) error {
		bw := bufio.NewWriter(w)
		writeHeader(bw, sf.Header)
		fmt.Fprintf(bw, "%s 2\n", tagScalarVersion)
		fmt.Fprintf(bw, "%s %d\n", tagNumberOfNodes, sf.NumberOfNodes())
		fmt.Fprintf(bw, "%s %d\n", tagNumberOfColumns, sf.NumberOfColumns())
		fmt.Fprintf(bw, "%s\n", tagBeginData)
		for i, row := range sf.Values {
			if len(row) != len(sf.Columns) {
				return models.NewError(models.ErrFileWrite, path, "row %d has %d values for %d columns", i, len(row), len(sf.Columns))
			}
			bw.WriteString(strconv.Itoa(i))
			for _, v := range row {
				bw.WriteByte(' ')
				bw.WriteString(formatFloat(v))
			}
			bw.WriteByte('\n')
		}
		fmt.Fprintf(bw, "%s\n", tagColumnNames)
		for j, name := range sf.Columns {
			fmt.Fprintf(bw, "%d %s\n", j, name)
		}
		if err := bw.Flush(); err != nil {
			return models.WrapError(models.ErrFileWrite, path, err)
		}
		return nil
	}
}
