package surfacefile

import (
	"bufio"
	"fmt"
	"io"

	"gonum.org/v1/gonum/spatial/r3"

	"foldingmeasures/internal/models"
)

// CoordinateFile is a list of vertex positions
type CoordinateFile struct {
	Header Header
	Coords []r3.Vec
}

// ReadCoordinateFile loads a coordinate file from disk
func ReadCoordinateFile(path string) (*CoordinateFile, error) {
	f, err := openForRead(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseCoordinates(f, path)
}

// ParseCoordinates reads a coordinate file: a count line N followed by N
// records of "[index] x y z".
func ParseCoordinates(r io.Reader, path string) (*CoordinateFile, error) {
	lr := newLineReader(r, path)
	header, err := lr.readHeader()
	if err != nil {
		return nil, err
	}
	n, err := lr.readCount("coordinate count")
	if err != nil {
		return nil, err
	}

	coords := make([]r3.Vec, 0, preallocated(n))
	for i := 0; i < n; i++ {
		fields, err := lr.readRecord("coordinate", 3, i)
		if err != nil {
			return nil, err
		}
		xyz, err := parseFloats(lr, fields, "coordinate")
		if err != nil {
			return nil, err
		}
		coords = append(coords, r3.Vec{X: xyz[0], Y: xyz[1], Z: xyz[2]})
	}
	if err := lr.expectEnd("coordinates"); err != nil {
		return nil, err
	}
	return &CoordinateFile{Header: header, Coords: coords}, nil
}

// WriteCoordinateFile saves a coordinate file
func WriteCoordinateFile(path string, cf *CoordinateFile) error {
	return WriteAtomic(path, func(w io.Writer) error {
		bw := bufio.NewWriter(w)
		writeHeader(bw, cf.Header)
		fmt.Fprintf(bw, "%d\n", len(cf.Coords))
		for i, c := range cf.Coords {
			fmt.Fprintf(bw, "%d %s %s %s\n", i, formatFloat(c.X), formatFloat(c.Y), formatFloat(c.Z))
		}
		if err := bw.Flush(); err != nil {
			return models.WrapError(models.ErrFileWrite, path, err)
		}
		return nil
	})
}
