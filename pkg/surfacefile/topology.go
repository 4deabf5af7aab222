package surfacefile

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"foldingmeasures/internal/models"
)

const tagTopologyVersion = "tag-version"

// TopologyFile is the triangle list of a surface
type TopologyFile struct {
	Header    Header
	Triangles []models.Triangle
}

// ReadTopologyFile loads a topology file from disk
func ReadTopologyFile(path string) (*TopologyFile, error) {
	f, err := openForRead(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseTopology(f, path)
}

// ParseTopology reads a topology file: an optional "tag-version 1" line, a
// count line T and T records of "[index] a b c" with 0-based vertex indices.
// Index ranges are checked against the coordinates when the mesh is built.
func ParseTopology(r io.Reader, path string) (*TopologyFile, error) {
	lr := newLineReader(r, path)
	header, err := lr.readHeader()
	if err != nil {
		return nil, err
	}

	s, err := lr.mustNext("triangle count")
	if err != nil {
		return nil, err
	}
	if strings.HasPrefix(s, tagTopologyVersion) {
		if v := strings.TrimSpace(strings.TrimPrefix(s, tagTopologyVersion)); v != "0" && v != "1" {
			return nil, lr.errorf("unsupported topology version %q", v)
		}
	} else {
		lr.unread(s)
	}

	n, err := lr.readCount("triangle count")
	if err != nil {
		return nil, err
	}
	triangles := make([]models.Triangle, 0, preallocated(n))
	for i := 0; i < n; i++ {
		fields, err := lr.readRecord("triangle", 3, i)
		if err != nil {
			return nil, err
		}
		var tri models.Triangle
		for k, f := range fields {
			v, err := strconv.Atoi(f)
			if err != nil {
				return nil, lr.errorf("invalid vertex index %q in triangle %d", f, i)
			}
			tri[k] = v
		}
		triangles = append(triangles, tri)
	}
	if err := lr.expectEnd("triangles"); err != nil {
		return nil, err
	}
	return &TopologyFile{Header: header, Triangles: triangles}, nil
}

// WriteTopologyFile saves a topology file
func WriteTopologyFile(path string, tf *TopologyFile) error {
	return WriteAtomic(path, func(w io.Writer) error {
		bw := bufio.NewWriter(w)
		writeHeader(bw, tf.Header)
		fmt.Fprintf(bw, "%s 1\n", tagTopologyVersion)
		fmt.Fprintf(bw, "%d\n", len(tf.Triangles))
		for _, t := range tf.Triangles {
			fmt.Fprintf(bw, "%d %d %d\n", t[0], t[1], t[2])
		}
		if err := bw.Flush(); err != nil {
			return models.WrapError(models.ErrFileWrite, path, err)
		}
		return nil
	})
}
