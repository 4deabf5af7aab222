package surfacefile

import (
	"bufio"
	"fmt"
	"io"

	"foldingmeasures/internal/models"
)

// ROIFile is a per-vertex selection flag
type ROIFile struct {
	Header   Header
	Selected []bool
}

// ReadROIFile loads a region of interest file from disk
func ReadROIFile(path string) (*ROIFile, error) {
	f, err := openForRead(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseROI(f, path)
}

// ParseROI reads a count line N and N records of "[index] flag" where flag is
// 0/1 or false/true.
func ParseROI(r io.Reader, path string) (*ROIFile, error) {
	lr := newLineReader(r, path)
	header, err := lr.readHeader()
	if err != nil {
		return nil, err
	}
	n, err := lr.readCount("node count")
	if err != nil {
		return nil, err
	}
	selected := make([]bool, 0, preallocated(n))
	for i := 0; i < n; i++ {
		fields, err := lr.readRecord("roi", 1, i)
		if err != nil {
			return nil, err
		}
		switch fields[0] {
		case "1", "true", "TRUE", "True":
			selected = append(selected, true)
		case "0", "false", "FALSE", "False":
			selected = append(selected, false)
		default:
			return nil, lr.errorf("invalid selection flag %q for node %d", fields[0], i)
		}
	}
	if err := lr.expectEnd("roi records"); err != nil {
		return nil, err
	}
	return &ROIFile{Header: header, Selected: selected}, nil
}

// WriteROIFile saves a region of interest file
func WriteROIFile(path string, rf *ROIFile) error {
	return WriteAtomic(path, func(w io.Writer) error {
		bw := bufio.NewWriter(w)
		writeHeader(bw, rf.Header)
		fmt.Fprintf(bw, "%d\n", len(rf.Selected))
		for i, s := range rf.Selected {
			flag := 0
			if s {
				flag = 1
			}
			fmt.Fprintf(bw, "%d %d\n", i, flag)
		}
		if err := bw.Flush(); err != nil {
			return models.WrapError(models.ErrFileWrite, path, err)
		}
		return nil
	})
}
