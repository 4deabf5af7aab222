// Package surfacefile reads and writes the ASCII surface files used by the
// folding pipeline: coordinates, topology, regions of interest and per-vertex
// scalar columns.
//
// All files share an optional header block:
//
//	BeginHeader
//	comment free text
//	encoding ASCII
//	EndHeader
//
// followed by the data section. Blank lines and lines starting with '#' are
// ignored in the data section.
package surfacefile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"foldingmeasures/internal/models"
)

const (
	tagBeginHeader = "BeginHeader"
	tagEndHeader   = "EndHeader"
)

// Header holds the tag/value pairs of a file header
type Header map[string]string

// lineReader walks the significant lines of a file
type lineReader struct {
	scanner *bufio.Scanner
	path    string
	line    int
	peeked  *string
}

func newLineReader(r io.Reader, path string) *lineReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	return &lineReader{scanner: scanner, path: path}
}

// next returns the next non-blank, non-comment line with surrounding space
// trimmed. ok is false at end of input.
func (lr *lineReader) next() (string, bool, error) {
	if lr.peeked != nil {
		s := *lr.peeked
		lr.peeked = nil
		return s, true, nil
	}
	for lr.scanner.Scan() {
		lr.line++
		s := strings.TrimSpace(lr.scanner.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		return s, true, nil
	}
	if err := lr.scanner.Err(); err != nil {
		return "", false, models.WrapError(models.ErrFileRead, lr.path, err)
	}
	return "", false, nil
}

func (lr *lineReader) unread(s string) {
	lr.peeked = &s
}

// mustNext is next with end of input reported as a format error
func (lr *lineReader) mustNext(what string) (string, error) {
	s, ok, err := lr.next()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", lr.errorf("unexpected end of file while reading %s", what)
	}
	return s, nil
}

func (lr *lineReader) errorf(format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	return models.NewError(models.ErrFileFormat, lr.path, "line %d: %s", lr.line, msg)
}

// readHeader consumes an optional BeginHeader/EndHeader block
func (lr *lineReader) readHeader() (Header, error) {
	header := make(Header)
	s, ok, err := lr.next()
	if err != nil || !ok {
		return header, err
	}
	if s != tagBeginHeader {
		lr.unread(s)
		return header, nil
	}
	for {
		s, err := lr.mustNext("header")
		if err != nil {
			return nil, err
		}
		if s == tagEndHeader {
			return header, nil
		}
		tag, value, _ := strings.Cut(s, " ")
		header[tag] = strings.TrimSpace(value)
	}
}

// maxPrealloc bounds the capacity reserved from a declared record count.
// Larger files grow as their records are read.
const maxPrealloc = 1 << 20

// preallocated returns the initial capacity for n declared records
func preallocated(n int) int {
	if n > maxPrealloc {
		return maxPrealloc
	}
	return n
}

// readCount reads a line holding a single non-negative integer
func (lr *lineReader) readCount(what string) (int, error) {
	s, err := lr.mustNext(what)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, lr.errorf("invalid %s %q", what, s)
	}
	return n, nil
}

// readRecord reads one data line of want fields, optionally preceded by the
// record index. A present index must equal expectIndex.
func (lr *lineReader) readRecord(what string, want, expectIndex int) ([]string, error) {
	s, err := lr.mustNext(what)
	if err != nil {
		return nil, err
	}
	fields := strings.Fields(s)
	switch len(fields) {
	case want:
		return fields, nil
	case want + 1:
		idx, err := strconv.Atoi(fields[0])
		if err != nil || idx != expectIndex {
			return nil, lr.errorf("%s record %d has index %q", what, expectIndex, fields[0])
		}
		return fields[1:], nil
	default:
		return nil, lr.errorf("%s record %d has %d fields, expected %d", what, expectIndex, len(fields), want)
	}
}

// expectEnd fails if anything but blank lines or comments remains
func (lr *lineReader) expectEnd(what string) error {
	s, ok, err := lr.next()
	if err != nil {
		return err
	}
	if ok {
		return lr.errorf("unexpected data after %s: %q", what, s)
	}
	return nil
}

func parseFloats(lr *lineReader, fields []string, what string) ([]float64, error) {
	values := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, lr.errorf("invalid %s value %q", what, f)
		}
		values[i] = v
	}
	return values, nil
}

// openForRead opens a file, reporting failures as file read errors
func openForRead(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, models.WrapError(models.ErrFileRead, path, err)
	}
	return f, nil
}

func writeHeader(w *bufio.Writer, header Header) {
	w.WriteString(tagBeginHeader + "\n")
	tags := make([]string, 0, len(header))
	for tag := range header {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	for _, tag := range tags {
		fmt.Fprintf(w, "%s %s\n", tag, header[tag])
	}
	w.WriteString(tagEndHeader + "\n")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Staged is an output written to a temporary sibling of its destination and
// not yet renamed into place.
type Staged struct {
	path string
	tmp  string
}

// Stage writes a file to a temporary sibling of path. Nothing appears at path
// until Commit; a failed write leaves no temporary file behind.
func Stage(path string, write func(w io.Writer) error) (*Staged, error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return nil, models.WrapError(models.ErrFileWrite, path, err)
	}
	st := &Staged{path: path, tmp: tmp.Name()}

	bw := bufio.NewWriter(tmp)
	if err := write(bw); err != nil {
		tmp.Close()
		st.Discard()
		return nil, err
	}
	if err := bw.Flush(); err != nil {
		tmp.Close()
		st.Discard()
		return nil, models.WrapError(models.ErrFileWrite, path, err)
	}
	if err := tmp.Close(); err != nil {
		st.Discard()
		return nil, models.WrapError(models.ErrFileWrite, path, err)
	}
	return st, nil
}

// Path returns the destination of the staged file
func (s *Staged) Path() string { return s.path }

// Commit renames the staged file into place
func (s *Staged) Commit() error {
	if err := os.Rename(s.tmp, s.path); err != nil {
		s.Discard()
		return models.WrapError(models.ErrFileWrite, s.path, err)
	}
	return nil
}

// Discard removes the staged file without touching the destination
func (s *Staged) Discard() {
	os.Remove(s.tmp)
}

// CommitAll renames every staged file into place in order. After a failed
// rename the remaining files are discarded.
func CommitAll(staged ...*Staged) error {
	for i, st := range staged {
		if err := st.Commit(); err != nil {
			for _, rest := range staged[i+1:] {
				rest.Discard()
			}
			return err
		}
	}
	return nil
}

// WriteAtomic writes a file through a temporary sibling that is renamed into
// place only when write returns nil, so a failed run leaves no partial output.
func WriteAtomic(path string, write func(w io.Writer) error) error {
	st, err := Stage(path, write)
	if err != nil {
		return err
	}
	return st.Commit()
}
