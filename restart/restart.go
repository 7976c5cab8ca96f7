/*
Package restart serializes simulation state so a run can be resumed. A
record carries the per-cell concentration array in the mesh's canonical
cell order; round trips are bit exact, which resuming a deterministic run
depends on.
*/
package restart

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"github.com/baysim/oilspill/mesh"
)

// FormatVersion guards against reading records written by an incompatible
// schema. Bump on any change to the Record layout.
const FormatVersion = 1

type MismatchError struct {
	Reason              string
	WantCells, GotCells int
}

func (e *MismatchError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("restart mismatch: %s", e.Reason)
	}
	return fmt.Sprintf("restart mismatch: snapshot has %d cells, mesh has %d",
		e.GotCells, e.WantCells)
}

type Record struct {
	Version       int
	CellCount     int
	Step          int
	Elapsed       float64
	Concentration []float64
}

func NewRecord(step int, elapsed float64, conc []float64) (rec *Record) {
	rec = &Record{
		Version:       FormatVersion,
		CellCount:     len(conc),
		Step:          step,
		Elapsed:       elapsed,
		Concentration: append([]float64(nil), conc...),
	}
	return
}

// Check validates the record against a mesh cell count before any of its
// contents are used.
func (rec *Record) Check(cellCount int) error {
	if rec.Version != FormatVersion {
		return &MismatchError{
			Reason: fmt.Sprintf("format version %d, this build reads version %d",
				rec.Version, FormatVersion),
		}
	}
	if rec.CellCount != cellCount || len(rec.Concentration) != cellCount {
		return &MismatchError{WantCells: cellCount, GotCells: rec.CellCount}
	}
	return nil
}

// Encode builds the whole serialized record in memory, so a failed or
// interrupted write never leaves a partial blob behind.
func (rec *Record) Encode() (blob []byte, err error) {
	var buf bytes.Buffer
	if err = gob.NewEncoder(&buf).Encode(rec); err != nil {
		return nil, fmt.Errorf("encoding restart record: %w", err)
	}
	return buf.Bytes(), nil
}

// Read decodes a blob and validates it against the mesh it will be applied
// to. It fails with a MismatchError before any state is touched.
func Read(blob []byte, m *mesh.Mesh) (rec *Record, err error) {
	rec = &Record{}
	if err = gob.NewDecoder(bytes.NewReader(blob)).Decode(rec); err != nil {
		return nil, fmt.Errorf("decoding restart record: %w", err)
	}
	if err = rec.Check(m.CellCount()); err != nil {
		return nil, err
	}
	return
}

func ReadFile(path string, m *mesh.Mesh) (rec *Record, err error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading restart file: %w", err)
	}
	return Read(blob, m)
}

// WriteFile persists a record atomically: the blob is staged to a
// temporary file in the target directory and renamed into place, so the
// previous checkpoint survives any mid-write failure.
func WriteFile(path string, rec *Record) (err error) {
	blob, err := rec.Encode()
	if err != nil {
		return
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("staging restart file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err = tmp.Write(blob); err != nil {
		tmp.Close()
		return fmt.Errorf("writing restart file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("closing restart file: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

/*
Writer is a snapshot sink that checkpoints every emitted step to
<dir>/<prefix>_NNNNNN.gob. The latest complete checkpoint is always a
valid resume point.
*/
type Writer struct {
	Dir    string
	Prefix string

	lastPath string
}

func NewWriter(dir, prefix string) *Writer {
	return &Writer{Dir: dir, Prefix: prefix}
}

func (w *Writer) Consume(step int, elapsed float64, conc []float64, m *mesh.Mesh) (err error) {
	path := filepath.Join(w.Dir, fmt.Sprintf("%s_%06d.gob", w.Prefix, step))
	if err = WriteFile(path, NewRecord(step, elapsed, conc)); err != nil {
		return
	}
	w.lastPath = path
	return
}

// LastPath returns the most recently written checkpoint path, or "" if
// none has been written yet.
func (w *Writer) LastPath() string { return w.lastPath }
