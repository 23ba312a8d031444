package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"frames-scraper/models"
)

// Default output file names.
const (
	CSVFileName  = "output.csv"
	JSONFileName = "output.json"
)

// WriteError reports an unwritable destination. It is fatal to the run:
// there is no partial-write recovery.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// Writer serializes a session to CSV and JSON files in a destination
// directory. Both files carry the same records in the same order, with the
// same field values; the CSV header order equals the JSON key order.
type Writer struct {
	dir string
}

// NewWriter creates a writer targeting dir (created on first write).
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

// Write persists the session as output.csv and output.json.
func (w *Writer) Write(session *models.Session) error {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return &WriteError{Path: w.dir, Err: err}
	}
	if err := w.WriteCSV(session, filepath.Join(w.dir, CSVFileName)); err != nil {
		return err
	}
	return w.WriteJSON(session, filepath.Join(w.dir, JSONFileName))
}

// WriteCSV writes the header row (schema order) followed by one row per
// record. An empty session still produces a valid header-only file.
func (w *Writer) WriteCSV(session *models.Session, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(session.Fields); err != nil {
		return &WriteError{Path: path, Err: err}
	}

	row := make([]string, len(session.Fields))
	for _, rec := range session.Records {
		for i, field := range session.Fields {
			row[i] = rec[field]
		}
		if err := cw.Write(row); err != nil {
			return &WriteError{Path: path, Err: err}
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	return nil
}

// WriteJSON writes the session as an indented array of objects. encoding/json
// sorts map keys alphabetically, which would break the "JSON key order equals
// CSV header order" guarantee, so objects are assembled by hand from the
// schema.
func (w *Writer) WriteJSON(session *models.Session, path string) error {
	data, err := marshalSession(session)
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	return nil
}

func marshalSession(session *models.Session) ([]byte, error) {
	if len(session.Records) == 0 {
		return []byte("[]\n"), nil
	}

	var buf bytes.Buffer
	buf.WriteString("[\n")
	for i, rec := range session.Records {
		buf.WriteString("    {\n")
		for j, field := range session.Fields {
			key, err := json.Marshal(field)
			if err != nil {
				return nil, err
			}
			val, err := json.Marshal(rec[field])
			if err != nil {
				return nil, err
			}
			buf.WriteString("        ")
			buf.Write(key)
			buf.WriteString(": ")
			buf.Write(val)
			if j < len(session.Fields)-1 {
				buf.WriteByte(',')
			}
			buf.WriteByte('\n')
		}
		buf.WriteString("    }")
		if i < len(session.Records)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteString("]\n")
	return buf.Bytes(), nil
}
