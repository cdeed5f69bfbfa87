// Package session holds the result of one analysis run and persists it.
package session

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"optdbg/internal/diag"
	"optdbg/internal/irdiff"
	"optdbg/internal/remarks"
)

// SchemaVersion is bumped whenever the encoded Session layout changes.
const SchemaVersion uint16 = 1

var ErrSchemaMismatch = errors.New("session schema mismatch")

// Session is everything a report needs. Renderers only read it.
type Session struct {
	Schema    uint16    `msgpack:"schema"`
	RunID     string    `msgpack:"run_id"`
	CreatedAt time.Time `msgpack:"created_at"`

	Pipeline    string `msgpack:"pipeline"`
	InputPath   string `msgpack:"input_path,omitempty"`
	BeforePath  string `msgpack:"before_path,omitempty"`
	AfterPath   string `msgpack:"after_path,omitempty"`
	RemarksPath string `msgpack:"remarks_path,omitempty"`

	Remarks     []remarks.Remark  `msgpack:"remarks"`
	Diff        irdiff.ModuleDiff `msgpack:"diff"`
	Diagnostics []diag.Result     `msgpack:"diagnostics"`

	VerificationFailed bool `msgpack:"verification_failed"`
}

// New starts a session with a fresh run id.
func New(pipeline string) *Session {
	return &Session{
		Schema:    SchemaVersion,
		RunID:     uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Pipeline:  pipeline,
	}
}

// Counts returns the number of missed and applied remarks.
func (s *Session) Counts() (missed, applied int) {
	missed, applied, _ = remarks.Counts(s.Remarks)
	return missed, applied
}

// HasCritical reports whether any diagnostic is critical.
func (s *Session) HasCritical() bool {
	return diag.BagOf(s.Diagnostics).HasCritical()
}

// Save encodes s as msgpack.
func (s *Session) Save(w io.Writer) error {
	if s.Schema == 0 {
		s.Schema = SchemaVersion
	}
	if err := msgpack.NewEncoder(w).Encode(s); err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	return nil
}

// Load decodes a session written by Save. The schema is checked before
// the full decode, so files from other versions fail with ErrSchemaMismatch.
func Load(r io.Reader) (*Session, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	schema, err := peekSchema(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	if schema != SchemaVersion {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrSchemaMismatch, schema, SchemaVersion)
	}
	var s Session
	if err := msgpack.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &s, nil
}

// peekSchema reads only the schema field of an encoded session.
func peekSchema(data []byte) (uint16, error) {
	var head struct {
		Schema uint16 `msgpack:"schema"`
	}
	if err := msgpack.Unmarshal(data, &head); err != nil {
		return 0, err
	}
	return head.Schema, nil
}

// SaveFile writes s to path through a temp file in the same directory.
func (s *Session) SaveFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	if err := s.Save(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func LoadFile(path string) (*Session, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open session %q: %w", path, err)
	}
	defer f.Close()
	s, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}
