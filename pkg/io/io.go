package io

import (
	"bytes"
	"encoding/csv"
	"encoding/gob"
	"fmt"
	gio "io"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

const (
	dirMode  = 0755
	fileMode = 0644
)

var (
	ErrUnknownArtifactKind  = errors.New("unknown artifact kind")
	ErrArtifactKindMismatch = errors.New("artifact payload does not match its kind")
)

// ArtifactKind selects how an artifact is encoded on disk. The caller states
// the kind explicitly; the file extension is never inspected.
type ArtifactKind int

const (
	TableArtifact ArtifactKind = iota
	ConfigArtifact
	ModelArtifact
)

func (k ArtifactKind) String() string {
	switch k {
	case TableArtifact:
		return "table"
	case ConfigArtifact:
		return "config"
	case ModelArtifact:
		return "model"
	default:
		return fmt.Sprintf("ArtifactKind(%d)", int(k))
	}
}

// Artifact is a tagged value: exactly the payload named by Kind is set.
type Artifact struct {
	Kind   ArtifactKind
	Table  *Table
	Config *Parameters
	Model  interface{}
}

func (a *Artifact) validate() error {
	var ok bool
	switch a.Kind {
	case TableArtifact:
		ok = a.Table != nil
	case ConfigArtifact:
		ok = a.Config != nil
	case ModelArtifact:
		ok = a.Model != nil
	default:
		return errors.Wrapf(ErrUnknownArtifactKind, "%s", a.Kind)
	}
	if !ok {
		return errors.Wrapf(ErrArtifactKindMismatch, "%s artifact has no payload", a.Kind)
	}
	return nil
}

// modelEnvelope lets gob carry any registered concrete type through an
// interface field. Types stored as models must be passed to gob.Register.
type modelEnvelope struct {
	Object interface{}
}

// Store loads and saves artifacts on a filesystem.
type Store struct {
	fs afero.Fs
}

func NewStore(fs afero.Fs) *Store {
	return &Store{fs: fs}
}

// NewOsStore returns a Store rooted at dir on the host filesystem. An empty
// dir or "." resolves paths against the working directory.
func NewOsStore(dir string) *Store {
	if dir == "" || dir == "." {
		return NewStore(afero.NewOsFs())
	}
	return NewStore(afero.NewBasePathFs(afero.NewOsFs(), dir))
}

func (s *Store) Fs() afero.Fs {
	return s.fs
}

// Load reads the artifact at path, decoding it as kind.
func (s *Store) Load(kind ArtifactKind, path string) (*Artifact, error) {
	f, err := s.fs.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error opening %s artifact %s", kind, path)
	}
	defer f.Close()

	artifact := &Artifact{Kind: kind}
	switch kind {
	case TableArtifact:
		artifact.Table, err = ReadTable(f)
	case ConfigArtifact:
		artifact.Config, err = ReadParameters(f)
	case ModelArtifact:
		envelope := modelEnvelope{}
		err = gob.NewDecoder(f).Decode(&envelope)
		artifact.Model = envelope.Object
	default:
		return nil, errors.Wrapf(ErrUnknownArtifactKind, "loading %s", path)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "error decoding %s artifact %s", kind, path)
	}
	return artifact, nil
}

// Save writes the artifact to path, creating parent directories as needed.
// The content is written to a temporary file first and renamed into place so
// that readers never observe a half written artifact.
func (s *Store) Save(path string, artifact *Artifact) error {
	if err := artifact.validate(); err != nil {
		return errors.Wrapf(err, "saving %s", path)
	}

	var buf bytes.Buffer
	var err error
	switch artifact.Kind {
	case TableArtifact:
		err = WriteTable(&buf, artifact.Table)
	case ConfigArtifact:
		err = yaml.NewEncoder(&buf).Encode(artifact.Config)
	case ModelArtifact:
		err = gob.NewEncoder(&buf).Encode(&modelEnvelope{Object: artifact.Model})
	}
	if err != nil {
		return errors.Wrapf(err, "error encoding %s artifact %s", artifact.Kind, path)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := s.fs.MkdirAll(dir, dirMode); err != nil {
			return errors.Wrapf(err, "failed to create dir: %s", dir)
		}
	}
	tmp := path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, buf.Bytes(), fileMode); err != nil {
		return errors.Wrapf(err, "failed to write %s", tmp)
	}
	if err := s.fs.Rename(tmp, path); err != nil {
		return errors.Wrapf(err, "failed to move %s into place", path)
	}
	return nil
}

func (s *Store) LoadTable(path string) (*Table, error) {
	a, err := s.Load(TableArtifact, path)
	if err != nil {
		return nil, err
	}
	return a.Table, nil
}

func (s *Store) LoadConfig(path string) (*Parameters, error) {
	a, err := s.Load(ConfigArtifact, path)
	if err != nil {
		return nil, err
	}
	return a.Config, nil
}

func (s *Store) LoadModel(path string) (interface{}, error) {
	a, err := s.Load(ModelArtifact, path)
	if err != nil {
		return nil, err
	}
	return a.Model, nil
}

func (s *Store) SaveTable(path string, t *Table) error {
	return s.Save(path, &Artifact{Kind: TableArtifact, Table: t})
}

func (s *Store) SaveConfig(path string, p *Parameters) error {
	return s.Save(path, &Artifact{Kind: ConfigArtifact, Config: p})
}

func (s *Store) SaveModel(path string, m interface{}) error {
	return s.Save(path, &Artifact{Kind: ModelArtifact, Model: m})
}

// Exists reports whether path is present in the store.
func (s *Store) Exists(path string) bool {
	ok, err := afero.Exists(s.fs, path)
	return ok && err == nil
}

// ReadTable reads a CSV table. The first line is expected to be a header.
func ReadTable(input gio.Reader) (*Table, error) {
	reader := csv.NewReader(input)
	reader.Comma = ','

	header, err := reader.Read()
	if err != nil {
		return nil, errors.Wrap(err, "error reading data header")
	}
	table := NewTable(header)

	line := 1
	for record, err := reader.Read(); err != gio.EOF; record, err = reader.Read() {
		line++
		if err != nil {
			return nil, errors.Wrapf(err, "error reading data at line %d", line)
		}
		if err := table.Append(record); err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
	}
	return table, nil
}

func WriteTable(output gio.Writer, t *Table) error {
	writer := csv.NewWriter(output)
	if err := writer.Write(t.Columns); err != nil {
		return errors.Wrap(err, "error writing data header")
	}
	if err := writer.WriteAll(t.Rows); err != nil {
		return errors.Wrap(err, "error writing data")
	}
	return nil
}
