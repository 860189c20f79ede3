package schema

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the sidecar document's fixed filename inside a database
// directory.
const FileName = "schema.yaml"

// Path returns the schema sidecar path for a database directory.
func Path(databaseDir string) string {
	return filepath.Join(databaseDir, FileName)
}

// Load reads and parses the schema sidecar from databaseDir.
func Load(databaseDir string) (*Schema, error) {
	path := Path(databaseDir)
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	dec := yaml.NewDecoder(bytes.NewReader(buf))
	dec.KnownFields(true)

	var s Schema
	if err := dec.Decode(&s); err != nil {
		return nil, &CorruptDatabaseError{Database: filepath.Base(databaseDir), Reason: fmt.Sprintf("unparsable %s: %v", FileName, err)}
	}
	return &s, nil
}

// Save serializes s and writes it to databaseDir's sidecar file. The write
// goes to a temp file in the same directory first and is renamed into
// place, so a crash mid-write never leaves a half-written schema.yaml
// behind for the next Load to choke on.
func Save(databaseDir string, s *Schema) error {
	buf, err := yaml.Marshal(s)
	if err != nil {
		return err
	}

	final := Path(databaseDir)
	tmp, err := os.CreateTemp(databaseDir, ".schema-*.yaml.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(buf); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, final)
}
