package session

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	// ErrUnknownPatient is returned for a patient ID absent from the index.
	ErrUnknownPatient = errors.New("unknown patient")

	// ErrUnknownDate is returned when a patient has no recording for the
	// requested date.
	ErrUnknownDate = errors.New("no recording for date")
)

// PatientMeta describes one patient in the reference index: display
// metadata plus the mapping of ISO date keys to sensor data filenames.
type PatientMeta struct {
	Name  string            `yaml:"name"`
	Email string            `yaml:"email"`
	Files map[string]string `yaml:"files"`
}

// DateKeys returns the patient's recording dates in lexicographic order,
// which for ISO-style date keys coincides with chronological order.
func (m PatientMeta) DateKeys() []string {
	keys := make([]string, 0, len(m.Files))
	for k := range m.Files {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Index is the static patient directory, loaded once at startup and
// never mutated at runtime.
type Index struct {
	Patients map[string]PatientMeta `yaml:"patients"`
}

// LoadIndex reads a patient index from a YAML file.
func LoadIndex(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading patient index: %w", err)
	}
	return ParseIndex(data)
}

// ParseIndex decodes a patient index from YAML.
func ParseIndex(data []byte) (*Index, error) {
	var ix Index
	if err := yaml.Unmarshal(data, &ix); err != nil {
		return nil, fmt.Errorf("parsing patient index: %w", err)
	}
	if len(ix.Patients) == 0 {
		return nil, errors.New("patient index is empty")
	}
	return &ix, nil
}

// Patient returns the metadata for a patient ID.
func (ix *Index) Patient(id string) (PatientMeta, error) {
	meta, ok := ix.Patients[id]
	if !ok {
		return PatientMeta{}, fmt.Errorf("%s: %w", id, ErrUnknownPatient)
	}
	return meta, nil
}

// FindByEmail resolves a patient ID from an email address,
// case-insensitively. It returns false when no patient matches.
func (ix *Index) FindByEmail(email string) (string, bool) {
	if email == "" {
		return "", false
	}
	lower := strings.ToLower(email)
	for id, meta := range ix.Patients {
		if strings.ToLower(meta.Email) == lower {
			return id, true
		}
	}
	return "", false
}

// PatientIDs returns all known patient IDs in sorted order.
func (ix *Index) PatientIDs() []string {
	ids := make([]string, 0, len(ix.Patients))
	for id := range ix.Patients {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
