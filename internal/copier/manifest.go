package copier

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

const (
	// ManifestVersion is the current manifest format version
	ManifestVersion = "1.0"
	// ManifestFilename is the manifest written into the samples directory
	ManifestFilename = "manifest.json"
)

// ErrManifestMismatch is returned when the samples directory no longer matches its manifest
var ErrManifestMismatch = errors.New("samples do not match manifest")

// Manifest records one sampling run and the files it copied
type Manifest struct {
	Version      string        `json:"version"`
	RunID        string        `json:"run_id"`
	CreatedAt    time.Time     `json:"created_at"`
	LapseVersion string        `json:"lapse_version"`
	SourceDir    string        `json:"source_dir"`
	Interval     string        `json:"interval"`
	TieBreak     string        `json:"tie_break"`
	Samples      []SampleEntry `json:"samples"`
	Checksum     string        `json:"checksum,omitempty"`
}

// SampleEntry describes a single copied capture
type SampleEntry struct {
	Filename   string    `json:"filename"`
	CapturedAt time.Time `json:"captured_at"`
	Size       int64     `json:"size"`
	Checksum   string    `json:"checksum"`
}

// NewManifest creates a manifest for a new run
func NewManifest(lapseVersion string) *Manifest {
	return &Manifest{
		Version:      ManifestVersion,
		RunID:        uuid.NewString(),
		CreatedAt:    time.Now().UTC(),
		LapseVersion: lapseVersion,
		Samples:      []SampleEntry{},
	}
}

// AddResults appends every copied file of a batch
func (m *Manifest) AddResults(res *Result) {
	for _, fr := range res.Copied {
		m.Samples = append(m.Samples, SampleEntry{
			Filename:   fr.Filename,
			CapturedAt: fr.CapturedAt.UTC(),
			Size:       fr.Size,
			Checksum:   fr.Checksum,
		})
	}
}

// ComputeChecksum calculates the overall manifest checksum
func (m *Manifest) ComputeChecksum() string {
	h := sha256.New()
	for _, s := range m.Samples {
		h.Write([]byte(s.Filename))
		h.Write([]byte(s.Checksum))
	}
	return "sha256:" + hex.EncodeToString(h.Sum(nil))
}

// Finalize computes the checksum and marks the manifest as complete
func (m *Manifest) Finalize() {
	m.Checksum = m.ComputeChecksum()
}

// Save writes the manifest to path
func (m *Manifest) Save(fsys afero.Fs, path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}

	if err := afero.WriteFile(fsys, path, data, 0o644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}

	return nil
}

// LoadManifest reads a manifest from path
func LoadManifest(fsys afero.Fs, path string) (*Manifest, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}

	return &m, nil
}

// Verify checks that every sample exists in dir with the recorded size and checksum
func (m *Manifest) Verify(fsys afero.Fs, dir string) error {
	for _, s := range m.Samples {
		path := filepath.Join(dir, s.Filename)

		info, err := fsys.Stat(path)
		if err != nil {
			return fmt.Errorf("%w: sample %s: file not found: %w", ErrManifestMismatch, s.Filename, err)
		}

		if info.Size() != s.Size {
			return fmt.Errorf("%w: sample %s: size mismatch (expected %d, got %d)",
				ErrManifestMismatch, s.Filename, s.Size, info.Size())
		}

		checksum, err := FileChecksum(fsys, path)
		if err != nil {
			return fmt.Errorf("sample %s: checksum error: %w", s.Filename, err)
		}
		if checksum != s.Checksum {
			return fmt.Errorf("%w: sample %s: checksum mismatch", ErrManifestMismatch, s.Filename)
		}
	}

	if m.Checksum != "" && m.Checksum != m.ComputeChecksum() {
		return fmt.Errorf("%w: manifest checksum mismatch", ErrManifestMismatch)
	}

	return nil
}

// VerifyDir loads the manifest stored in dir and verifies the samples next to it
func VerifyDir(fsys afero.Fs, dir string) (*Manifest, error) {
	m, err := LoadManifest(fsys, filepath.Join(dir, ManifestFilename))
	if err != nil {
		return nil, fmt.Errorf("loading manifest: %w", err)
	}

	if err := m.Verify(fsys, dir); err != nil {
		return m, err
	}

	return m, nil
}

// FileChecksum calculates the SHA256 checksum of a file
func FileChecksum(fsys afero.Fs, path string) (string, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return "sha256:" + hex.EncodeToString(h.Sum(nil)), nil
}
