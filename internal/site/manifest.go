package site

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"time"

	derrors "github.com/docpress/docpress/internal/errors"
)

// ManifestFile is the name of the build manifest inside the site output.
const ManifestFile = "manifest.json"

// Manifest records what a build produced: each output file with the SHA-256
// of its content. Two builds from the same source produce identical page
// hashes, which is how downstream publishing detects a no-op.
type Manifest struct {
	Generated time.Time         `json:"generated"`
	Pages     map[string]string `json:"pages"`
}

// NewManifest creates an empty manifest stamped with the current time.
func NewManifest() *Manifest {
	return &Manifest{Generated: time.Now().UTC(), Pages: map[string]string{}}
}

// Add records one output file and its content hash.
func (m *Manifest) Add(name string, content []byte) {
	sum := sha256.Sum256(content)
	m.Pages[name] = hex.EncodeToString(sum[:])
}

// Fingerprint returns a stable hash over all page hashes, independent of
// the generation timestamp.
func (m *Manifest) Fingerprint() string {
	names := make([]string, 0, len(m.Pages))
	for name := range m.Pages {
		names = append(names, name)
	}
	// Deterministic ordering before hashing.
	sort.Strings(names)

	h := sha256.New()
	for _, name := range names {
		h.Write([]byte(name))
		h.Write([]byte{0})
		h.Write([]byte(m.Pages[name]))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Write serializes the manifest into dir. The manifest itself is not part
// of its own page map.
func (m *Manifest) Write(dir string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryRender, "failed to encode manifest")
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestFile), append(data, '\n'), 0o644); err != nil {
		return derrors.WrapError(err, derrors.CategoryFileSystem, "failed to write manifest")
	}
	return nil
}

// ReadManifest loads a manifest previously written into dir.
func ReadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryFileSystem, "failed to read manifest")
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryRender, "failed to decode manifest")
	}
	return &m, nil
}
