package corpus

import (
	"crypto/md5" // #nosec G501 -- change detection, not integrity protection
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Fingerprint maps each eligible file's relative path to the MD5 digest
// of its raw bytes. Two fingerprints are equal iff the file set and every
// file's content are identical; modification times play no part.
type Fingerprint map[string]string

// ComputeFingerprint reads every eligible file under root and hashes its
// raw bytes. Cost is O(total corpus bytes); callers use it to gate the
// far more expensive re-embedding pass.
func ComputeFingerprint(root string) (Fingerprint, error) {
	files, err := listEligibleFiles(root)
	if err != nil {
		return nil, fmt.Errorf("discovering corpus files: %w", err)
	}

	fp := make(Fingerprint, len(files))
	for _, relPath := range files {
		data, err := os.ReadFile(filepath.Join(root, relPath))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", relPath, err)
		}
		sum := md5.Sum(data) // #nosec G401 -- see package note above
		fp[relPath] = hex.EncodeToString(sum[:])
	}
	return fp, nil
}

// Equal reports whether two fingerprints describe the identical corpus:
// exact path-set and per-file hash equality, no partial tolerance.
func (f Fingerprint) Equal(other Fingerprint) bool {
	if len(f) != len(other) {
		return false
	}
	for path, hash := range f {
		if other[path] != hash {
			return false
		}
	}
	return true
}

// Diff describes the difference between two fingerprints. It exists for
// logging and diagnostics only; reuse decisions are made with Equal.
type Diff struct {
	Added    []string
	Removed  []string
	Modified []string
}

// DiffFingerprints compares an old and a new fingerprint.
func DiffFingerprints(old, current Fingerprint) Diff {
	var d Diff
	for path, hash := range current {
		oldHash, ok := old[path]
		switch {
		case !ok:
			d.Added = append(d.Added, path)
		case oldHash != hash:
			d.Modified = append(d.Modified, path)
		}
	}
	for path := range old {
		if _, ok := current[path]; !ok {
			d.Removed = append(d.Removed, path)
		}
	}
	sort.Strings(d.Added)
	sort.Strings(d.Removed)
	sort.Strings(d.Modified)
	return d
}

// Empty reports whether the diff carries no changes.
func (d Diff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Modified) == 0
}

// fingerprintFile is the on-disk JSON layout: the per-file hash map plus
// the time it was written.
type fingerprintFile struct {
	Files     Fingerprint `json:"files"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// SaveFingerprint writes the fingerprint as JSON. The write goes through
// a temp file and rename so a crash never leaves a truncated fingerprint
// that could falsely validate a stale index.
func SaveFingerprint(path string, fp Fingerprint) error {
	data, err := json.MarshalIndent(fingerprintFile{Files: fp, UpdatedAt: time.Now().UTC()}, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding fingerprint: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing fingerprint: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("committing fingerprint: %w", err)
	}
	return nil
}

// LoadFingerprint reads a previously saved fingerprint. A missing or
// corrupt file is an error; the caller treats it as corpus drift.
func LoadFingerprint(path string) (Fingerprint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fingerprint: %w", err)
	}
	var ff fingerprintFile
	if err := json.Unmarshal(data, &ff); err != nil {
		return nil, fmt.Errorf("decoding fingerprint: %w", err)
	}
	if ff.Files == nil {
		ff.Files = Fingerprint{}
	}
	return ff.Files, nil
}
