// Package probe inspects the live state of candidate target paths:
// existence, type, symlink target, content checksum. Pure read, the probe
// never mutates the filesystem.
package probe

import (
	"os"
	"path/filepath"

	"github.com/templink/templink/pkg/errors"
	"github.com/templink/templink/pkg/internal/hashutil"
	"github.com/templink/templink/pkg/types"
)

// Kind classifies what occupies a path.
type Kind string

const (
	Absent      Kind = "absent"
	RegularFile Kind = "file"
	Symlink     Kind = "symlink"
	Directory   Kind = "directory"
	Other       Kind = "other"
)

// State is the probed state of one path. Checksums are computed lazily and
// only for regular files.
type State struct {
	Path string
	Kind Kind

	// LinkTarget is the raw symlink destination, set for Kind Symlink.
	LinkTarget string

	// LinkTargetExists is false for dangling symlinks. A dangling symlink
	// is a distinct, reportable state, never Absent.
	LinkTargetExists bool

	fs       types.FS
	checksum string
	sumErr   error
	summed   bool
}

// Checksum returns the content digest of a regular file, computing it on
// first use. Calling it for any other kind is an error.
func (s *State) Checksum() (string, error) {
	if s.Kind != RegularFile {
		return "", errors.Newf(errors.ErrProbe, "checksum requested for %s path %s", s.Kind, s.Path)
	}
	if !s.summed {
		s.checksum, s.sumErr = hashutil.CalculateFileChecksumFS(s.fs, s.Path)
		if s.sumErr != nil {
			s.sumErr = errors.Wrapf(s.sumErr, errors.ErrProbe, "failed to checksum %s", s.Path)
		}
		s.summed = true
	}
	return s.checksum, s.sumErr
}

// Prober inspects paths through a types.FS.
type Prober struct {
	fs types.FS
}

// New creates a Prober over the given filesystem.
func New(fs types.FS) *Prober {
	return &Prober{fs: fs}
}

// Inspect probes a single path. An unreadable path (permissions) returns a
// ProbeError; a nonexistent path returns an Absent state, not an error.
func (p *Prober) Inspect(path string) (*State, error) {
	st := &State{Path: path, fs: p.fs}

	info, err := p.fs.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			st.Kind = Absent
			return st, nil
		}
		return nil, errors.Wrapf(err, errors.ErrProbe, "failed to inspect %s", path)
	}

	mode := info.Mode()
	switch {
	case mode&os.ModeSymlink != 0:
		st.Kind = Symlink
		target, err := p.fs.Readlink(path)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrProbe, "failed to read symlink %s", path)
		}
		st.LinkTarget = target
		st.LinkTargetExists = p.linkTargetExists(path, target)
	case mode.IsDir():
		st.Kind = Directory
	case mode.IsRegular():
		st.Kind = RegularFile
	default:
		st.Kind = Other
	}

	return st, nil
}

// ChecksumFile returns the content digest of an arbitrary file, typically a
// template source. Shares the digest format with State.Checksum.
func (p *Prober) ChecksumFile(path string) (string, error) {
	sum, err := hashutil.CalculateFileChecksumFS(p.fs, path)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrProbe, "failed to checksum %s", path)
	}
	return sum, nil
}

func (p *Prober) linkTargetExists(linkPath, target string) bool {
	resolved := target
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(filepath.Dir(linkPath), resolved)
	}
	_, err := p.fs.Stat(resolved)
	return err == nil
}
