package types

import (
	"path/filepath"
	"regexp"
)

// Scope determines how a template's files reach the filesystem.
type Scope string

const (
	// ScopeDotfiles templates are applied as symlinks into the home directory.
	ScopeDotfiles Scope = "dotfiles"

	// ScopeProject templates are applied as one-time copies into a target
	// directory, which the user subsequently owns.
	ScopeProject Scope = "project"
)

// Dir returns the repository subdirectory holding templates of this scope.
func (s Scope) Dir() string {
	if s == ScopeProject {
		return "projects"
	}
	return "dotfiles"
}

// Valid reports whether s is a known scope.
func (s Scope) Valid() bool {
	return s == ScopeDotfiles || s == ScopeProject
}

// ManifestEntry is a single tracked file within a template. Only leaf files
// are tracked; directories are implied by path prefixes.
type ManifestEntry struct {
	// RelPath is the posix-style path relative to the template root.
	// Never absolute, never contains ".." segments.
	RelPath string
}

// templateNameRe matches valid template directory names.
var templateNameRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidTemplateName reports whether name is acceptable as a template name.
func ValidTemplateName(name string) bool {
	return templateNameRe.MatchString(name)
}

// Template is a named, scoped collection of source files plus an optional
// install script, loaded from the repository cache. Immutable for the
// duration of one command invocation.
type Template struct {
	// Name is the template directory name, unique within its scope.
	Name string

	// Scope is dotfiles or project.
	Scope Scope

	// Path is the absolute path to the template directory in the repo cache.
	Path string

	// Manifest is the ordered list of tracked files.
	Manifest []ManifestEntry

	// InstallScript is the absolute path to install.sh, empty if none.
	InstallScript string

	// Description comes from metadata.toml, empty if not declared.
	Description string

	// Metadata holds the raw metadata.toml key/value pairs. The engine
	// passes it through without interpretation.
	Metadata map[string]any
}

// SourcePath returns the absolute path of a manifest entry's source file.
func (t *Template) SourcePath(e ManifestEntry) string {
	return filepath.Join(t.Path, filepath.FromSlash(e.RelPath))
}

// HasInstallScript reports whether the template declares an install script.
func (t *Template) HasInstallScript() bool {
	return t.InstallScript != ""
}
