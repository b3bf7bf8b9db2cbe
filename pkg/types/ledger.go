package types

import "time"

// ArtifactOrigin records how an artifact reached the filesystem.
type ArtifactOrigin string

const (
	OriginLink ArtifactOrigin = "link"
	OriginCopy ArtifactOrigin = "copy"
)

// Artifact is one filesystem object produced by the engine in a template's
// name. Every artifact recorded in the ledger satisfied "target exists and
// matches the intended origin" at the moment of recording.
type Artifact struct {
	TargetPath string         `yaml:"target"`
	Origin     ArtifactOrigin `yaml:"origin"`
	SourcePath string         `yaml:"source"`

	// Checksum is set for copy artifacts only, in "sha256:<hex>" form.
	Checksum string `yaml:"checksum,omitempty"`

	CreatedAt time.Time `yaml:"created_at"`
}

// LedgerEntry is the durable record of one applied template, keyed by
// (template name, scope).
type LedgerEntry struct {
	TemplateName  string     `yaml:"template"`
	Scope         Scope      `yaml:"scope"`
	Artifacts     []Artifact `yaml:"artifacts"`
	LastAppliedAt time.Time  `yaml:"last_applied_at"`
}

// FindArtifact returns the artifact for targetPath, or nil.
func (e *LedgerEntry) FindArtifact(targetPath string) *Artifact {
	for i := range e.Artifacts {
		if e.Artifacts[i].TargetPath == targetPath {
			return &e.Artifacts[i]
		}
	}
	return nil
}

// ArtifactState classifies a recorded artifact against a live re-probe.
type ArtifactState string

const (
	// ArtifactIntact - target still matches the recorded origin.
	ArtifactIntact ArtifactState = "intact"

	// ArtifactModified - target exists but its checksum or link target no
	// longer matches what was recorded.
	ArtifactModified ArtifactState = "modified"

	// ArtifactMissing - target no longer exists.
	ArtifactMissing ArtifactState = "missing"
)

// ArtifactStatus is the status-command view of one recorded artifact.
type ArtifactStatus struct {
	Artifact Artifact
	State    ArtifactState

	// Detail carries a short explanation for modified artifacts.
	Detail string
}
