// Package status implements the status command: compare every ledger
// entry against a live re-probe of its targets. The ledger records what
// was done; this package decides what is still true.
package status

import (
	"fmt"

	"github.com/templink/templink/pkg/filesystem"
	"github.com/templink/templink/pkg/ledger"
	"github.com/templink/templink/pkg/logging"
	"github.com/templink/templink/pkg/probe"
	"github.com/templink/templink/pkg/types"
)

// Options defines the options for the Status command.
type Options struct {
	// LedgerDir holds application records.
	LedgerDir string

	// TemplateName restricts the report to one template. Empty reports
	// all recorded templates.
	TemplateName string

	// FS overrides the filesystem, for tests. Nil means the OS.
	FS types.FS
}

// TemplateStatus is the live view of one recorded template.
type TemplateStatus struct {
	Entry     *types.LedgerEntry
	Artifacts []types.ArtifactStatus
}

// Intact reports whether every recorded artifact is still in place.
func (s *TemplateStatus) Intact() bool {
	for _, a := range s.Artifacts {
		if a.State != types.ArtifactIntact {
			return false
		}
	}
	return true
}

// Counts returns how many artifacts are intact, modified, and missing.
func (s *TemplateStatus) Counts() (intact, modified, missing int) {
	for _, a := range s.Artifacts {
		switch a.State {
		case types.ArtifactIntact:
			intact++
		case types.ArtifactModified:
			modified++
		case types.ArtifactMissing:
			missing++
		}
	}
	return
}

// Result is the full status report.
type Result struct {
	Templates []*TemplateStatus
}

// Status loads ledger entries and re-probes each recorded artifact.
func Status(opts Options) (*Result, error) {
	logger := logging.GetLogger("commands.status")

	fs := opts.FS
	if fs == nil {
		fs = filesystem.NewOS()
	}

	led := ledger.New(fs, opts.LedgerDir)
	entries, err := led.All()
	if err != nil {
		return nil, err
	}

	prober := probe.New(fs)
	result := &Result{}
	for _, entry := range entries {
		if opts.TemplateName != "" && entry.TemplateName != opts.TemplateName {
			continue
		}

		ts := &TemplateStatus{Entry: entry}
		for _, artifact := range entry.Artifacts {
			ts.Artifacts = append(ts.Artifacts, Classify(prober, artifact))
		}
		result.Templates = append(result.Templates, ts)
	}

	logger.Debug().Int("templates", len(result.Templates)).Msg("Status computed")
	return result, nil
}

// Classify compares one recorded artifact against the filesystem. Links
// are intact when the symlink still points at the recorded source; copies
// are intact when the file content still matches the recorded checksum.
func Classify(prober *probe.Prober, artifact types.Artifact) types.ArtifactStatus {
	status := types.ArtifactStatus{Artifact: artifact}

	state, err := prober.Inspect(artifact.TargetPath)
	if err != nil {
		status.State = types.ArtifactModified
		status.Detail = "target could not be inspected"
		return status
	}
	if state.Kind == probe.Absent {
		status.State = types.ArtifactMissing
		return status
	}

	switch artifact.Origin {
	case types.OriginLink:
		if state.Kind != probe.Symlink {
			status.State = types.ArtifactModified
			status.Detail = fmt.Sprintf("expected symlink, found %s", state.Kind)
			return status
		}
		if state.LinkTarget != artifact.SourcePath {
			status.State = types.ArtifactModified
			status.Detail = "symlink points elsewhere"
			return status
		}

	case types.OriginCopy:
		if state.Kind != probe.RegularFile {
			status.State = types.ArtifactModified
			status.Detail = fmt.Sprintf("expected regular file, found %s", state.Kind)
			return status
		}
		sum, err := state.Checksum()
		if err != nil {
			status.State = types.ArtifactModified
			status.Detail = "content could not be read"
			return status
		}
		if sum != artifact.Checksum {
			status.State = types.ArtifactModified
			status.Detail = "content changed since application"
			return status
		}

	default:
		status.State = types.ArtifactModified
		status.Detail = fmt.Sprintf("unknown artifact origin %q", artifact.Origin)
		return status
	}

	status.State = types.ArtifactIntact
	return status
}
