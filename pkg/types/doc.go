// Package types contains the shared data model for templink: templates and
// their manifests, reconciliation actions, execution outcomes, ledger
// artifacts, and the filesystem interface all components operate through.
package types
