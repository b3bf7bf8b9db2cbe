package main

// Short messages (one-liners)
const (
	// Command descriptions
	MsgRootShort       = "Sync dotfiles and project scaffolds from a template repository"
	MsgInstallShort    = "Install dotfiles templates as symlinks into your home directory"
	MsgApplyShort      = "Apply a project template as file copies into a directory"
	MsgListShort       = "List available templates"
	MsgListLong        = "List displays all dotfiles and project templates found in the template repository."
	MsgStatusShort     = "Show the live state of installed templates"
	MsgSyncShort       = "Refresh the local template repository cache"
	MsgUninstallShort  = "Remove the files a template installed"
	MsgConfigShort     = "Show or change configuration"
	MsgConfigShowShort = "Print the active configuration"
	MsgConfigSetShort  = "Set a configuration key"
	MsgVersionShort    = "Print version information"

	// Status messages
	MsgDryRunNotice    = "\nDRY RUN MODE - No changes were made"
	MsgNoTemplates     = "No templates found."
	MsgSyncedFormat    = "Repository synced to %s\n"
	MsgNothingRecorded = "Nothing installed yet."
	MsgConflictHint    = "\nUnresolved conflicts remain. Inspect the targets above, then re-run with --force to overwrite."
	MsgSkippedForced   = "Some modified files were preserved. Re-run with --force to remove them too."

	// Flag descriptions
	MsgFlagVerbose   = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagDryRun    = "Preview changes without executing them"
	MsgFlagForce     = "Overwrite conflicting files and symlinks (never directories)"
	MsgFlagRepo      = "Use a local template repository path instead of the configured remote"
	MsgFlagTarget    = "Directory to apply the project template into (default: current directory)"
	MsgFlagNoScripts = "Skip template install scripts"
	MsgFlagScope     = "Restrict to one scope: dotfiles or project"
	MsgFlagYes       = "Run install scripts without asking for confirmation"
	MsgFlagJSON      = "Emit machine-readable JSON instead of formatted text"
)
