package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/templink/templink/pkg/commands/apply"
	"github.com/templink/templink/pkg/commands/install"
	"github.com/templink/templink/pkg/commands/list"
	"github.com/templink/templink/pkg/commands/status"
	synccmd "github.com/templink/templink/pkg/commands/sync"
	"github.com/templink/templink/pkg/commands/uninstall"
	"github.com/templink/templink/pkg/config"
	"github.com/templink/templink/pkg/engine"
	"github.com/templink/templink/pkg/errors"
	"github.com/templink/templink/pkg/script"
	"github.com/templink/templink/pkg/style"
	"github.com/templink/templink/pkg/types"
)

func newInstallCmd() *cobra.Command {
	var noScripts bool
	var assumeYes bool

	cmd := &cobra.Command{
		Use:   "install [template...]",
		Short: MsgInstallShort,
		Long: `Install applies dotfiles templates into your home directory as symlinks.
Without arguments every dotfiles template in the repository is installed.
Existing files are never overwritten unless --force is given; directories
are never overwritten at all.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd, true)
			if err != nil {
				return err
			}

			result, err := install.Install(cmd.Context(), install.Options{
				RepoDir:       rt.repoDir,
				TemplateNames: args,
				HomeDir:       rt.paths.HomeDir(),
				LedgerDir:     rt.paths.LedgerDir(),
				DryRun:        dryRun,
				Force:         force,
				RunScripts:    !noScripts,
				ConfirmScript: scriptConfirmer(rt.cfg, assumeYes),
				ScriptTimeout: rt.cfg.ScriptTimeout(),
				MaxParallel:   rt.cfg.MaxParallelOperations,
				Runner:        script.NewRunner(),
			})
			if err != nil {
				return err
			}

			printRunResults(cmd, result.Results)
			if result.DryRun {
				fmt.Fprintln(cmd.OutOrStdout(), MsgDryRunNotice)
			}
			return installExitError(result)
		},
	}

	cmd.Flags().BoolVar(&noScripts, "no-scripts", false, MsgFlagNoScripts)
	cmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, MsgFlagYes)
	return cmd
}

func newApplyCmd() *cobra.Command {
	var targetDir string
	var noScripts bool
	var assumeYes bool

	cmd := &cobra.Command{
		Use:   "apply <template>",
		Short: MsgApplyShort,
		Long: `Apply copies a project template into a target directory. The copies are
independent files: editing them never touches the repository, and future
repository changes never touch them.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd, true)
			if err != nil {
				return err
			}

			if targetDir == "" {
				targetDir, err = os.Getwd()
				if err != nil {
					return errors.Wrap(err, errors.ErrFileAccess, "failed to resolve current directory")
				}
			}

			result, err := apply.Apply(cmd.Context(), apply.Options{
				RepoDir:       rt.repoDir,
				TemplateName:  args[0],
				TargetDir:     targetDir,
				LedgerDir:     rt.paths.LedgerDir(),
				DryRun:        dryRun,
				Force:         force,
				RunScripts:    !noScripts,
				ConfirmScript: scriptConfirmer(rt.cfg, assumeYes),
				ScriptTimeout: rt.cfg.ScriptTimeout(),
				Runner:        script.NewRunner(),
			})
			if err != nil {
				return err
			}

			printRunResults(cmd, []*engine.TemplateResult{result.Run})
			if result.DryRun {
				fmt.Fprintln(cmd.OutOrStdout(), MsgDryRunNotice)
			}
			return applyExitError(result)
		},
	}

	cmd.Flags().StringVarP(&targetDir, "target", "t", "", MsgFlagTarget)
	cmd.Flags().BoolVar(&noScripts, "no-scripts", false, MsgFlagNoScripts)
	cmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, MsgFlagYes)
	return cmd
}

func newListCmd() *cobra.Command {
	var scopeFlag string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: MsgListShort,
		Long:  MsgListLong,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd, true)
			if err != nil {
				return err
			}

			result, err := list.List(list.Options{
				RepoDir: rt.repoDir,
				Scope:   types.Scope(scopeFlag),
			})
			if err != nil {
				if errors.IsErrorCode(err, errors.ErrCatalogEmpty) {
					if jsonOut {
						fmt.Fprintln(cmd.OutOrStdout(), "[]")
						return nil
					}
					fmt.Fprintln(cmd.OutOrStdout(), MsgNoTemplates)
					return nil
				}
				return err
			}

			if jsonOut {
				return writeTemplatesJSON(cmd, result.Templates)
			}

			out := cmd.OutOrStdout()
			for _, scope := range []types.Scope{types.ScopeDotfiles, types.ScopeProject} {
				templates := result.ByScope(scope)
				if len(templates) == 0 {
					continue
				}
				fmt.Fprintln(out, style.SubtitleStyle.Render(scope.Dir()))
				for _, tmpl := range templates {
					line := "  " + tmpl.Name
					if tmpl.Description != "" {
						line += "  " + style.MutedStyle.Render(tmpl.Description)
					}
					if tmpl.HasInstallScript() {
						line += " " + style.MutedStyle.Render("[script]")
					}
					fmt.Fprintln(out, line)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&scopeFlag, "scope", "", MsgFlagScope)
	cmd.Flags().BoolVar(&jsonOut, "json", false, MsgFlagJSON)
	return cmd
}

func newStatusCmd() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "status [template]",
		Short: MsgStatusShort,
		Long: `Status re-probes every file recorded at install or apply time and reports
whether it is still intact, was modified, or has gone missing. The report
reflects the filesystem as it is now, not as it was recorded.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd, false)
			if err != nil {
				return err
			}

			name := ""
			if len(args) == 1 {
				name = args[0]
			}

			result, err := status.Status(status.Options{
				LedgerDir:    rt.paths.LedgerDir(),
				TemplateName: name,
			})
			if err != nil {
				return err
			}

			if jsonOut {
				return writeStatusJSON(cmd, result.Templates)
			}

			out := cmd.OutOrStdout()
			if len(result.Templates) == 0 {
				fmt.Fprintln(out, MsgNothingRecorded)
				return nil
			}

			for _, ts := range result.Templates {
				fmt.Fprintln(out, style.RenderTemplateHeader(ts.Entry.TemplateName, ts.Entry.Scope))
				for _, artifact := range ts.Artifacts {
					fmt.Fprintln(out, "  "+style.RenderArtifactStatus(artifact))
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, MsgFlagJSON)
	return cmd
}

func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: MsgSyncShort,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd, false)
			if err != nil {
				return err
			}
			if !rt.cfg.IsConfigured() {
				return errors.New(errors.ErrRepoConfig,
					"no template repository configured, run 'templink config set repo_url <url>'")
			}

			result, err := synccmd.Sync(cmd.Context(), synccmd.Options{Syncer: rt.syncer()})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), MsgSyncedFormat, result.Path)
			return nil
		},
	}
}

func newUninstallCmd() *cobra.Command {
	var scopeFlag string

	cmd := &cobra.Command{
		Use:   "uninstall <template>",
		Short: MsgUninstallShort,
		Long: `Uninstall removes the files recorded for a template. Files you have
modified since installation are preserved unless --force is given; the
ledger entry is dropped once every recorded file is gone.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd, false)
			if err != nil {
				return err
			}

			result, err := uninstall.Uninstall(uninstall.Options{
				TemplateName: args[0],
				Scope:        types.Scope(scopeFlag),
				LedgerDir:    rt.paths.LedgerDir(),
				DryRun:       dryRun,
				Force:        force,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, removal := range result.Removals {
				line := fmt.Sprintf("  %-18s %s", removal.State, removal.Artifact.TargetPath)
				if removal.Detail != "" {
					line += " " + style.MutedStyle.Render("("+removal.Detail+")")
				}
				fmt.Fprintln(out, line)
			}
			if result.DryRun {
				fmt.Fprintln(out, MsgDryRunNotice)
			} else if result.SkippedCount() > 0 {
				fmt.Fprintln(out, MsgSkippedForced)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&scopeFlag, "scope", "", MsgFlagScope)
	return cmd
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: MsgConfigShort,
	}
	cmd.AddCommand(newConfigShowCmd(), newConfigSetCmd())
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: MsgConfigShowShort,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd, false)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "repo_url                 = %q\n", rt.cfg.RepoURL)
			fmt.Fprintf(out, "repo_branch              = %q\n", rt.cfg.RepoBranch)
			fmt.Fprintf(out, "home_dir                 = %q\n", rt.cfg.HomeDir)
			fmt.Fprintf(out, "auto_sync                = %v\n", rt.cfg.AutoSync)
			fmt.Fprintf(out, "prompt_for_scripts       = %v\n", rt.cfg.PromptForScripts)
			fmt.Fprintf(out, "max_parallel_operations  = %d\n", rt.cfg.MaxParallelOperations)
			fmt.Fprintf(out, "script_timeout_seconds   = %d\n", rt.cfg.ScriptTimeoutSeconds)
			fmt.Fprintln(out)
			fmt.Fprintln(out, style.MutedStyle.Render("config file: "+rt.paths.ConfigFilePath()))
			return nil
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: MsgConfigSetShort,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd, false)
			if err != nil {
				return err
			}

			if err := config.SetKey(rt.paths.ConfigFilePath(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", args[0], args[1])
			return nil
		},
	}
}

func writeTemplatesJSON(cmd *cobra.Command, templates []types.Template) error {
	type tmplJSON struct {
		Name        string `json:"name"`
		Scope       string `json:"scope"`
		Description string `json:"description,omitempty"`
		HasScript   bool   `json:"has_install_script"`
	}
	out := make([]tmplJSON, 0, len(templates))
	for _, tmpl := range templates {
		out = append(out, tmplJSON{
			Name:        tmpl.Name,
			Scope:       string(tmpl.Scope),
			Description: tmpl.Description,
			HasScript:   tmpl.HasInstallScript(),
		})
	}
	return writeJSON(cmd, out)
}

func writeStatusJSON(cmd *cobra.Command, templates []*status.TemplateStatus) error {
	type artifactJSON struct {
		Target string `json:"target"`
		Origin string `json:"origin"`
		State  string `json:"state"`
		Detail string `json:"detail,omitempty"`
	}
	type statusJSON struct {
		Template  string         `json:"template"`
		Scope     string         `json:"scope"`
		Intact    bool           `json:"intact"`
		Artifacts []artifactJSON `json:"artifacts"`
	}
	out := make([]statusJSON, 0, len(templates))
	for _, ts := range templates {
		entry := statusJSON{
			Template: ts.Entry.TemplateName,
			Scope:    string(ts.Entry.Scope),
			Intact:   ts.Intact(),
		}
		for _, a := range ts.Artifacts {
			entry.Artifacts = append(entry.Artifacts, artifactJSON{
				Target: a.Artifact.TargetPath,
				Origin: string(a.Artifact.Origin),
				State:  string(a.State),
				Detail: a.Detail,
			})
		}
		out = append(out, entry)
	}
	return writeJSON(cmd, out)
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printRunResults renders per-template outcome lines.
func printRunResults(cmd *cobra.Command, results []*engine.TemplateResult) {
	out := cmd.OutOrStdout()
	for _, res := range results {
		fmt.Fprintln(out, style.RenderTemplateHeader(res.Template.Name, res.Template.Scope))
		if res.Err != nil {
			fmt.Fprintln(out, "  "+style.ErrorStyle.Render(res.Err.Error()))
			continue
		}
		if res.Result == nil {
			continue
		}
		for _, outcome := range res.Result.Outcomes {
			fmt.Fprintln(out, "  "+style.RenderOutcome(outcome))
		}
		if res.Result.Script != nil && res.Result.Script.Failed() {
			fmt.Fprintln(out, "  "+style.ErrorStyle.Render("install script failed"))
			if res.Result.Script.Result != nil && res.Result.Script.Result.Output != "" {
				fmt.Fprintln(out, style.MutedStyle.Render(res.Result.Script.Result.Output))
			}
		}
	}
}

// scriptConfirmer builds the per-script confirmation gate. With --yes or
// prompting disabled scripts run unconditionally; without a terminal they
// are declined, never hung on.
func scriptConfirmer(cfg *config.Config, assumeYes bool) func(string) bool {
	if assumeYes || !cfg.PromptForScripts {
		return func(string) bool { return true }
	}
	if !stdoutIsTerminal() {
		return func(string) bool { return false }
	}
	return func(scriptPath string) bool {
		ok, _ := pterm.DefaultInteractiveConfirm.
			WithDefaultValue(false).
			Show(fmt.Sprintf("Run install script %s?", scriptPath))
		return ok
	}
}
