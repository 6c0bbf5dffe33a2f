package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/circlesac/oneup/internal/logging"
	"github.com/circlesac/oneup/pkg/calver"
	"github.com/circlesac/oneup/pkg/manifest"
	"github.com/circlesac/oneup/pkg/oneup"
	"github.com/circlesac/oneup/pkg/registry"
)

// Exit codes.
const (
	exitOK           = 0
	exitFatal        = 1
	exitTargetFailed = 2
)

// versionFlags are the options of "oneup version".
type versionFlags struct {
	targets  []string
	registry string
	format   string
	pkg      string
	dir      string
	config   string
	retries  int
	dryRun   bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// execute runs the CLI and returns the process exit code.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}
	fmt.Fprintln(stderr, "Error:", err)
	var patchErr *oneup.PatchError
	if errors.As(err, &patchErr) {
		return exitTargetFailed
	}
	return exitFatal
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var (
		verbose bool
		logger  = zerolog.Nop()
	)

	rootCmd := &cobra.Command{
		Use:   "oneup",
		Short: "CalVer release versions resolved against your package registry",
		Long: `oneup computes the next calendar version of a project (YY.MM.MICRO by default),
checks the package registry so a published version is never reused, and writes the
result into package.json, server.json, Cargo.toml, Go version files or any file with
a version line.

The resolved version is always the last line printed on stdout, so CI scripts can
capture it with:  VERSION=$(oneup version | tail -n1)`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = logging.New(stderr, verbose)
		},
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Print diagnostic detail on stderr")

	flags := &versionFlags{}
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Resolve the next version, patch the targets and print the version",
		Long: `Resolve the next version for today, write it into every target and print it.

Targets are auto-detected (package.json, then Cargo.toml) unless --target is given.
The registry is chosen from the first target that names a package: npm (with
.npmrc scopes and tokens) for JSON manifests, crates.io for Cargo.toml and the Go
module proxy for Go files. Settings may also come from .oneup.yaml in --dir;
flags given on the command line win.

Exit codes: 0 success, 1 fatal error (nothing was written), 2 some targets failed.`,
		Example: `  oneup version
  oneup version --format YYYY.MM.DD.MICRO --dry-run
  oneup version --target package.json --target server.json
  oneup version --target version.go --registry https://proxy.golang.org`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVersion(cmd, flags, logger)
		},
	}
	f := versionCmd.Flags()
	f.StringArrayVar(&flags.targets, "target", nil, "Manifest to patch (repeatable); auto-detected when omitted")
	f.StringVar(&flags.registry, "registry", "", "Registry URL (default: detected from the target kind and .npmrc)")
	f.StringVar(&flags.format, "format", calver.DefaultFormat, "CalVer format built from YYYY, YY, MM, DD and MICRO")
	f.StringVar(&flags.pkg, "package", "", "Package name to query (default: read from the first target)")
	f.StringVar(&flags.dir, "dir", ".", "Project directory")
	f.StringVar(&flags.config, "config", oneup.DefaultConfigFile, "Config file, relative to --dir")
	f.IntVar(&flags.retries, "retries", registry.DefaultRetryMax, "Retries per registry request")
	f.BoolVar(&flags.dryRun, "dry-run", false, "Report what would change without writing")
	rootCmd.AddCommand(versionCmd)

	return rootCmd
}

func runVersion(cmd *cobra.Command, flags *versionFlags, logger zerolog.Logger) error {
	cfgPath := flags.config
	if !filepath.IsAbs(cfgPath) {
		cfgPath = filepath.Join(flags.dir, cfgPath)
	}
	cfg, err := oneup.LoadConfig(cfgPath, cmd.Flags().Changed("config"))
	if err != nil {
		return err
	}
	opts := buildOptions(cmd, flags, cfg)
	opts.Logger = logger

	var meta oneup.ReleaseMeta
	if flags.dryRun {
		meta, err = oneup.DryRun(cmd.Context(), opts)
	} else {
		meta, err = oneup.Run(cmd.Context(), opts)
	}
	if meta.NewVersion == "" {
		return err
	}

	out := cmd.OutOrStdout()
	if flags.dryRun {
		printDryRun(out, meta)
	}
	fmt.Fprintln(out, meta.NewVersion)
	return err
}

// buildOptions layers explicitly set flags over the config file over flag defaults.
func buildOptions(cmd *cobra.Command, flags *versionFlags, cfg *oneup.Config) oneup.Options {
	changed := cmd.Flags().Changed
	opts := oneup.Options{
		Dir:      flags.dir,
		Targets:  flags.targets,
		Format:   flags.format,
		Registry: flags.registry,
		Package:  flags.pkg,
		RetryMax: flags.retries,
	}
	if !changed("target") && len(cfg.Targets) > 0 {
		opts.Targets = cfg.Targets
	}
	if !changed("format") && cfg.Format != "" {
		opts.Format = cfg.Format
	}
	if !changed("registry") && cfg.Registry != "" {
		opts.Registry = cfg.Registry
	}
	if !changed("package") && cfg.Package != "" {
		opts.Package = cfg.Package
	}
	if !changed("retries") && cfg.Retries != nil {
		opts.RetryMax = *cfg.Retries
	}
	return opts
}

func printDryRun(w io.Writer, meta oneup.ReleaseMeta) {
	fmt.Fprintln(w, "Dry run complete, no files were modified.")
	fmt.Fprintf(w, "Format:      %s\n", meta.Format)
	if meta.Package != "" {
		fmt.Fprintf(w, "Package:     %s\n", meta.Package)
	}
	if meta.Registry != "" {
		fmt.Fprintf(w, "Registry:    %s\n", meta.Registry)
	}
	fmt.Fprintf(w, "Old Version: %s\n", orNone(meta.OldVersion))
	fmt.Fprintf(w, "New Version: %s\n", meta.NewVersion)
	if meta.Existing {
		fmt.Fprintln(w, "The version is already published for this date and is kept.")
	}
	if len(meta.Targets) == 0 {
		return
	}
	fmt.Fprintln(w, "Files that would be updated:")
	for _, r := range meta.Targets {
		switch {
		case r.Err != nil:
			fmt.Fprintf(w, "  %s: error: %v\n", r.Target.Path, r.Err)
		case r.Action == manifest.ActionUnchanged:
			fmt.Fprintf(w, "  %s: unchanged (%s)\n", r.Target.Path, r.NewVersion)
		default:
			fmt.Fprintf(w, "  %s: %s %s -> %s\n", r.Target.Path, r.Action, orNone(r.OldVersion), r.NewVersion)
		}
	}
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
