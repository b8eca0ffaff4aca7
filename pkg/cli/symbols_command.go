package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lincza/al-build/pkg/config"
	"github.com/lincza/al-build/pkg/console"
	"github.com/lincza/al-build/pkg/logger"
	"github.com/lincza/al-build/pkg/nuget"
	"github.com/lincza/al-build/pkg/project"
	"github.com/lincza/al-build/pkg/symbols"
)

var symbolsLog = logger.New("cli:symbols")

// NewSymbolsCommand creates the symbols command
func NewSymbolsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "symbols",
		Short: "Download dependency symbols into the local cache",
		Long: `Download the symbol packages the compiler needs to resolve references.

Platform symbols come from the Microsoft feed, third-party dependency
symbols from the marketplace feed. Dependencies of the configured fallback
publisher are retried against the organization's GitHub Packages registry
when the marketplace misses; set GITHUB_TOKEN for registry access.

Missing packages are reported but do not fail the command, since the
compiler pinpoints unresolved references precisely.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunSymbols(cmd, projectDir(cmd))
		},
	}
	cmd.Flags().String("build-type", "", "Version tag to resolve symbols for (default: auto-detect)")
	return cmd
}

// RunSymbols downloads platform and dependency symbols for the project.
func RunSymbols(cmd *cobra.Command, dir string) error {
	cfg, err := config.Load(dir)
	if err != nil {
		return err
	}
	buildType, _ := cmd.Flags().GetString("build-type")
	if buildType == "" {
		buildType = cfg.Build.BuildType
	}

	descriptor, err := project.Load(dir)
	if err != nil {
		fmt.Fprintln(os.Stderr, console.FormatErrorMessage(err.Error()))
		return err
	}
	target, err := project.ResolveVersionTag(descriptor, buildType)
	if err != nil {
		return err
	}

	resolver := newResolver(cfg, dir, target)
	ctx := cmd.Context()

	platformMajor := descriptor.PlatformMajor()
	symbolsLog.Printf("Resolving symbols for platform %d, tag %s", platformMajor, target.Tag)
	fmt.Println(console.FormatInfoMessage(fmt.Sprintf("Downloading platform symbols for BC %d", platformMajor)))

	platform, err := resolver.ResolvePlatform(ctx, platformMajor)
	if err != nil {
		fmt.Fprintln(os.Stderr, console.FormatErrorMessage(err.Error()))
		return err
	}

	deps := dependencyRefs(descriptor)
	depResult, err := resolver.ResolveDependencies(ctx, deps)
	if err != nil {
		fmt.Fprintln(os.Stderr, console.FormatErrorMessage(err.Error()))
		return err
	}

	total := platform.Downloaded + depResult.Downloaded
	fmt.Println(console.FormatSuccessMessage(fmt.Sprintf("%d symbol packages in cache", total)))
	for _, missing := range append(platform.Missing, depResult.Missing...) {
		fmt.Println(console.FormatWarningMessage("Could not resolve " + missing))
	}
	return nil
}

// newResolver wires the symbol resolver from configuration and environment.
func newResolver(cfg *config.Config, dir string, target project.VersionTarget) *symbols.Resolver {
	resolver := &symbols.Resolver{
		Client:            nuget.NewClient(),
		Dir:               filepath.Join(dir, cfg.Symbols.Dir, target.SymbolDir),
		FallbackPublisher: cfg.Symbols.FallbackPublisher,
	}
	if cfg.Symbols.FallbackOrg != "" {
		if token := os.Getenv("GITHUB_TOKEN"); token != "" {
			resolver.Registry = &symbols.Registry{Org: cfg.Symbols.FallbackOrg, Token: token}
		} else {
			symbolsLog.Print("GITHUB_TOKEN not set, registry fallback disabled")
		}
	}
	return resolver
}

func dependencyRefs(d *project.Descriptor) []symbols.DependencyRef {
	refs := make([]symbols.DependencyRef, 0, len(d.Dependencies))
	for _, dep := range d.Dependencies {
		refs = append(refs, symbols.DependencyRef{ID: dep.ID, Name: dep.Name, Publisher: dep.Publisher})
	}
	return refs
}
