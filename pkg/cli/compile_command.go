package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/lincza/al-build/pkg/compiler"
	"github.com/lincza/al-build/pkg/config"
	"github.com/lincza/al-build/pkg/console"
	"github.com/lincza/al-build/pkg/logger"
	"github.com/lincza/al-build/pkg/project"
)

var compileLog = logger.New("cli:compile")

// NewCompileCommand creates the compile command
func NewCompileCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Compile the AL extension",
		Long: `Compile the project with the AL compiler against the local symbol cache.

The version-specific manifest for the resolved build type is activated for
the duration of the compile and restored afterwards, on success and on
failure alike. With --watch, source changes retrigger the compile.

Examples:
  al-build compile                       # Single compile
  al-build compile --build-type bc22     # Compile against the BC 22 manifest
  al-build compile --watch               # Recompile on .al file changes`,
		RunE: func(cmd *cobra.Command, args []string) error {
			buildType, _ := cmd.Flags().GetString("build-type")
			out, _ := cmd.Flags().GetString("out")
			watch, _ := cmd.Flags().GetBool("watch")
			dir := projectDir(cmd)
			if watch {
				return RunCompileWatch(cmd.Context(), dir, buildType, out)
			}
			_, err := RunCompile(cmd.Context(), dir, buildType, out)
			return err
		},
	}
	cmd.Flags().String("build-type", "", "Version tag to build (default: auto-detect)")
	cmd.Flags().String("out", "", "Output .app filename (default: derived from app name)")
	cmd.Flags().Bool("watch", false, "Recompile when source files change")
	return cmd
}

// RunCompile performs one compile of the project. The returned result is
// valid whenever err is nil, including failed compiles.
func RunCompile(ctx context.Context, dir, buildType, out string) (compiler.Result, error) {
	cfg, err := config.Load(dir)
	if err != nil {
		return compiler.Result{}, err
	}
	if buildType == "" {
		buildType = cfg.Build.BuildType
	}

	active, err := project.Select(dir, buildType)
	if err != nil {
		fmt.Fprintln(os.Stderr, console.FormatErrorMessage(err.Error()))
		return compiler.Result{}, err
	}
	defer active.Restore()

	result, err := compileActive(ctx, dir, cfg, active, out)
	if err != nil {
		fmt.Fprintln(os.Stderr, console.FormatErrorMessage(err.Error()))
		return compiler.Result{}, err
	}
	reportCompile(result)
	return result, nil
}

// compileActive compiles the already-selected descriptor. Callers own the
// manifest restore.
func compileActive(ctx context.Context, dir string, cfg *config.Config, active *project.Active, out string) (compiler.Result, error) {
	d := active.Descriptor
	if out == "" {
		out = fmt.Sprintf("%s_%s.app", d.CleanName(), d.Version)
	}

	target := d.Target
	if target == "" {
		target = cfg.Build.Target
	}

	inv := compiler.Invocation{
		ProjectDir:           dir,
		OutputFile:           out,
		SymbolCache:          filepath.Join(dir, cfg.Symbols.Dir, active.Target.SymbolDir),
		Target:               target,
		RulesetPath:          rulesetPath(dir, cfg),
		AssemblyProbingPaths: cfg.Build.AssemblyProbingPaths,
	}
	compileLog.Printf("Compiling %s to %s (target %s)", d.Name, out, target)
	return compiler.Run(ctx, inv)
}

func rulesetPath(dir string, cfg *config.Config) string {
	if cfg.Build.RulesetPath != "" {
		return cfg.Build.RulesetPath
	}
	if artifacts := project.ScanArtifacts(dir); artifacts.RulesetPath != "" {
		return filepath.Join(dir, artifacts.RulesetPath)
	}
	return ""
}

// reportCompile renders the compile outcome including structured
// diagnostics.
func reportCompile(result compiler.Result) {
	for _, d := range result.Diagnostics {
		compilerErr := console.CompilerError{
			Position: console.ErrorPosition{File: d.File, Line: d.Line, Column: d.Column},
			Type:     d.Severity,
			Code:     d.Code,
			Message:  d.Message,
		}
		fmt.Fprintln(os.Stderr, console.FormatError(compilerErr))
	}

	if result.Success {
		fmt.Println(console.FormatSuccessMessage("Compilation successful: " + result.ArtifactPath))
		return
	}
	fmt.Fprintln(os.Stderr, console.FormatErrorMessage("Compilation failed"))
	if len(result.Diagnostics) == 0 && result.Stderr != "" {
		fmt.Fprintln(os.Stderr, result.Stderr)
	}
}

// RunCompileWatch compiles once, then recompiles whenever an .al file or a
// manifest changes. Events are debounced because editors fire several per
// save.
func RunCompileWatch(ctx context.Context, dir, buildType, out string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watchSourceDirs(watcher, dir); err != nil {
		return err
	}

	fmt.Println(console.FormatInfoMessage("Watching for source changes, Ctrl-C to stop"))
	if _, err := RunCompile(ctx, dir, buildType, out); err != nil {
		return err
	}

	var timer *time.Timer
	recompile := make(chan struct{}, 1)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isSourceChange(event) {
				continue
			}
			compileLog.Printf("Change detected: %s", event)
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(300*time.Millisecond, func() {
				select {
				case recompile <- struct{}{}:
				default:
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			compileLog.Printf("Watcher error: %v", err)
		case <-recompile:
			if _, err := RunCompile(ctx, dir, buildType, out); err != nil {
				return err
			}
		}
	}
}

// watchSourceDirs registers the project tree, skipping caches and build
// outputs.
func watchSourceDirs(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		name := d.Name()
		if name == ".git" || name == ".symbols" || name == "out" {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}

// isSourceChange accepts .al file events only. Manifest writes are excluded
// because the build itself rewrites and restores app.json, which would
// retrigger endlessly.
func isSourceChange(event fsnotify.Event) bool {
	if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Rename) {
		return false
	}
	return strings.EqualFold(filepath.Ext(event.Name), ".al")
}
