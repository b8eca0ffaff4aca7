package symbols

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sourcegraph/conc/pool"

	"github.com/lincza/al-build/pkg/envutil"
	"github.com/lincza/al-build/pkg/logger"
	"github.com/lincza/al-build/pkg/nuget"
)

var resolverLog = logger.New("symbols:resolver")

// minSymbolSize filters out placeholder files when checking for an already
// populated cache; real symbol packages are far larger.
const minSymbolSize = 1000

// DependencyRef identifies a dependency from the project descriptor.
type DependencyRef struct {
	ID        string
	Name      string
	Publisher string
}

// Result summarizes a resolution run. Symbol resolution is best-effort:
// missing packages degrade the result but do not abort the build, because
// compilation reports precisely which references are unresolved.
type Result struct {
	Downloaded int
	Missing    []string // package descriptions that could not be resolved
}

// Resolver downloads symbol packages into a local cache directory.
type Resolver struct {
	Client     *nuget.Client
	Dir        string // symbol cache directory
	Registry   *Registry
	// FallbackPublisher routes matching third-party dependencies to the
	// GitHub Packages registry when the marketplace feed misses.
	FallbackPublisher string
}

// CachedSymbols lists the usable symbol packages already in the cache.
func (r *Resolver) CachedSymbols() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(r.Dir, "*.app"))
	if err != nil {
		return nil, err
	}
	var usable []string
	for _, path := range matches {
		if info, err := os.Stat(path); err == nil && info.Size() > minSymbolSize {
			usable = append(usable, filepath.Base(path))
		}
	}
	return usable, nil
}

// ResolvePlatform downloads the Microsoft symbol packages for a platform
// major version. An already populated cache short-circuits the downloads.
func (r *Resolver) ResolvePlatform(ctx context.Context, platformMajor int) (Result, error) {
	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		return Result{}, fmt.Errorf("failed to create symbol directory: %w", err)
	}

	if cached, err := r.CachedSymbols(); err == nil && len(cached) > 0 {
		resolverLog.Printf("Found %d cached symbol files, skipping platform download", len(cached))
		return Result{Downloaded: len(cached)}, nil
	}

	packages := platformPackages(platformMajor)
	resolverLog.Printf("Resolving %d platform symbol packages for BC %d", len(packages), platformMajor)

	concurrency := envutil.GetIntFromEnv("AL_BUILD_MAX_CONCURRENT_DOWNLOADS", 4, 1, 16, resolverLog)

	var mu sync.Mutex
	result := Result{}
	p := pool.New().WithMaxGoroutines(concurrency)
	for _, term := range packages {
		p.Go(func() {
			count, err := r.fetchFirstMatch(ctx, microsoftFeed, term)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				resolverLog.Printf("Platform package %s not resolved: %v", term, err)
				result.Missing = append(result.Missing, term)
				return
			}
			result.Downloaded += count
		})
	}
	p.Wait()
	return result, nil
}

// ResolveDependencies downloads symbols for the project's third-party
// dependencies. Microsoft dependencies are satisfied by the platform
// symbols and skipped. The marketplace feed is tried first for every
// dependency; dependencies from the fallback publisher are retried
// against the GitHub Packages registry when the marketplace misses.
func (r *Resolver) ResolveDependencies(ctx context.Context, deps []DependencyRef) (Result, error) {
	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		return Result{}, fmt.Errorf("failed to create symbol directory: %w", err)
	}

	result := Result{}
	for _, dep := range deps {
		if strings.EqualFold(dep.Publisher, "Microsoft") {
			resolverLog.Printf("Skipping Microsoft dependency %s", dep.Name)
			continue
		}

		count, err := r.resolveDependency(ctx, dep)
		if err != nil {
			resolverLog.Printf("Dependency %s.%s not resolved: %v", dep.Publisher, dep.Name, err)
			result.Missing = append(result.Missing, dep.Publisher+"."+dep.Name)
			continue
		}
		result.Downloaded += count
	}
	return result, nil
}

func (r *Resolver) resolveDependency(ctx context.Context, dep DependencyRef) (int, error) {
	var lastErr error
	for _, pattern := range dependencySearchPatterns(dep) {
		count, err := r.fetchFirstMatch(ctx, appSourceFeed, pattern)
		if err == nil {
			return count, nil
		}
		lastErr = err
	}

	if r.Registry != nil && r.FallbackPublisher != "" &&
		strings.Contains(strings.ToLower(dep.Publisher), strings.ToLower(r.FallbackPublisher)) {
		resolverLog.Printf("Marketplace miss for %s.%s, trying GitHub Packages registry", dep.Publisher, dep.Name)
		count, err := r.Registry.Fetch(ctx, r.Client, dep, r.Dir)
		if err == nil {
			return count, nil
		}
		lastErr = err
	}

	return 0, lastErr
}

// fetchFirstMatch searches a feed for the term, preferring a package whose
// ID contains the term, and extracts its .app files into the cache.
func (r *Resolver) fetchFirstMatch(ctx context.Context, feed nuget.Feed, term string) (int, error) {
	packages, err := r.Client.Search(ctx, feed, term)
	if err != nil {
		return 0, err
	}
	if len(packages) == 0 {
		return 0, fmt.Errorf("no packages match %q on feed %s", term, feed.Name)
	}

	selected := packages[0]
	for _, candidate := range packages {
		if strings.Contains(strings.ToLower(candidate.ID), strings.ToLower(term)) {
			selected = candidate
			break
		}
	}

	data, err := r.Client.Download(ctx, feed, selected.ID, selected.Version)
	if err != nil {
		return 0, err
	}
	files, err := nuget.ExtractApps(data, r.Dir)
	if err != nil {
		return 0, fmt.Errorf("package %s: %w", selected.ID, err)
	}
	return len(files), nil
}
