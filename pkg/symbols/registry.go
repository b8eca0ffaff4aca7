package symbols

import (
	"context"
	"fmt"
	"strings"

	"github.com/cli/go-gh/v2/pkg/api"
	"golang.org/x/mod/semver"

	"github.com/lincza/al-build/pkg/gitutil"
	"github.com/lincza/al-build/pkg/logger"
	"github.com/lincza/al-build/pkg/nuget"
)

var registryLog = logger.New("symbols:registry")

// Registry is the GitHub Packages NuGet registry of a single organization,
// used as a fallback for in-house dependencies that are not (yet) listed
// on the marketplace feed. Access requires a token with read:packages.
type Registry struct {
	Org   string
	Token string
}

type orgPackage struct {
	Name string `json:"name"`
}

type packageVersion struct {
	Name string `json:"name"`
}

// Feed returns the registry's NuGet v3 feed definition.
func (g *Registry) Feed() nuget.Feed {
	return nuget.Feed{
		Name:     "github:" + g.Org,
		IndexURL: fmt.Sprintf("https://nuget.pkg.github.com/%s/index.json", g.Org),
		Token:    g.Token,
	}
}

// Fetch locates the dependency in the organization's package list and
// downloads its latest version into destDir. The GitHub REST API is used
// for discovery because the registry's NuGet search endpoint does not
// index private packages; the package itself comes over the NuGet
// protocol.
func (g *Registry) Fetch(ctx context.Context, client *nuget.Client, dep DependencyRef, destDir string) (int, error) {
	rest, err := api.NewRESTClient(api.ClientOptions{AuthToken: g.Token})
	if err != nil {
		return 0, fmt.Errorf("failed to create GitHub API client: %w", err)
	}

	var packages []orgPackage
	listPath := fmt.Sprintf("orgs/%s/packages?package_type=nuget", g.Org)
	if err := rest.DoWithContext(ctx, "GET", listPath, nil, &packages); err != nil {
		if gitutil.IsAuthError(err.Error()) {
			return 0, fmt.Errorf("failed to list packages for org %s (check that the token has read:packages): %w", g.Org, err)
		}
		return 0, fmt.Errorf("failed to list packages for org %s: %w", g.Org, err)
	}
	registryLog.Printf("Org %s has %d NuGet packages", g.Org, len(packages))

	wanted := strings.ToLower(fmt.Sprintf("%s.%s.symbols",
		normalizeNameComponent(dep.Publisher), normalizeNameComponent(dep.Name)))

	var match string
	for _, pkg := range packages {
		name := strings.ToLower(pkg.Name)
		if strings.Contains(name, wanted) || (dep.ID != "" && strings.Contains(name, strings.ToLower(dep.ID))) {
			match = pkg.Name
			break
		}
	}
	if match == "" {
		return 0, fmt.Errorf("no package matching %s.%s in org %s", dep.Publisher, dep.Name, g.Org)
	}

	var versions []packageVersion
	versionsPath := fmt.Sprintf("orgs/%s/packages/nuget/%s/versions", g.Org, match)
	if err := rest.DoWithContext(ctx, "GET", versionsPath, nil, &versions); err != nil {
		return 0, fmt.Errorf("failed to list versions of %s: %w", match, err)
	}
	if len(versions) == 0 {
		return 0, fmt.Errorf("package %s has no versions", match)
	}
	latest := latestVersion(versions)
	registryLog.Printf("Fetching %s %s from org %s", match, latest, g.Org)

	data, err := client.Download(ctx, g.Feed(), match, latest)
	if err != nil {
		return 0, err
	}
	files, err := nuget.ExtractApps(data, destDir)
	if err != nil {
		return 0, fmt.Errorf("package %s: %w", match, err)
	}
	return len(files), nil
}

// latestVersion picks the highest semantic version. The API returns
// versions newest-first, so the first entry wins ties and non-semver
// names.
func latestVersion(versions []packageVersion) string {
	latest := versions[0].Name
	for _, v := range versions[1:] {
		if semver.Compare("v"+v.Name, "v"+latest) > 0 {
			latest = v.Name
		}
	}
	return latest
}
