package bench

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// siteConfigPattern matches the per-site config every initialized site carries.
const siteConfigPattern = "sites/*/site_config.json"

// Sites lists the site names found under benchPath, sorted.
func Sites(ctx context.Context, benchPath string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	root, err := filepath.Abs(benchPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve bench path: %w", err)
	}

	matches, err := doublestar.FilepathGlob(filepath.Join(root, filepath.FromSlash(siteConfigPattern)))
	if err != nil {
		return nil, fmt.Errorf("site glob failed: %w", err)
	}

	sites := make([]string, 0, len(matches))
	for _, match := range matches {
		sites = append(sites, filepath.Base(filepath.Dir(match)))
	}
	sort.Strings(sites)
	return sites, nil
}
