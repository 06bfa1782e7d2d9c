package source

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strconv"

	appLog "muhurta/internal/log"
	"muhurta/internal/panchanga"
	"muhurta/internal/yoga"
)

const (
	DefaultRulesPath = "rules.json"
	datasetDir       = "panchanga_json"
)

// Loader resolves the dataset and rules files under one base location.
type Loader struct {
	fetcher   *Fetcher
	base      string
	rulesPath string
}

// NewLoader roots relative paths at base, which is either a directory or
// an http(s) base URL. An empty rulesPath uses DefaultRulesPath.
func NewLoader(f *Fetcher, base, rulesPath string) *Loader {
	if rulesPath == "" {
		rulesPath = DefaultRulesPath
	}
	return &Loader{fetcher: f, base: base, rulesPath: rulesPath}
}

// DatasetPath is the relative path of the dataset for a city slug and year.
func DatasetPath(slug string, year int) string {
	return path.Join(datasetDir, "panchanga_"+slug+"_"+strconv.Itoa(year)+".json")
}

// Resolve joins rel onto the loader's base. Absolute paths and URLs are
// returned unchanged.
func (l *Loader) Resolve(rel string) string {
	if IsRemote(rel) || filepath.IsAbs(rel) || l.base == "" {
		return rel
	}
	if IsRemote(l.base) {
		u, err := url.Parse(l.base)
		if err != nil {
			return l.base + "/" + rel
		}
		return u.JoinPath(rel).String()
	}
	return filepath.Join(l.base, filepath.FromSlash(rel))
}

// Dataset fetches and decodes the dataset for slug and year.
func (l *Loader) Dataset(ctx context.Context, slug string, year int) (*panchanga.Dataset, error) {
	res, err := l.fetcher.FetchOne(ctx, Source{ID: "dataset", URL: l.Resolve(DatasetPath(slug, year))})
	if err != nil {
		return nil, fmt.Errorf("source: dataset %s/%d: %w", slug, year, err)
	}
	ds, err := panchanga.DecodeBytes(res.Body)
	if err != nil {
		return nil, fmt.Errorf("source: dataset %s/%d: %w", slug, year, err)
	}
	appLog.Info("dataset decoded", "city", slug, "year", year, "bands", len(ds.Bands), "from_cache", res.FromCache)
	return ds, nil
}

// Rules fetches and decodes the yoga rules file.
func (l *Loader) Rules(ctx context.Context) (*yoga.Rules, error) {
	res, err := l.fetcher.FetchOne(ctx, Source{ID: "rules", URL: l.Resolve(l.rulesPath)})
	if err != nil {
		return nil, fmt.Errorf("source: rules: %w", err)
	}
	rules, err := yoga.DecodeRulesBytes(res.Body)
	if err != nil {
		return nil, fmt.Errorf("source: rules: %w", err)
	}
	appLog.Info("rules decoded", "yogas", len(rules.Yogas), "from_cache", res.FromCache)
	return rules, nil
}
