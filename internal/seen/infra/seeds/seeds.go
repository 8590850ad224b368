// Package seeds loads crawl seed files in YAML, JSON, or TOML format and
// turns them into canonical requests for the visited set.
package seeds

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"

	"github.com/haukened/rr-seen/internal/seen/common/utils"
	"github.com/haukened/rr-seen/internal/seen/domain"
)

// LoadSeedDirectory walks dir, loading every supported seed file, and returns
// the requests in walk order. Each file holds a "urls" list and an optional
// "method" applied to all of them. Returns an error if any file fails to parse
// or holds an invalid URL.
func LoadSeedDirectory(dir string) ([]domain.Request, error) {
	var requests []domain.Request

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}

		fileRequests, err := loadSeedFile(path)
		if err != nil {
			return fmt.Errorf("error parsing seed file %s: %w", path, err)
		}
		requests = append(requests, fileRequests...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return requests, nil
}

// normalize converts a value to a slice of strings. A seed file may give
// "urls" as a single string or as a list.
func normalize(val any) []string {
	switch v := val.(type) {
	case string:
		return []string{v}
	case []any:
		var out []string
		for _, x := range v {
			if s, ok := x.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// parserFor returns the koanf parser for a file extension, or nil if the
// extension is not a seed format.
func parserFor(path string) koanf.Parser {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser()
	case ".json":
		return json.Parser()
	case ".toml":
		return toml.Parser()
	default:
		return nil
	}
}

func loadSeedFile(path string) ([]domain.Request, error) {
	parser := parserFor(path)
	if parser == nil {
		return nil, nil // unsupported file type
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, fmt.Errorf("failed to load seed file %s: %w", path, err)
	}

	if !k.Exists("urls") {
		return nil, fmt.Errorf("seed file %s missing 'urls'", path)
	}
	method := k.String("method")

	var requests []domain.Request
	for _, raw := range normalize(k.Get("urls")) {
		canonical, err := utils.CanonicalURL(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid seed url %q: %w", raw, err)
		}
		req, err := domain.NewRequest(canonical, method, nil)
		if err != nil {
			return nil, fmt.Errorf("invalid seed %q: %w", raw, err)
		}
		requests = append(requests, req)
	}
	return requests, nil
}
