package store

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/careops-labs/careboard/pkg/core"
)

// seedFile is the on-disk shape of a template seed file.
type seedFile struct {
	Templates []core.QueryTemplate `yaml:"templates"`
}

// SeedTemplates loads query templates from a YAML file and upserts
// them. Existing templates with the same id are replaced; templates
// not named in the file are left alone. Returns the number of
// templates loaded.
func (s *Store) SeedTemplates(ctx context.Context, path string) (int, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read seed file: %w", err)
	}

	var seed seedFile
	if err := yaml.Unmarshal(buf, &seed); err != nil {
		return 0, fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}

	for i := range seed.Templates {
		if err := s.SaveTemplate(ctx, &seed.Templates[i]); err != nil {
			return 0, fmt.Errorf("seed file %s: %w", path, err)
		}
	}
	s.logger.Info("templates seeded", "path", path, "count", len(seed.Templates))
	return len(seed.Templates), nil
}
