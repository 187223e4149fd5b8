package store

import (
	"encoding/json"
	"fmt"
	"os"
)

// ExportFile writes all organizations to path as an indented JSON array.
func (s *OrgStore) ExportFile(path string) (int, error) {
	orgs := s.List()
	if orgs == nil {
		orgs = []Organization{}
	}
	data, err := json.MarshalIndent(orgs, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("failed to encode organizations: %w", err)
	}
	data = append(data, '\n')
	if err := writeFileAtomic(path, data, 0o600); err != nil {
		return 0, err
	}
	return len(orgs), nil
}

// ImportFile merges the organizations in path via ImportMany.
func (s *OrgStore) ImportFile(path string) (added, skipped int, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var orgs []Organization
	if err := json.Unmarshal(data, &orgs); err != nil {
		return 0, 0, fmt.Errorf("%s is not an organization export: %w", path, err)
	}
	added, skipped = s.ImportMany(orgs)
	return added, skipped, nil
}
