package profile

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type seedFile struct {
	Profiles []Profile `yaml:"profiles"`
}

// LoadSeed reads profiles from a YAML file.
func LoadSeed(path string) ([]Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed %q: %w", path, err)
	}
	return ParseSeed(data)
}

// ParseSeed decodes and validates a seed document. Missing thermocouple
// slopes default to 1.
func ParseSeed(data []byte) ([]Profile, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	for i := range f.Profiles {
		if f.Profiles[i].Thermocouple.Slope == 0 {
			f.Profiles[i].Thermocouple.Slope = 1
		}
		if err := f.Profiles[i].Validate(); err != nil {
			return nil, fmt.Errorf("seed profile %d: %w", i, err)
		}
	}
	return f.Profiles, nil
}
