package fieldmap

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFile reads an optional alias override file and layers it over the
// built-in mapping. The file may declare extra read aliases (tried
// before the defaults) and replacement write columns:
//
//	read:
//	  name: ["Site", "Titel"]
//	write:
//	  name: "Site"
func LoadFile(path string) (Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Mapping{}, fmt.Errorf("failed to read alias file: %w", err)
	}

	var extra Mapping
	if err := yaml.Unmarshal(data, &extra); err != nil {
		return Mapping{}, fmt.Errorf("failed to parse alias file: %w", err)
	}

	return merge(Default(), extra), nil
}
