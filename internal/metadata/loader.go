package metadata

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadJSON reads the authoring metadata document at path. It is the
// reference loader for THE CORE's Metadata input (§1); nothing in the
// resolver depends on JSON specifically; any loader producing a Metadata
// value fits.
func LoadJSON(path string) (Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("reading metadata document %s: %w", path, err)
	}
	var md Metadata
	if err := json.Unmarshal(data, &md); err != nil {
		return Metadata{}, fmt.Errorf("parsing metadata document %s: %w", path, err)
	}
	return md, nil
}
