package factors

import (
	"fmt"
	"os"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"
)

// LibrarySchemaVersion is the factor-library file schema this build
// reads. Files with a different major version are rejected.
const LibrarySchemaVersion = "1.0.0"

// libraryFile is the YAML interchange format for factor libraries.
type libraryFile struct {
	SchemaVersion string          `yaml:"schema_version"`
	Factors       []libraryFactor `yaml:"factors"`
}

type libraryFactor struct {
	Activity       string  `yaml:"activity"`
	Unit           string  `yaml:"unit"`
	EmissionFactor float64 `yaml:"emission_factor"`
	Scope          string  `yaml:"scope"`
	ScopeCategory  string  `yaml:"scope_category"`
	Region         string  `yaml:"region"`
	Year           *int    `yaml:"year"`
	Source         string  `yaml:"source"`
	Version        string  `yaml:"version"`
	Active         *bool   `yaml:"active"`
}

// LoadLibrary reads factor records from a YAML library file.
//
// The file's schema_version must share a major version with
// LibrarySchemaVersion. Each factor needs a non-empty activity and
// unit and a positive emission_factor; region defaults to
// GlobalRegion, source to "unspecified", version to "v1" and active
// to true, matching the storage defaults.
func LoadLibrary(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read factor library: %w", err)
	}

	var file libraryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse factor library %s: %w", path, err)
	}

	if err := checkSchemaVersion(file.SchemaVersion); err != nil {
		return nil, fmt.Errorf("factor library %s: %w", path, err)
	}

	records := make([]Record, 0, len(file.Factors))
	for i, f := range file.Factors {
		activity := NormalizeKey(f.Activity)
		unit := NormalizeKey(f.Unit)
		if activity == "" || unit == "" {
			return nil, fmt.Errorf("factor library %s: factor %d: activity and unit are required", path, i+1)
		}
		if f.EmissionFactor <= 0 {
			return nil, fmt.Errorf("factor library %s: factor %d (%s/%s): emission_factor must be positive",
				path, i+1, activity, unit)
		}

		r := Record{
			Activity:       activity,
			Unit:           unit,
			EmissionFactor: f.EmissionFactor,
			Scope:          NormalizeKey(f.Scope),
			ScopeCategory:  NormalizeKey(f.ScopeCategory),
			Region:         NormalizeKey(f.Region),
			Year:           f.Year,
			Source:         f.Source,
			Version:        f.Version,
			Active:         true,
		}
		if r.Region == "" {
			r.Region = GlobalRegion
		}
		if r.Source == "" {
			r.Source = "unspecified"
		}
		if r.Version == "" {
			r.Version = "v1"
		}
		if f.Active != nil {
			r.Active = *f.Active
		}
		records = append(records, r)
	}

	return records, nil
}

// checkSchemaVersion enforces major-version compatibility between the
// file and LibrarySchemaVersion.
func checkSchemaVersion(version string) error {
	if version == "" {
		return fmt.Errorf("missing schema_version (expected %s)", LibrarySchemaVersion)
	}

	fileVer, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Errorf("invalid schema_version %q: %w", version, err)
	}

	supported := semver.MustParse(LibrarySchemaVersion)
	if fileVer.Major() != supported.Major() {
		return fmt.Errorf("schema_version %s is incompatible with supported %s (major version mismatch)",
			version, LibrarySchemaVersion)
	}
	return nil
}
