package config

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// cargoManifest is the narrow slice of Cargo.toml this module cares about:
// a custom release target directory, which would otherwise sit outside the
// default target/ exclusion.
type cargoManifest struct {
	Profile struct {
		Release struct {
			TargetDir string `toml:"target-dir"`
		} `toml:"release"`
	} `toml:"profile"`
}

// DetectBuildArtifacts scans projectRoot for language-specific build
// manifests and returns additional exclude glob patterns beyond the fixed
// default list — currently just Cargo.toml's custom release target
// directory (SPEC_FULL.md §12, supplemented feature). Any manifest that is
// missing or fails to parse is silently skipped: this is a best-effort
// enrichment, not a required input.
func DetectBuildArtifacts(projectRoot string) []string {
	var patterns []string
	patterns = append(patterns, detectCargoOutputs(projectRoot)...)
	return patterns
}

func detectCargoOutputs(projectRoot string) []string {
	data, err := os.ReadFile(filepath.Join(projectRoot, "Cargo.toml"))
	if err != nil {
		return nil
	}

	var manifest cargoManifest
	if err := toml.Unmarshal(data, &manifest); err != nil {
		return nil
	}

	if manifest.Profile.Release.TargetDir == "" {
		return nil
	}
	return []string{"**/" + manifest.Profile.Release.TargetDir + "/**"}
}
