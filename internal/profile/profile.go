package profile

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"
)

// Profile is the runtime configuration for the vault graph engine.
type Profile struct {
	// Mode can be "prod" or "dev"
	Mode string
	// Data is the vault root directory containing markdown notes
	Data string
	// Version is the current version of the library
	Version string

	// Graph engine tuning
	GraphStalenessMS         int     // VAULTSENSE_GRAPH_STALENESS_MS (default: 60000)
	GraphClusterCap          int     // VAULTSENSE_GRAPH_CLUSTER_CAP (default: 50)
	GraphMaxDistance         int     // VAULTSENSE_GRAPH_MAX_DISTANCE (default: 3)
	GraphRelatedLimit        int     // VAULTSENSE_GRAPH_RELATED_LIMIT (default: 10)
	GraphSuggestLimit        int     // VAULTSENSE_GRAPH_SUGGEST_LIMIT (default: 5)
	GraphSimilarityThreshold float64 // VAULTSENSE_GRAPH_SIMILARITY_THRESHOLD (default: 0.7)

	// Vault facade cache tuning
	CacheTTLSeconds int // VAULTSENSE_CACHE_TTL_SECONDS (default: 300)
	CacheMaxItems   int // VAULTSENSE_CACHE_MAX_ITEMS (default: 1000)
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// getEnvOrDefault returns the environment variable value or the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnvOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getFloatEnvOrDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// FromEnv loads configuration from VAULTSENSE_* environment variables.
func (p *Profile) FromEnv() {
	p.Mode = getEnvOrDefault("VAULTSENSE_MODE", "dev")
	p.Data = os.Getenv("VAULTSENSE_DATA")

	p.GraphStalenessMS = getIntEnvOrDefault("VAULTSENSE_GRAPH_STALENESS_MS", 60000)
	p.GraphClusterCap = getIntEnvOrDefault("VAULTSENSE_GRAPH_CLUSTER_CAP", 50)
	p.GraphMaxDistance = getIntEnvOrDefault("VAULTSENSE_GRAPH_MAX_DISTANCE", 3)
	p.GraphRelatedLimit = getIntEnvOrDefault("VAULTSENSE_GRAPH_RELATED_LIMIT", 10)
	p.GraphSuggestLimit = getIntEnvOrDefault("VAULTSENSE_GRAPH_SUGGEST_LIMIT", 5)
	p.GraphSimilarityThreshold = getFloatEnvOrDefault("VAULTSENSE_GRAPH_SIMILARITY_THRESHOLD", 0.7)

	p.CacheTTLSeconds = getIntEnvOrDefault("VAULTSENSE_CACHE_TTL_SECONDS", 300)
	p.CacheMaxItems = getIntEnvOrDefault("VAULTSENSE_CACHE_MAX_ITEMS", 1000)
}

// Validate checks the profile and normalizes the data directory.
func (p *Profile) Validate() error {
	if p.GraphStalenessMS < 0 {
		return errors.Errorf("invalid graph staleness threshold: %d", p.GraphStalenessMS)
	}
	if p.GraphClusterCap < 2 {
		return errors.Errorf("graph cluster cap must be at least 2, got %d", p.GraphClusterCap)
	}
	if p.GraphMaxDistance < 1 {
		return errors.Errorf("graph max distance must be at least 1, got %d", p.GraphMaxDistance)
	}
	if p.GraphSimilarityThreshold < 0 || p.GraphSimilarityThreshold > 1 {
		return errors.Errorf("graph similarity threshold must be in [0,1], got %f", p.GraphSimilarityThreshold)
	}
	if p.Data != "" {
		absDir, err := filepath.Abs(p.Data)
		if err != nil {
			return errors.Wrapf(err, "failed to resolve data directory %q", p.Data)
		}
		p.Data = absDir
	}
	return nil
}

// GetProfile loads and validates a profile from the environment.
func GetProfile() (*Profile, error) {
	profile := &Profile{}
	profile.FromEnv()
	if err := profile.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid profile")
	}
	return profile, nil
}
