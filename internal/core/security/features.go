package security

import (
	"context"
	"sort"
	"strings"
)

// Feature flag names stored in an organization's settings blob
// under "features_enabled".
const (
	FeatureEvents    = "events"
	FeatureGroups    = "groups"
	FeatureMessaging = "messaging"
	FeatureReports   = "reports"
)

// FeatureFlagProvider provides feature flag evaluation.
// Abstraction allows different backends: organization settings, Redis, etc.
type FeatureFlagProvider interface {
	// IsEnabled checks if a feature is enabled for the request's organization.
	IsEnabled(ctx context.Context, feature string) bool
}

// pathFeatures maps route sub-paths under /org/{slug} to the feature
// that gates them. Longest prefix wins.
var pathFeatures = map[string]string{
	"/events":    FeatureEvents,
	"/groups":    FeatureGroups,
	"/messages":  FeatureMessaging,
	"/templates": FeatureMessaging,
	"/reports":   FeatureReports,
}

// FeatureForPath returns the feature gating an organization sub-path,
// or "" when the path is not feature-gated. subPath is the part of the URL
// after /org/{slug}.
func FeatureForPath(subPath string) string {
	match := ""
	for prefix := range pathFeatures {
		if strings.HasPrefix(subPath, prefix) && len(prefix) > len(match) {
			match = prefix
		}
	}
	if match == "" {
		return ""
	}
	return pathFeatures[match]
}

// GatedPaths returns the gated sub-path prefixes, sorted. For diagnostics.
func GatedPaths() []string {
	paths := make([]string, 0, len(pathFeatures))
	for p := range pathFeatures {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
