package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFeatureForPath(t *testing.T) {
	tests := []struct {
		subPath string
		want    string
	}{
		{"/events", FeatureEvents},
		{"/events/123/register", FeatureEvents},
		{"/groups", FeatureGroups},
		{"/groups/abc/members", FeatureGroups},
		{"/messages", FeatureMessaging},
		{"/templates", FeatureMessaging},
		{"/templates/xyz/render", FeatureMessaging},
		{"/reports", FeatureReports},
		{"", ""},
		{"/", ""},
		{"/members", ""},
		{"/upgrade", ""},
		{"/settings", ""},
	}

	for _, tt := range tests {
		t.Run("subPath="+tt.subPath, func(t *testing.T) {
			assert.Equal(t, tt.want, FeatureForPath(tt.subPath))
		})
	}
}

func TestGatedPathsSorted(t *testing.T) {
	paths := GatedPaths()
	assert.Contains(t, paths, "/events")
	assert.Contains(t, paths, "/templates")
	for i := 1; i < len(paths); i++ {
		assert.LessOrEqual(t, paths[i-1], paths[i])
	}
}
