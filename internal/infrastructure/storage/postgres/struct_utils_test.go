package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"parishdesk/internal/core/entity"
	"parishdesk/internal/core/id"
)

type mockRecord struct {
	entity.Tenanted
	Name   string `db:"name" json:"name"`
	IsOpen bool   `db:"is_open" json:"isOpen"`
}

func TestExtractDBColumns_EmbeddedBase(t *testing.T) {
	cols := ExtractDBColumns[mockRecord]()

	expectedCols := []string{
		"id", "version", "created_at", "updated_at", "deleted_at",
		"organization_id", "name", "is_open",
	}

	for _, expected := range expectedCols {
		assert.Contains(t, cols, expected)
	}
}

func TestStructToMap_EmbeddedBase(t *testing.T) {
	now := time.Now().UTC()
	orgID := id.New()
	rec := mockRecord{
		Tenanted: entity.Tenanted{
			Base: entity.Base{
				ID:        id.New(),
				Version:   5,
				CreatedAt: now,
				UpdatedAt: now,
			},
			OrganizationID: orgID,
		},
		Name:   "Welcome Team",
		IsOpen: true,
	}

	m := StructToMap(rec)

	assert.Equal(t, rec.ID, m["id"])
	assert.Equal(t, 5, m["version"])
	assert.Equal(t, orgID, m["organization_id"])
	assert.Equal(t, "Welcome Team", m["name"])
	assert.Equal(t, true, m["is_open"])
}
