package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type stamps struct {
	CreatedAt time.Time `db:"created_at"`
}

type row struct {
	ID     string `db:"id"`
	Name   string `db:"name"`
	Secret string `db:"-"`
	Note   string
	stamps
}

func TestColumns_FlattensEmbedded(t *testing.T) {
	assert.Equal(t, []string{"id", "name", "created_at"}, Columns[row]())
}

func TestValues_AlignedWithColumns(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	r := &row{ID: "r1", Name: "admin", Secret: "x", stamps: stamps{CreatedAt: now}}

	assert.Equal(t, []any{"r1", "admin", now}, Values(r))
	assert.Nil(t, Values("not a struct"))
}
