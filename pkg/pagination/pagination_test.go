package pagination

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"gotest.tools/assert"
)

type row struct {
	id        uuid.UUID
	createdAt time.Time
}

func TestCursorRoundTrip(t *testing.T) {
	want := Cursor{CreatedAt: time.Date(2025, 3, 1, 10, 0, 0, 123, time.UTC), ID: uuid.New()}
	got, err := ParseCursor(EncodeCursor(want))
	assert.NilError(t, err)
	assert.Assert(t, got.CreatedAt.Equal(want.CreatedAt))
	assert.Equal(t, got.ID, want.ID)
}

func TestParseCursorRejectsGarbage(t *testing.T) {
	_, err := ParseCursor("%%%")
	assert.ErrorContains(t, err, "decode cursor")

	cursor, err := ParseCursor("  ")
	assert.NilError(t, err)
	assert.Assert(t, cursor == nil)
}

func TestBuildTrimsBufferRow(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := make([]row, 0, 3)
	for i := 0; i < 3; i++ {
		rows = append(rows, row{id: uuid.New(), createdAt: base.Add(-time.Duration(i) * time.Hour)})
	}
	cursorOf := func(r row) Cursor { return Cursor{CreatedAt: r.createdAt, ID: r.id} }

	page := Build(rows, 2, cursorOf)
	assert.Equal(t, len(page.Items), 2)
	next, err := ParseCursor(page.NextCursor)
	assert.NilError(t, err)
	assert.Equal(t, next.ID, rows[1].id)

	last := Build(rows[:1], 2, cursorOf)
	assert.Equal(t, last.NextCursor, "")

	empty := Build[row](nil, 2, cursorOf)
	assert.Assert(t, empty.Items != nil)
}

func TestNormalizeLimit(t *testing.T) {
	assert.Equal(t, NormalizeLimit(0), DefaultLimit)
	assert.Equal(t, NormalizeLimit(500), MaxLimit)
	assert.Equal(t, LimitWithBuffer(10), 11)
}

func TestParseCursorRejectsWrongLength(t *testing.T) {
	_, err := ParseCursor("c2hvcnQ")
	assert.ErrorContains(t, err, "invalid cursor format")
}
