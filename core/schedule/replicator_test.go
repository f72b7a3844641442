package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/ekklesia/core"
)

func TestReplicate(t *testing.T) {
	src := Schedule{
		ID:          "s1",
		Title:       "Culto",
		Description: "Santa ceia",
		Date:        core.NewDate(2024, 1, 7),
		MemberIDs:   []string{"m1", "m2"},
		SongIDs:     []string{"s2", "s1"},
		IsPublished: true,
		Department:  core.DepartmentWorship,
	}

	got := Replicate(src, core.NewDate(2024, 1, 14))

	assert.Empty(t, got.ID)
	assert.Equal(t, "Culto (Replica de 07/01/2024)", got.Title)
	assert.Equal(t, "Santa ceia", got.Description)
	assert.Equal(t, core.NewDate(2024, 1, 14), got.Date)
	assert.Equal(t, []string{"m1", "m2"}, got.MemberIDs)
	assert.Equal(t, []string{"s2", "s1"}, got.SongIDs)
	assert.False(t, got.IsPublished)
	assert.Equal(t, core.DepartmentWorship, got.Department)

	// collections are not shared
	got.MemberIDs[0] = "m3"
	got.SongIDs[0] = "s3"
	assert.Equal(t, []string{"m1", "m2"}, src.MemberIDs)
	assert.Equal(t, []string{"s2", "s1"}, src.SongIDs)
	assert.True(t, src.IsPublished)
}
