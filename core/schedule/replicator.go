package schedule

import (
	"fmt"

	"github.com/trezcool/ekklesia/core"
)

const replicaTitleFmt = "%s (Replica de %s)"

// Replicate returns an unsaved, unpublished copy of src moved to date.
// The title records the date of src; members & songs are copied, never shared.
func Replicate(src Schedule, date core.Date) Schedule {
	memberIDs := make([]string, len(src.MemberIDs))
	copy(memberIDs, src.MemberIDs)
	songIDs := make([]string, len(src.SongIDs))
	copy(songIDs, src.SongIDs)

	return Schedule{
		Date:        date,
		Title:       fmt.Sprintf(replicaTitleFmt, src.Title, src.Date.Display()),
		Description: src.Description,
		MemberIDs:   memberIDs,
		SongIDs:     songIDs,
		IsPublished: false,
		Department:  src.Department,
		ClassroomID: src.ClassroomID,
	}
}
