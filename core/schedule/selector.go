package schedule

import (
	"math/rand/v2"

	"github.com/trezcool/ekklesia/core"
	"github.com/trezcool/ekklesia/core/member"
)

// SelectMembers draws min(k, len(roster)) distinct members of roster, every subset of that size being
// equally likely, and returns their ids. roster is not modified.
func SelectMembers(roster []member.Member, k int, rnd *rand.Rand) []string {
	if k <= 0 || len(roster) == 0 {
		return []string{}
	}

	pool := make([]member.Member, len(roster))
	copy(pool, roster)

	// Fisher-Yates
	for i := len(pool) - 1; i > 0; i-- {
		j := rnd.IntN(i + 1)
		pool[i], pool[j] = pool[j], pool[i]
	}

	if k > len(pool) {
		k = len(pool)
	}
	ids := make([]string, 0, k)
	for _, m := range pool[:k] {
		ids = append(ids, m.ID)
	}
	return ids
}

// Generate builds an unsaved draft schedule for dept with req.Size members drawn from roster.
// A roster smaller than req.Size yields a schedule with every roster member.
func Generate(roster []member.Member, req GenerateRequest, dept core.Department, rnd *rand.Rand) Schedule {
	s := Schedule{
		Date:        req.Date,
		Title:       req.Title,
		Description: req.Description,
		MemberIDs:   SelectMembers(roster, req.Size, rnd),
		SongIDs:     []string{},
		IsPublished: false,
		Department:  dept,
	}
	if dept == core.DepartmentBibleSchool {
		s.ClassroomID = req.ClassroomID
	}
	return s
}
