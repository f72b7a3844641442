package schedule_test

import (
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ekklesia/core"
	"github.com/trezcool/ekklesia/core/member"
	"github.com/trezcool/ekklesia/core/schedule"
	"github.com/trezcool/ekklesia/core/song"
	emailsvc "github.com/trezcool/ekklesia/services/email"
	sqlxrepos "github.com/trezcool/ekklesia/storage/database/sqlx"
	"github.com/trezcool/ekklesia/testutil"
)

type recorder struct {
	mu         sync.Mutex
	generated  [][2]int
	replicated int
	notified   []int
}

func (r *recorder) ScheduleGenerated(_ core.Department, requested, selected int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generated = append(r.generated, [2]int{requested, selected})
}

func (r *recorder) ScheduleReplicated(core.Department) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replicated++
}

func (r *recorder) SchedulePublished(_ core.Department, notified int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notified = append(r.notified, notified)
}

func TestService(t *testing.T) {
	db := testutil.PrepareDB(t)
	memberRepo := sqlxrepos.NewMemberRepository(db)
	songRepo := sqlxrepos.NewSongRepository(db)
	mailSvc := emailsvc.NewConsoleServiceMock(&core.Config{AppName: "Ekklesia"})
	rec := &recorder{}

	svc := schedule.NewService(schedule.Deps{
		Repo:     sqlxrepos.NewScheduleRepository(db),
		Members:  member.NewService(memberRepo),
		Songs:    song.NewService(songRepo),
		MailSvc:  mailSvc,
		Observer: rec,
		Rand:     rand.New(rand.NewPCG(1, 2)),
		AppName:  "Ekklesia",
	})

	worship := core.DepartmentWorship
	leader := core.Session{UserID: "leader", Roles: []string{core.DepartmentRole(worship)}}
	ana := testutil.CreateMember(t, memberRepo, worship, "Ana", "ana@test.cd", true)
	testutil.CreateMember(t, memberRepo, worship, "Beto", "", false)
	caio := testutil.CreateMember(t, memberRepo, worship, "Caio", "", true)
	sound := testutil.CreateMember(t, memberRepo, core.DepartmentSound, "Davi", "davi@test.cd", true)
	hymn := testutil.CreateSong(t, songRepo, "Grandioso És Tu", "")

	t.Run("permission denied", func(t *testing.T) {
		_, err := svc.Create(t.Context(), leader, core.DepartmentSound, schedule.NewSchedule{Title: "Culto", Date: core.NewDate(2024, 3, 10)})
		assert.Equal(t, core.ErrPermissionDenied, err)
	})

	t.Run("unknown references", func(t *testing.T) {
		_, err := svc.Create(t.Context(), leader, worship, schedule.NewSchedule{
			Title:     "Culto",
			Date:      core.NewDate(2024, 3, 10),
			MemberIDs: []string{ana.ID, sound.ID},
			SongIDs:   []string{hymn.ID, "5b0f7ac4-2f0a-4d7a-9d35-4f8f0c1d0e11"},
		})
		var verr *core.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Len(t, verr.Fields, 2)
	})

	var generated schedule.Schedule
	t.Run("generate", func(t *testing.T) {
		var err error
		generated, err = svc.Generate(t.Context(), leader, worship, schedule.GenerateRequest{Date: core.NewDate(2024, 3, 17), Title: "Louvor", Size: 5})
		require.NoError(t, err)
		assert.NotEmpty(t, generated.ID)
		assert.ElementsMatch(t, []string{ana.ID, caio.ID}, generated.MemberIDs)
		assert.False(t, generated.IsPublished)
		assert.Equal(t, [][2]int{{5, 2}}, rec.generated)
	})

	t.Run("replicate", func(t *testing.T) {
		replica, err := svc.Replicate(t.Context(), leader, worship, generated.ID, core.NewDate(2024, 3, 24))
		require.NoError(t, err)
		assert.NotEqual(t, generated.ID, replica.ID)
		assert.Equal(t, "Louvor (Replica de 17/03/2024)", replica.Title)
		assert.ElementsMatch(t, generated.MemberIDs, replica.MemberIDs)
		assert.Equal(t, 1, rec.replicated)

		_, err = svc.Replicate(t.Context(), leader, worship, "lol", core.NewDate(2024, 3, 24))
		assert.True(t, core.IsNotFound(err))
	})

	t.Run("publish", func(t *testing.T) {
		published, err := svc.Publish(t.Context(), leader, generated)
		require.NoError(t, err)
		assert.True(t, published.IsPublished)

		// members without email are skipped
		sent := mailSvc.Sent()
		require.Len(t, sent, 1)
		assert.Equal(t, "ana@test.cd", sent[0].To[0].Address)
		assert.Contains(t, sent[0].TextContent, "Olá Ana")
		assert.Equal(t, []int{1}, rec.notified)

		again, err := svc.Publish(t.Context(), leader, published)
		require.NoError(t, err)
		assert.True(t, again.IsPublished)
		assert.Len(t, mailSvc.Sent(), 1)

		unpublished, err := svc.Unpublish(t.Context(), leader, again)
		require.NoError(t, err)
		assert.False(t, unpublished.IsPublished)
	})

	t.Run("query", func(t *testing.T) {
		got, err := svc.Query(t.Context(), leader, schedule.QueryFilter{Department: worship, MemberID: caio.ID})
		require.NoError(t, err)
		assert.Len(t, got, 2)

		got, err = svc.Query(t.Context(), leader, schedule.QueryFilter{Department: worship, From: core.NewDate(2024, 3, 20)})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, core.NewDate(2024, 3, 24), got[0].Date)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, svc.Delete(t.Context(), leader, worship, generated.ID))
		_, err := svc.Get(t.Context(), leader, worship, generated.ID)
		assert.True(t, core.IsNotFound(err))
	})
}
