package sqlxrepos

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ekklesia/core"
	"github.com/trezcool/ekklesia/core/finance"
	"github.com/trezcool/ekklesia/core/member"
	"github.com/trezcool/ekklesia/core/schedule"
	"github.com/trezcool/ekklesia/core/user"
	"github.com/trezcool/ekklesia/testutil"
)

func Test_where(t *testing.T) {
	var w where
	assert.Equal(t, "", w.String())

	w.add("department = ?", "sound")
	w.search("", "name")
	w.search("Ana", "name", "email")
	assert.Equal(t, " WHERE department = ? AND (LOWER(name) LIKE ? OR LOWER(email) LIKE ?)", w.String())
	assert.Equal(t, []interface{}{"sound", "%ana%", "%ana%"}, w.args)
}

func Test_bind(t *testing.T) {
	db := testutil.PrepareDB(t)
	q, args, err := bind(db, "SELECT id FROM users WHERE id IN (?) AND is_active = ?", []string{"a", "b"}, true)
	require.NoError(t, err)
	assert.Equal(t, "SELECT id FROM users WHERE id IN (?, ?) AND is_active = ?", q)
	assert.Equal(t, []interface{}{"a", "b", true}, args)
}

func Test_checkConn(t *testing.T) {
	db := testutil.PrepareDB(t)
	repo := NewUserRepository(db)

	_, err := repo.GetUser(t.Context(), user.GetFilter{UsernameOrEmail: "lol"})
	assert.Equal(t, user.ErrNotFound, err)

	require.NoError(t, db.Close())
	_, err = repo.GetUser(t.Context(), user.GetFilter{UsernameOrEmail: "lol"})
	assert.True(t, core.IsShutdown(err), "err = %v", err)

	_, err = repo.QueryUsers(t.Context(), user.QueryFilter{})
	assert.True(t, core.IsShutdown(err), "err = %v", err)
}

func Test_userRepository(t *testing.T) {
	db := testutil.PrepareDB(t)
	repo := NewUserRepository(db)
	ctx := t.Context()

	ana := testutil.CreateUser(t, repo, "Ana", "ana", "ana@test.cd", "pwd", []string{user.RoleWorship, user.RoleSound, user.RoleWorship}, true)
	beto := testutil.CreateUser(t, repo, "Beto", "beto", "", "", []string{user.RoleFinance}, false)

	t.Run("get", func(t *testing.T) {
		got, err := repo.GetUser(ctx, user.GetFilter{UsernameOrEmail: "ana@test.cd"})
		require.NoError(t, err)
		assert.Equal(t, ana.ID, got.ID)
		assert.ElementsMatch(t, []string{user.RoleWorship, user.RoleSound}, got.Roles)
		assert.NoError(t, got.CheckPassword("pwd"))

		_, err = repo.GetUser(ctx, user.GetFilter{ID: "lol"})
		assert.Equal(t, user.ErrNotFound, err)
		_, err = repo.GetUser(ctx, user.GetFilter{})
		assert.Equal(t, user.ErrNotFound, err)
	})

	t.Run("uniqueness", func(t *testing.T) {
		assert.Equal(t, user.ErrUsernameExists, repo.CheckUniqueness(ctx, "ana", ""))
		assert.Equal(t, user.ErrEmailExists, repo.CheckUniqueness(ctx, "other", "ana@test.cd"))
		assert.NoError(t, repo.CheckUniqueness(ctx, "ana", "ana@test.cd", ana))
		assert.NoError(t, repo.CheckUniqueness(ctx, "", ""))
	})

	t.Run("query", func(t *testing.T) {
		active := true
		tests := []struct {
			name   string
			filter user.QueryFilter
			want   []string
		}{
			{name: "all", want: []string{ana.ID, beto.ID}},
			{name: "search", filter: user.QueryFilter{Search: "BET"}, want: []string{beto.ID}},
			{name: "roles", filter: user.QueryFilter{Roles: []string{user.RoleSound, user.RoleAdmin}}, want: []string{ana.ID}},
			{name: "active", filter: user.QueryFilter{IsActive: &active}, want: []string{ana.ID}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got, err := repo.QueryUsers(ctx, tt.filter)
				require.NoError(t, err)
				ids := make([]string, 0, len(got))
				for _, u := range got {
					ids = append(ids, u.ID)
				}
				assert.Equal(t, tt.want, ids)
			})
		}
	})

	t.Run("update roles", func(t *testing.T) {
		beto.Roles = []string{user.RoleAdmin}
		beto.IsActive = true
		_, err := repo.UpdateUser(ctx, beto)
		require.NoError(t, err)

		got, err := repo.GetUser(ctx, user.GetFilter{ID: beto.ID})
		require.NoError(t, err)
		assert.Equal(t, []string{user.RoleAdmin}, got.Roles)
		assert.True(t, got.IsActive)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.DeleteUsers(ctx, ana.ID, beto.ID))
		got, err := repo.QueryUsers(ctx, user.QueryFilter{})
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func Test_memberRepository(t *testing.T) {
	db := testutil.PrepareDB(t)
	repo := NewMemberRepository(db)
	ctx := t.Context()

	ana := testutil.CreateMember(t, repo, core.DepartmentWorship, "Ana", "ana@test.cd", true, "soprano", "violao")
	testutil.CreateMember(t, repo, core.DepartmentWorship, "Beto", "", true, "tenor")
	davi := testutil.CreateMember(t, repo, core.DepartmentSound, "Davi", "", true)

	got, err := repo.QueryMembers(ctx, member.QueryFilter{Department: core.DepartmentWorship, Category: "violao"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, ana.ID, got[0].ID)
	assert.ElementsMatch(t, []string{"soprano", "violao"}, got[0].CategoryIDs)

	got, err = repo.QueryMembers(ctx, member.QueryFilter{Department: core.DepartmentWorship, IDs: []string{}})
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = repo.QueryMembers(ctx, member.QueryFilter{Department: core.DepartmentWorship, IDs: []string{ana.ID, davi.ID}})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	// members are scoped by department
	_, err = repo.GetMember(ctx, core.DepartmentWorship, davi.ID)
	assert.True(t, core.IsNotFound(err))
	assert.True(t, core.IsNotFound(repo.DeleteMember(ctx, core.DepartmentWorship, davi.ID)))

	ana.CategoryIDs = []string{"contralto"}
	_, err = repo.UpdateMember(ctx, ana)
	require.NoError(t, err)
	m, err := repo.GetMember(ctx, core.DepartmentWorship, ana.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"contralto"}, m.CategoryIDs)
}

func Test_scheduleRepository(t *testing.T) {
	db := testutil.PrepareDB(t)
	members := NewMemberRepository(db)
	songs := NewSongRepository(db)
	repo := NewScheduleRepository(db)
	ctx := t.Context()

	ana := testutil.CreateMember(t, members, core.DepartmentWorship, "Ana", "", true)
	s1 := testutil.CreateSong(t, songs, "Sublime Graça", "")
	s2 := testutil.CreateSong(t, songs, "Castelo Forte", "Lutero")
	now := time.Now().UTC()

	s, err := repo.CreateSchedule(ctx, schedule.Schedule{
		ID:         uuid.NewString(),
		Date:       core.NewDate(2024, 3, 10),
		Title:      "Culto",
		MemberIDs:  []string{ana.ID},
		SongIDs:    []string{s2.ID, s1.ID},
		Department: core.DepartmentWorship,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	require.NoError(t, err)

	got, err := repo.GetSchedule(ctx, core.DepartmentWorship, s.ID)
	require.NoError(t, err)
	assert.Equal(t, core.NewDate(2024, 3, 10), got.Date)
	assert.Equal(t, []string{ana.ID}, got.MemberIDs)
	assert.Equal(t, []string{s2.ID, s1.ID}, got.SongIDs)

	got.SongIDs = []string{s1.ID}
	got.MemberIDs = []string{}
	got.IsPublished = true
	_, err = repo.UpdateSchedule(ctx, got)
	require.NoError(t, err)

	published := true
	all, err := repo.QuerySchedules(ctx, schedule.QueryFilter{Department: core.DepartmentWorship, IsPublished: &published})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, []string{s1.ID}, all[0].SongIDs)
	assert.Empty(t, all[0].MemberIDs)

	_, err = repo.GetSchedule(ctx, core.DepartmentSound, s.ID)
	assert.True(t, core.IsNotFound(err))
	require.NoError(t, repo.DeleteSchedule(ctx, core.DepartmentWorship, s.ID))
}

func Test_financeRepository(t *testing.T) {
	db := testutil.PrepareDB(t)
	repo := NewFinanceRepository(db)
	ctx := t.Context()

	tithes := testutil.CreateCategory(t, repo, "Dízimos", finance.KindIncome)
	now := time.Now().UTC()
	tx, err := repo.CreateTransaction(ctx, finance.Transaction{
		ID:          uuid.NewString(),
		Kind:        finance.KindIncome,
		Description: "Dízimo",
		Amount:      decimal.RequireFromString("1234.56"),
		Date:        core.NewDate(2024, 1, 7),
		CategoryID:  tithes.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	require.NoError(t, err)

	got, err := repo.GetTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("1234.56").Equal(got.Amount))
	assert.Equal(t, core.NewDate(2024, 1, 7), got.Date)
	assert.True(t, got.PaymentDate.IsZero())
	assert.Empty(t, got.BankAccountID)

	txs, err := repo.QueryTransactions(ctx, finance.QueryFilter{From: core.NewDate(2024, 1, 7), To: core.NewDate(2024, 1, 7)})
	require.NoError(t, err)
	assert.Len(t, txs, 1)

	txs, err = repo.QueryTransactions(ctx, finance.QueryFilter{From: core.NewDate(2024, 1, 8)})
	require.NoError(t, err)
	assert.Empty(t, txs)

	_, err = repo.GetTransaction(ctx, "lol")
	assert.True(t, core.IsNotFound(err))
}
