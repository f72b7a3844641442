package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"

	"github.com/trezcool/ekklesia/core"
	"github.com/trezcool/ekklesia/core/finance"
	"github.com/trezcool/ekklesia/core/member"
	"github.com/trezcool/ekklesia/core/song"
	"github.com/trezcool/ekklesia/core/user"
	"github.com/trezcool/ekklesia/storage/database"
)

// PrepareDB returns a migrated sqlite database living in a temporary directory of t.
func PrepareDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := database.OpenSqlite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err = database.Migrate(context.Background(), db, goose.NopLogger()); err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	return db
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		ID:        uuid.NewString(),
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateMember(
	t *testing.T,
	repo member.Repository,
	dept core.Department,
	name, email string,
	isActive bool,
	categoryIDs ...string,
) member.Member {
	t.Helper()
	now := time.Now().UTC()
	m, err := repo.CreateMember(context.Background(), member.Member{
		ID:          uuid.NewString(),
		Name:        name,
		Email:       email,
		CategoryIDs: core.UniqueStrings(categoryIDs),
		IsActive:    isActive,
		Department:  dept,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("CreateMember() failed: %v", err)
	}
	return m
}

func CreateSong(t *testing.T, repo song.Repository, title, artist string) song.Song {
	t.Helper()
	now := time.Now().UTC()
	s, err := repo.CreateSong(context.Background(), song.Song{
		ID:        uuid.NewString(),
		Title:     title,
		Artist:    artist,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateSong() failed: %v", err)
	}
	return s
}

func CreateCategory(t *testing.T, repo finance.Repository, name string, kind finance.Kind) finance.Category {
	t.Helper()
	c, err := repo.CreateCategory(context.Background(), finance.Category{
		ID:        uuid.NewString(),
		Name:      name,
		Kind:      kind,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateCategory() failed: %v", err)
	}
	return c
}

// AdminSession is the session of an operator allowed to do anything.
func AdminSession() core.Session {
	return core.Session{UserID: uuid.NewString(), Username: "admin", Roles: []string{core.RoleAdmin}}
}
