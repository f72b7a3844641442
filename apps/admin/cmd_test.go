package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ekklesia/core"
	"github.com/trezcool/ekklesia/core/user"
	logsvc "github.com/trezcool/ekklesia/services/logger"
	sqlxrepos "github.com/trezcool/ekklesia/storage/database/sqlx"
	"github.com/trezcool/ekklesia/testutil"
)

var usrRepo user.Repository

func setup(t *testing.T) *commandLine {
	// set up DB & repos
	db := testutil.PrepareDB(t)
	usrRepo = sqlxrepos.NewUserRepository(db)

	// start CLI
	return &commandLine{
		db:      db,
		usrRepo: usrRepo,
		out:     io.Discard,
	}
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func (tt cliTest) check(t *testing.T, err error) {
	t.Helper()
	switch {
	case tt.wantErr != nil:
		assert.Equal(t, tt.wantErr, err)
	case tt.wantErrStr != "":
		if assert.Error(t, err) {
			assert.Contains(t, err.Error(), tt.wantErrStr)
		}
	default:
		assert.NoError(t, err)
	}
}

func mockReadPassword(t *testing.T, pwd string) {
	orig := readPasswordFunc
	readPasswordFunc = func(fd int) ([]byte, error) {
		if pwd == "" {
			return nil, nil
		}
		return []byte(pwd), nil
	}
	t.Cleanup(func() { readPasswordFunc = orig })
}

func Test_commandLine_root(t *testing.T) {
	cli := setup(t)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErrStr: `unknown command "lol"`},
		{name: "unknown flag", args: []string{"adduser", "--lol"}, wantErrStr: "unknown flag: --lol"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(append([]string{"admin"}, tt.args...)))
		})
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	var gotCommand string
	orig := gooseRunFunc
	t.Cleanup(func() { gooseRunFunc = orig })
	gooseRunFunc = func(ctx context.Context, db *sqlx.DB, logger goose.Logger, command string, args ...string) error {
		gotCommand = command
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: `"lol": no such command`},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "create", args: []string{"migrate", "create", "offerings", "sql"}},
		{name: "fix", args: []string{"migrate", "fix"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotCommand = ""
			tt.check(t, cli.run(append([]string{"admin"}, tt.args...)))
			if len(tt.args) > 1 {
				assert.Equal(t, tt.args[1], gotCommand)
			}
		})
	}
}

func Test_commandLine_migrate_real(t *testing.T) {
	cli := setup(t)
	cli.logger = logsvc.NewRollbarLogger(io.Discard, &core.Config{TestMode: true})

	// PrepareDB already migrated everything
	require.NoError(t, cli.run([]string{"admin", "migrate", "down"}))
	require.NoError(t, cli.run([]string{"admin", "migrate", "up"}))

	_, err := usrRepo.QueryUsers(t.Context(), user.QueryFilter{})
	assert.NoError(t, err)
}

func Test_commandLine_addUser(t *testing.T) {
	cli := setup(t)
	existing := testutil.CreateUser(t, usrRepo, "Ana", "ana", "ana@test.cd", "pwd", []string{user.RoleWorship}, false)
	testutil.CreateUser(t, usrRepo, "Beto", "beto", "beto@test.cd", "pwd", nil, true)

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"adduser", "--username", "joao"}, wantErr: errHelp},
		{name: "unknown role", args: []string{"adduser", "--username", "joao", "--role", "lol"}, extra: extra{pwd: "lol"}, wantErrStr: `unknown role "lol"`},
		{
			name:    "email taken",
			args:    []string{"adduser", "--username", "ana", "--email", "beto@test.cd"},
			extra:   extra{pwd: "lol"},
			wantErr: user.ErrEmailExists,
		},
		{
			name:  "create",
			args:  []string{"adduser", "--name", "João", "--username", "Joao", "--email", "joao@test.cd", "--admin", "--role", user.RoleFinance},
			extra: extra{pwd: "lol"},
		},
		{
			name:  "update existing by email",
			args:  []string{"adduser", "--email", "ana@test.cd", "--role", user.RoleSound},
			extra: extra{pwd: "new"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pwd := ""
			if e, ok := tt.extra.(extra); ok {
				pwd = e.pwd
			}
			mockReadPassword(t, pwd)
			tt.check(t, cli.run(append([]string{"admin"}, tt.args...)))
		})
	}

	joao, err := usrRepo.GetUser(t.Context(), user.GetFilter{UsernameOrEmail: "joao"})
	require.NoError(t, err)
	assert.Equal(t, "João", joao.Name)
	assert.Equal(t, "joao@test.cd", joao.Email)
	assert.True(t, joao.IsActive)
	assert.ElementsMatch(t, []string{user.RoleFinance, user.RoleAdmin}, joao.Roles)
	assert.NoError(t, joao.CheckPassword("lol"))

	ana, err := usrRepo.GetUser(t.Context(), user.GetFilter{ID: existing.ID})
	require.NoError(t, err)
	assert.Equal(t, "Ana", ana.Name)
	assert.Equal(t, "ana", ana.Username)
	assert.True(t, ana.IsActive)
	assert.ElementsMatch(t, []string{user.RoleWorship, user.RoleSound}, ana.Roles)
	assert.NoError(t, ana.CheckPassword("new"))
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)

	usr := testutil.CreateUser(t, usrRepo, "User", "awe", "awe@test.cd", "mdr", nil, true)

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"resetpassword", "--username", "lol"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "--username", "lol"}, extra: extra{pwd: "lol"}, wantErr: user.ErrNotFound},
		{name: "reset with username", args: []string{"resetpassword", "--username", usr.Username}, extra: extra{pwd: "lol"}},
		{name: "reset with email", args: []string{"resetpassword", "--username", "AWE@test.cd"}, extra: extra{pwd: "lmao"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pwd := ""
			if e, ok := tt.extra.(extra); ok {
				pwd = e.pwd
			}
			mockReadPassword(t, pwd)

			err := cli.run(append([]string{"admin"}, tt.args...))
			tt.check(t, err)
			if err != nil {
				return
			}
			refreshedUsr, err := usrRepo.GetUser(t.Context(), user.GetFilter{ID: usr.ID})
			require.NoError(t, err)
			assert.False(t, bytes.Equal(refreshedUsr.PasswordHash, usr.PasswordHash), "failed to update new password")
			assert.NoError(t, refreshedUsr.CheckPassword(pwd))
		})
	}
}
