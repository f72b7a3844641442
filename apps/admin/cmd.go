package main

import (
	"errors"
	"fmt"
	"io"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/trezcool/ekklesia/core"
	"github.com/trezcool/ekklesia/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db      *sqlx.DB
	usrRepo user.Repository
	logger  core.Logger
	out     io.Writer
}

func (cli *commandLine) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "admin",
		Short:         "Ekklesia administration commands",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Usage()
			return errHelp
		},
	}
	root.SetOut(cli.out)
	root.SetErr(cli.out)

	migrateCmd := &cobra.Command{
		Use:   "migrate COMMAND [ARGS...]",
		Short: "Run a goose command (up, up-by-one, up-to, down, down-to, redo, reset, status, version) against the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				_ = cmd.Usage()
				return errHelp
			}
			return cli.migrate(cmd.Context(), args)
		},
	}

	var (
		name, uname, email string
		roles              []string
		isAdmin            bool
	)
	addUserCmd := &cobra.Command{
		Use:   "adduser",
		Short: "Create an operator, or reactivate and update an existing one. The password is prompted next.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if uname == "" && email == "" {
				_ = cmd.Usage()
				return errHelp
			}
			pwd, err := cli.promptPassword()
			if err != nil {
				return err
			}
			if pwd == "" {
				_ = cmd.Usage()
				return errHelp
			}
			if isAdmin {
				roles = append(roles, user.RoleAdmin)
			}
			return cli.addUser(cmd.Context(), name, uname, email, pwd, roles)
		},
	}
	addUserCmd.Flags().StringVar(&name, "name", "", "The user's name")
	addUserCmd.Flags().StringVar(&uname, "username", "", "The user's username")
	addUserCmd.Flags().StringVar(&email, "email", "", "The user's email")
	addUserCmd.Flags().StringSliceVar(&roles, "role", nil, fmt.Sprintf("A role to grant (repeatable), one of %v", user.AllRoles))
	addUserCmd.Flags().BoolVar(&isAdmin, "admin", false, "Grant the admin role")

	var resetUname string
	resetPasswordCmd := &cobra.Command{
		Use:   "resetpassword",
		Short: "Reset a user's password. The password is prompted next.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if resetUname == "" {
				_ = cmd.Usage()
				return errHelp
			}
			pwd, err := cli.promptPassword()
			if err != nil {
				return err
			}
			if pwd == "" {
				_ = cmd.Usage()
				return errHelp
			}
			return cli.resetPassword(cmd.Context(), resetUname, pwd)
		},
	}
	resetPasswordCmd.Flags().StringVar(&resetUname, "username", "", "The user's username or email")

	root.AddCommand(migrateCmd, addUserCmd, resetPasswordCmd)
	return root
}

func (cli *commandLine) promptPassword() (string, error) {
	_, _ = fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	_, _ = fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}

// run executes the command line args (program name included).
func (cli *commandLine) run(args []string) error {
	root := cli.rootCmd()
	if len(args) > 0 {
		args = args[1:]
	}
	root.SetArgs(args)
	return root.Execute()
}
