package main

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/ekklesia/core"
	"github.com/trezcool/ekklesia/core/user"
)

// addUser reactivates and updates the user matching uname or email, or creates it.
// Given roles are added to the ones the user already has.
func (cli *commandLine) addUser(ctx context.Context, name, uname, email, pwd string, roles []string) error {
	name = core.CleanString(name)
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)

	for _, role := range roles {
		if !slices.Contains(user.AllRoles, role) {
			return errors.Errorf("unknown role %q", role)
		}
	}

	usr, err := cli.findUser(ctx, uname, email)
	exists := err == nil
	if err != nil && err != user.ErrNotFound {
		return err
	}

	now := time.Now().UTC()
	if !exists {
		usr = user.User{ID: uuid.NewString(), CreatedAt: now}
	}
	if name != "" {
		usr.Name = name
	}
	if usr.Name == "" {
		usr.Name = uname
	}
	if uname != "" {
		usr.Username = uname
	}
	if email != "" {
		usr.Email = email
	}
	for _, role := range roles {
		if !slices.Contains(usr.Roles, role) {
			usr.Roles = append(usr.Roles, role)
		}
	}
	usr.IsActive = true
	usr.UpdatedAt = now
	if err = usr.SetPassword(pwd); err != nil {
		return err
	}

	if exists {
		if err = cli.usrRepo.CheckUniqueness(ctx, usr.Username, usr.Email, usr); err != nil {
			return err
		}
		_, err = cli.usrRepo.UpdateUser(ctx, usr)
		return errors.Wrap(err, "updating user")
	}
	if err = cli.usrRepo.CheckUniqueness(ctx, usr.Username, usr.Email); err != nil {
		return err
	}
	_, err = cli.usrRepo.CreateUser(ctx, usr)
	return errors.Wrap(err, "creating user")
}

func (cli *commandLine) findUser(ctx context.Context, uname, email string) (user.User, error) {
	for _, key := range []string{uname, email} {
		if key == "" {
			continue
		}
		usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{UsernameOrEmail: key})
		if err != user.ErrNotFound {
			return usr, err
		}
	}
	return user.User{}, user.ErrNotFound
}
