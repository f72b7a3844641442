package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/ekklesia/core"
	"github.com/trezcool/ekklesia/core/user"
)

const userColumns = "id, name, username, email, is_active, password_hash, created_at, updated_at, last_login"

var (
	userRoles = assoc{table: "user_roles", ownerCol: "user_id", valueCol: "role"}

	userOrderings = map[string]string{
		"name":       "name",
		"username":   "username",
		"email":      "email",
		"created_at": "created_at",
		"last_login": "last_login",
	}
)

type userRow struct {
	ID           string      `db:"id"`
	Name         string      `db:"name"`
	Username     null.String `db:"username"`
	Email        null.String `db:"email"`
	IsActive     bool        `db:"is_active"`
	PasswordHash string      `db:"password_hash"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
	LastLogin    null.Time   `db:"last_login"`
}

type userRepository struct {
	db core.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db core.DB) *userRepository {
	return &userRepository{db: db}
}

func (repo userRepository) toRow(usr user.User) userRow {
	return userRow{
		ID:           usr.ID,
		Name:         usr.Name,
		Username:     nullable(usr.Username),
		Email:        nullable(usr.Email),
		IsActive:     usr.IsActive,
		PasswordHash: string(usr.PasswordHash),
		CreatedAt:    usr.CreatedAt.UTC(),
		UpdatedAt:    usr.UpdatedAt.UTC(),
		LastLogin:    null.NewTime(usr.LastLogin.UTC(), !usr.LastLogin.IsZero()),
	}
}

func (repo userRepository) toModel(row userRow, roles []string) user.User {
	usr := user.User{
		ID:           row.ID,
		Name:         row.Name,
		Username:     row.Username.String,
		Email:        row.Email.String,
		IsActive:     row.IsActive,
		Roles:        nonNil(roles),
		PasswordHash: []byte(row.PasswordHash),
		CreatedAt:    row.CreatedAt.UTC(),
		UpdatedAt:    row.UpdatedAt.UTC(),
	}
	if row.LastLogin.Valid {
		usr.LastLogin = row.LastLogin.Time.UTC()
	}
	return usr
}

func (repo userRepository) toModels(ctx context.Context, exec core.DBExecutor, rows []userRow) ([]user.User, error) {
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	roles, err := userRoles.load(ctx, exec, ids)
	if err != nil {
		return nil, err
	}
	users := make([]user.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, repo.toModel(r, roles[r.ID]))
	}
	return users, nil
}

func (repo userRepository) CheckUniqueness(ctx context.Context, username, email string, excludedUsers ...user.User) error {
	var w where
	switch {
	case username != "" && email != "":
		w.add("(username = ? OR email = ?)", username, email)
	case username != "":
		w.add("username = ?", username)
	case email != "":
		w.add("email = ?", email)
	default:
		return nil
	}
	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, u := range excludedUsers {
			ids = append(ids, u.ID)
		}
		w.add("id NOT IN (?)", ids)
	}

	var rows []userRow
	if err := selectContext(ctx, repo.db, &rows, "SELECT "+userColumns+" FROM users"+w.String(), w.args...); err != nil {
		return errors.Wrap(err, "checking user uniqueness")
	}
	for _, r := range rows {
		if username != "" && r.Username.String == username {
			return user.ErrUsernameExists
		}
	}
	if len(rows) > 0 {
		return user.ErrEmailExists
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	if usr.ID == "" {
		usr.ID = uuid.NewString()
	}
	row := repo.toRow(usr)
	err := core.RunInTx(ctx, repo.db, func(tx core.DBExecutor) error {
		q := "INSERT INTO users (" + userColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)"
		_, err := execContext(ctx, tx, q,
			row.ID, row.Name, row.Username, row.Email, row.IsActive, row.PasswordHash, row.CreatedAt, row.UpdatedAt, row.LastLogin)
		if err != nil {
			return errors.Wrap(err, "inserting user")
		}
		return userRoles.replace(ctx, tx, row.ID, core.UniqueStrings(usr.Roles))
	})
	if err != nil {
		return user.User{}, err
	}
	return repo.toModel(row, core.UniqueStrings(usr.Roles)), nil
}

func (repo userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	var w where
	switch {
	case filter.ID != "":
		if _, err := uuid.Parse(filter.ID); err != nil {
			return user.User{}, user.ErrNotFound
		}
		w.add("id = ?", filter.ID)
	case filter.UsernameOrEmail != "":
		w.add("(username = ? OR email = ?)", filter.UsernameOrEmail, filter.UsernameOrEmail)
	default:
		return user.User{}, user.ErrNotFound
	}

	var row userRow
	if err := getContext(ctx, repo.db, &row, "SELECT "+userColumns+" FROM users"+w.String(), w.args...); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "getting user")
	}
	users, err := repo.toModels(ctx, repo.db, []userRow{row})
	if err != nil {
		return user.User{}, err
	}
	return users[0], nil
}

func (repo userRepository) QueryUsers(ctx context.Context, filter user.QueryFilter, ordering ...core.DBOrdering) ([]user.User, error) {
	var w where
	w.search(filter.Search, "name", "username", "email")
	if len(filter.Roles) > 0 {
		w.add("id IN (SELECT user_id FROM user_roles WHERE role IN (?))", filter.Roles)
	}
	if filter.IsActive != nil {
		w.add("is_active = ?", *filter.IsActive)
	}

	q := "SELECT " + userColumns + " FROM users" + w.String() +
		core.OrderBy(ordering, userOrderings, core.DBOrdering{Field: "name", Ascending: true})
	var rows []userRow
	if err := selectContext(ctx, repo.db, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	return repo.toModels(ctx, repo.db, rows)
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	row := repo.toRow(usr)
	roles := core.UniqueStrings(usr.Roles)
	err := core.RunInTx(ctx, repo.db, func(tx core.DBExecutor) error {
		q := `UPDATE users SET name = ?, username = ?, email = ?, is_active = ?, password_hash = ?,
			updated_at = ?, last_login = ? WHERE id = ?`
		err := execOne(ctx, tx, user.ErrNotFound, q,
			row.Name, row.Username, row.Email, row.IsActive, row.PasswordHash, row.UpdatedAt, row.LastLogin, row.ID)
		if err != nil {
			return err
		}
		return userRoles.replace(ctx, tx, row.ID, roles)
	})
	if err != nil {
		return user.User{}, err
	}
	return repo.toModel(row, roles), nil
}

func (repo userRepository) DeleteUsers(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := execContext(ctx, repo.db, "DELETE FROM users WHERE id IN (?)", ids)
	return errors.Wrap(err, "deleting users")
}
