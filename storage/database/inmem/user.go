// Package inmemdb holds repositories backed by process memory, for tests and demos.
package inmemdb

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/trezcool/ekklesia/core"
	"github.com/trezcool/ekklesia/core/user"
)

type userRepository struct {
	mu    sync.RWMutex
	table map[string]user.User
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository() *userRepository {
	return &userRepository{table: make(map[string]user.User)}
}

// query returns copies of all users, ordered by name.
func (repo *userRepository) query() []user.User {
	users := make([]user.User, 0, len(repo.table))
	for _, u := range repo.table {
		u.Roles = slices.Clone(u.Roles)
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Name < users[j].Name })
	return users
}

func (repo *userRepository) CheckUniqueness(_ context.Context, username, email string, excludedUsers ...user.User) error {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	for _, usr := range repo.query() {
		if isExcluded(usr, excludedUsers) {
			continue
		}
		if username != "" && usr.Username == username {
			return user.ErrUsernameExists
		}
		if email != "" && usr.Email == email {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	if usr.ID == "" {
		usr.ID = uuid.NewString()
	}
	usr.Roles = core.UniqueStrings(usr.Roles)
	repo.table[usr.ID] = usr
	return usr, nil
}

func (repo *userRepository) GetUser(_ context.Context, filter user.GetFilter) (user.User, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	for _, usr := range repo.query() {
		switch {
		case filter.ID != "":
			if usr.ID == filter.ID {
				return usr, nil
			}
		case filter.UsernameOrEmail != "":
			if usr.Username == filter.UsernameOrEmail || usr.Email == filter.UsernameOrEmail {
				return usr, nil
			}
		}
	}
	return user.User{}, user.ErrNotFound
}

// QueryUsers ignores ordering; users come sorted by name.
func (repo *userRepository) QueryUsers(_ context.Context, filter user.QueryFilter, _ ...core.DBOrdering) ([]user.User, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	search := strings.ToLower(filter.Search)
	users := make([]user.User, 0)
	for _, usr := range repo.query() {
		if search != "" && !strings.Contains(strings.ToLower(usr.Name+" "+usr.Username+" "+usr.Email), search) {
			continue
		}
		if filter.IsActive != nil && usr.IsActive != *filter.IsActive {
			continue
		}
		if len(filter.Roles) > 0 && !slices.ContainsFunc(usr.Roles, func(r string) bool { return slices.Contains(filter.Roles, r) }) {
			continue
		}
		users = append(users, usr)
	}
	return users, nil
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	if _, ok := repo.table[usr.ID]; !ok {
		return user.User{}, user.ErrNotFound
	}
	usr.Roles = core.UniqueStrings(usr.Roles)
	repo.table[usr.ID] = usr
	return usr, nil
}

func (repo *userRepository) DeleteUsers(_ context.Context, ids ...string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	for _, id := range ids {
		delete(repo.table, id)
	}
	return nil
}

func isExcluded(usr user.User, excludedUsers []user.User) bool {
	for _, excl := range excludedUsers {
		if excl.ID == usr.ID {
			return true
		}
	}
	return false
}
