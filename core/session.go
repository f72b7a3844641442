package core

import (
	"strings"

	"github.com/pkg/errors"
)

type Department string

const (
	DepartmentWorship     Department = "worship"
	DepartmentBibleSchool Department = "bible_school"
	DepartmentSound       Department = "sound"
)

var Departments = []Department{DepartmentWorship, DepartmentBibleSchool, DepartmentSound}

func ParseDepartment(s string) (Department, error) {
	d := Department(CleanString(s, true /* lower */))
	if !d.Valid() {
		return "", errors.Errorf("unknown department %q", s)
	}
	return d, nil
}

func (d Department) Valid() bool {
	for _, dep := range Departments {
		if d == dep {
			return true
		}
	}
	return false
}

// Roles
const (
	RoleAdmin            = "admin:"
	RoleFinance          = "finance:"
	RoleDepartmentPrefix = "department:"
)

// DepartmentRole is the role granting management of d's members and schedules.
func DepartmentRole(d Department) string {
	return RoleDepartmentPrefix + string(d)
}

// Session identifies the operator performing an operation.
// It is built by the API from the auth token and passed down explicitly.
type Session struct {
	UserID   string
	Username string
	Email    string
	Roles    []string
}

func (s Session) HasRole(role string) bool {
	for _, r := range s.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (s Session) IsAdmin() bool {
	for _, r := range s.Roles {
		if strings.HasPrefix(r, RoleAdmin) {
			return true
		}
	}
	return false
}

func (s Session) CanManage(d Department) bool {
	return s.IsAdmin() || s.HasRole(DepartmentRole(d))
}

func (s Session) CanManageFinance() bool {
	return s.IsAdmin() || s.HasRole(RoleFinance)
}
