package member

import (
	"net/mail"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/ekklesia/core"
)

// Member belongs to the roster of exactly one department.
type Member struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Email       string          `json:"email"`
	Phone       string          `json:"phone"`
	CategoryIDs []string        `json:"category_ids"` // voice / instrument tags
	IsActive    bool            `json:"is_active"`
	Department  core.Department `json:"department"`
	CreatedAt   time.Time       `json:"created_at"` // UTC
	UpdatedAt   time.Time       `json:"updated_at"` // UTC
}

// Address returns the mail address of m, if m has an email.
func (m Member) Address() (mail.Address, bool) {
	if m.Email == "" {
		return mail.Address{}, false
	}
	return mail.Address{Name: m.Name, Address: m.Email}, true
}

// NewMember contains information needed to create a new Member.
type NewMember struct {
	Name        string   `json:"name" validate:"required,notblank,max=120"`
	Email       string   `json:"email" validate:"omitempty,email"`
	Phone       string   `json:"phone" validate:"omitempty,max=30"`
	CategoryIDs []string `json:"category_ids" validate:"omitempty,dive,notblank,max=60"`
	IsActive    *bool    `json:"is_active"`
}

func (nm *NewMember) Validate(validate *validator.Validate) error {
	nm.Name = core.CleanString(nm.Name)
	nm.Email = core.CleanString(nm.Email, true /* lower */)
	nm.Phone = core.CleanString(nm.Phone)
	for i, c := range nm.CategoryIDs {
		nm.CategoryIDs[i] = core.CleanString(c, true /* lower */)
	}
	return validate.Struct(nm)
}

// UpdateMember defines what information may be provided to modify an existing Member.
// Empty fields keep their current value; category_ids, when present, replace the current set.
type UpdateMember struct {
	Name        string   `json:"name" validate:"omitempty,max=120"`
	Email       *string  `json:"email" validate:"omitempty,email"`
	Phone       *string  `json:"phone" validate:"omitempty,max=30"`
	CategoryIDs []string `json:"category_ids" validate:"omitempty,dive,notblank,max=60"`
	IsActive    *bool    `json:"is_active"`
}

func (um *UpdateMember) Validate(validate *validator.Validate) error {
	um.Name = core.CleanString(um.Name)
	if um.Email != nil {
		email := core.CleanString(*um.Email, true /* lower */)
		um.Email = &email
	}
	if um.Phone != nil {
		phone := core.CleanString(*um.Phone)
		um.Phone = &phone
	}
	for i, c := range um.CategoryIDs {
		um.CategoryIDs[i] = core.CleanString(c, true /* lower */)
	}
	return validate.Struct(um)
}

type QueryFilter struct {
	Department core.Department `query:"-"`
	Search     string          `query:"search"`
	IsActive   *bool           `query:"is_active"`
	Category   string          `query:"category"`
	IDs        []string        `query:"-"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Category = core.CleanString(qf.Category, true /* lower */)
}
