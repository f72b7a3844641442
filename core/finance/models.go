package finance

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/trezcool/ekklesia/core"
)

type Kind string

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
)

func (k Kind) Valid() bool {
	return k == KindIncome || k == KindExpense
}

func ParseKind(s string) (Kind, error) {
	k := Kind(core.CleanString(s, true /* lower */))
	if !k.Valid() {
		return "", errUnknownKind(s)
	}
	return k, nil
}

type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Kind      Kind      `json:"kind"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

type BankAccount struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Bank      string    `json:"bank"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

// Transaction is an income or an expense of the ledger.
// Date is the transaction date of an income and the due date of an expense.
type Transaction struct {
	ID            string          `json:"id"`
	Kind          Kind            `json:"kind"`
	Description   string          `json:"description"`
	Amount        decimal.Decimal `json:"amount"`
	Date          core.Date       `json:"date"`
	CategoryID    string          `json:"category_id"`
	BankAccountID string          `json:"bank_account_id"`
	IsPaid        bool            `json:"is_paid"`
	PaymentDate   core.Date       `json:"payment_date"`
	Notes         string          `json:"notes"`
	CreatedAt     time.Time       `json:"created_at"` // UTC
	UpdatedAt     time.Time       `json:"updated_at"` // UTC
}

type NewCategory struct {
	Name string `json:"name" validate:"required,notblank,max=80"`
	Kind Kind   `json:"kind" validate:"required,txkind"`
}

func (nc *NewCategory) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	nc.Kind = Kind(core.CleanString(string(nc.Kind), true /* lower */))
	return validate.Struct(nc)
}

// UpdateCategory cannot change the kind: existing transactions rely on it.
type UpdateCategory struct {
	Name     string `json:"name" validate:"omitempty,max=80"`
	IsActive *bool  `json:"is_active"`
}

func (uc *UpdateCategory) Validate(validate *validator.Validate) error {
	uc.Name = core.CleanString(uc.Name)
	return validate.Struct(uc)
}

type NewBankAccount struct {
	Name string `json:"name" validate:"required,notblank,max=80"`
	Bank string `json:"bank" validate:"omitempty,max=80"`
}

func (nb *NewBankAccount) Validate(validate *validator.Validate) error {
	nb.Name = core.CleanString(nb.Name)
	nb.Bank = core.CleanString(nb.Bank)
	return validate.Struct(nb)
}

type UpdateBankAccount struct {
	Name     string  `json:"name" validate:"omitempty,max=80"`
	Bank     *string `json:"bank" validate:"omitempty,max=80"`
	IsActive *bool   `json:"is_active"`
}

func (ub *UpdateBankAccount) Validate(validate *validator.Validate) error {
	ub.Name = core.CleanString(ub.Name)
	if ub.Bank != nil {
		bank := core.CleanString(*ub.Bank)
		ub.Bank = &bank
	}
	return validate.Struct(ub)
}

// NewTransaction contains information needed to create (or fully replace) a Transaction.
type NewTransaction struct {
	Kind          Kind            `json:"kind" validate:"required,txkind"`
	Description   string          `json:"description" validate:"required,notblank,max=200"`
	Amount        decimal.Decimal `json:"amount"`
	Date          core.Date       `json:"date" validate:"required"`
	CategoryID    string          `json:"category_id" validate:"required,uuid"`
	BankAccountID string          `json:"bank_account_id" validate:"omitempty,uuid"`
	IsPaid        bool            `json:"is_paid"`
	PaymentDate   core.Date       `json:"payment_date"`
	Notes         string          `json:"notes" validate:"omitempty,max=2000"`
}

func (nt *NewTransaction) Validate(validate *validator.Validate) error {
	nt.Kind = Kind(core.CleanString(string(nt.Kind), true /* lower */))
	nt.Description = core.CleanString(nt.Description)
	nt.Notes = core.CleanString(nt.Notes)
	if err := validate.Struct(nt); err != nil {
		return err
	}
	return checkAmount(nt.Amount)
}

// PayRequest marks a transaction as paid. PaymentDate defaults to today.
type PayRequest struct {
	PaymentDate   core.Date `json:"payment_date"`
	BankAccountID string    `json:"bank_account_id" validate:"omitempty,uuid"`
}

func (pr *PayRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(pr)
}

type QueryFilter struct {
	Kind          Kind      `query:"kind"`
	From          core.Date `query:"from"`
	To            core.Date `query:"to"`
	CategoryID    string    `query:"category_id"`
	BankAccountID string    `query:"bank_account_id"`
	IsPaid        *bool     `query:"is_paid"`
}

func (qf *QueryFilter) Clean() {
	qf.Kind = Kind(core.CleanString(string(qf.Kind), true /* lower */))
	qf.CategoryID = core.CleanString(qf.CategoryID)
	qf.BankAccountID = core.CleanString(qf.BankAccountID)
}

type CategoryFilter struct {
	Kind     Kind  `query:"kind"`
	IsActive *bool `query:"is_active"`
}
