package finance

import (
	"context"
	"time"

	"github.com/go-playground/locales"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/ekklesia/core"
)

var (
	ErrCategoryNotFound    = core.NewNotFoundError("category")
	ErrBankAccountNotFound = core.NewNotFoundError("bank account")
	ErrTransactionNotFound = core.NewNotFoundError("transaction")

	errCategoryInUse = "category has transactions; deactivate it instead"
	errAccountInUse  = "bank account has transactions; deactivate it instead"
)

type (
	Repository interface {
		CreateCategory(ctx context.Context, c Category) (Category, error)
		GetCategory(ctx context.Context, id string) (Category, error)
		QueryCategories(ctx context.Context, filter CategoryFilter) ([]Category, error)
		UpdateCategory(ctx context.Context, c Category) (Category, error)
		DeleteCategory(ctx context.Context, id string) error

		CreateBankAccount(ctx context.Context, a BankAccount) (BankAccount, error)
		GetBankAccount(ctx context.Context, id string) (BankAccount, error)
		QueryBankAccounts(ctx context.Context) ([]BankAccount, error)
		UpdateBankAccount(ctx context.Context, a BankAccount) (BankAccount, error)
		DeleteBankAccount(ctx context.Context, id string) error

		CreateTransaction(ctx context.Context, tx Transaction) (Transaction, error)
		GetTransaction(ctx context.Context, id string) (Transaction, error)
		// QueryTransactions applies AND operation on available QueryFilter fields; From & To are inclusive.
		QueryTransactions(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Transaction, error)
		UpdateTransaction(ctx context.Context, tx Transaction) (Transaction, error)
		DeleteTransaction(ctx context.Context, id string) error
	}

	Report struct {
		Summary           Summary         `json:"summary"`
		IncomeByCategory  []CategoryTotal `json:"income_by_category"`
		ExpenseByCategory []CategoryTotal `json:"expense_by_category"`
		Monthly           []MonthTotal    `json:"monthly"`
	}

	Service struct {
		repo       Repository
		translator locales.Translator // month labels
		now        func() time.Time
	}
)

func NewService(repo Repository, translator locales.Translator) *Service {
	return &Service{repo: repo, translator: translator, now: core.NowFunc}
}

func (svc *Service) today() core.Date {
	return core.DateOf(svc.now().UTC())
}

// Categories

func (svc *Service) CreateCategory(ctx context.Context, sess core.Session, nc NewCategory) (Category, error) {
	if !sess.CanManageFinance() {
		return Category{}, core.ErrPermissionDenied
	}
	c := Category{
		ID:        uuid.NewString(),
		Name:      nc.Name,
		Kind:      nc.Kind,
		IsActive:  true,
		CreatedAt: svc.now().UTC(),
	}
	c, err := svc.repo.CreateCategory(ctx, c)
	return c, errors.Wrap(err, "creating category")
}

func (svc *Service) GetCategory(ctx context.Context, sess core.Session, id string) (Category, error) {
	if !sess.CanManageFinance() {
		return Category{}, core.ErrPermissionDenied
	}
	return svc.repo.GetCategory(ctx, id)
}

func (svc *Service) QueryCategories(ctx context.Context, sess core.Session, filter CategoryFilter) ([]Category, error) {
	if !sess.CanManageFinance() {
		return nil, core.ErrPermissionDenied
	}
	return svc.repo.QueryCategories(ctx, filter)
}

func (svc *Service) UpdateCategory(ctx context.Context, sess core.Session, c Category, uc UpdateCategory) (Category, error) {
	if !sess.CanManageFinance() {
		return Category{}, core.ErrPermissionDenied
	}
	if uc.Name != "" {
		c.Name = uc.Name
	}
	if uc.IsActive != nil {
		c.IsActive = *uc.IsActive
	}
	c, err := svc.repo.UpdateCategory(ctx, c)
	return c, errors.Wrap(err, "updating category")
}

func (svc *Service) DeleteCategory(ctx context.Context, sess core.Session, id string) error {
	if !sess.CanManageFinance() {
		return core.ErrPermissionDenied
	}
	txs, err := svc.repo.QueryTransactions(ctx, QueryFilter{CategoryID: id})
	if err != nil {
		return errors.Wrap(err, "querying transactions")
	}
	if len(txs) > 0 {
		return core.NewValidationError(errors.New(errCategoryInUse))
	}
	return svc.repo.DeleteCategory(ctx, id)
}

// Bank accounts

func (svc *Service) CreateBankAccount(ctx context.Context, sess core.Session, nb NewBankAccount) (BankAccount, error) {
	if !sess.CanManageFinance() {
		return BankAccount{}, core.ErrPermissionDenied
	}
	a := BankAccount{
		ID:        uuid.NewString(),
		Name:      nb.Name,
		Bank:      nb.Bank,
		IsActive:  true,
		CreatedAt: svc.now().UTC(),
	}
	a, err := svc.repo.CreateBankAccount(ctx, a)
	return a, errors.Wrap(err, "creating bank account")
}

func (svc *Service) GetBankAccount(ctx context.Context, sess core.Session, id string) (BankAccount, error) {
	if !sess.CanManageFinance() {
		return BankAccount{}, core.ErrPermissionDenied
	}
	return svc.repo.GetBankAccount(ctx, id)
}

func (svc *Service) QueryBankAccounts(ctx context.Context, sess core.Session) ([]BankAccount, error) {
	if !sess.CanManageFinance() {
		return nil, core.ErrPermissionDenied
	}
	return svc.repo.QueryBankAccounts(ctx)
}

func (svc *Service) UpdateBankAccount(ctx context.Context, sess core.Session, a BankAccount, ub UpdateBankAccount) (BankAccount, error) {
	if !sess.CanManageFinance() {
		return BankAccount{}, core.ErrPermissionDenied
	}
	if ub.Name != "" {
		a.Name = ub.Name
	}
	if ub.Bank != nil {
		a.Bank = *ub.Bank
	}
	if ub.IsActive != nil {
		a.IsActive = *ub.IsActive
	}
	a, err := svc.repo.UpdateBankAccount(ctx, a)
	return a, errors.Wrap(err, "updating bank account")
}

func (svc *Service) DeleteBankAccount(ctx context.Context, sess core.Session, id string) error {
	if !sess.CanManageFinance() {
		return core.ErrPermissionDenied
	}
	txs, err := svc.repo.QueryTransactions(ctx, QueryFilter{BankAccountID: id})
	if err != nil {
		return errors.Wrap(err, "querying transactions")
	}
	if len(txs) > 0 {
		return core.NewValidationError(errors.New(errAccountInUse))
	}
	return svc.repo.DeleteBankAccount(ctx, id)
}

// Transactions

// checkReferences makes sure the category exists and matches kind, and that the bank account (if any) exists.
func (svc *Service) checkReferences(ctx context.Context, kind Kind, categoryID, accountID string) error {
	var flds []core.FieldError

	c, err := svc.repo.GetCategory(ctx, categoryID)
	switch {
	case errors.Cause(err) == ErrCategoryNotFound:
		flds = append(flds, core.FieldError{Field: "category_id", Error: errCategoryNotFound})
	case err != nil:
		return errors.Wrap(err, "fetching category")
	case c.Kind != kind:
		flds = append(flds, core.FieldError{Field: "category_id", Error: errCategoryKind})
	}

	if accountID != "" {
		if _, err := svc.repo.GetBankAccount(ctx, accountID); err != nil {
			if errors.Cause(err) != ErrBankAccountNotFound {
				return errors.Wrap(err, "fetching bank account")
			}
			flds = append(flds, core.FieldError{Field: "bank_account_id", Error: errAccountNotFound})
		}
	}

	if len(flds) > 0 {
		return core.NewValidationError(nil, flds...)
	}
	return nil
}

func (svc *Service) CreateTransaction(ctx context.Context, sess core.Session, nt NewTransaction) (Transaction, error) {
	if !sess.CanManageFinance() {
		return Transaction{}, core.ErrPermissionDenied
	}
	if err := svc.checkReferences(ctx, nt.Kind, nt.CategoryID, nt.BankAccountID); err != nil {
		return Transaction{}, err
	}
	now := svc.now().UTC()
	tx := Transaction{
		ID:            uuid.NewString(),
		Kind:          nt.Kind,
		Description:   nt.Description,
		Amount:        nt.Amount,
		Date:          nt.Date,
		CategoryID:    nt.CategoryID,
		BankAccountID: nt.BankAccountID,
		IsPaid:        nt.IsPaid,
		PaymentDate:   nt.PaymentDate,
		Notes:         nt.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	tx, err := svc.repo.CreateTransaction(ctx, tx)
	return tx, errors.Wrap(err, "creating transaction")
}

func (svc *Service) GetTransaction(ctx context.Context, sess core.Session, id string) (Transaction, error) {
	if !sess.CanManageFinance() {
		return Transaction{}, core.ErrPermissionDenied
	}
	return svc.repo.GetTransaction(ctx, id)
}

func (svc *Service) QueryTransactions(ctx context.Context, sess core.Session, filter QueryFilter, ordering ...core.DBOrdering) ([]Transaction, error) {
	if !sess.CanManageFinance() {
		return nil, core.ErrPermissionDenied
	}
	return svc.repo.QueryTransactions(ctx, filter, ordering...)
}

func (svc *Service) UpdateTransaction(ctx context.Context, sess core.Session, tx Transaction, nt NewTransaction) (Transaction, error) {
	if !sess.CanManageFinance() {
		return Transaction{}, core.ErrPermissionDenied
	}
	if err := svc.checkReferences(ctx, nt.Kind, nt.CategoryID, nt.BankAccountID); err != nil {
		return Transaction{}, err
	}
	tx.Kind = nt.Kind
	tx.Description = nt.Description
	tx.Amount = nt.Amount
	tx.Date = nt.Date
	tx.CategoryID = nt.CategoryID
	tx.BankAccountID = nt.BankAccountID
	tx.IsPaid = nt.IsPaid
	tx.PaymentDate = nt.PaymentDate
	tx.Notes = nt.Notes
	tx.UpdatedAt = svc.now().UTC()
	tx, err := svc.repo.UpdateTransaction(ctx, tx)
	return tx, errors.Wrap(err, "updating transaction")
}

// Pay marks tx as paid on pr.PaymentDate (today by default).
func (svc *Service) Pay(ctx context.Context, sess core.Session, tx Transaction, pr PayRequest) (Transaction, error) {
	if !sess.CanManageFinance() {
		return Transaction{}, core.ErrPermissionDenied
	}
	if pr.BankAccountID != "" {
		if err := svc.checkReferences(ctx, tx.Kind, tx.CategoryID, pr.BankAccountID); err != nil {
			return Transaction{}, err
		}
		tx.BankAccountID = pr.BankAccountID
	}
	tx.IsPaid = true
	tx.PaymentDate = pr.PaymentDate
	if tx.PaymentDate.IsZero() {
		tx.PaymentDate = svc.today()
	}
	tx.UpdatedAt = svc.now().UTC()
	tx, err := svc.repo.UpdateTransaction(ctx, tx)
	return tx, errors.Wrap(err, "paying transaction")
}

func (svc *Service) DeleteTransaction(ctx context.Context, sess core.Session, id string) error {
	if !sess.CanManageFinance() {
		return core.ErrPermissionDenied
	}
	return svc.repo.DeleteTransaction(ctx, id)
}

// Report aggregates the transactions matching filter.
func (svc *Service) Report(ctx context.Context, sess core.Session, filter QueryFilter) (Report, error) {
	if !sess.CanManageFinance() {
		return Report{}, core.ErrPermissionDenied
	}
	txs, err := svc.repo.QueryTransactions(ctx, filter, core.DBOrdering{Field: "date", Ascending: true})
	if err != nil {
		return Report{}, errors.Wrap(err, "querying transactions")
	}
	categories, err := svc.repo.QueryCategories(ctx, CategoryFilter{})
	if err != nil {
		return Report{}, errors.Wrap(err, "querying categories")
	}
	return BuildReport(txs, categories, svc.translator), nil
}

// BuildReport aggregates txs; categories resolve category names.
func BuildReport(txs []Transaction, categories []Category, tr locales.Translator) Report {
	names := make(map[string]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}

	var incomes, expenses []Transaction
	for _, tx := range txs {
		switch tx.Kind {
		case KindIncome:
			incomes = append(incomes, tx)
		case KindExpense:
			expenses = append(expenses, tx)
		}
	}

	return Report{
		Summary:           Summarize(txs),
		IncomeByCategory:  GroupByCategory(incomes, names),
		ExpenseByCategory: GroupByCategory(expenses, names),
		Monthly:           GroupByMonth(txs, tr),
	}
}
