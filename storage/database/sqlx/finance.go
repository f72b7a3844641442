package sqlxrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/ekklesia/core"
	"github.com/trezcool/ekklesia/core/finance"
)

const (
	categoryColumns    = "id, name, kind, is_active, created_at"
	bankAccountColumns = "id, name, bank, is_active, created_at"
	transactionColumns = "id, kind, description, amount_cents, date, category_id, bank_account_id, is_paid, " +
		"payment_date, notes, created_at, updated_at"
)

var transactionOrderings = map[string]string{
	"date":         "date",
	"amount":       "amount_cents",
	"description":  "description",
	"payment_date": "payment_date",
	"created_at":   "created_at",
}

type categoryRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Kind      string    `db:"kind"`
	IsActive  bool      `db:"is_active"`
	CreatedAt time.Time `db:"created_at"`
}

func (row categoryRow) toModel() (finance.Category, error) {
	kind, err := finance.ParseKind(row.Kind)
	if err != nil {
		return finance.Category{}, errors.Wrapf(err, "decoding category %s", row.ID)
	}
	return finance.Category{
		ID:        row.ID,
		Name:      row.Name,
		Kind:      kind,
		IsActive:  row.IsActive,
		CreatedAt: row.CreatedAt.UTC(),
	}, nil
}

type bankAccountRow struct {
	ID        string      `db:"id"`
	Name      string      `db:"name"`
	Bank      null.String `db:"bank"`
	IsActive  bool        `db:"is_active"`
	CreatedAt time.Time   `db:"created_at"`
}

func (row bankAccountRow) toModel() finance.BankAccount {
	return finance.BankAccount{
		ID:        row.ID,
		Name:      row.Name,
		Bank:      row.Bank.String,
		IsActive:  row.IsActive,
		CreatedAt: row.CreatedAt.UTC(),
	}
}

type transactionRow struct {
	ID            string      `db:"id"`
	Kind          string      `db:"kind"`
	Description   string      `db:"description"`
	AmountCents   int64       `db:"amount_cents"`
	Date          time.Time   `db:"date"`
	CategoryID    string      `db:"category_id"`
	BankAccountID null.String `db:"bank_account_id"`
	IsPaid        bool        `db:"is_paid"`
	PaymentDate   null.Time   `db:"payment_date"`
	Notes         null.String `db:"notes"`
	CreatedAt     time.Time   `db:"created_at"`
	UpdatedAt     time.Time   `db:"updated_at"`
}

func toTransactionRow(tx finance.Transaction) transactionRow {
	return transactionRow{
		ID:            tx.ID,
		Kind:          string(tx.Kind),
		Description:   tx.Description,
		AmountCents:   finance.ToCents(tx.Amount),
		Date:          tx.Date.Time,
		CategoryID:    tx.CategoryID,
		BankAccountID: nullable(tx.BankAccountID),
		IsPaid:        tx.IsPaid,
		PaymentDate:   null.NewTime(tx.PaymentDate.Time, !tx.PaymentDate.IsZero()),
		Notes:         nullable(tx.Notes),
		CreatedAt:     tx.CreatedAt.UTC(),
		UpdatedAt:     tx.UpdatedAt.UTC(),
	}
}

func (row transactionRow) toModel() (finance.Transaction, error) {
	kind, err := finance.ParseKind(row.Kind)
	if err != nil {
		return finance.Transaction{}, errors.Wrapf(err, "decoding transaction %s", row.ID)
	}
	tx := finance.Transaction{
		ID:            row.ID,
		Kind:          kind,
		Description:   row.Description,
		Amount:        finance.FromCents(row.AmountCents),
		Date:          core.DateOf(row.Date.UTC()),
		CategoryID:    row.CategoryID,
		BankAccountID: row.BankAccountID.String,
		IsPaid:        row.IsPaid,
		Notes:         row.Notes.String,
		CreatedAt:     row.CreatedAt.UTC(),
		UpdatedAt:     row.UpdatedAt.UTC(),
	}
	if row.PaymentDate.Valid {
		tx.PaymentDate = core.DateOf(row.PaymentDate.Time.UTC())
	}
	return tx, nil
}

type financeRepository struct {
	db core.DB
}

var _ finance.Repository = (*financeRepository)(nil) // interface compliance check

func NewFinanceRepository(db core.DB) *financeRepository {
	return &financeRepository{db: db}
}

// Categories

func (repo financeRepository) CreateCategory(ctx context.Context, c finance.Category) (finance.Category, error) {
	q := "INSERT INTO categories (" + categoryColumns + ") VALUES (?, ?, ?, ?, ?)"
	if _, err := execContext(ctx, repo.db, q, c.ID, c.Name, string(c.Kind), c.IsActive, c.CreatedAt.UTC()); err != nil {
		return finance.Category{}, errors.Wrap(err, "inserting category")
	}
	return c, nil
}

func (repo financeRepository) GetCategory(ctx context.Context, id string) (finance.Category, error) {
	var row categoryRow
	if err := getContext(ctx, repo.db, &row, "SELECT "+categoryColumns+" FROM categories WHERE id = ?", id); err != nil {
		return finance.Category{}, trapNoRowsErr(err, finance.ErrCategoryNotFound, "getting category")
	}
	return row.toModel()
}

func (repo financeRepository) QueryCategories(ctx context.Context, filter finance.CategoryFilter) ([]finance.Category, error) {
	var w where
	if filter.Kind != "" {
		w.add("kind = ?", string(filter.Kind))
	}
	if filter.IsActive != nil {
		w.add("is_active = ?", *filter.IsActive)
	}

	var rows []categoryRow
	q := "SELECT " + categoryColumns + " FROM categories" + w.String() + " ORDER BY kind ASC, name ASC"
	if err := selectContext(ctx, repo.db, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "querying categories")
	}
	categories := make([]finance.Category, 0, len(rows))
	for _, r := range rows {
		c, err := r.toModel()
		if err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, nil
}

func (repo financeRepository) UpdateCategory(ctx context.Context, c finance.Category) (finance.Category, error) {
	q := "UPDATE categories SET name = ?, is_active = ? WHERE id = ?"
	if err := execOne(ctx, repo.db, finance.ErrCategoryNotFound, q, c.Name, c.IsActive, c.ID); err != nil {
		return finance.Category{}, err
	}
	return c, nil
}

func (repo financeRepository) DeleteCategory(ctx context.Context, id string) error {
	return execOne(ctx, repo.db, finance.ErrCategoryNotFound, "DELETE FROM categories WHERE id = ?", id)
}

// Bank accounts

func (repo financeRepository) CreateBankAccount(ctx context.Context, a finance.BankAccount) (finance.BankAccount, error) {
	q := "INSERT INTO bank_accounts (" + bankAccountColumns + ") VALUES (?, ?, ?, ?, ?)"
	if _, err := execContext(ctx, repo.db, q, a.ID, a.Name, nullable(a.Bank), a.IsActive, a.CreatedAt.UTC()); err != nil {
		return finance.BankAccount{}, errors.Wrap(err, "inserting bank account")
	}
	return a, nil
}

func (repo financeRepository) GetBankAccount(ctx context.Context, id string) (finance.BankAccount, error) {
	var row bankAccountRow
	if err := getContext(ctx, repo.db, &row, "SELECT "+bankAccountColumns+" FROM bank_accounts WHERE id = ?", id); err != nil {
		return finance.BankAccount{}, trapNoRowsErr(err, finance.ErrBankAccountNotFound, "getting bank account")
	}
	return row.toModel(), nil
}

func (repo financeRepository) QueryBankAccounts(ctx context.Context) ([]finance.BankAccount, error) {
	var rows []bankAccountRow
	if err := selectContext(ctx, repo.db, &rows, "SELECT "+bankAccountColumns+" FROM bank_accounts ORDER BY name ASC"); err != nil {
		return nil, errors.Wrap(err, "querying bank accounts")
	}
	accounts := make([]finance.BankAccount, 0, len(rows))
	for _, r := range rows {
		accounts = append(accounts, r.toModel())
	}
	return accounts, nil
}

func (repo financeRepository) UpdateBankAccount(ctx context.Context, a finance.BankAccount) (finance.BankAccount, error) {
	q := "UPDATE bank_accounts SET name = ?, bank = ?, is_active = ? WHERE id = ?"
	if err := execOne(ctx, repo.db, finance.ErrBankAccountNotFound, q, a.Name, nullable(a.Bank), a.IsActive, a.ID); err != nil {
		return finance.BankAccount{}, err
	}
	return a, nil
}

func (repo financeRepository) DeleteBankAccount(ctx context.Context, id string) error {
	return execOne(ctx, repo.db, finance.ErrBankAccountNotFound, "DELETE FROM bank_accounts WHERE id = ?", id)
}

// Transactions

func (repo financeRepository) CreateTransaction(ctx context.Context, tx finance.Transaction) (finance.Transaction, error) {
	row := toTransactionRow(tx)
	q := "INSERT INTO transactions (" + transactionColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"
	_, err := execContext(ctx, repo.db, q,
		row.ID, row.Kind, row.Description, row.AmountCents, row.Date, row.CategoryID, row.BankAccountID, row.IsPaid,
		row.PaymentDate, row.Notes, row.CreatedAt, row.UpdatedAt)
	if err != nil {
		return finance.Transaction{}, errors.Wrap(err, "inserting transaction")
	}
	return row.toModel()
}

func (repo financeRepository) GetTransaction(ctx context.Context, id string) (finance.Transaction, error) {
	var row transactionRow
	if err := getContext(ctx, repo.db, &row, "SELECT "+transactionColumns+" FROM transactions WHERE id = ?", id); err != nil {
		return finance.Transaction{}, trapNoRowsErr(err, finance.ErrTransactionNotFound, "getting transaction")
	}
	return row.toModel()
}

func (repo financeRepository) QueryTransactions(ctx context.Context, filter finance.QueryFilter, ordering ...core.DBOrdering) ([]finance.Transaction, error) {
	var w where
	if filter.Kind != "" {
		w.add("kind = ?", string(filter.Kind))
	}
	if !filter.From.IsZero() {
		w.add("date >= ?", filter.From.Time)
	}
	if !filter.To.IsZero() {
		w.add("date <= ?", filter.To.Time)
	}
	if filter.CategoryID != "" {
		w.add("category_id = ?", filter.CategoryID)
	}
	if filter.BankAccountID != "" {
		w.add("bank_account_id = ?", filter.BankAccountID)
	}
	if filter.IsPaid != nil {
		w.add("is_paid = ?", *filter.IsPaid)
	}

	q := "SELECT " + transactionColumns + " FROM transactions" + w.String() +
		core.OrderBy(ordering, transactionOrderings, core.DBOrdering{Field: "date", Ascending: false})
	var rows []transactionRow
	if err := selectContext(ctx, repo.db, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "querying transactions")
	}
	txs := make([]finance.Transaction, 0, len(rows))
	for _, r := range rows {
		tx, err := r.toModel()
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

func (repo financeRepository) UpdateTransaction(ctx context.Context, tx finance.Transaction) (finance.Transaction, error) {
	row := toTransactionRow(tx)
	q := `UPDATE transactions SET kind = ?, description = ?, amount_cents = ?, date = ?, category_id = ?,
		bank_account_id = ?, is_paid = ?, payment_date = ?, notes = ?, updated_at = ? WHERE id = ?`
	err := execOne(ctx, repo.db, finance.ErrTransactionNotFound, q,
		row.Kind, row.Description, row.AmountCents, row.Date, row.CategoryID, row.BankAccountID, row.IsPaid,
		row.PaymentDate, row.Notes, row.UpdatedAt, row.ID)
	if err != nil {
		return finance.Transaction{}, err
	}
	return row.toModel()
}

func (repo financeRepository) DeleteTransaction(ctx context.Context, id string) error {
	return execOne(ctx, repo.db, finance.ErrTransactionNotFound, "DELETE FROM transactions WHERE id = ?", id)
}
