package sqlxrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/ekklesia/core"
	"github.com/trezcool/ekklesia/core/member"
)

const memberColumns = "id, department, name, email, phone, is_active, created_at, updated_at"

var (
	memberCategories = assoc{table: "member_categories", ownerCol: "member_id", valueCol: "category_id"}

	memberOrderings = map[string]string{
		"name":       "name",
		"email":      "email",
		"is_active":  "is_active",
		"created_at": "created_at",
	}
)

type memberRow struct {
	ID         string      `db:"id"`
	Department string      `db:"department"`
	Name       string      `db:"name"`
	Email      null.String `db:"email"`
	Phone      null.String `db:"phone"`
	IsActive   bool        `db:"is_active"`
	CreatedAt  time.Time   `db:"created_at"`
	UpdatedAt  time.Time   `db:"updated_at"`
}

type memberRepository struct {
	db core.DB
}

var _ member.Repository = (*memberRepository)(nil) // interface compliance check

func NewMemberRepository(db core.DB) *memberRepository {
	return &memberRepository{db: db}
}

func (repo memberRepository) toRow(m member.Member) memberRow {
	return memberRow{
		ID:         m.ID,
		Department: string(m.Department),
		Name:       m.Name,
		Email:      nullable(m.Email),
		Phone:      nullable(m.Phone),
		IsActive:   m.IsActive,
		CreatedAt:  m.CreatedAt.UTC(),
		UpdatedAt:  m.UpdatedAt.UTC(),
	}
}

func (repo memberRepository) toModel(row memberRow, categoryIDs []string) (member.Member, error) {
	dept, err := core.ParseDepartment(row.Department)
	if err != nil {
		return member.Member{}, errors.Wrapf(err, "decoding member %s", row.ID)
	}
	return member.Member{
		ID:          row.ID,
		Name:        row.Name,
		Email:       row.Email.String,
		Phone:       row.Phone.String,
		CategoryIDs: nonNil(categoryIDs),
		IsActive:    row.IsActive,
		Department:  dept,
		CreatedAt:   row.CreatedAt.UTC(),
		UpdatedAt:   row.UpdatedAt.UTC(),
	}, nil
}

func (repo memberRepository) toModels(ctx context.Context, rows []memberRow) ([]member.Member, error) {
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	categories, err := memberCategories.load(ctx, repo.db, ids)
	if err != nil {
		return nil, err
	}
	members := make([]member.Member, 0, len(rows))
	for _, r := range rows {
		m, err := repo.toModel(r, categories[r.ID])
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, nil
}

func (repo memberRepository) CreateMember(ctx context.Context, m member.Member) (member.Member, error) {
	row := repo.toRow(m)
	err := core.RunInTx(ctx, repo.db, func(tx core.DBExecutor) error {
		q := "INSERT INTO members (" + memberColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?, ?)"
		_, err := execContext(ctx, tx, q,
			row.ID, row.Department, row.Name, row.Email, row.Phone, row.IsActive, row.CreatedAt, row.UpdatedAt)
		if err != nil {
			return errors.Wrap(err, "inserting member")
		}
		return memberCategories.replace(ctx, tx, row.ID, m.CategoryIDs)
	})
	if err != nil {
		return member.Member{}, err
	}
	return repo.toModel(row, m.CategoryIDs)
}

func (repo memberRepository) GetMember(ctx context.Context, dept core.Department, id string) (member.Member, error) {
	var row memberRow
	q := "SELECT " + memberColumns + " FROM members WHERE id = ? AND department = ?"
	if err := getContext(ctx, repo.db, &row, q, id, string(dept)); err != nil {
		return member.Member{}, trapNoRowsErr(err, member.ErrNotFound, "getting member")
	}
	members, err := repo.toModels(ctx, []memberRow{row})
	if err != nil {
		return member.Member{}, err
	}
	return members[0], nil
}

func (repo memberRepository) QueryMembers(ctx context.Context, filter member.QueryFilter, ordering ...core.DBOrdering) ([]member.Member, error) {
	var w where
	if filter.Department != "" {
		w.add("department = ?", string(filter.Department))
	}
	w.search(filter.Search, "name", "email", "phone")
	if filter.IsActive != nil {
		w.add("is_active = ?", *filter.IsActive)
	}
	if filter.Category != "" {
		w.add("id IN (SELECT member_id FROM member_categories WHERE category_id = ?)", filter.Category)
	}
	if filter.IDs != nil {
		if len(filter.IDs) == 0 {
			return []member.Member{}, nil
		}
		w.add("id IN (?)", filter.IDs)
	}

	q := "SELECT " + memberColumns + " FROM members" + w.String() +
		core.OrderBy(ordering, memberOrderings, core.DBOrdering{Field: "name", Ascending: true})
	var rows []memberRow
	if err := selectContext(ctx, repo.db, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "querying members")
	}
	return repo.toModels(ctx, rows)
}

func (repo memberRepository) UpdateMember(ctx context.Context, m member.Member) (member.Member, error) {
	row := repo.toRow(m)
	err := core.RunInTx(ctx, repo.db, func(tx core.DBExecutor) error {
		q := `UPDATE members SET name = ?, email = ?, phone = ?, is_active = ?, updated_at = ?
			WHERE id = ? AND department = ?`
		err := execOne(ctx, tx, member.ErrNotFound, q,
			row.Name, row.Email, row.Phone, row.IsActive, row.UpdatedAt, row.ID, row.Department)
		if err != nil {
			return err
		}
		return memberCategories.replace(ctx, tx, row.ID, m.CategoryIDs)
	})
	if err != nil {
		return member.Member{}, err
	}
	return repo.toModel(row, m.CategoryIDs)
}

// DeleteMember also drops the member from the schedules it was assigned to.
func (repo memberRepository) DeleteMember(ctx context.Context, dept core.Department, id string) error {
	return execOne(ctx, repo.db, member.ErrNotFound, "DELETE FROM members WHERE id = ? AND department = ?", id, string(dept))
}
