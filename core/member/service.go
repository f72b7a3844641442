package member

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/ekklesia/core"
)

var ErrNotFound = core.NewNotFoundError("member")

type (
	Repository interface {
		CreateMember(ctx context.Context, m Member) (Member, error)
		GetMember(ctx context.Context, dept core.Department, id string) (Member, error)
		// QueryMembers applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of Member.Name, Member.Email or Member.Phone.
		QueryMembers(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Member, error)
		// UpdateMember replaces the member row and its category set atomically.
		UpdateMember(ctx context.Context, m Member) (Member, error)
		DeleteMember(ctx context.Context, dept core.Department, id string) error
	}

	Service struct {
		repo Repository
		now  func() time.Time
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: core.NowFunc}
}

func (svc *Service) Create(ctx context.Context, sess core.Session, dept core.Department, nm NewMember) (Member, error) {
	if !sess.CanManage(dept) {
		return Member{}, core.ErrPermissionDenied
	}
	isActive := true
	if nm.IsActive != nil {
		isActive = *nm.IsActive
	}
	now := svc.now().UTC()
	m := Member{
		ID:          uuid.NewString(),
		Name:        nm.Name,
		Email:       nm.Email,
		Phone:       nm.Phone,
		CategoryIDs: core.UniqueStrings(nm.CategoryIDs),
		IsActive:    isActive,
		Department:  dept,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	m, err := svc.repo.CreateMember(ctx, m)
	return m, errors.Wrap(err, "creating member")
}

func (svc *Service) Get(ctx context.Context, sess core.Session, dept core.Department, id string) (Member, error) {
	if !sess.CanManage(dept) {
		return Member{}, core.ErrPermissionDenied
	}
	return svc.repo.GetMember(ctx, dept, id)
}

func (svc *Service) Query(ctx context.Context, sess core.Session, filter QueryFilter, ordering ...core.DBOrdering) ([]Member, error) {
	if !sess.CanManage(filter.Department) {
		return nil, core.ErrPermissionDenied
	}
	return svc.repo.QueryMembers(ctx, filter, ordering...)
}

// Roster returns the active members of dept, in name order.
func (svc *Service) Roster(ctx context.Context, dept core.Department) ([]Member, error) {
	members, err := svc.repo.QueryMembers(ctx, QueryFilter{Department: dept}, core.DBOrdering{Field: "name", Ascending: true})
	if err != nil {
		return nil, errors.Wrap(err, "querying roster")
	}
	return Active(members), nil
}

// ByIDs returns the members of dept whose ids are in ids. Unknown ids are ignored.
func (svc *Service) ByIDs(ctx context.Context, dept core.Department, ids []string) ([]Member, error) {
	if len(ids) == 0 {
		return []Member{}, nil
	}
	return svc.repo.QueryMembers(ctx, QueryFilter{Department: dept, IDs: ids}, core.DBOrdering{Field: "name", Ascending: true})
}

func (svc *Service) Update(ctx context.Context, sess core.Session, m Member, um UpdateMember) (Member, error) {
	if !sess.CanManage(m.Department) {
		return Member{}, core.ErrPermissionDenied
	}
	if um.Name != "" {
		m.Name = um.Name
	}
	if um.Email != nil {
		m.Email = *um.Email
	}
	if um.Phone != nil {
		m.Phone = *um.Phone
	}
	if um.CategoryIDs != nil {
		m.CategoryIDs = core.UniqueStrings(um.CategoryIDs)
	}
	if um.IsActive != nil {
		m.IsActive = *um.IsActive
	}
	m.UpdatedAt = svc.now().UTC()
	m, err := svc.repo.UpdateMember(ctx, m)
	return m, errors.Wrap(err, "updating member")
}

func (svc *Service) Delete(ctx context.Context, sess core.Session, dept core.Department, id string) error {
	if !sess.CanManage(dept) {
		return core.ErrPermissionDenied
	}
	return svc.repo.DeleteMember(ctx, dept, id)
}
