package schedule

import (
	"context"
	"math/rand/v2"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/ekklesia/core"
	"github.com/trezcool/ekklesia/core/member"
)

var ErrNotFound = core.NewNotFoundError("schedule")

const publishedTemplate = "schedule_published"

type (
	Repository interface {
		// CreateSchedule inserts s with its member & song associations in a single transaction.
		CreateSchedule(ctx context.Context, s Schedule) (Schedule, error)
		GetSchedule(ctx context.Context, dept core.Department, id string) (Schedule, error)
		QuerySchedules(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Schedule, error)
		// UpdateSchedule replaces the schedule row and its member & song associations in a single transaction.
		UpdateSchedule(ctx context.Context, s Schedule) (Schedule, error)
		DeleteSchedule(ctx context.Context, dept core.Department, id string) error
	}

	// Roster gives access to the members of a department.
	Roster interface {
		Roster(ctx context.Context, dept core.Department) ([]member.Member, error)
		ByIDs(ctx context.Context, dept core.Department, ids []string) ([]member.Member, error)
	}

	// SongCatalog reports song ids that do not exist.
	SongCatalog interface {
		Missing(ctx context.Context, ids []string) ([]string, error)
	}

	// Observer is notified of schedule events (metrics).
	Observer interface {
		ScheduleGenerated(dept core.Department, requested, selected int)
		ScheduleReplicated(dept core.Department)
		SchedulePublished(dept core.Department, notified int)
	}

	Deps struct {
		Repo     Repository
		Members  Roster
		Songs    SongCatalog
		MailSvc  core.EmailService
		Observer Observer   // optional
		Rand     *rand.Rand // optional; seeded from the OS when nil
		AppName  string
	}

	Service struct {
		repo     Repository
		members  Roster
		songs    SongCatalog
		mailSvc  core.EmailService
		observer Observer
		appName  string
		now      func() time.Time

		mu  sync.Mutex // guards rnd
		rnd *rand.Rand
	}
)

func NewService(deps Deps) *Service {
	rnd := deps.Rand
	if rnd == nil {
		rnd = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	observer := deps.Observer
	if observer == nil {
		observer = nopObserver{}
	}
	return &Service{
		repo:     deps.Repo,
		members:  deps.Members,
		songs:    deps.Songs,
		mailSvc:  deps.MailSvc,
		observer: observer,
		appName:  deps.AppName,
		now:      core.NowFunc,
		rnd:      rnd,
	}
}

// checkReferences makes sure member ids are in the roster of dept and song ids exist.
func (svc *Service) checkReferences(ctx context.Context, dept core.Department, memberIDs, songIDs []string) error {
	var flds []core.FieldError

	if len(memberIDs) > 0 {
		members, err := svc.members.ByIDs(ctx, dept, memberIDs)
		if err != nil {
			return errors.Wrap(err, "fetching members")
		}
		if len(members) != len(memberIDs) {
			flds = append(flds, core.FieldError{Field: "member_ids", Error: errUnknownMembers})
		}
	}

	if len(songIDs) > 0 {
		missing, err := svc.songs.Missing(ctx, songIDs)
		if err != nil {
			return errors.Wrap(err, "checking songs")
		}
		if len(missing) > 0 {
			flds = append(flds, core.FieldError{Field: "song_ids", Error: errUnknownSongs + ": " + strings.Join(missing, ", ")})
		}
	}

	if len(flds) > 0 {
		return core.NewValidationError(nil, flds...)
	}
	return nil
}

func (svc *Service) insert(ctx context.Context, s Schedule) (Schedule, error) {
	now := svc.now().UTC()
	s.ID = uuid.NewString()
	s.CreatedAt = now
	s.UpdatedAt = now
	s, err := svc.repo.CreateSchedule(ctx, s)
	return s, errors.Wrap(err, "inserting schedule")
}

// Create saves a new draft schedule. ns must have been validated against dept.
func (svc *Service) Create(ctx context.Context, sess core.Session, dept core.Department, ns NewSchedule) (Schedule, error) {
	if !sess.CanManage(dept) {
		return Schedule{}, core.ErrPermissionDenied
	}
	if err := svc.checkReferences(ctx, dept, ns.MemberIDs, ns.SongIDs); err != nil {
		return Schedule{}, err
	}
	s := Schedule{
		Date:        ns.Date,
		Title:       ns.Title,
		Description: ns.Description,
		MemberIDs:   nonNil(ns.MemberIDs),
		SongIDs:     nonNil(ns.SongIDs),
		Department:  dept,
		ClassroomID: ns.ClassroomID,
	}
	return svc.insert(ctx, s)
}

// Generate saves a new draft schedule whose members are drawn at random from the active roster of dept.
func (svc *Service) Generate(ctx context.Context, sess core.Session, dept core.Department, req GenerateRequest) (Schedule, error) {
	if !sess.CanManage(dept) {
		return Schedule{}, core.ErrPermissionDenied
	}
	roster, err := svc.members.Roster(ctx, dept)
	if err != nil {
		return Schedule{}, errors.Wrap(err, "fetching roster")
	}

	svc.mu.Lock()
	s := Generate(roster, req, dept, svc.rnd)
	svc.mu.Unlock()

	s, err = svc.insert(ctx, s)
	if err != nil {
		return Schedule{}, err
	}
	svc.observer.ScheduleGenerated(dept, req.Size, len(s.MemberIDs))
	return s, nil
}

// Replicate saves a draft copy of the schedule id, moved to date.
func (svc *Service) Replicate(ctx context.Context, sess core.Session, dept core.Department, id string, date core.Date) (Schedule, error) {
	if !sess.CanManage(dept) {
		return Schedule{}, core.ErrPermissionDenied
	}
	src, err := svc.repo.GetSchedule(ctx, dept, id)
	if err != nil {
		return Schedule{}, err
	}
	s, err := svc.insert(ctx, Replicate(src, date))
	if err != nil {
		return Schedule{}, err
	}
	svc.observer.ScheduleReplicated(dept)
	return s, nil
}

func (svc *Service) Get(ctx context.Context, sess core.Session, dept core.Department, id string) (Schedule, error) {
	if !sess.CanManage(dept) {
		return Schedule{}, core.ErrPermissionDenied
	}
	return svc.repo.GetSchedule(ctx, dept, id)
}

func (svc *Service) Query(ctx context.Context, sess core.Session, filter QueryFilter, ordering ...core.DBOrdering) ([]Schedule, error) {
	if !sess.CanManage(filter.Department) {
		return nil, core.ErrPermissionDenied
	}
	return svc.repo.QuerySchedules(ctx, filter, ordering...)
}

// Update replaces the contents of s with ns. Publication state is kept.
func (svc *Service) Update(ctx context.Context, sess core.Session, s Schedule, ns NewSchedule) (Schedule, error) {
	if !sess.CanManage(s.Department) {
		return Schedule{}, core.ErrPermissionDenied
	}
	if err := svc.checkReferences(ctx, s.Department, ns.MemberIDs, ns.SongIDs); err != nil {
		return Schedule{}, err
	}
	s.Date = ns.Date
	s.Title = ns.Title
	s.Description = ns.Description
	s.MemberIDs = nonNil(ns.MemberIDs)
	s.SongIDs = nonNil(ns.SongIDs)
	s.ClassroomID = ns.ClassroomID
	s.UpdatedAt = svc.now().UTC()
	s, err := svc.repo.UpdateSchedule(ctx, s)
	return s, errors.Wrap(err, "updating schedule")
}

// Publish marks s as published and emails its members. Publishing twice does not notify again.
func (svc *Service) Publish(ctx context.Context, sess core.Session, s Schedule) (Schedule, error) {
	if !sess.CanManage(s.Department) {
		return Schedule{}, core.ErrPermissionDenied
	}
	if s.IsPublished {
		return s, nil
	}
	s.IsPublished = true
	s.UpdatedAt = svc.now().UTC()
	s, err := svc.repo.UpdateSchedule(ctx, s)
	if err != nil {
		return Schedule{}, errors.Wrap(err, "publishing schedule")
	}

	notified, err := svc.notifyMembers(ctx, s)
	if err != nil {
		return Schedule{}, errors.Wrap(err, "notifying members")
	}
	svc.observer.SchedulePublished(s.Department, notified)
	return s, nil
}

func (svc *Service) Unpublish(ctx context.Context, sess core.Session, s Schedule) (Schedule, error) {
	if !sess.CanManage(s.Department) {
		return Schedule{}, core.ErrPermissionDenied
	}
	if !s.IsPublished {
		return s, nil
	}
	s.IsPublished = false
	s.UpdatedAt = svc.now().UTC()
	s, err := svc.repo.UpdateSchedule(ctx, s)
	return s, errors.Wrap(err, "unpublishing schedule")
}

func (svc *Service) Delete(ctx context.Context, sess core.Session, dept core.Department, id string) error {
	if !sess.CanManage(dept) {
		return core.ErrPermissionDenied
	}
	return svc.repo.DeleteSchedule(ctx, dept, id)
}

type publishedData struct {
	AppName     string
	MemberName  string
	Title       string
	Date        string
	Description string
}

func (svc *Service) notifyMembers(ctx context.Context, s Schedule) (int, error) {
	members, err := svc.members.ByIDs(ctx, s.Department, s.MemberIDs)
	if err != nil {
		return 0, errors.Wrap(err, "fetching members")
	}

	msgs := make([]*core.EmailMessage, 0, len(members))
	for _, m := range members {
		addr, ok := m.Address()
		if !ok {
			continue
		}
		msgs = append(msgs, &core.EmailMessage{
			To:           []mail.Address{addr},
			Subject:      "Escala: " + s.Title + " - " + s.Date.Display(),
			TemplateName: publishedTemplate,
			TemplateData: publishedData{
				AppName:     svc.appName,
				MemberName:  m.Name,
				Title:       s.Title,
				Date:        s.Date.Display(),
				Description: s.Description,
			},
		})
	}
	if len(msgs) > 0 {
		svc.mailSvc.SendMessages(msgs...)
	}
	return len(msgs), nil
}

func nonNil(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}

type nopObserver struct{}

func (nopObserver) ScheduleGenerated(core.Department, int, int) {}
func (nopObserver) ScheduleReplicated(core.Department)          {}
func (nopObserver) SchedulePublished(core.Department, int)      {}
