package sqlxrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/ekklesia/core"
	"github.com/trezcool/ekklesia/core/schedule"
)

const scheduleColumns = "id, department, date, title, description, is_published, classroom_id, created_at, updated_at"

var (
	scheduleMembers = assoc{table: "schedule_members", ownerCol: "schedule_id", valueCol: "member_id"}
	scheduleSongs   = assoc{table: "schedule_songs", ownerCol: "schedule_id", valueCol: "song_id", ordered: true}

	scheduleOrderings = map[string]string{
		"date":       "date",
		"title":      "title",
		"created_at": "created_at",
	}
)

type scheduleRow struct {
	ID          string      `db:"id"`
	Department  string      `db:"department"`
	Date        time.Time   `db:"date"`
	Title       string      `db:"title"`
	Description null.String `db:"description"`
	IsPublished bool        `db:"is_published"`
	ClassroomID null.String `db:"classroom_id"`
	CreatedAt   time.Time   `db:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at"`
}

type scheduleRepository struct {
	db core.DB
}

var _ schedule.Repository = (*scheduleRepository)(nil) // interface compliance check

func NewScheduleRepository(db core.DB) *scheduleRepository {
	return &scheduleRepository{db: db}
}

func (repo scheduleRepository) toRow(s schedule.Schedule) scheduleRow {
	return scheduleRow{
		ID:          s.ID,
		Department:  string(s.Department),
		Date:        s.Date.Time,
		Title:       s.Title,
		Description: nullable(s.Description),
		IsPublished: s.IsPublished,
		ClassroomID: nullable(s.ClassroomID),
		CreatedAt:   s.CreatedAt.UTC(),
		UpdatedAt:   s.UpdatedAt.UTC(),
	}
}

func (repo scheduleRepository) toModel(row scheduleRow, memberIDs, songIDs []string) (schedule.Schedule, error) {
	dept, err := core.ParseDepartment(row.Department)
	if err != nil {
		return schedule.Schedule{}, errors.Wrapf(err, "decoding schedule %s", row.ID)
	}
	return schedule.Schedule{
		ID:          row.ID,
		Date:        core.DateOf(row.Date.UTC()),
		Title:       row.Title,
		Description: row.Description.String,
		MemberIDs:   nonNil(memberIDs),
		SongIDs:     nonNil(songIDs),
		IsPublished: row.IsPublished,
		Department:  dept,
		ClassroomID: row.ClassroomID.String,
		CreatedAt:   row.CreatedAt.UTC(),
		UpdatedAt:   row.UpdatedAt.UTC(),
	}, nil
}

func (repo scheduleRepository) toModels(ctx context.Context, rows []scheduleRow) ([]schedule.Schedule, error) {
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	members, err := scheduleMembers.load(ctx, repo.db, ids)
	if err != nil {
		return nil, err
	}
	songs, err := scheduleSongs.load(ctx, repo.db, ids)
	if err != nil {
		return nil, err
	}

	schedules := make([]schedule.Schedule, 0, len(rows))
	for _, r := range rows {
		s, err := repo.toModel(r, members[r.ID], songs[r.ID])
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, s)
	}
	return schedules, nil
}

func (repo scheduleRepository) replaceAssociations(ctx context.Context, tx core.DBExecutor, s schedule.Schedule) error {
	if err := scheduleMembers.replace(ctx, tx, s.ID, s.MemberIDs); err != nil {
		return err
	}
	return scheduleSongs.replace(ctx, tx, s.ID, s.SongIDs)
}

func (repo scheduleRepository) CreateSchedule(ctx context.Context, s schedule.Schedule) (schedule.Schedule, error) {
	row := repo.toRow(s)
	err := core.RunInTx(ctx, repo.db, func(tx core.DBExecutor) error {
		q := "INSERT INTO schedules (" + scheduleColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)"
		_, err := execContext(ctx, tx, q,
			row.ID, row.Department, row.Date, row.Title, row.Description, row.IsPublished, row.ClassroomID,
			row.CreatedAt, row.UpdatedAt)
		if err != nil {
			return errors.Wrap(err, "inserting schedule")
		}
		return repo.replaceAssociations(ctx, tx, s)
	})
	if err != nil {
		return schedule.Schedule{}, err
	}
	return repo.toModel(row, s.MemberIDs, s.SongIDs)
}

func (repo scheduleRepository) GetSchedule(ctx context.Context, dept core.Department, id string) (schedule.Schedule, error) {
	var row scheduleRow
	q := "SELECT " + scheduleColumns + " FROM schedules WHERE id = ? AND department = ?"
	if err := getContext(ctx, repo.db, &row, q, id, string(dept)); err != nil {
		return schedule.Schedule{}, trapNoRowsErr(err, schedule.ErrNotFound, "getting schedule")
	}
	schedules, err := repo.toModels(ctx, []scheduleRow{row})
	if err != nil {
		return schedule.Schedule{}, err
	}
	return schedules[0], nil
}

func (repo scheduleRepository) QuerySchedules(ctx context.Context, filter schedule.QueryFilter, ordering ...core.DBOrdering) ([]schedule.Schedule, error) {
	var w where
	if filter.Department != "" {
		w.add("department = ?", string(filter.Department))
	}
	if !filter.From.IsZero() {
		w.add("date >= ?", filter.From.Time)
	}
	if !filter.To.IsZero() {
		w.add("date <= ?", filter.To.Time)
	}
	if filter.IsPublished != nil {
		w.add("is_published = ?", *filter.IsPublished)
	}
	if filter.MemberID != "" {
		w.add("id IN (SELECT schedule_id FROM schedule_members WHERE member_id = ?)", filter.MemberID)
	}

	q := "SELECT " + scheduleColumns + " FROM schedules" + w.String() +
		core.OrderBy(ordering, scheduleOrderings, core.DBOrdering{Field: "date", Ascending: true})
	var rows []scheduleRow
	if err := selectContext(ctx, repo.db, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "querying schedules")
	}
	return repo.toModels(ctx, rows)
}

func (repo scheduleRepository) UpdateSchedule(ctx context.Context, s schedule.Schedule) (schedule.Schedule, error) {
	row := repo.toRow(s)
	err := core.RunInTx(ctx, repo.db, func(tx core.DBExecutor) error {
		q := `UPDATE schedules SET date = ?, title = ?, description = ?, is_published = ?, classroom_id = ?, updated_at = ?
			WHERE id = ? AND department = ?`
		err := execOne(ctx, tx, schedule.ErrNotFound, q,
			row.Date, row.Title, row.Description, row.IsPublished, row.ClassroomID, row.UpdatedAt, row.ID, row.Department)
		if err != nil {
			return err
		}
		return repo.replaceAssociations(ctx, tx, s)
	})
	if err != nil {
		return schedule.Schedule{}, err
	}
	return repo.toModel(row, s.MemberIDs, s.SongIDs)
}

func (repo scheduleRepository) DeleteSchedule(ctx context.Context, dept core.Department, id string) error {
	return execOne(ctx, repo.db, schedule.ErrNotFound, "DELETE FROM schedules WHERE id = ? AND department = ?", id, string(dept))
}
