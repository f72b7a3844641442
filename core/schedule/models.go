package schedule

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/ekklesia/core"
)

// Sizes is the menu of member counts a schedule can be generated with.
var Sizes = []int{1, 2, 3, 4, 5, 6, 8, 10}

// Schedule ("escala") assigns members, and for worship an ordered set of songs, to a date.
// SongIDs is empty unless Department is worship; ClassroomID is empty unless Department is bible school.
type Schedule struct {
	ID          string          `json:"id"`
	Date        core.Date       `json:"date"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	MemberIDs   []string        `json:"member_ids"`
	SongIDs     []string        `json:"song_ids"`
	IsPublished bool            `json:"is_published"`
	Department  core.Department `json:"department"`
	ClassroomID string          `json:"classroom_id"`
	CreatedAt   time.Time       `json:"created_at"` // UTC
	UpdatedAt   time.Time       `json:"updated_at"` // UTC
}

// NewSchedule contains information needed to create (or fully replace) a Schedule.
type NewSchedule struct {
	Date        core.Date `json:"date" validate:"required"`
	Title       string    `json:"title" validate:"required,notblank,max=200"`
	Description string    `json:"description" validate:"omitempty,max=2000"`
	MemberIDs   []string  `json:"member_ids" validate:"omitempty,dive,uuid"`
	SongIDs     []string  `json:"song_ids" validate:"omitempty,dive,uuid"`
	ClassroomID string    `json:"classroom_id" validate:"omitempty,max=60"`
}

func (ns *NewSchedule) Validate(validate *validator.Validate, dept core.Department) error {
	ns.Title = core.CleanString(ns.Title)
	ns.Description = core.CleanString(ns.Description)
	ns.ClassroomID = core.CleanString(ns.ClassroomID)
	ns.MemberIDs = core.UniqueStrings(ns.MemberIDs)
	ns.SongIDs = core.UniqueStrings(ns.SongIDs)
	if err := validate.Struct(ns); err != nil {
		return err
	}
	return checkDepartmentRules(dept, ns.SongIDs, ns.ClassroomID)
}

// GenerateRequest asks for a draft schedule with Size members drawn at random from the active roster.
type GenerateRequest struct {
	Date        core.Date `json:"date" validate:"required"`
	Title       string    `json:"title" validate:"omitempty,max=200"`
	Description string    `json:"description" validate:"omitempty,max=2000"`
	Size        int       `json:"size" validate:"required,schedulesize"`
	ClassroomID string    `json:"classroom_id" validate:"omitempty,max=60"`
}

func (gr *GenerateRequest) Validate(validate *validator.Validate, dept core.Department) error {
	gr.Title = core.CleanString(gr.Title)
	gr.Description = core.CleanString(gr.Description)
	gr.ClassroomID = core.CleanString(gr.ClassroomID)
	if err := validate.Struct(gr); err != nil {
		return err
	}
	if gr.Title == "" {
		gr.Title = DefaultTitle(dept, gr.Date)
	}
	return checkDepartmentRules(dept, nil, gr.ClassroomID)
}

type ReplicateRequest struct {
	Date core.Date `json:"date" validate:"required"`
}

func (rr *ReplicateRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(rr)
}

type QueryFilter struct {
	Department  core.Department `query:"-"`
	From        core.Date       `query:"from"`
	To          core.Date       `query:"to"`
	IsPublished *bool           `query:"is_published"`
	MemberID    string          `query:"member_id"`
}

func (qf *QueryFilter) Clean() {
	qf.MemberID = core.CleanString(qf.MemberID)
}

var departmentTitles = map[core.Department]string{
	core.DepartmentWorship:     "Louvor",
	core.DepartmentBibleSchool: "EBD",
	core.DepartmentSound:       "Som",
}

// DefaultTitle is the title of generated schedules when none is given, e.g. "Louvor 10/03/2024".
func DefaultTitle(dept core.Department, date core.Date) string {
	return departmentTitles[dept] + " " + date.Display()
}
