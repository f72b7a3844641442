package song

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/ekklesia/core"
)

// Song is an entry of the worship repertoire.
type Song struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Artist    string    `json:"artist"`
	Key       string    `json:"key"` // tonality, e.g. "G" or "F#m"
	Link      string    `json:"link"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// NewSong contains information needed to create (or fully replace) a Song.
type NewSong struct {
	Title  string `json:"title" validate:"required,notblank,max=200"`
	Artist string `json:"artist" validate:"omitempty,max=120"`
	Key    string `json:"key" validate:"omitempty,max=8"`
	Link   string `json:"link" validate:"omitempty,url"`
}

func (ns *NewSong) Validate(validate *validator.Validate) error {
	ns.Title = core.CleanString(ns.Title)
	ns.Artist = core.CleanString(ns.Artist)
	ns.Key = core.CleanString(ns.Key)
	ns.Link = core.CleanString(ns.Link)
	return validate.Struct(ns)
}

type QueryFilter struct {
	Search string   `query:"search"`
	IDs    []string `query:"-"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
