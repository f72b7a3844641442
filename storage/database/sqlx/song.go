package sqlxrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/ekklesia/core"
	"github.com/trezcool/ekklesia/core/song"
)

const songColumns = "id, title, artist, song_key, link, created_at, updated_at"

var songOrderings = map[string]string{
	"title":      "title",
	"artist":     "artist",
	"created_at": "created_at",
}

type songRow struct {
	ID        string      `db:"id"`
	Title     string      `db:"title"`
	Artist    null.String `db:"artist"`
	Key       null.String `db:"song_key"`
	Link      null.String `db:"link"`
	CreatedAt time.Time   `db:"created_at"`
	UpdatedAt time.Time   `db:"updated_at"`
}

func (row songRow) toModel() song.Song {
	return song.Song{
		ID:        row.ID,
		Title:     row.Title,
		Artist:    row.Artist.String,
		Key:       row.Key.String,
		Link:      row.Link.String,
		CreatedAt: row.CreatedAt.UTC(),
		UpdatedAt: row.UpdatedAt.UTC(),
	}
}

type songRepository struct {
	db core.DB
}

var _ song.Repository = (*songRepository)(nil) // interface compliance check

func NewSongRepository(db core.DB) *songRepository {
	return &songRepository{db: db}
}

func (repo songRepository) CreateSong(ctx context.Context, s song.Song) (song.Song, error) {
	q := "INSERT INTO songs (" + songColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?)"
	_, err := execContext(ctx, repo.db, q,
		s.ID, s.Title, nullable(s.Artist), nullable(s.Key), nullable(s.Link), s.CreatedAt.UTC(), s.UpdatedAt.UTC())
	if err != nil {
		return song.Song{}, errors.Wrap(err, "inserting song")
	}
	return s, nil
}

func (repo songRepository) GetSong(ctx context.Context, id string) (song.Song, error) {
	var row songRow
	if err := getContext(ctx, repo.db, &row, "SELECT "+songColumns+" FROM songs WHERE id = ?", id); err != nil {
		return song.Song{}, trapNoRowsErr(err, song.ErrNotFound, "getting song")
	}
	return row.toModel(), nil
}

func (repo songRepository) QuerySongs(ctx context.Context, filter song.QueryFilter, ordering ...core.DBOrdering) ([]song.Song, error) {
	var w where
	w.search(filter.Search, "title", "artist")
	if filter.IDs != nil {
		if len(filter.IDs) == 0 {
			return []song.Song{}, nil
		}
		w.add("id IN (?)", filter.IDs)
	}

	q := "SELECT " + songColumns + " FROM songs" + w.String() +
		core.OrderBy(ordering, songOrderings, core.DBOrdering{Field: "title", Ascending: true})
	var rows []songRow
	if err := selectContext(ctx, repo.db, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "querying songs")
	}
	songs := make([]song.Song, 0, len(rows))
	for _, r := range rows {
		songs = append(songs, r.toModel())
	}
	return songs, nil
}

func (repo songRepository) UpdateSong(ctx context.Context, s song.Song) (song.Song, error) {
	q := "UPDATE songs SET title = ?, artist = ?, song_key = ?, link = ?, updated_at = ? WHERE id = ?"
	err := execOne(ctx, repo.db, song.ErrNotFound, q,
		s.Title, nullable(s.Artist), nullable(s.Key), nullable(s.Link), s.UpdatedAt.UTC(), s.ID)
	if err != nil {
		return song.Song{}, err
	}
	return s, nil
}

func (repo songRepository) DeleteSong(ctx context.Context, id string) error {
	return execOne(ctx, repo.db, song.ErrNotFound, "DELETE FROM songs WHERE id = ?", id)
}
