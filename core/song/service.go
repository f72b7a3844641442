package song

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/ekklesia/core"
)

var ErrNotFound = core.NewNotFoundError("song")

type (
	Repository interface {
		CreateSong(ctx context.Context, s Song) (Song, error)
		GetSong(ctx context.Context, id string) (Song, error)
		// QuerySongs does a case-insensitive match of QueryFilter.Search on Song.Title or Song.Artist.
		QuerySongs(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Song, error)
		UpdateSong(ctx context.Context, s Song) (Song, error)
		DeleteSong(ctx context.Context, id string) error
	}

	Service struct {
		repo Repository
		now  func() time.Time
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: core.NowFunc}
}

// songs belong to the worship department
func canManage(sess core.Session) bool {
	return sess.CanManage(core.DepartmentWorship)
}

func (svc *Service) Create(ctx context.Context, sess core.Session, ns NewSong) (Song, error) {
	if !canManage(sess) {
		return Song{}, core.ErrPermissionDenied
	}
	now := svc.now().UTC()
	s := Song{
		ID:        uuid.NewString(),
		Title:     ns.Title,
		Artist:    ns.Artist,
		Key:       ns.Key,
		Link:      ns.Link,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s, err := svc.repo.CreateSong(ctx, s)
	return s, errors.Wrap(err, "creating song")
}

func (svc *Service) Get(ctx context.Context, sess core.Session, id string) (Song, error) {
	if !canManage(sess) {
		return Song{}, core.ErrPermissionDenied
	}
	return svc.repo.GetSong(ctx, id)
}

func (svc *Service) Query(ctx context.Context, sess core.Session, filter QueryFilter, ordering ...core.DBOrdering) ([]Song, error) {
	if !canManage(sess) {
		return nil, core.ErrPermissionDenied
	}
	return svc.repo.QuerySongs(ctx, filter, ordering...)
}

// Missing returns the ids in ids that match no Song.
func (svc *Service) Missing(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	songs, err := svc.repo.QuerySongs(ctx, QueryFilter{IDs: ids})
	if err != nil {
		return nil, errors.Wrap(err, "querying songs")
	}
	found := make(map[string]struct{}, len(songs))
	for _, s := range songs {
		found[s.ID] = struct{}{}
	}
	var missing []string
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

func (svc *Service) Update(ctx context.Context, sess core.Session, s Song, ns NewSong) (Song, error) {
	if !canManage(sess) {
		return Song{}, core.ErrPermissionDenied
	}
	s.Title = ns.Title
	s.Artist = ns.Artist
	s.Key = ns.Key
	s.Link = ns.Link
	s.UpdatedAt = svc.now().UTC()
	s, err := svc.repo.UpdateSong(ctx, s)
	return s, errors.Wrap(err, "updating song")
}

func (svc *Service) Delete(ctx context.Context, sess core.Session, id string) error {
	if !canManage(sess) {
		return core.ErrPermissionDenied
	}
	return svc.repo.DeleteSong(ctx, id)
}
