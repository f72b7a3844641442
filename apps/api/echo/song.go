package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ekklesia/core"
	"github.com/trezcool/ekklesia/core/song"
)

type songApi struct {
	svc      *song.Service
	validate *validator.Validate
}

func registerSongAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *song.Service, validate *validator.Validate) {
	api := songApi{svc: svc, validate: validate}

	sg := g.Group("/songs", jwt)
	sg.GET("", api.query)
	sg.POST("", api.create)

	dg := sg.Group("/:id", objectMiddleware(api.load))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
}

func (api *songApi) load(ctx echo.Context, sess core.Session, id string) (song.Song, error) {
	return api.svc.Get(ctx.Request().Context(), sess, id)
}

func (api *songApi) query(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context session")
	}

	var filter song.QueryFilter
	if err = bindQuery(ctx, &filter); err != nil {
		return err
	}
	filter.Clean()

	songs, err := api.svc.Query(ctx.Request().Context(), sess, filter, bindOrdering(ctx)...)
	if err != nil {
		return errors.Wrap(err, "querying songs")
	}
	return ctx.JSON(http.StatusOK, songs)
}

func (api *songApi) create(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context session")
	}

	var data song.NewSong
	if err = bindBody(ctx, &data); err != nil {
		return err
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	s, err := api.svc.Create(ctx.Request().Context(), sess, data)
	if err != nil {
		return errors.Wrap(err, "creating song")
	}
	return ctx.JSON(http.StatusCreated, s)
}

func (api *songApi) retrieve(ctx echo.Context) error {
	s, err := getContextObject[song.Song](ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *songApi) update(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context session")
	}
	s, err := getContextObject[song.Song](ctx)
	if err != nil {
		return err
	}

	var data song.NewSong
	if err = bindBody(ctx, &data); err != nil {
		return err
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	s, err = api.svc.Update(ctx.Request().Context(), sess, s, data)
	if err != nil {
		return errors.Wrap(err, "updating song")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *songApi) destroy(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context session")
	}
	s, err := getContextObject[song.Song](ctx)
	if err != nil {
		return err
	}

	if err = api.svc.Delete(ctx.Request().Context(), sess, s.ID); err != nil {
		return errors.Wrap(err, "deleting song")
	}
	return ctx.NoContent(http.StatusNoContent)
}
