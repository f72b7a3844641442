package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ekklesia/core"
	"github.com/trezcool/ekklesia/core/member"
	"github.com/trezcool/ekklesia/core/schedule"
)

type departmentApi struct {
	members   *member.Service
	schedules *schedule.Service
	validate  *validator.Validate
}

func registerDepartmentAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	members *member.Service,
	schedules *schedule.Service,
	validate *validator.Validate,
) {
	api := departmentApi{members: members, schedules: schedules, validate: validate}

	dg := g.Group("/departments/:department", jwt, departmentMiddleware())

	mg := dg.Group("/members")
	mg.GET("", api.queryMembers)
	mg.POST("", api.createMember)
	mdg := mg.Group("/:id", objectMiddleware(api.loadMember))
	mdg.GET("", api.retrieveMember)
	mdg.PUT("", api.updateMember)
	mdg.DELETE("", api.destroyMember)

	sg := dg.Group("/schedules")
	sg.GET("", api.querySchedules)
	sg.POST("", api.createSchedule)
	sg.POST("/generate", api.generateSchedule)
	sdg := sg.Group("/:id", objectMiddleware(api.loadSchedule))
	sdg.GET("", api.retrieveSchedule)
	sdg.PUT("", api.updateSchedule)
	sdg.DELETE("", api.destroySchedule)
	sdg.POST("/replicate", api.replicateSchedule)
	sdg.POST("/publish", api.publishSchedule)
	sdg.POST("/unpublish", api.unpublishSchedule)
}

func (api *departmentApi) loadMember(ctx echo.Context, sess core.Session, id string) (member.Member, error) {
	return api.members.Get(ctx.Request().Context(), sess, getContextDepartment(ctx), id)
}

func (api *departmentApi) loadSchedule(ctx echo.Context, sess core.Session, id string) (schedule.Schedule, error) {
	return api.schedules.Get(ctx.Request().Context(), sess, getContextDepartment(ctx), id)
}

// Members

func (api *departmentApi) queryMembers(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context session")
	}

	var filter member.QueryFilter
	if err = bindQuery(ctx, &filter); err != nil {
		return err
	}
	filter.Clean()
	filter.Department = getContextDepartment(ctx)

	members, err := api.members.Query(ctx.Request().Context(), sess, filter, bindOrdering(ctx)...)
	if err != nil {
		return errors.Wrap(err, "querying members")
	}
	return ctx.JSON(http.StatusOK, members)
}

func (api *departmentApi) createMember(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context session")
	}

	var data member.NewMember
	if err = bindBody(ctx, &data); err != nil {
		return err
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	m, err := api.members.Create(ctx.Request().Context(), sess, getContextDepartment(ctx), data)
	if err != nil {
		return errors.Wrap(err, "creating member")
	}
	return ctx.JSON(http.StatusCreated, m)
}

func (api *departmentApi) retrieveMember(ctx echo.Context) error {
	m, err := getContextObject[member.Member](ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, m)
}

func (api *departmentApi) updateMember(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context session")
	}
	m, err := getContextObject[member.Member](ctx)
	if err != nil {
		return err
	}

	var data member.UpdateMember
	if err = bindBody(ctx, &data); err != nil {
		return err
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	m, err = api.members.Update(ctx.Request().Context(), sess, m, data)
	if err != nil {
		return errors.Wrap(err, "updating member")
	}
	return ctx.JSON(http.StatusOK, m)
}

func (api *departmentApi) destroyMember(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context session")
	}
	m, err := getContextObject[member.Member](ctx)
	if err != nil {
		return err
	}

	if err = api.members.Delete(ctx.Request().Context(), sess, m.Department, m.ID); err != nil {
		return errors.Wrap(err, "deleting member")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Schedules

func (api *departmentApi) querySchedules(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context session")
	}

	var filter schedule.QueryFilter
	if err = bindQuery(ctx, &filter); err != nil {
		return err
	}
	filter.Clean()
	filter.Department = getContextDepartment(ctx)

	schedules, err := api.schedules.Query(ctx.Request().Context(), sess, filter, bindOrdering(ctx)...)
	if err != nil {
		return errors.Wrap(err, "querying schedules")
	}
	return ctx.JSON(http.StatusOK, schedules)
}

func (api *departmentApi) createSchedule(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context session")
	}
	dept := getContextDepartment(ctx)

	var data schedule.NewSchedule
	if err = bindBody(ctx, &data); err != nil {
		return err
	}
	if err = data.Validate(api.validate, dept); err != nil {
		return err
	}

	s, err := api.schedules.Create(ctx.Request().Context(), sess, dept, data)
	if err != nil {
		return errors.Wrap(err, "creating schedule")
	}
	return ctx.JSON(http.StatusCreated, s)
}

func (api *departmentApi) generateSchedule(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context session")
	}
	dept := getContextDepartment(ctx)

	var data schedule.GenerateRequest
	if err = bindBody(ctx, &data); err != nil {
		return err
	}
	if err = data.Validate(api.validate, dept); err != nil {
		return err
	}

	s, err := api.schedules.Generate(ctx.Request().Context(), sess, dept, data)
	if err != nil {
		return errors.Wrap(err, "generating schedule")
	}
	return ctx.JSON(http.StatusCreated, s)
}

func (api *departmentApi) retrieveSchedule(ctx echo.Context) error {
	s, err := getContextObject[schedule.Schedule](ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *departmentApi) updateSchedule(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context session")
	}
	s, err := getContextObject[schedule.Schedule](ctx)
	if err != nil {
		return err
	}

	var data schedule.NewSchedule
	if err = bindBody(ctx, &data); err != nil {
		return err
	}
	if err = data.Validate(api.validate, s.Department); err != nil {
		return err
	}

	s, err = api.schedules.Update(ctx.Request().Context(), sess, s, data)
	if err != nil {
		return errors.Wrap(err, "updating schedule")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *departmentApi) destroySchedule(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context session")
	}
	s, err := getContextObject[schedule.Schedule](ctx)
	if err != nil {
		return err
	}

	if err = api.schedules.Delete(ctx.Request().Context(), sess, s.Department, s.ID); err != nil {
		return errors.Wrap(err, "deleting schedule")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *departmentApi) replicateSchedule(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context session")
	}
	s, err := getContextObject[schedule.Schedule](ctx)
	if err != nil {
		return err
	}

	var data schedule.ReplicateRequest
	if err = bindBody(ctx, &data); err != nil {
		return err
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	replica, err := api.schedules.Replicate(ctx.Request().Context(), sess, s.Department, s.ID, data.Date)
	if err != nil {
		return errors.Wrap(err, "replicating schedule")
	}
	return ctx.JSON(http.StatusCreated, replica)
}

func (api *departmentApi) publishSchedule(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context session")
	}
	s, err := getContextObject[schedule.Schedule](ctx)
	if err != nil {
		return err
	}

	s, err = api.schedules.Publish(ctx.Request().Context(), sess, s)
	if err != nil {
		return errors.Wrap(err, "publishing schedule")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *departmentApi) unpublishSchedule(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context session")
	}
	s, err := getContextObject[schedule.Schedule](ctx)
	if err != nil {
		return err
	}

	s, err = api.schedules.Unpublish(ctx.Request().Context(), sess, s)
	if err != nil {
		return errors.Wrap(err, "unpublishing schedule")
	}
	return ctx.JSON(http.StatusOK, s)
}
