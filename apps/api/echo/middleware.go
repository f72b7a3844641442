package echoapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/ekklesia/core"
	metricsvc "github.com/trezcool/ekklesia/services/metrics"
)

const contextDepartmentKey = "department"

func adminMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			sess, err := getContextSession(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context session")
			}
			if sess.IsAdmin() {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// departmentMiddleware resolves the :department path param. Access to the department is checked by the services.
func departmentMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			dept, err := core.ParseDepartment(ctx.Param("department"))
			if err != nil {
				return errUnknownDepartment
			}
			ctx.Set(contextDepartmentKey, dept)
			return next(ctx)
		}
	}
}

func getContextDepartment(ctx echo.Context) core.Department {
	dept, _ := ctx.Get(contextDepartmentKey).(core.Department)
	return dept
}

// objectMiddleware loads the object identified by the :id path param into the echo.Context.
func objectMiddleware[T any](load func(ctx echo.Context, sess core.Session, id string) (T, error)) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			sess, err := getContextSession(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context session")
			}
			obj, err := load(ctx, sess, ctx.Param("id"))
			if err != nil {
				return err
			}
			ctx.Set(contextObjectKey, obj)
			return next(ctx)
		}
	}
}

func getContextObject[T any](ctx echo.Context) (T, error) {
	obj, ok := ctx.Get(contextObjectKey).(T)
	if !ok {
		var zero T
		return zero, errors.Errorf("%T not found in echo.Context", zero)
	}
	return obj, nil
}

func requestLoggerMiddleware(logger core.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(ctx echo.Context, v middleware.RequestLoggerValues) error {
			// server errors are reported by the HTTP error handler
			if v.Error != nil && v.Status >= http.StatusInternalServerError {
				return nil
			}
			msg := fmt.Sprintf("%s %s %d %s", v.Method, v.URI, v.Status, v.Latency.Round(time.Microsecond))
			logger.Debug(msg, map[string]interface{}{"remote_ip": v.RemoteIP})
			return nil
		},
	})
}

func metricsMiddleware(m *metricsvc.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			start := time.Now()
			if err := next(ctx); err != nil && !ctx.Response().Committed {
				ctx.Error(err)
			}
			route := ctx.Path()
			if route == "" {
				route = "unmatched"
			}
			m.ObserveRequest(ctx.Request().Method, route, ctx.Response().Status, time.Since(start))
			return nil
		}
	}
}
