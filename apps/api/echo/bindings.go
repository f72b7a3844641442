package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ekklesia/core"
)

const orderingParam = "ordering"

// bindOrdering reads ?ordering=field1,-field2 ("-" for descending).
// Unknown fields are dropped by the repositories.
func bindOrdering(ctx echo.Context) []core.DBOrdering {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return nil
	}

	var orderings []core.DBOrdering
	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		field = strings.TrimPrefix(field, "-")
		if field == "" {
			continue
		}
		orderings = append(orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
	return orderings
}

// bindBody binds the JSON body of the request into dest. Malformed bodies are validation errors.
func bindBody(ctx echo.Context, dest interface{}) error {
	if err := (&echo.DefaultBinder{}).BindBody(ctx, dest); err != nil {
		var herr *echo.HTTPError
		if errors.As(err, &herr) {
			return core.NewValidationError(errors.Errorf("invalid request body: %v", herr.Message))
		}
		return errors.Wrapf(err, "binding to %T", dest)
	}
	return nil
}

// bindQuery binds query params into filter; invalid values are validation errors.
func bindQuery(ctx echo.Context, filter interface{}) error {
	if err := (&echo.DefaultBinder{}).BindQueryParams(ctx, filter); err != nil {
		var herr *echo.HTTPError
		if errors.As(err, &herr) {
			return core.NewValidationError(errors.Errorf("invalid query params: %v", herr.Message))
		}
		return errors.Wrapf(err, "binding to %T", filter)
	}
	return nil
}
