package handlers

import (
	"fmt"
	"strconv"
	"strings"

	"timetracker/internal/common"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// bindBody decodes the JSON payload. Malformed input is a validation failure.
func bindBody(c echo.Context, dst interface{}) error {
	if err := (&echo.DefaultBinder{}).BindBody(c, dst); err != nil {
		return fmt.Errorf("%w: invalid request format", common.ErrValidation)
	}
	return nil
}

func pathID(c echo.Context) (uuid.UUID, error) {
	return common.ValidateUUID(c.Param("id"), "id")
}

// queryUUID parses an optional uuid query parameter.
func queryUUID(c echo.Context, name string) (*uuid.UUID, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return nil, nil
	}
	id, err := common.ValidateUUID(raw, name)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// queryBool parses an optional boolean query parameter.
func queryBool(c echo.Context, name string) (*bool, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be true or false", common.ErrValidation, name)
	}
	return &v, nil
}

// pagination reads limit and offset. Clamping happens in the services.
func pagination(c echo.Context) (int, int, error) {
	limit, offset := 0, 0
	for name, dst := range map[string]*int{"limit": &limit, "offset": &offset} {
		raw := strings.TrimSpace(c.QueryParam(name))
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return 0, 0, fmt.Errorf("%w: %s must be an integer", common.ErrValidation, name)
		}
		*dst = v
	}
	return limit, offset, nil
}
