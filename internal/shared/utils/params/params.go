package params

import (
	"fmt"

	"seatengine/pkg/apperrors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

var ErrInvalidID = apperrors.Validation("INVALID_ID", "malformed identifier")

// UUID parses a path parameter as a uuid
func UUID(c *gin.Context, name string) (uuid.UUID, error) {
	raw := c.Param(name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, ErrInvalidID.WithMessage(fmt.Sprintf("%s must be a uuid", name)).
			WithDetails(map[string]any{"param": name, "value": raw})
	}
	return id, nil
}
