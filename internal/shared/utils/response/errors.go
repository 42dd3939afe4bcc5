package response

import (
	"net/http"

	"seatengine/pkg/apperrors"
	"seatengine/pkg/logger"

	"github.com/gin-gonic/gin"
)

// ErrorBody is the payload placed in the envelope's errors field
type ErrorBody struct {
	Kind    apperrors.Kind `json:"kind"`
	Code    string         `json:"code"`
	Details map[string]any `json:"details,omitempty"`
}

// StatusFor maps an error kind to its HTTP status code
func StatusFor(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindContention:
		return http.StatusConflict
	case apperrors.KindValidation:
		return http.StatusUnprocessableEntity
	case apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindUnauthorized:
		return http.StatusUnauthorized
	case apperrors.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// RespondError writes a typed engine error inside the standard envelope.
// Fatal errors never leak their cause to the client.
func RespondError(c *gin.Context, err error) {
	appErr, ok := apperrors.As(err)
	if !ok || appErr.Kind == apperrors.KindFatal {
		logger.GetDefault().LogHTTPError(c, err, http.StatusInternalServerError)
		RespondJSON(c, "error", http.StatusInternalServerError, "Internal server error", nil, ErrorBody{
			Kind: apperrors.KindFatal,
			Code: apperrors.CodeInternal,
		})
		return
	}

	RespondJSON(c, "error", StatusFor(appErr.Kind), appErr.Message, nil, ErrorBody{
		Kind:    appErr.Kind,
		Code:    appErr.Code,
		Details: appErr.Details,
	})
}

// RespondBindError reports a malformed request body or query
func RespondBindError(c *gin.Context, err error) {
	RespondJSON(c, "error", http.StatusBadRequest, "Invalid request data", nil, err.Error())
}
