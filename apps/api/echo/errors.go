package echoapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/kavyasri378/student-profile-management1/core"
	"github.com/kavyasri378/student-profile-management1/core/student"
	"github.com/kavyasri378/student-profile-management1/core/user"
)

var (
	errUnauthorized         = echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	errAuthenticationFailed = echo.NewHTTPError(http.StatusBadRequest, "Invalid credentials")
	errAccountDeactivated   = echo.NewHTTPError(http.StatusForbidden, "Account deactivated")
	errRefreshExpired       = echo.NewHTTPError(http.StatusForbidden, "Refresh has expired")
)

// response is the envelope wrapping every API payload.
type response struct {
	Success    bool              `json:"success"`
	Message    string            `json:"message,omitempty"`
	Data       interface{}       `json:"data,omitempty"`
	Errors     []core.FieldError `json:"errors,omitempty"`
	Pagination *core.Pagination  `json:"pagination,omitempty"`
}

// fieldPath strips the root struct name off a validation namespace,
// leaving the JSON path of the offending field (eg. "personalInfo.firstName").
func fieldPath(vErr validator.FieldError) string {
	ns := vErr.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return vErr.Field()
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		res := response{Success: false}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				res.Message = "Not authorized to access this route"
				break
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			res.Message = fmt.Sprintf("%v", origErr.Message)
		case validator.ValidationErrors:
			code = http.StatusBadRequest
			res.Message = "Validation failed"
			res.Errors = make([]core.FieldError, 0, len(origErr))
			for _, vErr := range origErr {
				res.Errors = append(res.Errors, core.FieldError{
					Field: fieldPath(vErr),
					Error: vErr.Translate(core.Translator),
				})
			}
		case *core.ValidationError:
			code = http.StatusBadRequest
			if origErr.Fields != nil {
				res.Message = "Validation failed"
				res.Errors = origErr.Fields
			} else {
				res.Message = origErr.Error()
			}
		default:
			switch origErr {
			case user.ErrNotFound, student.ErrNotFound:
				code = http.StatusNotFound
				res.Message = origErr.Error()
			case user.ErrEmailExists, student.ErrProfileExists, student.ErrStudentIDExists:
				code = http.StatusBadRequest
				res.Message = origErr.Error()
			default: // any other error is a server error
				code = http.StatusInternalServerError
				res.Message = "Server Error"

				var usr user.User
				if claims, cErr := getContextClaims(ctx); cErr == nil {
					usr.ID = claims.Subject
					usr.Name = claims.Name
					usr.Email = claims.Email
				}
				logger.Error(res.Message, errors.Wrap(err, res.Message), usr)

				// shutting down...
				if core.IsShutdown(err) {
					signalShutdown()
				}
			}
		}

		if ctx.Echo().Debug && code == http.StatusInternalServerError {
			res.Message = err.Error()
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, res)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
