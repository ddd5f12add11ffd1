package echoapi

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kavyasri378/student-profile-management1/core/user"
)

// roleMiddleware only lets through users whose role is in roles.
func roleMiddleware(svc *user.Service, roles ...user.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := getContextUser(ctx, svc)
			if err != nil {
				return err
			}
			for _, role := range roles {
				if usr.Role == role {
					return next(ctx)
				}
			}
			return echo.NewHTTPError(
				http.StatusForbidden,
				fmt.Sprintf("User role %s is not authorized to access this route", usr.Role),
			)
		}
	}
}

// profileCompletedMiddleware blocks students who have not completed
// their profile yet. The flag is re-read from the store so a stale
// token cannot bypass the gate.
func profileCompletedMiddleware(svc *user.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := getContextUser(ctx, svc)
			if err != nil {
				return err
			}
			if usr.IsStudent() && !usr.ProfileCompleted {
				return ctx.JSON(http.StatusForbidden, profileIncompleteResponse{
					Success:                   false,
					Message:                   "Please complete your profile first",
					RequiresProfileCompletion: true,
				})
			}
			return next(ctx)
		}
	}
}

type profileIncompleteResponse struct {
	Success                   bool   `json:"success"`
	Message                   string `json:"message"`
	RequiresProfileCompletion bool   `json:"requiresProfileCompletion"`
}
