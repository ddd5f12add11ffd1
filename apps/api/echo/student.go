package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kavyasri378/student-profile-management1/core/student"
	"github.com/kavyasri378/student-profile-management1/core/user"
)

type profileApi struct {
	svc    *student.Service
	usrSvc *user.Service
}

func registerProfileAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *student.Service, usrSvc *user.Service) {
	api := profileApi{svc: svc, usrSvc: usrSvc}

	pg := g.Group("/profile", jwt)

	studentOnly := roleMiddleware(usrSvc, user.RoleStudent)
	adminOnly := roleMiddleware(usrSvc, user.RoleAdmin)

	pg.POST("", api.create, studentOnly)
	pg.GET("/me", api.me, studentOnly, profileCompletedMiddleware(usrSvc))

	pg.GET("/all", api.query, adminOnly)
	pg.GET("/stats/dashboard", api.stats, adminOnly)

	dg := pg.Group("/:id", adminOnly)
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
}

// Handlers

func (api *profileApi) create(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data student.NewProfile
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewProfile")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	prof, err := api.svc.Create(ctx.Request().Context(), usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "creating profile")
	}

	return ctx.JSON(http.StatusCreated, response{
		Success: true,
		Message: "Profile created successfully",
		Data:    prof,
	})
}

func (api *profileApi) me(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	prof, err := api.svc.GetByUserID(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "finding profile by user ID")
	}
	return ctx.JSON(http.StatusOK, response{Success: true, Data: prof})
}

func (api *profileApi) query(ctx echo.Context) error {
	var filter student.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}

	profs, pagination, err := api.svc.Filter(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying profiles")
	}
	if profs == nil {
		profs = []student.Profile{}
	}
	return ctx.JSON(http.StatusOK, response{
		Success:    true,
		Data:       profs,
		Pagination: &pagination,
	})
}

func (api *profileApi) retrieve(ctx echo.Context) error {
	prof, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding profile by ID")
	}
	return ctx.JSON(http.StatusOK, response{Success: true, Data: prof})
}

func (api *profileApi) update(ctx echo.Context) error {
	var data student.UpdateProfile
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateProfile")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	prof, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating profile")
	}
	return ctx.JSON(http.StatusOK, response{
		Success: true,
		Message: "Profile updated successfully",
		Data:    prof,
	})
}

func (api *profileApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting profile")
	}
	return ctx.JSON(http.StatusOK, response{Success: true, Message: "Profile deleted successfully"})
}

func (api *profileApi) stats(ctx echo.Context) error {
	stats, err := api.svc.DashboardStats(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "computing dashboard stats")
	}
	return ctx.JSON(http.StatusOK, response{Success: true, Data: stats})
}
