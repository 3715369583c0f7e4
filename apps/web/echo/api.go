package echoweb

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/perftracker/core/roster"
)

var (
	errStudentNotFound = echo.NewHTTPError(http.StatusNotFound, "student not found")
)

type rosterApi struct {
	svc *roster.Service
}

func registerRosterAPI(g *echo.Group, svc *roster.Service) {
	api := rosterApi{svc: svc}

	g.GET("/students", api.queryStudents)
	g.GET("/students/:roll", api.retrieveStudent)
	g.GET("/subjects", api.querySubjects)
	g.GET("/reports/:subject", api.report)
}

func (api *rosterApi) queryStudents(ctx echo.Context) error {
	views, err := api.svc.ListStudents(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing students")
	}
	data := make([]map[string]interface{}, 0, len(views))
	for _, v := range views {
		data = append(data, v.Info())
	}
	return ctx.JSON(http.StatusOK, data)
}

func (api *rosterApi) retrieveStudent(ctx echo.Context) error {
	v, err := api.svc.StudentView(ctx.Request().Context(), param(ctx, "roll"))
	if err != nil {
		if errors.Cause(err) == roster.ErrStudentNotFound {
			return errStudentNotFound
		}
		return errors.Wrap(err, "getting student")
	}
	return ctx.JSON(http.StatusOK, v.Info())
}

func (api *rosterApi) querySubjects(ctx echo.Context) error {
	names, err := api.svc.Subjects(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing subjects")
	}
	return ctx.JSON(http.StatusOK, names)
}

func (api *rosterApi) report(ctx echo.Context) error {
	sum, err := api.svc.Summary(ctx.Request().Context(), param(ctx, "subject"))
	if err != nil {
		return errors.Wrap(err, "summarizing subject")
	}
	return ctx.JSON(http.StatusOK, sum)
}
