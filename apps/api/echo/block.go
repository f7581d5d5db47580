package echoapi

import (
	"bytes"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/myfeedback/core/feedback"
)

type blockApi struct {
	svc      feedback.Service
	validate *validator.Validate
}

func registerBlockAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc feedback.Service, validate *validator.Validate) {
	api := blockApi{
		svc:      svc,
		validate: validate,
	}

	// un-authed endpoints
	g.GET("/formats", api.formats)

	// authed endpoints
	ag := g.Group("", jwt, contextUserMiddleware(svc))
	ag.GET("/block", api.content)
	ag.GET("/block/html", api.html)
	ag.GET("/feedback", api.feedbackList)
	ag.GET("/marking", api.markingList)
	ag.GET("/submissions", api.submissions)
}

// Handlers

func (api *blockApi) formats(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, feedback.ApplicableFormats())
}

// block builds the context user's block for the requested page.
func (api *blockApi) block(ctx echo.Context) (feedback.Content, error) {
	var req feedback.BlockRequest
	if err := ctx.Bind(&req); err != nil {
		return feedback.Content{}, errors.Wrap(err, "binding to BlockRequest")
	}
	if err := req.Validate(api.validate); err != nil {
		return feedback.Content{}, err
	}

	usr, err := getContextUser(ctx)
	if err != nil {
		return feedback.Content{}, errors.Wrap(err, "getting context user")
	}
	return api.svc.NewBlock(usr).Content(ctx.Request().Context())
}

func (api *blockApi) content(ctx echo.Context) error {
	c, err := api.block(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *blockApi) html(ctx echo.Context) error {
	c, err := api.block(ctx)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err = feedback.Render(&buf, c); err != nil {
		return errors.Wrap(err, "rendering block")
	}
	return ctx.HTMLBlob(http.StatusOK, buf.Bytes())
}

func (api *blockApi) feedbackList(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	items, err := api.svc.FetchFeedback(ctx.Request().Context(), usr)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, items)
}

func (api *blockApi) markingList(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	items, err := api.svc.FetchMarking(ctx.Request().Context(), usr)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, items)
}

func (api *blockApi) submissions(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	subs, err := api.svc.GetSubmissions(ctx.Request().Context(), usr)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, subs)
}
