package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/myfeedback/core/feedback"
)

// contextUserMiddleware loads the token's user into the context. Deactivated users are turned away.
func contextUserMiddleware(svc feedback.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			id, err := claims.UserID()
			if err != nil {
				return err
			}

			usr, err := svc.GetUser(ctx.Request().Context(), id)
			if err != nil {
				return errors.Wrap(err, "finding user by ID")
			}
			if !usr.IsActive() {
				return errAccountDeactivated
			}
			ctx.Set(contextUserKey, usr)
			return next(ctx)
		}
	}
}
