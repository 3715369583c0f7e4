package echoweb

import (
	"net/http"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/perftracker/core"
)

const apiPrefix = "/api/"

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// API requests get JSON bodies; pages get the error template.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, appName string) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case validator.ValidationErrors, *core.ValidationError:
			code = http.StatusBadRequest
			message = core.TranslateErrors(origErr, translator)
		default: // any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			message = msg
			logger.Error(msg, err, map[string]interface{}{
				"method": ctx.Request().Method,
				"path":   ctx.Request().URL.Path,
			})
		}

		if ctx.Echo().Debug {
			message = err.Error()
		}

		// Send response
		if ctx.Response().Committed {
			return
		}
		if ctx.Request().Method == http.MethodHead {
			err = ctx.NoContent(code)
		} else if strings.HasPrefix(ctx.Request().URL.Path, apiPrefix) {
			if m, ok := message.(string); ok {
				message = echo.Map{"error": m}
			}
			err = ctx.JSON(code, message)
		} else {
			err = ctx.Render(code, "error", pageData{AppName: appName, Title: http.StatusText(code), Code: code, Message: errorText(code, message)})
		}
		if err != nil {
			ctx.Echo().Logger.Error(err)
		}
	}
}

func errorText(code int, message interface{}) string {
	switch m := message.(type) {
	case string:
		return m
	case map[string]string:
		msgs := make([]string, 0, len(m))
		for _, msg := range m {
			msgs = append(msgs, msg)
		}
		return strings.Join(msgs, " ")
	}
	return http.StatusText(code)
}
