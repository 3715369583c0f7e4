package echoweb

import (
	"encoding/gob"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

const sessionName = "perftracker"

// flash categories, also used as CSS classes
const (
	flashSuccess = "success"
	flashInfo    = "info"
	flashWarning = "warning"
	flashDanger  = "danger"
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Category string
	Message  string
}

func init() {
	gob.Register(Flash{})
}

func newSessionStore(secretKey string) sessions.Store {
	store := sessions.NewCookieStore([]byte(secretKey))
	store.Options.HttpOnly = true
	store.Options.SameSite = http.SameSiteLaxMode
	return store
}

func addFlash(store sessions.Store, ctx echo.Context, category, message string) error {
	sess, err := store.Get(ctx.Request(), sessionName)
	if err != nil && sess == nil {
		return errors.Wrap(err, "getting session")
	}
	sess.AddFlash(Flash{Category: category, Message: message})
	return errors.Wrap(sess.Save(ctx.Request(), ctx.Response()), "saving session")
}

// popFlashes returns and clears the pending flashes.
func popFlashes(store sessions.Store, ctx echo.Context) ([]Flash, error) {
	sess, err := store.Get(ctx.Request(), sessionName)
	if err != nil && sess == nil {
		return nil, errors.Wrap(err, "getting session")
	}
	raw := sess.Flashes()
	if len(raw) == 0 {
		return nil, nil
	}
	flashes := make([]Flash, 0, len(raw))
	for _, f := range raw {
		if fl, ok := f.(Flash); ok {
			flashes = append(flashes, fl)
		}
	}
	return flashes, errors.Wrap(sess.Save(ctx.Request(), ctx.Response()), "saving session")
}
