package echoweb

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trezcool/perftracker/core"
	"github.com/trezcool/perftracker/core/roster"
	logsvc "github.com/trezcool/perftracker/services/logger"
	"github.com/trezcool/perftracker/storage/database/sqlrepo"
	"github.com/trezcool/perftracker/testutil"
)

var rosterRepo roster.Repository

func setup(t *testing.T) Server {
	// set up DB & repos
	rosterRepo = sqlrepo.NewRosterRepository(testutil.PrepareDB(t))

	// set up services
	svc := roster.NewService(rosterRepo)
	validate, translator := core.NewValidator()

	// set up server
	return NewServer(
		&Options{
			AppName:        "Student Performance Tracker",
			SecretKey:      "test-secret",
			TestMode:       true,
			DisableReqLogs: true,
			Logger:         logsvc.NewNop(),
			RosterSvc:      svc,
			Validate:       validate,
			Translator:     translator,
		},
	)
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	form     url.Values
	wantCode int
	wantData []byte
	wantLoc  string
	wantText []string
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	return req, httptest.NewRecorder()
}

func newFormRequest(method, path string, form url.Values) (*http.Request, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req, httptest.NewRecorder()
}

// follow performs the GET of a redirect response, carrying its cookies, and returns the page body.
func follow(t *testing.T, app Server, rec *httptest.ResponseRecorder) (int, string) {
	t.Helper()
	loc := rec.Header().Get("Location")
	require.NotEmpty(t, loc, "not a redirect")

	req := httptest.NewRequest(http.MethodGet, loc, nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	next := httptest.NewRecorder()
	app.ServeHTTP(next, req)
	body, err := io.ReadAll(next.Body)
	require.NoError(t, err)
	return next.Code, string(body)
}

func marshalObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshalObj() failed: %v", err)
	}
	return data
}

func marshalList(t *testing.T, objs ...interface{}) []byte {
	if objs == nil {
		objs = []interface{}{}
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marshalList() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
