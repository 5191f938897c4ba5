package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/go-playground/validator/v10"

	. "github.com/zugate/teacherdash/apps/api/echo"
	"github.com/zugate/teacherdash/core"
	"github.com/zugate/teacherdash/core/dashboard"
	"github.com/zugate/teacherdash/core/session"
	"github.com/zugate/teacherdash/storage/tokenstore/inmem"
	"github.com/zugate/teacherdash/tests"
)

type fixture struct {
	app       Server
	sess      *session.Session
	ctrl      *dashboard.Controller
	api       *testutil.FakeAPI
	auth      *fakeAuth
	shutdowns int
}

type fakeAuth struct {
	tokens map[string]string // password -> token
}

func (a *fakeAuth) Login(_ context.Context, _, password string) (string, error) {
	if token, ok := a.tokens[password]; ok {
		return token, nil
	}
	return "", core.NewValidationError(nil, core.FieldError{Field: "password", Error: "invalid credentials"})
}

func setup(t *testing.T) *fixture {
	t.Helper()
	return setupWithStore(t, inmem.NewTokenStore())
}

func setupWithStore(t *testing.T, store session.TokenStore) *fixture {
	t.Helper()

	validate := validator.New()
	translator := core.NewTranslator()
	dashboard.InitValidators(validate, translator)

	fx := &fixture{
		sess: session.New(store, session.NewDecoder()),
		api:  new(testutil.FakeAPI),
		auth: &fakeAuth{tokens: map[string]string{}},
	}
	fx.ctrl = dashboard.NewController(dashboard.Deps{
		API:        fx.api,
		Logger:     testutil.NopLogger{},
		Validate:   validate,
		Translator: translator,
	})
	fx.sess.Subscribe(func(snap session.Snapshot) {
		if !snap.Authenticated() {
			fx.ctrl.Reset()
		}
	})
	fx.app = NewServer(&Options{
		TestMode:       true,
		DisableReqLogs: true,
		AppName:        "teacherdash",
		Session:        fx.sess,
		Dashboard:      fx.ctrl,
		Auth:           fx.auth,
		Logger:         testutil.NopLogger{},
		Validate:       validate,
		Translator:     translator,
		SignalShutdown: func() { fx.shutdowns++ },
	})
	return fx
}

func (fx *fixture) signIn(t *testing.T, token string) {
	t.Helper()
	if err := fx.sess.SetToken(context.Background(), token); err != nil {
		t.Fatalf("SetToken() failed: %v", err)
	}
}

func (fx *fixture) do(method, path string, data ...[]byte) *httptest.ResponseRecorder {
	req, rec := newRequest(method, path, data...)
	fx.app.ServeHTTP(rec, req)
	return rec
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	wantCode int
	wantData []byte
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	return req, rec
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func decodeView(t *testing.T, rec *httptest.ResponseRecorder) dashboard.View {
	t.Helper()
	var view dashboard.View
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("decoding view failed: %v; body %s", err, rec.Body.String())
	}
	return view
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
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
