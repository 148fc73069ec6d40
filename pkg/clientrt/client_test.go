package clientrt

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hiranya911/rest-coder/internal/testutil"
)

type recorded struct {
	method      string
	uri         string
	contentType string
	body        string
	close       bool
}

func newServer(t *testing.T, status int, payload string, rec *recorded) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		*rec = recorded{
			method:      r.Method,
			uri:         r.URL.RequestURI(),
			contentType: r.Header.Get("Content-Type"),
			body:        string(body),
			close:       r.Close,
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, payload)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestInvoke_Success(t *testing.T) {
	t.Parallel()
	var rec recorded
	srv := newServer(t, http.StatusCreated, `{"id":7}`, &rec)

	c := NewClient("", []string{srv.URL + "/api/"})
	payload, err := c.Invoke(context.Background(), Call{
		Method:      http.MethodPost,
		Path:        "/pets/7",
		Query:       "?verbose=true",
		ContentType: "application/json",
		Body:        []byte(`{"name":"rex"}`),
		Expected:    http.StatusCreated,
	})
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, `{"id":7}`, string(payload))
	testutil.ExpectEq(t, http.MethodPost, rec.method)
	testutil.ExpectEq(t, "/api/pets/7?verbose=true", rec.uri)
	testutil.ExpectEq(t, "application/json", rec.contentType)
	testutil.ExpectEq(t, `{"name":"rex"}`, rec.body)
	testutil.ExpectTrue(t, rec.close)
}

func TestInvoke_DeclaredError(t *testing.T) {
	t.Parallel()
	var rec recorded
	srv := newServer(t, http.StatusNotFound, "missing", &rec)

	c := NewClient(srv.URL, nil)
	_, err := c.Invoke(context.Background(), Call{
		Method:   http.MethodGet,
		Path:     "/pets/1",
		Expected: http.StatusOK,
		Errors:   map[int]string{404: "Not found"},
	})
	var re *RemoteError
	if !errors.As(err, &re) {
		t.Fatalf("expected *RemoteError, got %v", err)
	}
	testutil.ExpectEq(t, 404, re.Status)
	testutil.ExpectEq(t, "Not found", re.Cause)
	testutil.ExpectEq(t, "missing", string(re.Body))
}

func TestInvoke_UnexpectedStatus(t *testing.T) {
	t.Parallel()
	var rec recorded
	srv := newServer(t, http.StatusInternalServerError, "", &rec)

	c := NewClient(srv.URL, nil)
	_, err := c.Invoke(context.Background(), Call{Method: http.MethodGet, Path: "/x", Expected: http.StatusOK})
	var re *RemoteError
	if !errors.As(err, &re) {
		t.Fatalf("expected *RemoteError, got %v", err)
	}
	testutil.ExpectEq(t, "unexpected status: 500", re.Cause)
}

func TestNewClient_EndpointSelection(t *testing.T) {
	t.Parallel()
	testutil.ExpectEq(t, "http://a", NewClient("", []string{"http://a", "http://b"}).Endpoint())
	testutil.ExpectEq(t, "http://c", NewClient(" http://c ", []string{"http://a"}).Endpoint())
	testutil.ExpectEq(t, "", NewClient("", nil).Endpoint())
}

func TestCheckStatus_ErrorTableWins(t *testing.T) {
	t.Parallel()
	// a declared error that equals the expected status still maps to the cause
	err := CheckStatus(200, nil, 200, map[int]string{200: "odd"})
	var re *RemoteError
	if !errors.As(err, &re) || re.Cause != "odd" {
		t.Fatalf("expected declared cause, got %v", err)
	}
	testutil.AssertNoError(t, CheckStatus(204, nil, 204, nil))
}
