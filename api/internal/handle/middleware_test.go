package handle

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCORS_Preflight(t *testing.T) {
	eng := replyWith("")
	h := newServer(t, eng, Options{})

	req := httptest.NewRequest(http.MethodOptions, "/api", nil)
	req.Header.Set("Origin", "https://exam.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
	assert.Zero(t, eng.callCount())
}

func TestCORS_OnErrors(t *testing.T) {
	rec := post(newServer(t, replyWith(""), Options{}), `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestID(t *testing.T) {
	h := newServer(t, replyWith("ok"), Options{})

	rec := post(h, `{"context":{"a":1},"question":"q"}`, "X-Request-ID", "abc-123")
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))

	rec = post(h, `{"context":{"a":1},"question":"q"}`)
	assert.Len(t, rec.Header().Get("X-Request-ID"), 36)
}

func TestHealthz(t *testing.T) {
	ts := httptest.NewServer(newServer(t, replyWith(""), Options{}))
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(b))
}

func TestEndToEndOverHTTP(t *testing.T) {
	ts := httptest.NewServer(newServer(t, replyWith(`[{"correctAnswer":"A"}]`), Options{}))
	defer ts.Close()

	resp, err := ts.Client().Post(ts.URL+"/api", "application/json", strings.NewReader(imageBody([]byte{1, 2})))
	require.NoError(t, err)
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"analysis":[{"correctAnswer":"A"}]}`, string(b))
}
