package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

type loggerFunc func(string, ...any)

func (f loggerFunc) Info(msg string, v ...any) { f(msg, v...) }

func TestLoggerMiddleware(t *testing.T) {
	called := 0
	var msg string
	fields := map[string]any{}

	logger := loggerFunc(func(m string, v ...any) {
		called++
		msg = m
		for i := 0; i+1 < len(v); i += 2 {
			fields[v[i].(string)] = v[i+1]
		}
	})

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_, err := w.Write([]byte("no"))
		require.NoError(t, err, "should write response")
	})

	middleware := LoggerMiddleware(logger)
	srv := httptest.NewServer(middleware(h))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/transfers")
	require.NoError(t, err, "should make request to test server")
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "should read response body")
	defer resp.Body.Close() // nolint:errcheck

	require.Equalf(t, http.StatusPaymentRequired, resp.StatusCode, "should pass the handler status through. Resp: %s", string(body))
	require.Equal(t, "no", string(body))

	require.Equal(t, 1, called, "logger should be called once")
	require.Equal(t, "request handled", msg)
	require.Equal(t, "GET", fields["method"])
	require.Equal(t, "/transfers", fields["uri"])
	require.NotEmpty(t, fields["remote"])
	require.Equal(t, http.StatusPaymentRequired, fields["status"])
	require.Equal(t, 2, fields["size"], "size should be the body length")
	require.NotEmpty(t, fields["duration"])
}

func TestLoggerMiddleware_DefaultStatus(t *testing.T) {
	var status any

	logger := loggerFunc(func(_ string, v ...any) {
		for i := 0; i+1 < len(v); i += 2 {
			if v[i] == "status" {
				status = v[i+1]
			}
		}
	})

	// Handler that writes a body without an explicit WriteHeader
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	srv := httptest.NewServer(LoggerMiddleware(logger)(h))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close() // nolint:errcheck

	require.Equal(t, http.StatusOK, status, "implicit writes should log as 200")
}
