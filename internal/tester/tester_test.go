package tester

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/igorsal/iam-dashboard/internal/models"
	"github.com/igorsal/iam-dashboard/pkg/logger"
	"github.com/igorsal/iam-dashboard/pkg/metrics"
)

const testOrigin = "http://localhost:3000"

var loginEndpoint = models.EndpointDescriptor{
	Path:   "/auth/login",
	Method: "POST",
	Parameters: []models.ParameterDescriptor{
		{Name: "X-NRM-DID", In: models.InHeader, Required: true},
		{Name: "credentials", In: models.InBody, Required: true},
	},
}

func newTester(baseURL string, corsMode bool) *Tester {
	return New(Options{
		BaseURL:  baseURL,
		Origin:   testOrigin,
		CORSMode: corsMode,
	}, logger.NewNop(), metrics.NewNop())
}

// corsBackend answers preflights for testOrigin and decorates every response
// with credentialed CORS headers before delegating to next
func corsBackend(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", testOrigin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-NRM-DID")
			w.WriteHeader(http.StatusOK)
			return
		}
		next(w, r)
	}
}

func TestRunTestSendsOnlyFilledHeaders(t *testing.T) {
	var received http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received = r.Header.Clone()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	endpoint := models.EndpointDescriptor{
		Path:   "/auth/profile",
		Method: "GET",
		Parameters: []models.ParameterDescriptor{
			{Name: "Authorization", In: models.InHeader, Required: true},
			{Name: "X-NRM-DID", In: models.InHeader, Required: true},
			{Name: "X-Trace", In: models.InHeader},
		},
	}
	inputs := map[string]string{
		"Authorization": "Bearer abc",
		"X-Trace":       "  spaced value ",
	}

	out := newTester(srv.URL, false).RunTest(context.Background(), endpoint, inputs)

	require.True(t, out.Succeeded())
	assert.Equal(t, map[string]string{
		"Content-Type":  "application/json",
		"Authorization": "Bearer abc",
		"X-Trace":       "  spaced value ",
	}, out.Request.Headers)

	assert.Equal(t, "Bearer abc", received.Get("Authorization"))
	assert.Equal(t, "application/json", received.Get("Content-Type"))
	assert.Empty(t, received.Values("X-Nrm-Did"))
	assert.Empty(t, received.Values("Origin"))
}

func TestRunTestBodyHandling(t *testing.T) {
	var gotBody string
	var gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		gotMethod = r.Method
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	raw := "{ \"username\" : \"a\",\n\"password\":\"b\" }"
	tt := newTester(srv.URL, false)

	t.Run("non-GET sends body verbatim", func(t *testing.T) {
		out := tt.RunTest(context.Background(), loginEndpoint, map[string]string{"body": raw})
		require.True(t, out.Succeeded())
		assert.Equal(t, "POST", gotMethod)
		assert.Equal(t, raw, gotBody)
		assert.Equal(t, raw, out.Request.Body)
	})

	t.Run("GET never sends body", func(t *testing.T) {
		get := models.EndpointDescriptor{Path: "/auth/profile", Method: "GET"}
		out := tt.RunTest(context.Background(), get, map[string]string{"body": raw})
		require.True(t, out.Succeeded())
		assert.Equal(t, "GET", gotMethod)
		assert.Empty(t, gotBody)
		assert.Empty(t, out.Request.Body)
	})

	t.Run("empty body field sends nothing", func(t *testing.T) {
		out := tt.RunTest(context.Background(), loginEndpoint, map[string]string{"body": ""})
		require.True(t, out.Succeeded())
		assert.Empty(t, gotBody)
	})
}

func TestRunTestUnparseableBodyIsStillSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>upstream down</html>"))
	}))
	defer srv.Close()

	out := newTester(srv.URL, false).RunTest(context.Background(), loginEndpoint, nil)

	require.True(t, out.Succeeded())
	assert.Equal(t, http.StatusBadGateway, out.Status)
	assert.Equal(t, "Bad Gateway", out.StatusText)
	assert.Equal(t, map[string]interface{}{}, out.Data)
	assert.False(t, out.StatusOK())
}

func TestRunTestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	out := newTester(url, false).RunTest(context.Background(), loginEndpoint, nil)

	assert.False(t, out.Succeeded())
	assert.NotEmpty(t, out.Error)
	assert.False(t, out.CORSError)
	assert.Zero(t, out.Status)
	assert.Nil(t, out.Request)
}

func TestRunTestMalformedURLIsFailure(t *testing.T) {
	out := newTester("http://bad host", false).RunTest(context.Background(), loginEndpoint, nil)

	assert.False(t, out.Succeeded())
	assert.NotEmpty(t, out.Error)
	assert.False(t, out.CORSError)
}

func TestClassifyFailureCORSHeuristic(t *testing.T) {
	tests := []struct {
		msg  string
		cors bool
	}{
		{"CORS policy blocked request", true},
		{"request blocked by CORS preflight", true},
		{"cors blocked", false},
		{"Cors blocked", false},
		{"dial tcp 127.0.0.1:1: connect: connection refused", false},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			out := classifyFailure(errors.New(tt.msg))
			assert.Equal(t, models.OutcomeFailure, out.Kind)
			assert.Equal(t, tt.msg, out.Error)
			assert.Equal(t, tt.cors, out.CORSError)
		})
	}
}

func TestLoginEndToEnd(t *testing.T) {
	var preflights int
	srv := httptest.NewServer(corsBackend(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "d1", r.Header.Get("X-NRM-DID"))
		assert.Equal(t, testOrigin, r.Header.Get("Origin"))
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"username":"a","password":"b"}`, string(body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token":"t","user":{"id":"u1","username":"a"}}`))
	}))
	defer srv.Close()

	countingSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			preflights++
			assert.Equal(t, "POST", r.Header.Get("Access-Control-Request-Method"))
			assert.Equal(t, "content-type,x-nrm-did", r.Header.Get("Access-Control-Request-Headers"))
		}
		srv.Config.Handler.ServeHTTP(w, r)
	}))
	defer countingSrv.Close()

	ws := NewWorkspace("ws-1")
	ws.SetInput(loginEndpoint.Key(), "X-NRM-DID", "d1")
	ws.SetInput(loginEndpoint.Key(), "body", `{"username":"a","password":"b"}`)

	ws.Run(context.Background(), newTester(countingSrv.URL, true), loginEndpoint)

	out, ok := ws.Result("POST:/auth/login")
	require.True(t, ok)
	require.True(t, out.Succeeded())
	assert.Equal(t, 1, preflights)
	assert.Equal(t, http.StatusOK, out.Status)
	assert.Equal(t, "OK", out.StatusText)

	data, ok := out.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "t", data["token"])
	assert.Contains(t, data, "user")

	assert.Equal(t, "POST", out.Request.Method)
	assert.Equal(t, countingSrv.URL+"/auth/login", out.Request.URL)
	assert.Equal(t, "application/json", out.Headers["content-type"])
}

func TestLoginPreflightBlocked(t *testing.T) {
	var reachedBackend bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		reachedBackend = true
		_, _ = w.Write([]byte(`{"token":"t"}`))
	}))
	defer srv.Close()

	ws := NewWorkspace("ws-1")
	ws.SetInput(loginEndpoint.Key(), "X-NRM-DID", "d1")
	ws.SetInput(loginEndpoint.Key(), "body", `{"username":"a","password":"b"}`)

	ws.Run(context.Background(), newTester(srv.URL, true), loginEndpoint)

	out, ok := ws.Result("POST:/auth/login")
	require.True(t, ok)
	assert.False(t, out.Succeeded())
	assert.True(t, out.CORSError)
	assert.Contains(t, out.Error, "preflight")
	assert.Zero(t, out.Status)
	assert.False(t, reachedBackend)
}

func TestCORSRejections(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		reason  string
	}{
		{
			name: "header not allowed",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Access-Control-Allow-Origin", testOrigin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			},
			reason: "x-nrm-did is not allowed",
		},
		{
			name: "wildcard origin with credentials",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Access-Control-Allow-Origin", "*")
				w.Header().Set("Access-Control-Allow-Headers", "*")
			},
			reason: "wildcard",
		},
		{
			name: "foreign origin",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Access-Control-Allow-Origin", "http://elsewhere")
			},
			reason: "not equal to the supplied origin",
		},
		{
			name: "credentials not allowed",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Access-Control-Allow-Origin", testOrigin)
				w.Header().Set("Access-Control-Allow-Headers", "content-type, x-nrm-did")
			},
			reason: "Access-Control-Allow-Credentials",
		},
		{
			name: "actual response lacks allow origin",
			handler: func(w http.ResponseWriter, r *http.Request) {
				if r.Method == http.MethodOptions {
					w.Header().Set("Access-Control-Allow-Origin", testOrigin)
					w.Header().Set("Access-Control-Allow-Credentials", "true")
					w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-NRM-DID")
					return
				}
				w.WriteHeader(http.StatusUnauthorized)
			},
			reason: "no 'Access-Control-Allow-Origin'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			out := newTester(srv.URL, true).RunTest(context.Background(), loginEndpoint, map[string]string{"X-NRM-DID": "d1"})

			assert.False(t, out.Succeeded())
			assert.True(t, out.CORSError)
			assert.Contains(t, out.Error, tt.reason)
		})
	}
}

func TestCORSModeMethodNotAllowed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", testOrigin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	}))
	defer srv.Close()

	del := models.EndpointDescriptor{Path: "/domains/{id}", Method: "DELETE"}
	out := newTester(srv.URL, true).RunTest(context.Background(), del, nil)

	assert.True(t, out.CORSError)
	assert.Contains(t, out.Error, "method DELETE is not allowed")
}

func TestNonSuccessStatusWithCORSIsSuccessOutcome(t *testing.T) {
	srv := httptest.NewServer(corsBackend(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid token"}`))
	}))
	defer srv.Close()

	profile := models.EndpointDescriptor{
		Path:       "/auth/profile",
		Method:     "GET",
		Parameters: []models.ParameterDescriptor{{Name: "Authorization", In: models.InHeader}},
	}
	out := newTester(srv.URL, true).RunTest(context.Background(), profile, map[string]string{"Authorization": "Bearer x"})

	require.True(t, out.Succeeded())
	assert.Equal(t, http.StatusUnauthorized, out.Status)
	assert.Equal(t, map[string]interface{}{"error": "invalid token"}, out.Data)
}

func TestLastSettledResultWins(t *testing.T) {
	firstArrived := make(chan struct{})
	releaseFirst := make(chan struct{})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seq := r.Header.Get("X-Seq")
		if seq == "1" {
			close(firstArrived)
			<-releaseFirst
		}
		_, _ = w.Write([]byte(`{"seq":"` + seq + `"}`))
	}))
	defer srv.Close()

	endpoint := models.EndpointDescriptor{
		Path:       "/auth/validate",
		Method:     "POST",
		Parameters: []models.ParameterDescriptor{{Name: "X-Seq", In: models.InHeader}},
	}
	tt := newTester(srv.URL, false)
	ws := NewWorkspace("ws-1")

	var wg sync.WaitGroup
	ws.SetInput(endpoint.Key(), "X-Seq", "1")
	wg.Add(1)
	go func() {
		defer wg.Done()
		ws.Run(context.Background(), tt, endpoint)
	}()
	<-firstArrived

	ws.SetInput(endpoint.Key(), "X-Seq", "2")
	second := ws.Run(context.Background(), tt, endpoint)
	assert.Equal(t, map[string]interface{}{"seq": "2"}, second.Data)

	close(releaseFirst)
	wg.Wait()

	out, ok := ws.Result(endpoint.Key())
	require.True(t, ok)
	assert.Equal(t, map[string]interface{}{"seq": "1"}, out.Data)
}

func TestRunTestIgnoresCallerCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := newTester(srv.URL, false).RunTest(ctx, loginEndpoint, nil)
	assert.True(t, out.Succeeded())
}
