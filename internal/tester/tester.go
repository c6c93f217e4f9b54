// Package tester fires live requests against catalog endpoints for the API
// explorer page and records what came back.
package tester

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/igorsal/iam-dashboard/internal/interfaces"
	"github.com/igorsal/iam-dashboard/internal/models"
)

type Options struct {
	BaseURL string
	// Origin is the dashboard origin a browser would present
	Origin string
	// CORSMode emulates a credentialed cross-origin fetch: preflight plus
	// response origin checks
	CORSMode bool
	// HTTPClient defaults to a client without timeout
	HTTPClient *http.Client
}

type Tester struct {
	baseURL  string
	origin   string
	corsMode bool
	client   *http.Client
	logger   interfaces.Logger
	metrics  interfaces.MetricsCollector
	now      func() time.Time
}

var _ interfaces.RequestTester = (*Tester)(nil)

func New(opts Options, logger interfaces.Logger, metrics interfaces.MetricsCollector) *Tester {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	return &Tester{
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		origin:   opts.Origin,
		corsMode: opts.CORSMode,
		client:   client,
		logger:   logger,
		metrics:  metrics,
		now:      time.Now,
	}
}

// RunTest sends exactly one request for endpoint and returns its terminal
// outcome. Any HTTP response, whatever the status, is a success; only
// transport errors and browser policy refusals are failures. The request is
// detached from ctx cancellation and has no timeout.
func (t *Tester) RunTest(ctx context.Context, endpoint models.EndpointDescriptor, inputs map[string]string) models.TestOutcome {
	ctx = context.WithoutCancel(ctx)
	start := t.now()

	headers := BuildHeaders(endpoint, inputs)
	body := BuildBody(endpoint, inputs)
	target := ResolveURL(t.baseURL, endpoint, inputs)

	t.logger.Info("Running API test",
		"endpoint", endpoint.Key(),
		"url", target,
		"header_names", headerNames(headers),
		"body_bytes", len(body),
		"cors_mode", t.corsMode,
	)

	outcome, err := t.execute(ctx, endpoint.Method, target, headers, body)
	if err != nil {
		outcome = classifyFailure(err)
	}
	outcome.SettledAt = t.now()
	outcome.Duration = outcome.SettledAt.Sub(start)

	t.record(endpoint, outcome)
	return outcome
}

func (t *Tester) execute(ctx context.Context, method, target string, headers map[string]string, body string) (models.TestOutcome, error) {
	if t.corsMode && needsPreflight(method, headers) {
		if err := t.preflight(ctx, method, target, headers); err != nil {
			return models.TestOutcome{}, err
		}
	}

	var bodyReader io.Reader
	if body != "" {
		bodyReader = bytes.NewBufferString(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return models.TestOutcome{}, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if t.corsMode {
		req.Header.Set("Origin", t.origin)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return models.TestOutcome{}, err
	}
	defer resp.Body.Close()

	if t.corsMode {
		if err := t.checkAllowOrigin(target, resp.Header); err != nil {
			return models.TestOutcome{}, err
		}
	}

	raw, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		t.logger.Warn("Failed to read test response body", "url", target, "error", readErr.Error())
	}

	snapshotHeaders := make(map[string]string, len(headers))
	for k, v := range headers {
		snapshotHeaders[k] = v
	}

	return models.TestOutcome{
		Kind:       models.OutcomeSuccess,
		Status:     resp.StatusCode,
		StatusText: statusText(resp),
		Headers:    flattenHeaders(resp.Header),
		Data:       parseBody(raw),
		Request: &models.RequestSnapshot{
			Method:  method,
			URL:     target,
			Headers: snapshotHeaders,
			Body:    body,
		},
	}, nil
}

// classifyFailure flags any error whose text mentions CORS as a
// cross-origin failure. This is a substring heuristic, not a proof: a
// backend message quoting "CORS" is misclassified.
func classifyFailure(err error) models.TestOutcome {
	msg := err.Error()
	return models.TestOutcome{
		Kind:      models.OutcomeFailure,
		Error:     msg,
		CORSError: strings.Contains(msg, "CORS"),
	}
}

// parseBody decodes JSON and falls back to an empty object
func parseBody(raw []byte) interface{} {
	var data interface{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return map[string]interface{}{}
	}
	return data
}

func statusText(resp *http.Response) string {
	text := strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode))
	text = strings.TrimSpace(text)
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}

// flattenHeaders lowercases names and joins repeated values, matching what
// a fetch Headers iterator yields
func flattenHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, values := range h {
		out[strings.ToLower(k)] = strings.Join(values, ", ")
	}
	return out
}

func headerNames(headers map[string]string) []string {
	names := make([]string, 0, len(headers))
	for k := range headers {
		names = append(names, k)
	}
	return names
}

func (t *Tester) record(endpoint models.EndpointDescriptor, outcome models.TestOutcome) {
	label := "success"
	if !outcome.Succeeded() {
		label = "failure"
		if outcome.CORSError {
			label = "cors"
		}
		t.logger.Warn("API test failed",
			"endpoint", endpoint.Key(),
			"error", outcome.Error,
			"cors_error", outcome.CORSError,
		)
	} else {
		t.logger.Info("API test completed",
			"endpoint", endpoint.Key(),
			"status_code", outcome.Status,
			"duration_ms", outcome.Duration.Milliseconds(),
		)
	}

	t.metrics.IncrementCounter("tester_runs_total", map[string]string{
		"endpoint": endpoint.Key(),
		"outcome":  label,
	})
	t.metrics.RecordDuration("tester_run_duration_seconds", outcome.Duration.Seconds(), map[string]string{
		"endpoint": endpoint.Key(),
	})
}
