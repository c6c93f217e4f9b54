package tester

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
)

// CORSError is a request the browser would have refused to complete. Its
// message always starts with "CORS" so the outcome classifier flags it.
type CORSError struct {
	URL    string
	Reason string
}

func (e *CORSError) Error() string {
	return fmt.Sprintf("CORS policy blocked request to %s: %s", e.URL, e.Reason)
}

// Headers a page may set without triggering a preflight
var safelistedHeaders = map[string]bool{
	"accept":           true,
	"accept-language":  true,
	"content-language": true,
	"content-type":     true,
}

var safelistedContentTypes = map[string]bool{
	"application/x-www-form-urlencoded": true,
	"multipart/form-data":               true,
	"text/plain":                        true,
}

// needsPreflight reports whether a browser would send OPTIONS first
func needsPreflight(method string, headers map[string]string) bool {
	if method != http.MethodGet && method != http.MethodHead && method != http.MethodPost {
		return true
	}
	return len(unsafeHeaderNames(headers)) > 0
}

// unsafeHeaderNames lists, lowercased and sorted, the headers that need
// explicit permission from the server
func unsafeHeaderNames(headers map[string]string) []string {
	var names []string
	for name, value := range headers {
		lower := strings.ToLower(name)
		if !safelistedHeaders[lower] {
			names = append(names, lower)
			continue
		}
		if lower == "content-type" {
			mediaType := strings.ToLower(strings.TrimSpace(strings.Split(value, ";")[0]))
			if !safelistedContentTypes[mediaType] {
				names = append(names, lower)
			}
		}
	}
	sort.Strings(names)
	return names
}

// preflight sends the OPTIONS request a browser would send for a credentialed
// cross-origin call and checks the grant. Network failures are returned as
// they are; policy refusals come back as *CORSError.
func (t *Tester) preflight(ctx context.Context, method, target string, headers map[string]string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodOptions, target, nil)
	if err != nil {
		return err
	}
	requested := unsafeHeaderNames(headers)
	req.Header.Set("Origin", t.origin)
	req.Header.Set("Access-Control-Request-Method", method)
	if len(requested) > 0 {
		req.Header.Set("Access-Control-Request-Headers", strings.Join(requested, ","))
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &CORSError{URL: target, Reason: fmt.Sprintf("response to preflight request has HTTP status %d", resp.StatusCode)}
	}
	if err := t.checkAllowOrigin(target, resp.Header); err != nil {
		return err
	}

	if !isSimpleMethod(method) && !listContains(resp.Header.Values("Access-Control-Allow-Methods"), method, true) {
		return &CORSError{URL: target, Reason: fmt.Sprintf("method %s is not allowed by Access-Control-Allow-Methods in preflight response", method)}
	}

	allowed := resp.Header.Values("Access-Control-Allow-Headers")
	for _, name := range requested {
		if !listContains(allowed, name, false) {
			return &CORSError{URL: target, Reason: fmt.Sprintf("request header field %s is not allowed by Access-Control-Allow-Headers in preflight response", name)}
		}
	}
	return nil
}

// checkAllowOrigin applies the credentialed-mode origin rules shared by the
// preflight and the actual response
func (t *Tester) checkAllowOrigin(target string, h http.Header) error {
	origin := h.Get("Access-Control-Allow-Origin")
	switch {
	case origin == "":
		return &CORSError{URL: target, Reason: "no 'Access-Control-Allow-Origin' header is present on the requested resource"}
	case origin == "*":
		return &CORSError{URL: target, Reason: "the value of 'Access-Control-Allow-Origin' must not be the wildcard '*' when the request's credentials mode is 'include'"}
	case origin != t.origin:
		return &CORSError{URL: target, Reason: fmt.Sprintf("the 'Access-Control-Allow-Origin' header has a value '%s' that is not equal to the supplied origin", origin)}
	}
	if h.Get("Access-Control-Allow-Credentials") != "true" {
		return &CORSError{URL: target, Reason: "the value of 'Access-Control-Allow-Credentials' must be 'true' when the request's credentials mode is 'include'"}
	}
	return nil
}

func isSimpleMethod(method string) bool {
	return method == http.MethodGet || method == http.MethodHead || method == http.MethodPost
}

// listContains searches comma-separated header values. The wildcard is not
// honoured because credentialed requests treat "*" literally.
func listContains(values []string, want string, caseSensitive bool) bool {
	for _, v := range values {
		for _, item := range strings.Split(v, ",") {
			item = strings.TrimSpace(item)
			if caseSensitive && item == want {
				return true
			}
			if !caseSensitive && strings.EqualFold(item, want) {
				return true
			}
		}
	}
	return false
}
