package tester

import (
	"net/url"
	"strings"

	"github.com/igorsal/iam-dashboard/internal/models"
)

// BaseHeaders are sent with every test request before operator headers
var BaseHeaders = map[string]string{
	"Content-Type": "application/json",
}

// BuildHeaders returns the base headers plus one entry per header parameter
// with a non-empty input. Names and values are used verbatim; required
// headers left empty are not reported.
func BuildHeaders(endpoint models.EndpointDescriptor, inputs map[string]string) map[string]string {
	headers := make(map[string]string, len(BaseHeaders)+len(endpoint.Parameters))
	for k, v := range BaseHeaders {
		headers[k] = v
	}
	for _, p := range endpoint.Parameters {
		if p.In != models.InHeader {
			continue
		}
		if v := inputs[p.Name]; v != "" {
			headers[p.Name] = v
		}
	}
	return headers
}

// BuildBody returns the raw body text for non-GET requests. The text is not
// re-encoded.
func BuildBody(endpoint models.EndpointDescriptor, inputs map[string]string) string {
	if endpoint.Method == "GET" {
		return ""
	}
	return inputs[models.BodyField]
}

// ResolveURL joins baseURL and the endpoint path. Filled path parameters
// replace their {name} placeholder and filled query parameters are appended;
// empty ones leave the URL untouched.
func ResolveURL(baseURL string, endpoint models.EndpointDescriptor, inputs map[string]string) string {
	path := endpoint.Path
	query := url.Values{}

	for _, p := range endpoint.Parameters {
		v := inputs[p.Name]
		if v == "" {
			continue
		}
		switch p.In {
		case models.InPath:
			path = strings.ReplaceAll(path, "{"+p.Name+"}", url.PathEscape(v))
		case models.InQuery:
			query.Add(p.Name, v)
		}
	}

	resolved := strings.TrimRight(baseURL, "/") + path
	if len(query) > 0 {
		resolved += "?" + query.Encode()
	}
	return resolved
}
