// Package catalog holds the static description of the IAM backend endpoints
// that the API explorer can document and exercise.
package catalog

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/igorsal/iam-dashboard/internal/interfaces"
	"github.com/igorsal/iam-dashboard/internal/models"
)

//go:embed catalog.yaml
var defaultCatalog []byte

var (
	allowedMethods = map[string]bool{"GET": true, "POST": true, "PUT": true, "DELETE": true}
	allowedIn      = map[string]bool{
		models.InHeader: true,
		models.InBody:   true,
		models.InQuery:  true,
		models.InPath:   true,
	}
	pathParamPattern = regexp.MustCompile(`\{([^{}/]+)\}`)
)

type document struct {
	Endpoints []models.EndpointDescriptor `yaml:"endpoints"`
}

// Catalog is an immutable, ordered endpoint table
type Catalog struct {
	baseURL   string
	endpoints []models.EndpointDescriptor
	index     map[string]int
}

var _ interfaces.EndpointCatalog = (*Catalog)(nil)

// Default returns the embedded catalog bound to baseURL
func Default(baseURL string) (*Catalog, error) {
	return Parse(baseURL, defaultCatalog)
}

// Parse decodes and validates a YAML catalog document
func Parse(baseURL string, data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}

	c := &Catalog{
		baseURL:   strings.TrimRight(baseURL, "/"),
		endpoints: doc.Endpoints,
		index:     make(map[string]int, len(doc.Endpoints)),
	}

	for i, ep := range c.endpoints {
		if err := validateEndpoint(ep); err != nil {
			return nil, fmt.Errorf("catalog entry %d (%s %s): %w", i, ep.Method, ep.Path, err)
		}
		key := ep.Key()
		if _, dup := c.index[key]; dup {
			return nil, fmt.Errorf("catalog entry %d: duplicate endpoint %s", i, key)
		}
		c.index[key] = i
	}

	return c, nil
}

func validateEndpoint(ep models.EndpointDescriptor) error {
	if !allowedMethods[ep.Method] {
		return fmt.Errorf("unsupported method %q", ep.Method)
	}
	if !strings.HasPrefix(ep.Path, "/") {
		return fmt.Errorf("path must start with /")
	}

	seen := make(map[string]bool)
	declaredPath := make(map[string]bool)
	for _, p := range ep.Parameters {
		if p.Name == "" {
			return fmt.Errorf("parameter without name")
		}
		if !allowedIn[p.In] {
			return fmt.Errorf("parameter %q: unsupported location %q", p.Name, p.In)
		}
		id := p.In + "/" + p.Name
		if seen[id] {
			return fmt.Errorf("parameter %q declared twice in %s", p.Name, p.In)
		}
		seen[id] = true
		if p.In == models.InPath {
			declaredPath[p.Name] = true
		}
	}

	for _, m := range pathParamPattern.FindAllStringSubmatch(ep.Path, -1) {
		if !declaredPath[m[1]] {
			return fmt.Errorf("path placeholder {%s} has no path parameter", m[1])
		}
	}
	return nil
}

// Endpoints returns the entries in catalog order
func (c *Catalog) Endpoints() []models.EndpointDescriptor {
	out := make([]models.EndpointDescriptor, len(c.endpoints))
	copy(out, c.endpoints)
	return out
}

// Lookup finds an entry by method and path
func (c *Catalog) Lookup(method, path string) (models.EndpointDescriptor, bool) {
	i, ok := c.index[models.EndpointKey(strings.ToUpper(method), path)]
	if !ok {
		return models.EndpointDescriptor{}, false
	}
	return c.endpoints[i], true
}

func (c *Catalog) BaseURL() string {
	return c.baseURL
}

// Tags returns every tag in first-seen order
func (c *Catalog) Tags() []string {
	var tags []string
	seen := make(map[string]bool)
	for _, ep := range c.endpoints {
		for _, t := range ep.Tags {
			if !seen[t] {
				seen[t] = true
				tags = append(tags, t)
			}
		}
	}
	return tags
}
