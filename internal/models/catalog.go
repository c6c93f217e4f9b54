package models

// Parameter locations
const (
	InHeader = "header"
	InBody   = "body"
	InQuery  = "query"
	InPath   = "path"
)

// BodyField is the reserved input name holding raw request body text
const BodyField = "body"

// EndpointDescriptor documents one backend endpoint
type EndpointDescriptor struct {
	Path        string                        `yaml:"path" json:"path"`
	Method      string                        `yaml:"method" json:"method"`
	Summary     string                        `yaml:"summary" json:"summary"`
	Description string                        `yaml:"description" json:"description"`
	Tags        []string                      `yaml:"tags" json:"tags"`
	Parameters  []ParameterDescriptor         `yaml:"parameters" json:"parameters"`
	Responses   map[string]ResponseDescriptor `yaml:"responses" json:"responses"`
}

// Key returns the endpoint key, METHOD:path
func (e EndpointDescriptor) Key() string {
	return EndpointKey(e.Method, e.Path)
}

// ParameterDescriptor documents one endpoint parameter. Schema is an example
// payload shape and is never validated against.
type ParameterDescriptor struct {
	Name        string      `yaml:"name" json:"name"`
	In          string      `yaml:"in" json:"in"`
	Type        string      `yaml:"type,omitempty" json:"type,omitempty"`
	Description string      `yaml:"description" json:"description"`
	Required    bool        `yaml:"required" json:"required"`
	Schema      interface{} `yaml:"schema,omitempty" json:"schema,omitempty"`
}

// InputName is the form field holding the operator's value for this
// parameter. Body parameters share the reserved body field.
func (p ParameterDescriptor) InputName() string {
	if p.In == InBody {
		return BodyField
	}
	return p.Name
}

type ResponseDescriptor struct {
	Description string      `yaml:"description" json:"description"`
	Schema      interface{} `yaml:"schema,omitempty" json:"schema,omitempty"`
}

// EndpointKey identifies an endpoint and its result slot
func EndpointKey(method, path string) string {
	return method + ":" + path
}
