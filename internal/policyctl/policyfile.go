package policyctl

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/core/domain"
	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/usecase"
)

const (
	SupportedAPIVersion = "trend-diary/v1"
	PolicyKind          = "Policy"
)

// PolicyFile is the declarative description of permission atoms and the
// endpoints that require them.
type PolicyFile struct {
	APIVersion  string           `yaml:"apiVersion"`
	Kind        string           `yaml:"kind"`
	Permissions []PermissionSpec `yaml:"permissions"`
	Endpoints   []EndpointSpec   `yaml:"endpoints"`
}

type PermissionSpec struct {
	Resource    string  `yaml:"resource"`
	Action      string  `yaml:"action"`
	Description *string `yaml:"description,omitempty"`
}

// Name renders the atom the way endpoint requirements reference it.
func (p PermissionSpec) Name() string {
	return strings.TrimSpace(p.Resource) + "." + strings.TrimSpace(p.Action)
}

// EndpointSpec lists the permission names (resource.action) an endpoint requires.
// An empty Requires list registers the endpoint with no requirements.
type EndpointSpec struct {
	Path        string   `yaml:"path"`
	Method      string   `yaml:"method"`
	Description *string  `yaml:"description,omitempty"`
	Requires    []string `yaml:"requires"`
}

func (e EndpointSpec) key() string {
	return domain.NormalizeMethod(e.Method) + " " + domain.NormalizePath(e.Path)
}

// LoadPolicyFile reads and validates a policy document. Unknown fields are rejected.
func LoadPolicyFile(path string) (*PolicyFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return ParsePolicyFile(path, data)
}

// ParsePolicyFile decodes data; name is only used in error messages.
func ParsePolicyFile(name string, data []byte) (*PolicyFile, error) {
	var doc PolicyFile

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}

	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &doc, nil
}

// Validate checks the header, rejects duplicates and malformed routes. References to
// permissions not declared in the file are resolved against the database during sync.
func (f *PolicyFile) Validate() error {
	if f.APIVersion != SupportedAPIVersion {
		return fmt.Errorf("unsupported apiVersion %q (expected %q)", f.APIVersion, SupportedAPIVersion)
	}
	if f.Kind != PolicyKind {
		return fmt.Errorf("unexpected kind %q (expected %q)", f.Kind, PolicyKind)
	}

	var errs []error

	permissions := make(map[string]struct{}, len(f.Permissions))
	for i, p := range f.Permissions {
		if strings.TrimSpace(p.Resource) == "" || strings.TrimSpace(p.Action) == "" {
			errs = append(errs, fmt.Errorf("permissions[%d]: resource and action are required", i))
			continue
		}
		if _, dup := permissions[p.Name()]; dup {
			errs = append(errs, fmt.Errorf("permissions[%d]: duplicate permission %s", i, p.Name()))
		}
		permissions[p.Name()] = struct{}{}
	}

	endpoints := make(map[string]struct{}, len(f.Endpoints))
	for i, e := range f.Endpoints {
		if !strings.HasPrefix(domain.NormalizePath(e.Path), "/") {
			errs = append(errs, fmt.Errorf("endpoints[%d]: path must start with /", i))
		}
		if !usecase.IsAllowedMethod(e.Method) {
			errs = append(errs, fmt.Errorf("endpoints[%d]: unsupported method %q", i, e.Method))
		}
		if _, dup := endpoints[e.key()]; dup {
			errs = append(errs, fmt.Errorf("endpoints[%d]: duplicate endpoint %s", i, e.key()))
		}
		endpoints[e.key()] = struct{}{}

		for _, name := range e.Requires {
			if _, _, ok := splitPermissionName(name); !ok {
				errs = append(errs, fmt.Errorf("endpoints[%d]: malformed permission %q (expected resource.action)", i, name))
			}
		}
	}

	return errors.Join(errs...)
}

func splitPermissionName(name string) (string, string, bool) {
	resource, action, ok := strings.Cut(strings.TrimSpace(name), ".")
	if !ok || resource == "" || action == "" {
		return "", "", false
	}
	return resource, action, true
}
