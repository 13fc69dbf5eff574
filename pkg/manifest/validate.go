package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"text/template"

	sjsonschema "github.com/santhosh-tekuri/jsonschema/v6"
)

// ValidationError is one problem found in a manifest.
type ValidationError struct {
	Phase   string `json:"phase"` // schema or domain
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("[%s] %s", e.Phase, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Phase, e.Path, e.Message)
}

type ValidationErrors []*ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Error()
	}
	return "invalid manifest: " + strings.Join(msgs, "; ")
}

var (
	compileOnce sync.Once
	compiled    *sjsonschema.Schema
	compileErr  error
)

func compiledSchema() (*sjsonschema.Schema, error) {
	compileOnce.Do(func() {
		schemaJSON, err := Schema()
		if err != nil {
			compileErr = err
			return
		}
		doc, err := sjsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
		if err != nil {
			compileErr = fmt.Errorf("unmarshal schema: %w", err)
			return
		}
		c := sjsonschema.NewCompiler()
		if err := c.AddResource(schemaID, doc); err != nil {
			compileErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		compiled, compileErr = c.Compile(schemaID)
	})
	return compiled, compileErr
}

// Validate checks the manifest against its JSON Schema and the rules the
// schema cannot express. An empty result means the manifest is valid.
func Validate(m *Manifest) ValidationErrors {
	if errs := validateSchema(m); len(errs) > 0 {
		return errs
	}
	return validateDomain(m)
}

func validateSchema(m *Manifest) ValidationErrors {
	fail := func(format string, args ...any) ValidationErrors {
		return ValidationErrors{{Phase: "schema", Message: fmt.Sprintf(format, args...)}}
	}

	sch, err := compiledSchema()
	if err != nil {
		return fail("compile schema: %v", err)
	}
	data, err := json.Marshal(m)
	if err != nil {
		return fail("marshal for schema validation: %v", err)
	}
	doc, err := sjsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fail("unmarshal document: %v", err)
	}

	err = sch.Validate(doc)
	if err == nil {
		return nil
	}
	ve, ok := err.(*sjsonschema.ValidationError)
	if !ok {
		return fail("%v", err)
	}
	var errs ValidationErrors
	for _, cause := range flatten(ve) {
		errs = append(errs, &ValidationError{
			Phase:   "schema",
			Path:    strings.Join(cause.InstanceLocation, "/"),
			Message: fmt.Sprintf("%v", cause.ErrorKind),
		})
	}
	return errs
}

func flatten(ve *sjsonschema.ValidationError) []*sjsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*sjsonschema.ValidationError{ve}
	}
	var flat []*sjsonschema.ValidationError
	for _, cause := range ve.Causes {
		flat = append(flat, flatten(cause)...)
	}
	return flat
}

func validateDomain(m *Manifest) ValidationErrors {
	var errs ValidationErrors
	add := func(path, format string, args ...any) {
		errs = append(errs, &ValidationError{Phase: "domain", Path: path, Message: fmt.Sprintf(format, args...)})
	}

	var walk func(path string, cmds []Command)
	walk = func(path string, cmds []Command) {
		seen := make(map[string]bool, len(cmds))
		for i, c := range cmds {
			p := fmt.Sprintf("%s/%d", path, i)
			if seen[c.Name] {
				add(p, "duplicate command name %q", c.Name)
			}
			seen[c.Name] = true

			if len(c.Subcommands) > 0 {
				if len(c.Arguments) > 0 || c.Reply != "" || c.Fail != "" {
					add(p, "command %q has subcommands and must not declare arguments, reply or fail", c.Name)
				}
				walk(p+"/subcommands", c.Subcommands)
				continue
			}

			if c.Reply == "" && c.Fail == "" {
				add(p, "command %q needs a reply or fail", c.Name)
			}
			if c.Reply != "" {
				if _, err := template.New(c.Name).Funcs(funcs).Parse(c.Reply); err != nil {
					add(p+"/reply", "invalid template: %v", err)
				}
			}
			argNames := make(map[string]bool, len(c.Arguments))
			for j, a := range c.Arguments {
				ap := fmt.Sprintf("%s/arguments/%d", p, j)
				if argNames[a.Name] {
					add(ap, "duplicate argument name %q", a.Name)
				}
				argNames[a.Name] = true
				for k, ch := range a.Choices {
					if !choiceMatches(a.Type, ch.Value) {
						add(fmt.Sprintf("%s/choices/%d", ap, k), "choice value %v does not match argument type %q", ch.Value, argType(a.Type))
					}
				}
			}
		}
	}
	walk("commands", m.Commands)
	return errs
}

func argType(t string) string {
	if t == "" {
		return "string"
	}
	return t
}

func choiceMatches(t string, v any) bool {
	switch argType(t) {
	case "string":
		_, ok := v.(string)
		return ok
	case "integer":
		switch n := v.(type) {
		case int, int64:
			return true
		case float64:
			return n == float64(int64(n))
		}
		return false
	default:
		return false
	}
}
