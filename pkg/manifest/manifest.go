// Package manifest declares a command tree in YAML so that a bot can be run
// without writing Go handlers.
package manifest

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Manifest is the top-level document.
type Manifest struct {
	Version  int       `yaml:"version"  json:"version"  jsonschema:"required,enum=1"`
	Commands []Command `yaml:"commands" json:"commands" jsonschema:"required,minItems=1"`
}

// Command is a top-level command, a subcommand group or a leaf. A command with
// subcommands is a group and must not declare arguments or a reply.
type Command struct {
	Name        string     `yaml:"name"                  json:"name"                  jsonschema:"required,minLength=1,maxLength=32,pattern=^[-_a-z0-9]+$"`
	Description string     `yaml:"description"           json:"description"           jsonschema:"required,minLength=1,maxLength=100"`
	Arguments   []Argument `yaml:"arguments,omitempty"   json:"arguments,omitempty"   jsonschema:"maxItems=25"`
	Subcommands []Command  `yaml:"subcommands,omitempty" json:"subcommands,omitempty" jsonschema:"maxItems=25"`
	// Reply is a text/template rendered with the invocation.
	Reply string `yaml:"reply,omitempty" json:"reply,omitempty"`
	// Fail makes the handler return an error with this message after replying.
	Fail string `yaml:"fail,omitempty" json:"fail,omitempty"`
}

type Argument struct {
	Name        string   `yaml:"name"               json:"name"               jsonschema:"required,minLength=1,maxLength=32,pattern=^[-_a-z0-9]+$"`
	Description string   `yaml:"description"        json:"description"        jsonschema:"required,minLength=1,maxLength=100"`
	Type        string   `yaml:"type,omitempty"     json:"type,omitempty"     jsonschema:"enum=string,enum=integer,enum=boolean,enum=user,enum=channel,enum=role"`
	Default     bool     `yaml:"default,omitempty"  json:"default,omitempty"`
	Required    *bool    `yaml:"required,omitempty" json:"required,omitempty"`
	Choices     []Choice `yaml:"choices,omitempty"  json:"choices,omitempty"  jsonschema:"maxItems=25"`
}

type Choice struct {
	Name  string `yaml:"name"  json:"name"  jsonschema:"required,minLength=1,maxLength=100"`
	Value any    `yaml:"value" json:"value" jsonschema:"required"`
}

// LoadFile reads and strictly decodes a manifest file, then validates it.
func LoadFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	m, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if errs := Validate(m); len(errs) > 0 {
		return nil, errs
	}
	return m, nil
}

// Parse decodes a manifest, rejecting unknown fields. It does not validate.
func Parse(r io.Reader) (*Manifest, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var m Manifest
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	return &m, nil
}
