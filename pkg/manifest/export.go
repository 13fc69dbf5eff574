package manifest

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

const schemaID = "https://github.com/sipeed/picoslash/schemas/commands-v1.json"

// Schema produces the JSON Schema (Draft 2020-12) of the manifest document.
func Schema() ([]byte, error) {
	r := new(jsonschema.Reflector)
	r.DoNotReference = false

	s := r.Reflect(&Manifest{})
	s.ID = schemaID
	s.Title = "picoslash command manifest v1"
	s.Description = "Schema for picoslash command manifest YAML documents"

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	return data, nil
}
