package spec

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Parse decodes a YAML or JSON API description and validates it. The returned
// API is ready for code generation.
func Parse(data []byte) (*API, error) {
	api, err := decode(data)
	if err != nil {
		return nil, err
	}
	if err := api.Validate(); err != nil {
		return nil, err
	}
	return api, nil
}

func decode(data []byte) (*API, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &SpecError{Code: InputError, Message: "spec: description is empty"}
	}
	api := new(API)
	if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(api); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &SpecError{Code: InputError, Message: "spec: description is empty"}
		}
		return nil, &SpecError{Code: ParseError, Message: fmt.Sprintf("parse description: %v", err), Cause: err}
	}
	return api, nil
}
