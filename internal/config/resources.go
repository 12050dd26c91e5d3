package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ResourceDef declares one lockable resource.
type ResourceDef struct {
	Name        string   `yaml:"name" mapstructure:"name"`
	Description string   `yaml:"description,omitempty" mapstructure:"description"`
	Labels      []string `yaml:"labels,omitempty" mapstructure:"labels"`
}

// DefinitionsFile is the on-disk format of the resource definitions.
//
//	resources:
//	  - name: printer-1
//	    labels: [printer, floor-2]
type DefinitionsFile struct {
	Resources []ResourceDef `yaml:"resources"`
}

// LoadDefinitions reads and validates resource definitions from path.
func LoadDefinitions(path string) ([]ResourceDef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading resource definitions: %w", err)
	}
	return ParseDefinitions(data)
}

// ParseDefinitions parses and validates YAML resource definitions.
func ParseDefinitions(data []byte) ([]ResourceDef, error) {
	var file DefinitionsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing resource definitions: %w", err)
	}
	if errs := ValidateDefinitions(file.Resources); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}
	return file.Resources, nil
}

// WriteDefinitions writes defs to path in the definitions file format.
func WriteDefinitions(path string, defs []ResourceDef) error {
	data, err := yaml.Marshal(DefinitionsFile{Resources: defs})
	if err != nil {
		return fmt.Errorf("encoding resource definitions: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing resource definitions: %w", err)
	}
	return nil
}

// ValidateDefinitions checks that every definition has a unique, non-blank
// name without surrounding whitespace.
func ValidateDefinitions(defs []ResourceDef) []ValidationError {
	var errors []ValidationError
	seen := make(map[string]int, len(defs))

	for i, d := range defs {
		field := fmt.Sprintf("resources[%d].name", i)
		switch {
		case strings.TrimSpace(d.Name) == "":
			errors = append(errors, ValidationError{Field: field, Value: d.Name, Message: "must not be empty"})
			continue
		case strings.TrimSpace(d.Name) != d.Name:
			errors = append(errors, ValidationError{Field: field, Value: d.Name, Message: "must not have surrounding whitespace"})
		}
		if prev, ok := seen[d.Name]; ok {
			errors = append(errors, ValidationError{
				Field:   field,
				Value:   d.Name,
				Message: fmt.Sprintf("duplicates resources[%d]", prev),
			})
			continue
		}
		seen[d.Name] = i
	}
	return errors
}
