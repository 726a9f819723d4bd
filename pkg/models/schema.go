package models

// JSONSchema is the schema dialect used for node output forms, flow contracts and global variables.
type JSONSchema struct {
	Type        string               `json:"type"`
	Properties  map[string]*Property `json:"properties,omitempty"`
	Required    []string             `json:"required,omitempty"`
	Title       string               `json:"title,omitempty"`
	Description string               `json:"description,omitempty"`
}

// Property represents a JSON Schema property
type Property struct {
	Type        string               `json:"type"`
	Description string               `json:"description,omitempty"`
	Enum        []any                `json:"enum,omitempty"`
	Default     any                  `json:"default,omitempty"`
	Format      string               `json:"format,omitempty"`
	MinLength   *int                 `json:"minLength,omitempty"`
	MaxLength   *int                 `json:"maxLength,omitempty"`
	Pattern     string               `json:"pattern,omitempty"`
	Items       *Property            `json:"items,omitempty"`
	Properties  map[string]*Property `json:"properties,omitempty"`
	Required    []string             `json:"required,omitempty"`
}

// NewObjectSchema returns an empty object-shaped schema.
func NewObjectSchema() *JSONSchema {
	return &JSONSchema{
		Type:       "object",
		Properties: map[string]*Property{},
		Required:   []string{},
	}
}

// Clone returns a deep copy of the schema.
func (s *JSONSchema) Clone() *JSONSchema {
	if s == nil {
		return nil
	}

	clone := *s
	clone.Properties = cloneProperties(s.Properties)
	clone.Required = cloneStrings(s.Required)

	return &clone
}

// Clone returns a deep copy of the property.
func (p *Property) Clone() *Property {
	if p == nil {
		return nil
	}

	clone := *p
	clone.Enum = CloneValue(p.Enum)
	clone.Default = CloneValue(p.Default)

	if p.MinLength != nil {
		v := *p.MinLength
		clone.MinLength = &v
	}

	if p.MaxLength != nil {
		v := *p.MaxLength
		clone.MaxLength = &v
	}

	clone.Items = p.Items.Clone()
	clone.Properties = cloneProperties(p.Properties)
	clone.Required = cloneStrings(p.Required)

	return &clone
}

func cloneProperties(properties map[string]*Property) map[string]*Property {
	if properties == nil {
		return nil
	}

	cloned := make(map[string]*Property, len(properties))
	for name, property := range properties {
		cloned[name] = property.Clone()
	}

	return cloned
}

func cloneStrings(values []string) []string {
	if values == nil {
		return nil
	}

	return append([]string(nil), values...)
}
