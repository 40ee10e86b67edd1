package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type address struct {
	Street string `json:"street"`
	City   string `json:"city"`
}

type person struct {
	Name    string  `json:"name" required:"true" description:"Full name"`
	Age     int     `json:"age" minimum:"0" maximum:"150"`
	Address address `json:"address"`
}

func TestSchemaFromStructAsMap(t *testing.T) {
	t.Parallel()

	schema, err := SchemaFromStructAsMap(person{})
	require.NoError(t, err)

	assert.Equal(t, "object", schema["type"])
	props := schema["properties"].(map[string]any)
	assert.Contains(t, props, "name")
	assert.Contains(t, props, "age")
	assert.Contains(t, props, "address")
	assert.Equal(t, []any{"name"}, schema["required"])
}

func TestNewJSONSchemaResponseFormatStrictFromStruct(t *testing.T) {
	t.Parallel()

	format, err := NewJSONSchemaResponseFormatStrictFromStruct("person", "a person", person{})
	require.NoError(t, err)

	assert.Equal(t, ResponseFormatJSONSchema, format.Type)
	require.NotNil(t, format.JSONSchema)
	assert.Equal(t, "person", format.JSONSchema.Name)
	require.NotNil(t, format.JSONSchema.Strict)
	assert.True(t, *format.JSONSchema.Strict)

	schema := format.JSONSchema.Schema.(map[string]any)
	assert.Equal(t, false, schema["additionalProperties"])
	assert.Equal(t, []string{"address", "age", "name"}, schema["required"])

	nested := schema["properties"].(map[string]any)["address"].(map[string]any)
	assert.Equal(t, false, nested["additionalProperties"])
	assert.Equal(t, []string{"city", "street"}, nested["required"])
}

func TestNewJSONResponseFormat(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ResponseFormatJSON, NewJSONResponseFormat().Type)
	assert.Nil(t, NewJSONResponseFormat().JSONSchema)
}
