package restrict

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const peopleYAML = `restriction:
  people:
    columns:
      age: [gt, ge, lt, le]
      name: [eq, in_]
      city:
    order_by: [age, name]
    limit: true
  audit:
    columns:
      id: [eq]
`

func TestParseYAML(t *testing.T) {
	specs, err := ParseYAML("models.yaml", []byte(peopleYAML))
	require.NoError(t, err)
	require.Len(t, specs, 2)

	people := specs[0]
	assert.Equal(t, "people", people.Name)
	assert.Equal(t, "models.yaml:2", people.Source)
	assert.Equal(t, map[string][]string{
		"age":  {"gt", "ge", "lt", "le"},
		"name": {"eq", "in_"},
		"city": {},
	}, people.Columns)
	assert.Equal(t, []string{"age", "name"}, people.OrderBy)
	assert.True(t, people.Limit)

	assert.Equal(t, "audit", specs[1].Name)
	assert.Equal(t, "models.yaml:9", specs[1].Source)
}

func TestParseYAMLRejectsUnknownField(t *testing.T) {
	_, err := ParseYAML("models.yaml", []byte(`restriction:
  people:
    columns:
      age: [gt]
    limt: true
`))
	require.Error(t, err)

	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Contains(t, err.Error(), "limt")
}

func TestParseYAMLUnknownOperatorCaughtByNew(t *testing.T) {
	specs, err := ParseYAML("models.yaml", []byte(`restriction:
  people:
    columns:
      age: [gte]
`))
	require.NoError(t, err)

	_, err = New(specs[0])
	assert.True(t, IsModelError(err))
	assert.Contains(t, err.Error(), "models.yaml:2")
}

func TestParseYAMLEmpty(t *testing.T) {
	_, err := ParseYAML("empty.yaml", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty document")

	_, err = ParseYAML("none.yaml", []byte("other: 1\n"))
	require.Error(t, err)
}
