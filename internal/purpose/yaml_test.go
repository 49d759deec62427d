package purpose

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "lethe/pkg/domain-errors"
)

type stubSchema struct{}

func (stubSchema) Fields(entityType string) ([]string, error) {
	switch entityType {
	case "customer":
		return []string{"first_name", "last_name", "email"}, nil
	case "address":
		return []string{"city", "street"}, nil
	}
	return nil, fmt.Errorf("unknown type %q", entityType)
}

func (stubSchema) Relations(entityType string) ([]string, error) {
	if entityType == "customer" {
		return []string{"addresses"}, nil
	}
	return nil, nil
}

func (stubSchema) RelatedType(entityType, relation string) (string, error) {
	if entityType == "customer" && relation == "addresses" {
		return "address", nil
	}
	return "", fmt.Errorf("type %q has no relation %q", entityType, relation)
}

const purposesYAML = `
purposes:
  - slug: general
    name: General processing
    entity: customer
    retention: 2y
    fields: ["*"]
  - slug: first_last
    name: Name retention
    entity: customer
    retention: 10y
    fields:
      - first_name
      - last_name
      - addresses: [city]
`

func TestLoad(t *testing.T) {
	catalog, err := Load([]byte(purposesYAML), stubSchema{})
	require.NoError(t, err)

	assert.Equal(t, []string{"first_last", "general"}, catalog.Slugs())

	general, err := catalog.Get("general")
	require.NoError(t, err)
	assert.Equal(t, Retention{Years: 2}, general.Retention)
	assert.True(t, general.Fields.IsWildcard())

	firstLast, err := catalog.Get("first_last")
	require.NoError(t, err)
	assert.Equal(t, "customer", firstLast.EntityType)
	assert.True(t, firstLast.Fields.CoversField("first_name"))
	assert.False(t, firstLast.Fields.CoversField("email"))
	assert.True(t, firstLast.Fields.Child("addresses").CoversField("city"))
}

func TestLoad_UnknownFieldFails(t *testing.T) {
	raw := []byte(`
purposes:
  - slug: broken
    name: Broken
    entity: customer
    retention: 1y
    fields: [nickname]
`)
	_, err := Load(raw, stubSchema{})
	assert.True(t, dErrors.Is(err, dErrors.CodeMalformedSpec))
}

func TestLoad_DuplicateSlugFails(t *testing.T) {
	raw := []byte(`
purposes:
  - slug: general
    name: One
    entity: customer
    retention: 1y
    fields: [email]
  - slug: general
    name: Two
    entity: customer
    retention: 2y
    fields: [email]
`)
	_, err := Load(raw, stubSchema{})
	assert.True(t, dErrors.Is(err, dErrors.CodeDuplicateSlug))
}

func TestLoad_MissingEntityFails(t *testing.T) {
	raw := []byte(`
purposes:
  - slug: general
    name: One
    retention: 1y
    fields: [email]
`)
	_, err := Load(raw, stubSchema{})
	assert.True(t, dErrors.Is(err, dErrors.CodeMalformedSpec))
}

func TestCatalogGet_Unknown(t *testing.T) {
	catalog := NewCatalog()
	_, err := catalog.Get("nope")
	assert.True(t, dErrors.Is(err, dErrors.CodeUnknownPurpose))
}
