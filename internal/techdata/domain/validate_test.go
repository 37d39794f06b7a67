package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hydroplan-hq/techsheet-backend/internal/techdata/domain"
)

func TestValidateFieldValue(t *testing.T) {
	t.Run("required field rejects empty values", func(t *testing.T) {
		f := &domain.Field{ID: "flow", Required: true}
		assert.Error(t, domain.ValidateFieldValue(f, nil))
		assert.Error(t, domain.ValidateFieldValue(f, ""))
		assert.NoError(t, domain.ValidateFieldValue(f, 120.5))
	})

	t.Run("optional field accepts empty values", func(t *testing.T) {
		f := &domain.Field{ID: "ph", ValidationRule: "omitempty,numeric"}
		assert.NoError(t, domain.ValidateFieldValue(f, nil))
		assert.NoError(t, domain.ValidateFieldValue(f, ""))
	})

	t.Run("select fields only accept their options", func(t *testing.T) {
		f := &domain.Field{ID: "water_origin", Type: domain.FieldTypeSelect, Options: []string{"industrial", "municipal", "mixta"}}
		assert.NoError(t, domain.ValidateFieldValue(f, "municipal"))
		assert.Error(t, domain.ValidateFieldValue(f, "pozo"))
		assert.Error(t, domain.ValidateFieldValue(f, 3))
	})

	t.Run("validation rule checks the value", func(t *testing.T) {
		f := &domain.Field{ID: "cod", ValidationRule: "omitempty,numeric"}
		assert.NoError(t, domain.ValidateFieldValue(f, 450.0))
		assert.NoError(t, domain.ValidateFieldValue(f, "450"))
		assert.Error(t, domain.ValidateFieldValue(f, "cuatrocientos"))
	})
}

func TestCloneSectionsIsDeep(t *testing.T) {
	original := []domain.Section{
		{ID: "process", Fields: []domain.Field{
			{ID: "pretreatment", Value: []string{"desbaste", "desarenado"}},
		}},
	}

	cloned := domain.CloneSections(original)
	cloned[0].Fields[0].Value.([]string)[0] = "tamizado"
	cloned[0].Fields[0].ID = "changed"

	assert.Equal(t, "desbaste", original[0].Fields[0].Value.([]string)[0])
	assert.Equal(t, "pretreatment", original[0].Fields[0].ID)
}

func TestFindHelpers(t *testing.T) {
	sections := domain.DefaultTemplate()

	sec := domain.FindSection(sections, "influent")
	assert.NotNil(t, sec)
	assert.Nil(t, domain.FindSection(sections, "ghost"))

	assert.NotNil(t, sec.FindField("ph"))
	assert.Nil(t, sec.FindField("ghost"))
}
