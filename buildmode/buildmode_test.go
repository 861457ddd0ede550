package buildmode_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/archlens/pulse/buildmode"
)

func TestValid(t *testing.T) {
	t.Parallel()

	assert.True(t, buildmode.Valid(buildmode.Off))
	assert.True(t, buildmode.Valid(buildmode.Development))
	assert.True(t, buildmode.Valid(buildmode.Production))
	assert.False(t, buildmode.Valid(buildmode.Mode("bogus")))
}

func TestEmits_DevelopmentEmitsEverything(t *testing.T) {
	t.Parallel()

	assert.True(t, buildmode.Emits(buildmode.Development, buildmode.CategoryScope))
	assert.True(t, buildmode.Emits(buildmode.Development, buildmode.CategoryContract))
	assert.True(t, buildmode.Emits(buildmode.Development, buildmode.CategoryAggregate))
}

func TestEmits_ProfileSuppressesContract(t *testing.T) {
	t.Parallel()

	assert.True(t, buildmode.Emits(buildmode.Profile, buildmode.CategoryScope))
	assert.False(t, buildmode.Emits(buildmode.Profile, buildmode.CategoryContract))
	assert.True(t, buildmode.Emits(buildmode.Profile, buildmode.CategoryAggregate))
}

func TestEmits_ProductionOnlyAggregateAndContract(t *testing.T) {
	t.Parallel()

	assert.False(t, buildmode.Emits(buildmode.Production, buildmode.CategoryScope))
	assert.True(t, buildmode.Emits(buildmode.Production, buildmode.CategoryContract))
	assert.True(t, buildmode.Emits(buildmode.Production, buildmode.CategoryAggregate))
}

func TestEmits_UnknownModeFallsBackToProduction(t *testing.T) {
	t.Parallel()

	unknown := buildmode.Mode("nonexistent")
	assert.Equal(t, buildmode.Emits(buildmode.Production, buildmode.CategoryScope), buildmode.Emits(unknown, buildmode.CategoryScope))
}

func TestContractPropagates(t *testing.T) {
	t.Parallel()

	assert.True(t, buildmode.ContractPropagates(buildmode.Development))
	assert.True(t, buildmode.ContractPropagates(buildmode.Test))
	assert.False(t, buildmode.ContractPropagates(buildmode.Profile))
	assert.False(t, buildmode.ContractPropagates(buildmode.QA))
	assert.False(t, buildmode.ContractPropagates(buildmode.Production))
}

func TestMode_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "development", buildmode.Development.String())
	assert.Equal(t, "production", buildmode.Production.String())
}
