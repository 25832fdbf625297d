package entity

import (
	"encoding/json"
	"pagestatic/internal/domain/valueobject"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func strPtr(s string) *string { return &s }

func TestNewExportInfo_IsEmpty(t *testing.T) {
	info := NewExportInfo()

	assert.Equal(t, 0, info.Directives.Len())
	assert.Nil(t, info.Runtime)
	assert.Empty(t, info.PreferredRegion)
	assert.Equal(t, 0, info.ExtraProperties.Len())
}

func TestExportInfo_DirectivesCollapseDuplicates(t *testing.T) {
	info := NewExportInfo()
	info.AddDirective(valueobject.DirectiveClient)
	info.AddDirective(valueobject.DirectiveClient)

	assert.Equal(t, []string{"client"}, info.Directives.Sorted())
	assert.True(t, info.HasDirective(valueobject.DirectiveClient))
	assert.False(t, info.HasDirective(valueobject.DirectiveServer))
}

func TestExportInfo_SetRuntimeErasesOnNil(t *testing.T) {
	info := NewExportInfo()

	info.SetRuntime(strPtr("edge"))
	value, ok := info.RuntimeValue()
	require.True(t, ok)
	assert.Equal(t, "edge", value)

	info.SetRuntime(nil)
	_, ok = info.RuntimeValue()
	assert.False(t, ok)
	assert.Nil(t, info.Runtime)
}

func TestExportInfo_SetRuntimeCopiesValue(t *testing.T) {
	info := NewExportInfo()
	v := "nodejs"
	info.SetRuntime(&v)
	v = "edge"

	assert.Equal(t, "nodejs", *info.Runtime)
}

func TestExportInfo_AddExtraPropertySkipsReservedNames(t *testing.T) {
	info := NewExportInfo()
	info.AddExtraProperty("runtime")
	info.AddExtraProperty("preferredRegion")
	info.AddExtraProperty("revalidate")

	assert.Equal(t, []string{"revalidate"}, info.ExtraProperties.Sorted())
}

func TestExportInfo_DataFetchingExports(t *testing.T) {
	info := NewExportInfo()
	for _, name := range []string{"getStaticProps", "foo", "generateStaticParams", "dynamic"} {
		info.AddExtraProperty(name)
	}

	assert.Equal(t, []string{"generateStaticParams", "getStaticProps"}, info.DataFetchingExports())
	assert.Empty(t, NewExportInfo().DataFetchingExports())
}

func TestExportInfo_CloneIsIndependent(t *testing.T) {
	info := NewExportInfo()
	info.AddDirective(valueobject.DirectiveServer)
	info.SetRuntime(strPtr("edge"))
	info.AppendPreferredRegion("iad1")
	info.AddExtraProperty("foo")

	clone := info.Clone()
	assert.Equal(t, info, clone)

	clone.AppendPreferredRegion("sfo1")
	clone.AddExtraProperty("bar")
	*clone.Runtime = "nodejs"

	assert.Equal(t, []string{"iad1"}, info.PreferredRegion)
	assert.False(t, info.ExtraProperties.Has("bar"))
	assert.Equal(t, "edge", *info.Runtime)
}

func TestExportInfo_JSONRoundTrip(t *testing.T) {
	info := NewExportInfo()
	info.AddDirective(valueobject.DirectiveServer)
	info.AddDirective(valueobject.DirectiveClient)
	info.SetRuntime(strPtr("edge"))
	info.AppendPreferredRegion("us-east-1")
	info.AppendPreferredRegion("eu-west-1")
	info.AddExtraProperty("zeta")
	info.AddExtraProperty("alpha")

	data, err := json.Marshal(info)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"directives": ["client", "server"],
		"runtime": "edge",
		"preferred_region": ["us-east-1", "eu-west-1"],
		"extra_properties": ["alpha", "zeta"]
	}`, string(data))

	var decoded ExportInfo
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, info, &decoded)
}

func TestExportInfo_JSONOmitsAbsentRuntime(t *testing.T) {
	data, err := json.Marshal(NewExportInfo())
	require.NoError(t, err)

	assert.JSONEq(t, `{"directives":[],"preferred_region":[],"extra_properties":[]}`, string(data))
}

func TestExportInfo_MarshalYAML(t *testing.T) {
	info := NewExportInfo()
	info.SetRuntime(strPtr("nodejs"))
	info.AppendPreferredRegion("home")

	data, err := yaml.Marshal(info)
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, yaml.Unmarshal(data, &doc))
	assert.Equal(t, "nodejs", doc["runtime"])
	assert.Equal(t, []interface{}{"home"}, doc["preferred_region"])
}
