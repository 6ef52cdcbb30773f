package document

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func posInf() float64 { return math.Inf(1) }
func nan() float64    { return math.NaN() }

func TestYAML_ParseScalarTags(t *testing.T) {
	root, err := YAML.Parse([]byte(`
name: demo
port: 8080
ratio: 0.5
debug: true
empty:
quoted: "42"
`))
	require.NoError(t, err)

	tests := []struct {
		key  string
		kind Kind
		tag  Tag
		val  string
	}{
		{"name", ScalarNode, TagString, "demo"},
		{"port", ScalarNode, TagInt, "8080"},
		{"ratio", ScalarNode, TagFloat, "0.5"},
		{"debug", ScalarNode, TagBool, "true"},
		{"empty", NullNode, TagNull, ""},
		{"quoted", ScalarNode, TagString, "42"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			n := root.Get(tt.key)
			require.NotNil(t, n)
			assert.Equal(t, tt.kind, n.Kind)
			assert.Equal(t, tt.tag, n.Tag)
			assert.Equal(t, tt.val, n.Value)
		})
	}
}

func TestYAML_ParseCollections(t *testing.T) {
	root, err := YAML.Parse([]byte(`
servers:
  - alpha
  - beta
limits:
  cpu: 2
  memory: 512
`))
	require.NoError(t, err)

	servers := root.Get("servers")
	require.Equal(t, ListNode, servers.Kind)
	require.Len(t, servers.Items, 2)
	assert.Equal(t, "beta", servers.Items[1].Value)

	limits := root.Get("limits")
	require.Equal(t, MapNode, limits.Kind)
	assert.Equal(t, []string{"cpu", "memory"}, limits.Keys())
}

func TestYAML_ParseComments(t *testing.T) {
	root, err := YAML.Parse([]byte("# How long to wait\ntimeout: 5s\n"))
	require.NoError(t, err)

	assert.Equal(t, "How long to wait", root.Comment("timeout"))
}

func TestYAML_AliasesExpanded(t *testing.T) {
	root, err := YAML.Parse([]byte(`
base: &base
  retries: 3
copy: *base
`))
	require.NoError(t, err)

	cp := root.Get("copy")
	require.Equal(t, MapNode, cp.Kind)
	assert.Equal(t, "3", cp.Get("retries").Value)
}

func TestYAML_EmptyDocument(t *testing.T) {
	for _, in := range []string{"", "~\n", "null\n"} {
		root, err := YAML.Parse([]byte(in))
		require.NoError(t, err, "input %q", in)
		assert.Equal(t, MapNode, root.Kind)
		assert.Equal(t, 0, root.Len())
	}
}

func TestYAML_RejectsNonMappingRoot(t *testing.T) {
	_, err := YAML.Parse([]byte("- a\n- b\n"))
	require.Error(t, err)

	var syn *SyntaxError
	require.True(t, errors.As(err, &syn))
	assert.Equal(t, "yaml", syn.Format)
	assert.Contains(t, err.Error(), "top-level value must be a mapping")
}

func TestYAML_InvalidSyntax(t *testing.T) {
	_, err := YAML.Parse([]byte("key: value\n\t\tinvalid: [unclosed"))
	require.Error(t, err)

	var syn *SyntaxError
	assert.True(t, errors.As(err, &syn))
}

func TestYAML_RoundTripUntouched(t *testing.T) {
	in := "# Server port\nport: 8080 # inline\nname: 'demo'\nratio: 0x10\n"
	root, err := YAML.Parse([]byte(in))
	require.NoError(t, err)

	out, err := YAML.Serialize(root)
	require.NoError(t, err)
	assert.Equal(t, in, string(out))
}

func TestYAML_SerializeFreshTree(t *testing.T) {
	root := NewMap()
	root.Set("port", Int(8080))
	root.SetComment("port", "Port to listen on")
	root.Set("code", String("42"))
	root.Set("enabled", Bool(false))

	out, err := YAML.Serialize(root)
	require.NoError(t, err)
	assert.Equal(t, "# Port to listen on\nport: 8080\ncode: \"42\"\nenabled: false\n", string(out))

	back, err := YAML.Parse(out)
	require.NoError(t, err)
	assert.True(t, Equal(root, back))
	assert.Equal(t, "Port to listen on", back.Comment("port"))
}

func TestYAML_SerializeNil(t *testing.T) {
	out, err := YAML.Serialize(nil)
	require.NoError(t, err)
	assert.Equal(t, "{}\n", string(out))
}

func TestParseScalar(t *testing.T) {
	tests := []struct {
		in  string
		tag Tag
		val string
	}{
		{"8080", TagInt, "8080"},
		{"1.25", TagFloat, "1.25"},
		{"true", TagBool, "true"},
		{"hello world", TagString, "hello world"},
		{"'007'", TagString, "007"},
		{"", TagString, ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			n, err := ParseScalar(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.tag, n.Tag)
			assert.Equal(t, tt.val, n.Value)
		})
	}
}

func TestTOML_ParseAndSerialize(t *testing.T) {
	root, err := TOML.Parse([]byte(`
name = "demo"
port = 8080

[database]
host = "localhost"
ratio = 0.5
tags = ["a", "b"]
`))
	require.NoError(t, err)

	assert.Equal(t, []string{"database", "name", "port"}, root.Keys())
	assert.Equal(t, TagInt, root.Get("port").Tag)
	db := root.Get("database")
	require.Equal(t, MapNode, db.Kind)
	assert.Equal(t, TagFloat, db.Get("ratio").Tag)
	assert.Len(t, db.Get("tags").Items, 2)

	out, err := TOML.Serialize(root)
	require.NoError(t, err)

	back, err := TOML.Parse(out)
	require.NoError(t, err)
	assert.True(t, Equal(root, back))
}

func TestTOML_NullEntriesSkipped(t *testing.T) {
	root := NewMap()
	root.Set("a", Null())
	root.Set("b", Int(1))

	out, err := TOML.Serialize(root)
	require.NoError(t, err)

	back, err := TOML.Parse(out)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, back.Keys())
}

func TestTOML_NullInListFails(t *testing.T) {
	root := NewMap()
	root.Set("a", NewList(Int(1), Null()))

	_, err := TOML.Serialize(root)
	assert.Error(t, err)
}

func TestTOML_InvalidSyntax(t *testing.T) {
	_, err := TOML.Parse([]byte(`[section` + "\n" + `key = "value"`))
	require.Error(t, err)

	var syn *SyntaxError
	assert.True(t, errors.As(err, &syn))
	assert.Equal(t, "toml", syn.Format)
}

func TestFormatFor(t *testing.T) {
	tests := []struct {
		path    string
		want    string
		wantErr bool
	}{
		{"config.yaml", "yaml", false},
		{"config.YML", "yaml", false},
		{"dir/config.toml", "toml", false},
		{"config.json", "", true},
		{"config", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			f, err := FormatFor(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, f.Name())
		})
	}
}
