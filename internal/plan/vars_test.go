package plan

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestVarsPreservesInsertionOrderRoundTrip(t *testing.T) {
	doc := "zeta: 1\nalpha: 2\nmike: 3\n"

	var v Vars
	require.NoError(t, yaml.Unmarshal([]byte(doc), &v))
	require.Equal(t, []string{"zeta", "alpha", "mike"}, v.Keys())

	out, err := yaml.Marshal(v)
	require.NoError(t, err)
	require.Equal(t, doc, string(out))
}

func TestVarsIsZeroOmitsEmptyField(t *testing.T) {
	type holder struct {
		Vars Vars `yaml:"vars,omitempty"`
	}
	out, err := yaml.Marshal(holder{})
	require.NoError(t, err)
	require.Equal(t, "{}\n", string(out))
}

func TestVarsSetAppendsNewKeysInOrder(t *testing.T) {
	var v Vars
	v.Set("b", "2")
	v.Set("a", "1")
	v.Set("b", "20")
	require.Equal(t, []string{"b", "a"}, v.Keys())
	val, ok := v.Get("b")
	require.True(t, ok)
	require.Equal(t, "20", val)
}
