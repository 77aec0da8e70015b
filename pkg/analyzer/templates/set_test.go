package templates

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestSet(t *testing.T) {
	s := NewSet("b", "a", "b")
	assert.Equal(t, 2, s.Len())
	assert.True(t, s.Has("a"))
	assert.False(t, s.Has("c"))

	s.Add("c")
	assert.Equal(t, []string{"a", "b", "c"}, s.Sorted())
}

func TestSet_Difference(t *testing.T) {
	defined := NewSet("home", "contact", "admin")
	referenced := NewSet("home", "contact", "ghost")

	assert.Equal(t, []string{"admin"}, defined.Difference(referenced).Sorted())
	assert.Equal(t, 3, defined.Len())
	assert.Equal(t, 0, NewSet().Difference(referenced).Len())
	assert.Equal(t, 3, defined.Difference(nil).Len())
}

func TestSet_CloneIsIndependent(t *testing.T) {
	s := NewSet("a")
	c := s.Clone()
	c.Add("b")

	assert.False(t, s.Has("b"))
	assert.NotNil(t, Set(nil).Clone())
}

func TestSet_Equal(t *testing.T) {
	assert.True(t, NewSet("a", "b").Equal(NewSet("b", "a")))
	assert.False(t, NewSet("a").Equal(NewSet("a", "b")))
	assert.False(t, NewSet("a").Equal(NewSet("b")))
	assert.True(t, NewSet().Equal(nil))
}

func TestSet_JSON(t *testing.T) {
	data, err := json.Marshal(NewSet("z", "a"))
	require.NoError(t, err)
	assert.JSONEq(t, `["a","z"]`, string(data))

	var s Set
	require.NoError(t, json.Unmarshal([]byte(`["x","x","y"]`), &s))
	assert.Equal(t, []string{"x", "y"}, s.Sorted())

	assert.Error(t, json.Unmarshal([]byte(`{"x":1}`), &s))
}

func TestSet_YAML(t *testing.T) {
	data, err := yaml.Marshal(map[string]Set{"urls": NewSet("b", "a")})
	require.NoError(t, err)
	assert.Equal(t, "urls:\n    - a\n    - b\n", string(data))
}
