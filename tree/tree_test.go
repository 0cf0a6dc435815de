package tree_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/goform/tree"
)

func TestParsePath(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    tree.Path
		wantErr bool
	}{
		{name: "single", in: "email", want: tree.Path{"email"}},
		{name: "nested", in: "address.city", want: tree.Path{"address", "city"}},
		{name: "empty", in: "", wantErr: true},
		{name: "leading dot", in: ".city", wantErr: true},
		{name: "double dot", in: "a..b", wantErr: true},
		{name: "trailing dot", in: "a.", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tree.ParsePath(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tree.ErrInvalidPath))
				var ipe *tree.InvalidPathError
				assert.True(t, errors.As(err, &ipe))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in, got.String())
		})
	}
}

func TestSetGet_RoundTrip(t *testing.T) {
	base := tree.Tree{"name": "x", "address": map[string]any{"zip": "100"}}

	next, err := tree.Set(base, "address.city", "Tokyo")
	require.NoError(t, err)

	v, ok, err := tree.Get(next, "address.city")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Tokyo", v)

	// the input tree is untouched
	_, ok, _ = tree.Get(base, "address.city")
	assert.False(t, ok)
	assert.Equal(t, tree.Tree{"name": "x", "address": map[string]any{"zip": "100"}}, base)
}

func TestSet_SharesUntouchedBranches(t *testing.T) {
	other := map[string]any{"k": 1}
	base := tree.Tree{"other": other, "a": map[string]any{"b": 1}}

	next := tree.SetPath(base, tree.MustParsePath("a.b"), 2)

	nextOther := next["other"].(map[string]any)
	nextOther["probe"] = true
	assert.Equal(t, true, other["probe"], "untouched branch must be shared, not copied")
	assert.Equal(t, 1, base["a"].(map[string]any)["b"])
}

func TestSet_ReplacesNonMapIntermediate(t *testing.T) {
	base := tree.Tree{"date": []string{"required"}}
	next, err := tree.Set(base, "date.day", []string{"invalid"})
	require.NoError(t, err)
	assert.Equal(t, tree.Tree{"date": map[string]any{"day": []string{"invalid"}}}, next)
}

func TestDelete(t *testing.T) {
	t.Run("missing path is a no-op", func(t *testing.T) {
		base := tree.Tree{"a": 1}
		next, err := tree.Delete(base, "b.c")
		require.NoError(t, err)
		assert.Equal(t, base, next)
	})

	t.Run("delete after set restores the previous tree", func(t *testing.T) {
		base := tree.Tree{"a": 1, "nested": map[string]any{"keep": true}}
		set := tree.SetPath(base, tree.MustParsePath("x.y.z"), "v")
		back := tree.DeletePath(set, tree.MustParsePath("x.y.z"))
		assert.True(t, tree.Equal(base, back), "got %v", back)
	})

	t.Run("prunes emptied parents", func(t *testing.T) {
		base := tree.Tree{"address": map[string]any{"city": []string{"required"}}}
		next := tree.DeletePath(base, tree.MustParsePath("address.city"))
		assert.Empty(t, next)
		assert.NotEmpty(t, base)
	})

	t.Run("through a leaf is a no-op", func(t *testing.T) {
		base := tree.Tree{"a": "leaf"}
		next := tree.DeletePath(base, tree.MustParsePath("a.b"))
		assert.Equal(t, base, next)
	})

	t.Run("malformed path", func(t *testing.T) {
		_, err := tree.Delete(tree.Tree{}, "a..b")
		assert.ErrorIs(t, err, tree.ErrInvalidPath)
	})
}

func TestCloneAndLeaves(t *testing.T) {
	base := tree.Tree{
		"email": []string{"invalid"},
		"date":  map[string]any{"day": []string{"required"}, "month": []string{"required"}},
	}
	c := tree.Clone(base)
	assert.True(t, tree.Equal(base, c))
	c["date"].(map[string]any)["day"].([]string)[0] = "changed"
	assert.Equal(t, "required", base["date"].(map[string]any)["day"].([]string)[0])

	assert.Equal(t, []string{"date.day", "date.month", "email"}, tree.Leaves(base))
	assert.True(t, tree.Equal(nil, tree.Tree{}))
}
