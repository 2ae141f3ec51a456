package scopes_test

import (
	"testing"

	"github.com/jrsteele09/go-indieauth-server/scopes"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	require.Empty(t, scopes.Parse(""))
	require.Empty(t, scopes.Parse("   "))
	require.Equal(t, scopes.Set{"profile", "email"}, scopes.Parse(" profile  email profile "))
	require.Equal(t, "profile email", scopes.Parse("profile email").String())
}

func TestNarrow(t *testing.T) {
	requested := scopes.Parse("profile email create")

	t.Run("subset selection", func(t *testing.T) {
		require.Equal(t, scopes.Set{"profile", "create"}, requested.Narrow(scopes.FromSlice([]string{"create", "profile"})))
	})

	t.Run("selection cannot widen", func(t *testing.T) {
		narrowed := requested.Narrow(scopes.FromSlice([]string{"profile", "delete"}))
		require.Equal(t, scopes.Set{"profile"}, narrowed)
		require.True(t, narrowed.IsSubsetOf(requested))
	})

	t.Run("empty selection removes everything", func(t *testing.T) {
		require.True(t, requested.Narrow(nil).Empty())
	})
}

func TestDescriptions(t *testing.T) {
	source := scopes.DefaultDescriptions()
	d := scopes.NewDescriptions(source)
	source[scopes.Profile] = "mutated"

	require.Equal(t, "View basic profile information", d.Describe(scopes.Profile))
	require.Equal(t, "media", d.Describe("media"))
	require.Equal(t, []scopes.Described{
		{Name: "email", Description: "View your email address"},
		{Name: "media", Description: "media"},
	}, d.DescribeAll(scopes.Parse("email media")))
}
