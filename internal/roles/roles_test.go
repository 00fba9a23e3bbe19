package roles

import (
	"testing"

	"github.com/stretchr/testify/require"

	dErrors "lading/pkg/domain-errors"
)

func TestAllRolesHaveMetadata(t *testing.T) {
	all := All()
	require.Len(t, all, 12)

	seen := make(map[Role]bool, len(all))
	for _, r := range all {
		require.False(t, seen[r], "duplicate role %s", r)
		seen[r] = true

		meta, ok := Lookup(r)
		require.True(t, ok, "missing metadata for %s", r)
		require.NotEmpty(t, meta.Nickname)
		require.NotEmpty(t, meta.Color)
	}
}

func TestAllReturnsACopy(t *testing.T) {
	first := All()
	first[0] = Role("MUTATED")
	require.Equal(t, Exporter, All()[0])
}

func TestParse(t *testing.T) {
	r, err := Parse("EXPORTER")
	require.NoError(t, err)
	require.Equal(t, Exporter, r)

	_, err = Parse("")
	require.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = Parse("FAUCET")
	require.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}
