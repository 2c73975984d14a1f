package idx_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/identity/pkg/idx"
	"github.com/stretchr/testify/require"
)

func TestNewAndParse(t *testing.T) {
	id := idx.New()
	require.NotEmpty(t, id.String())

	parsed, err := idx.Parse(id.String())
	require.NoError(t, err)
	require.Equal(t, id, parsed)
	require.False(t, id.IsZero())
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "   ", "not-a-ulid", "42", "01HQ7T3Z1MZ0JQ3M6MZQ1FQ3Z"} {
		t.Run(in, func(t *testing.T) {
			_, err := idx.Parse(in)
			require.ErrorIs(t, err, idx.ErrInvalid)
		})
	}
}

func TestOrdering(t *testing.T) {
	a := idx.NewAt(time.Unix(1, 0).UTC())
	b := idx.NewAt(time.Unix(2, 0).UTC())

	require.Equal(t, -1, idx.Compare(a, b))
	require.Equal(t, 1, idx.Compare(b, a))
	require.Equal(t, 0, idx.Compare(a, a))
}

func TestTimeExtraction(t *testing.T) {
	tm := time.Unix(1700000000, 0).UTC()
	id := idx.NewAt(tm)

	require.WithinDuration(t, tm, id.Time(), time.Millisecond)
	require.True(t, idx.Zero.Time().IsZero())
}

func TestScanAndValue(t *testing.T) {
	id := idx.MustParse("01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZV")

	v, err := id.Value()
	require.NoError(t, err)
	require.Equal(t, "01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZV", v)

	var scanned idx.ID
	require.NoError(t, scanned.Scan([]byte("01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZV")))
	require.Equal(t, id, scanned)

	require.NoError(t, scanned.Scan(nil))
	require.True(t, scanned.IsZero())

	require.Error(t, scanned.Scan(12))
}
