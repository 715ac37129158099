package boundary

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTable_Put_Get_Take(t *testing.T) {
	table := NewTable()

	first := table.Put(Wrap(1))
	second := table.Put(Wrap(2))
	require.NotZero(t, first)
	require.NotEqual(t, first, second)
	require.Equal(t, 2, table.Len())

	h, err := table.Get(first)
	require.NoError(t, err)

	value, err := Borrow[int](h)
	require.NoError(t, err)
	require.Equal(t, 1, *value)

	h, err = table.Take(second)
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())

	value, err = Restore[int](h)
	require.NoError(t, err)
	require.Equal(t, 2, *value)

	_, err = table.Get(second)
	require.EqualError(t, err, "handle 2 not found")

	_, err = table.Take(second)
	require.EqualError(t, err, "handle 2 not found")

	_, err = table.Get(0)
	require.EqualError(t, err, "handle 0 not found")
}
