package ir

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSizeOfStruct(t *testing.T) {
	table := NewTable()

	unpacked := table.Struct([]TypeID{I8, I32}, false)
	require.Equal(t, 8, table.SizeOf(unpacked))

	packed := table.Struct([]TypeID{I8, I32}, true)
	require.Equal(t, 5, table.SizeOf(packed))
}

func TestSizeOfPrimitives(t *testing.T) {
	table := NewTable()
	require.Equal(t, 1, table.SizeOf(I8))
	require.Equal(t, 4, table.SizeOf(I32))
	require.Equal(t, 8, table.SizeOf(I64))
	require.Equal(t, 8, table.SizeOf(table.Pointer(I32)))
}

func TestSizeOfArray(t *testing.T) {
	table := NewTable()
	arr := table.Array(I32, 3)
	require.Equal(t, 12, table.SizeOf(arr))
}

func TestStructInterning(t *testing.T) {
	table := NewTable()
	a := table.Struct([]TypeID{I8, I32}, false)
	b := table.Struct([]TypeID{I8, I32}, false)
	require.Equal(t, a, b)

	c := table.Struct([]TypeID{I8, I32}, true)
	require.NotEqual(t, a, c)
}

func TestNamedAliasResolvesSize(t *testing.T) {
	table := NewTable()
	st := table.Struct([]TypeID{I8, I32}, false)
	named := table.Named("S", st)
	require.Equal(t, table.SizeOf(st), table.SizeOf(named))
}

func TestAlignOfStruct(t *testing.T) {
	table := NewTable()
	unpacked := table.Struct([]TypeID{I8, I32}, false)
	require.Equal(t, 4, table.AlignOf(unpacked))

	packed := table.Struct([]TypeID{I8, I32}, true)
	require.Equal(t, 1, table.AlignOf(packed))
}
