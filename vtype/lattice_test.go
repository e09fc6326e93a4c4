package vtype_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mhsato/stackjit/vtype"
)

func TestJoin(t *testing.T) {
	r, ok := vtype.Join(vtype.Unknown, vtype.Int32)
	require.True(t, ok)
	require.Equal(t, vtype.Int32, r)

	r, ok = vtype.Join(vtype.Float32, vtype.Unknown)
	require.True(t, ok)
	require.Equal(t, vtype.Float32, r)

	r, ok = vtype.Join(vtype.Int32, vtype.Int32)
	require.True(t, ok)
	require.Equal(t, vtype.Int32, r)

	_, ok = vtype.Join(vtype.Int32, vtype.Float32)
	require.False(t, ok)
}
