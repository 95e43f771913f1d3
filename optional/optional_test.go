// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package optional

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOptional(t *testing.T) {
	t.Parallel()

	some := Some(3)
	require.True(t, some.IsPresent())
	require.Equal(t, 3, some.Value())
	require.Equal(t, 3, some.ValueOr(7))
	require.Equal(t, "Some(3)", some.String())

	none := None[int]()
	require.False(t, none.IsPresent())
	require.Equal(t, 0, none.Value())
	require.Equal(t, 7, none.ValueOr(7))
	require.Equal(t, "None", none.String())

	require.Equal(t, some, Of(3, true))
	require.Equal(t, none, Of(3, false))

	mapped := Map(some, strconv.Itoa)
	require.Equal(t, Some("3"), mapped)
	require.False(t, Map(none, strconv.Itoa).IsPresent())
}
