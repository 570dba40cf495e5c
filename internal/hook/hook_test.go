package hook

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type handler func(s string) string

func tag(name string) func(next handler) handler {
	return func(next handler) handler {
		return func(s string) string {
			return next(s + name)
		}
	}
}

func TestChain(t *testing.T) {
	require.Nil(t, Chain[handler]())
	require.Nil(t, Chain[handler](nil, nil))

	h := Chain(tag("a"), nil, tag("b"))
	require.NotNil(t, h)
	out := h(func(s string) string { return s + "!" })("")
	require.Equal(t, "ab!", out)
}

func TestPrependAppend(t *testing.T) {
	base := tag("x")
	final := func(s string) string { return s }

	require.Equal(t, "abx", Prepend(base, tag("a"), tag("b"))(final)(""))
	require.Equal(t, "xab", Append(base, tag("a"), tag("b"))(final)(""))
	require.Equal(t, "a", Prepend[handler](nil, tag("a"))(final)(""))
}
