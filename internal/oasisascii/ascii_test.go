package oasisascii

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIs7Bit(t *testing.T) {
	require.True(t, Is7Bit([]byte("hello world\n")))
	require.False(t, Is7Bit([]byte{0x80, 'a'}))
	require.True(t, Is7Bit(nil))
}

func TestHostToOasisRoundTrip(t *testing.T) {
	host := []byte("line one\nline two\nlast line")
	converted, longest := HostToOasis(host)

	require.Equal(t, byte(EOF), converted[len(converted)-1])
	require.Contains(t, string(converted), "\r\n")
	require.Equal(t, len("last line"), longest)

	back := OasisToHost(converted)
	require.Equal(t, host, back)
}

func TestHostToOasisDoesNotDoubleTerminate(t *testing.T) {
	host := append([]byte("already terminated"), EOF)
	converted, _ := HostToOasis(host)

	count := 0
	for _, b := range converted {
		if b == EOF {
			count++
		}
	}
	require.Equal(t, 1, count)
}

func TestHostToOasisEmptyFallsBackTo256(t *testing.T) {
	_, longest := HostToOasis(nil)
	require.Equal(t, 256, longest)
}
