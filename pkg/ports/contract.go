package ports

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RegistryFixture lets the contract attach and detach sockets through the
// implementation's own mutation path (the registry interface itself is read-only).
type RegistryFixture struct {
	Registry ConnectionRegistry
	Attach   func(pageID string) Socket
	Detach   func(pageID string, sock Socket)
}

// RunConnectionRegistryContract verifies that a ConnectionRegistry implementation
// adheres to the defined interface contract.
func RunConnectionRegistryContract(t *testing.T, fx RegistryFixture) {
	pageID := "contract-page-" + time.Now().Format("20060102150405")

	t.Run("Unknown page is empty", func(t *testing.T) {
		assert.Empty(t, fx.Registry.SocketsFor("missing-"+pageID))
	})

	t.Run("Attach and resolve", func(t *testing.T) {
		a := fx.Attach(pageID)
		b := fx.Attach(pageID)
		other := fx.Attach(pageID + "-other")
		defer fx.Detach(pageID, a)
		defer fx.Detach(pageID, b)
		defer fx.Detach(pageID+"-other", other)

		got := ids(fx.Registry.SocketsFor(pageID))
		assert.ElementsMatch(t, []string{a.ID(), b.ID()}, got)
		assert.NotContains(t, got, other.ID())
	})

	t.Run("Detach removes socket", func(t *testing.T) {
		a := fx.Attach(pageID)
		fx.Detach(pageID, a)
		assert.NotContains(t, ids(fx.Registry.SocketsFor(pageID)), a.ID())
	})

	t.Run("Sockets are distinct", func(t *testing.T) {
		seen := make(map[string]bool)
		var attached []Socket
		for i := 0; i < 5; i++ {
			s := fx.Attach(pageID)
			attached = append(attached, s)
			require.False(t, seen[s.ID()], fmt.Sprintf("duplicate socket id %s", s.ID()))
			seen[s.ID()] = true
		}
		for _, s := range attached {
			fx.Detach(pageID, s)
		}
	})

	t.Run("Send honours context", func(t *testing.T) {
		s := fx.Attach(pageID)
		defer fx.Detach(pageID, s)
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		assert.NoError(t, s.Send(ctx, `move("x", 0, 0, 0)`))
	})
}

func ids(sockets []Socket) []string {
	out := make([]string, 0, len(sockets))
	for _, s := range sockets {
		out = append(out, s.ID())
	}
	return out
}
