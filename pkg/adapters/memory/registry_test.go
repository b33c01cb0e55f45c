package memory_test

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/aretw0/threeview/pkg/adapters/memory"
	"github.com/aretw0/threeview/pkg/ports"
)

func TestRegistry_Contract(t *testing.T) {
	reg := memory.NewRegistry()
	var n atomic.Int64

	ports.RunConnectionRegistryContract(t, ports.RegistryFixture{
		Registry: reg,
		Attach: func(pageID string) ports.Socket {
			s := memory.NewSocket(fmt.Sprintf("mem-%d", n.Add(1)))
			reg.Add(pageID, s)
			return s
		},
		Detach: func(pageID string, s ports.Socket) {
			reg.Remove(pageID, s.ID())
		},
	})
}
