package inbox

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistryRegisterUnregister(t *testing.T) {
	r := NewRegistry()

	r.Register("u1", "e1")
	r.Register("u1", "e2")
	assert.Equal(t, []string{"e1", "e2"}, r.EndpointsFor("u1"))

	r.Unregister("u1", "e1")
	assert.Equal(t, []string{"e2"}, r.EndpointsFor("u1"))

	r.Unregister("u1", "e2")
	assert.Empty(t, r.EndpointsFor("u1"))
}

func TestRegistryRegisterIdempotent(t *testing.T) {
	r := NewRegistry()
	r.Register("u1", "e1")
	r.Register("u1", "e1")
	assert.Equal(t, []string{"e1"}, r.EndpointsFor("u1"))
}

func TestRegistryUnregisterUnknown(t *testing.T) {
	r := NewRegistry()
	r.Unregister("nobody", "e1")
	assert.Empty(t, r.EndpointsFor("nobody"))
}

func TestRegistrySnapshotIsCopy(t *testing.T) {
	r := NewRegistry()
	r.Register("u1", "e1")
	r.Register("u1", "e2")

	snap := r.EndpointsFor("u1")
	snap[0] = "mutated"
	assert.Equal(t, []string{"e1", "e2"}, r.EndpointsFor("u1"))
}

func TestRegistryConcurrentAccess(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("e%d", n)
			r.Register("u1", id)
			r.EndpointsFor("u1")
			r.Unregister("u1", id)
		}(i)
	}
	wg.Wait()
	assert.Empty(t, r.EndpointsFor("u1"))
}
