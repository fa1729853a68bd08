package transport

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
)

type fakeSession struct{ id string }

func (s fakeSession) SessionID() string                                { return s.id }
func (s fakeSession) NotificationChannel() chan<- mcp.JSONRPCNotification { return nil }
func (s fakeSession) Initialize()                                      {}
func (s fakeSession) Initialized() bool                                { return true }

func TestSessionTableLifecycle(t *testing.T) {
	tbl := NewSessionTable()
	assert.Zero(t, tbl.Len())

	tbl.Add("a")
	tbl.Add("b")
	assert.Equal(t, 2, tbl.Len())
	assert.True(t, tbl.Contains("a"))

	tbl.Remove("a")
	assert.False(t, tbl.Contains("a"))
	assert.True(t, tbl.Contains("b"))

	tbl.Remove("never-added")
	assert.Equal(t, 1, tbl.Len())
}

func TestSessionTableHooks(t *testing.T) {
	tbl := NewSessionTable()
	hooks := tbl.Hooks()

	ctx := context.Background()
	hooks.RegisterSession(ctx, fakeSession{id: "s1"})
	hooks.RegisterSession(ctx, fakeSession{id: "s2"})
	assert.Equal(t, 2, tbl.Len())

	hooks.UnregisterSession(ctx, fakeSession{id: "s1"})
	assert.False(t, tbl.Contains("s1"))
	assert.True(t, tbl.Contains("s2"))
}

func TestSessionTableConcurrentAccess(t *testing.T) {
	tbl := NewSessionTable()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("s%d", n)
			tbl.Add(id)
			tbl.Contains(id)
			if n%2 == 0 {
				tbl.Remove(id)
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 25, tbl.Len())
}
