package health

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
)

// Manager tracks readiness per dependency. The service reports ready only
// once every registered component has come up, and flips back during
// shutdown so load balancers drain before the listener closes.
type Manager struct {
	mu         sync.Mutex
	components map[string]bool
}

func NewManager(components ...string) *Manager {
	m := &Manager{components: make(map[string]bool, len(components))}
	for _, name := range components {
		m.components[name] = false
	}
	return m
}

func (m *Manager) SetReady(component string, ready bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.components[component] = ready
}

func (m *Manager) Ready() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ready := range m.components {
		if !ready {
			return false
		}
	}
	return true
}

func (m *Manager) status() map[string]bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]bool, len(m.components))
	for name, ready := range m.components {
		out[name] = ready
	}
	return out
}

func LivenessHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func ReadinessHandler(m *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.Ready() {
			c.JSON(http.StatusOK, gin.H{"status": "ready"})
			return
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":     "not_ready",
			"components": m.status(),
		})
	}
}
