package scope

import (
	"sync"
	"time"

	"github.com/penwyp/go-scope-monitor/internal/core/model"
)

// StateManager manages the shell's interaction state in a thread-safe manner
type StateManager struct {
	mu sync.RWMutex

	// Interaction state
	interactionState model.InteractionState

	// Status messages expire so stale errors do not linger on screen
	statusExpiry time.Time
}

// NewStateManager creates a new StateManager instance
func NewStateManager() *StateManager {
	return &StateManager{}
}

// GetInteractionState returns current interaction state
func (sm *StateManager) GetInteractionState() model.InteractionState {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.interactionState.StatusMessage != "" && !sm.statusExpiry.IsZero() && time.Now().After(sm.statusExpiry) {
		sm.interactionState.StatusMessage = ""
		sm.statusExpiry = time.Time{}
	}
	return sm.interactionState
}

// UpdateInteractionState updates specific fields of interaction state
func (sm *StateManager) UpdateInteractionState(updateFunc func(*model.InteractionState)) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	updateFunc(&sm.interactionState)
}

// SetStatus shows a message for ttl; a zero ttl keeps it until replaced
func (sm *StateManager) SetStatus(message string, ttl time.Duration) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.interactionState.StatusMessage = message
	if ttl > 0 {
		sm.statusExpiry = time.Now().Add(ttl)
	} else {
		sm.statusExpiry = time.Time{}
	}
}
