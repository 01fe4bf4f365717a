// Package session tracks what each chat is expected to send next.
package session

import "sync"

// State names the input a chat is waiting to provide.
type State string

const (
	Idle                  State = "idle"
	AwaitingSession       State = "awaiting_session"
	AwaitingTicket        State = "awaiting_ticket"
	AwaitingWelcomeEdit   State = "awaiting_welcome_edit"
	AwaitingBlockTarget   State = "awaiting_block_target"
	AwaitingUnblockTarget State = "awaiting_unblock_target"
	AwaitingBroadcast     State = "awaiting_broadcast"
)

// Manager holds one pending state per chat in memory. Setting a state replaces
// whatever was pending before, so a chat never waits on two inputs at once.
type Manager struct {
	mu     sync.Mutex
	states map[int64]State
}

// NewManager returns an empty Manager.
func NewManager() *Manager {
	return &Manager{states: make(map[int64]State)}
}

// Set marks chatID as waiting for st. Setting Idle clears the chat.
func (m *Manager) Set(chatID int64, st State) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if st == Idle || st == "" {
		delete(m.states, chatID)
		return
	}
	m.states[chatID] = st
}

// Take returns the pending state of chatID and resets the chat to Idle.
func (m *Manager) Take(chatID int64) State {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.states[chatID]
	if !ok {
		return Idle
	}
	delete(m.states, chatID)
	return st
}

// Clear resets chatID to Idle.
func (m *Manager) Clear(chatID int64) {
	m.Set(chatID, Idle)
}
