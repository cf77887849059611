package model

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/matheus3301/huddle/internal/api"
	"github.com/matheus3301/huddle/internal/protocol"
	"google.golang.org/grpc"
)

// typingRenewal is how often a held-down composer re-announces typing. It
// stays under the daemon's debounce so the indicator does not flicker.
const typingRenewal = 500 * time.Millisecond

// SessionAPI is the part of the control client the TUI uses.
type SessionAPI interface {
	GetStatus(ctx context.Context, in *api.GetStatusRequest, opts ...grpc.CallOption) (*api.StatusResponse, error)
	ListRoster(ctx context.Context, in *api.ListRosterRequest, opts ...grpc.CallOption) (*api.RosterResponse, error)
	ListMessages(ctx context.Context, in *api.ListMessagesRequest, opts ...grpc.CallOption) (*api.MessagesResponse, error)
	GetCounter(ctx context.Context, in *api.GetCounterRequest, opts ...grpc.CallOption) (*api.CounterResponse, error)
	SendMessage(ctx context.Context, in *api.SendMessageRequest, opts ...grpc.CallOption) (*api.SendMessageResponse, error)
	DeleteMessage(ctx context.Context, in *api.DeleteMessageRequest, opts ...grpc.CallOption) (*api.Empty, error)
	UpdateCounter(ctx context.Context, in *api.UpdateCounterRequest, opts ...grpc.CallOption) (*api.CounterResponse, error)
	MarkTyping(ctx context.Context, in *api.MarkTypingRequest, opts ...grpc.CallOption) (*api.Empty, error)
}

// ViewModel caches the daemon's state for rendering.
type ViewModel struct {
	mu sync.RWMutex

	client   SessionAPI
	clock    clock.Clock
	Status   *api.StatusResponse
	Roster   []api.RosterEntry
	Messages []protocol.ChatMessage
	Counter  *api.CounterResponse
	Flash    *Flash

	typingSince time.Time
	typing      bool
}

// NewViewModel creates a view model backed by the daemon client.
func NewViewModel(c SessionAPI, clk clock.Clock) *ViewModel {
	if clk == nil {
		clk = clock.New()
	}
	return &ViewModel{
		client: c,
		clock:  clk,
		Flash:  NewFlash(clk),
	}
}

// SelfID returns the local peer id, or "" before the first status load.
func (vm *ViewModel) SelfID() string {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	if vm.Status == nil {
		return ""
	}
	return vm.Status.Self.ID
}

// LoadStatus fetches the session status.
func (vm *ViewModel) LoadStatus(ctx context.Context) error {
	resp, err := vm.client.GetStatus(ctx, &api.GetStatusRequest{})
	if err != nil {
		return err
	}
	vm.mu.Lock()
	vm.Status = resp
	vm.mu.Unlock()
	return nil
}

// LoadRoster fetches the roster.
func (vm *ViewModel) LoadRoster(ctx context.Context) error {
	resp, err := vm.client.ListRoster(ctx, &api.ListRosterRequest{})
	if err != nil {
		return err
	}
	vm.mu.Lock()
	vm.Roster = resp.Peers
	vm.mu.Unlock()
	return nil
}

// LoadMessages fetches the visible messages.
func (vm *ViewModel) LoadMessages(ctx context.Context) error {
	resp, err := vm.client.ListMessages(ctx, &api.ListMessagesRequest{})
	if err != nil {
		return err
	}
	vm.mu.Lock()
	vm.Messages = resp.Messages
	vm.mu.Unlock()
	return nil
}

// LoadCounter fetches the counter.
func (vm *ViewModel) LoadCounter(ctx context.Context) error {
	resp, err := vm.client.GetCounter(ctx, &api.GetCounterRequest{})
	if err != nil {
		return err
	}
	vm.mu.Lock()
	vm.Counter = resp
	vm.mu.Unlock()
	return nil
}

// LoadAll refreshes everything, stopping at the first error.
func (vm *ViewModel) LoadAll(ctx context.Context) error {
	for _, load := range []func(context.Context) error{vm.LoadStatus, vm.LoadRoster, vm.LoadMessages, vm.LoadCounter} {
		if err := load(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Send sends a chat message and clears the typing indicator.
func (vm *ViewModel) Send(ctx context.Context, text string, expiresIn time.Duration) error {
	if _, err := vm.client.SendMessage(ctx, &api.SendMessageRequest{Text: text, ExpiresInMs: expiresIn.Milliseconds()}); err != nil {
		return err
	}
	vm.StopTyping(ctx)
	return vm.LoadMessages(ctx)
}

// Delete deletes one of the local peer's messages.
func (vm *ViewModel) Delete(ctx context.Context, id string) error {
	if _, err := vm.client.DeleteMessage(ctx, &api.DeleteMessageRequest{MessageID: id}); err != nil {
		return err
	}
	return vm.LoadMessages(ctx)
}

// SetCounter writes an absolute counter value.
func (vm *ViewModel) SetCounter(ctx context.Context, value int64) error {
	resp, err := vm.client.UpdateCounter(ctx, &api.UpdateCounterRequest{Value: value})
	if err != nil {
		return err
	}
	vm.mu.Lock()
	vm.Counter = resp
	vm.mu.Unlock()
	return nil
}

// StepCounter writes the cached value plus delta.
func (vm *ViewModel) StepCounter(ctx context.Context, delta int64) error {
	vm.mu.RLock()
	var cur int64
	if vm.Counter != nil {
		cur = vm.Counter.Value
	}
	vm.mu.RUnlock()
	return vm.SetCounter(ctx, cur+delta)
}

// Keystroke announces typing, at most once per renewal interval.
func (vm *ViewModel) Keystroke(ctx context.Context) {
	now := vm.clock.Now()
	vm.mu.Lock()
	if vm.typing && now.Sub(vm.typingSince) < typingRenewal {
		vm.mu.Unlock()
		return
	}
	vm.typing = true
	vm.typingSince = now
	vm.mu.Unlock()

	_, _ = vm.client.MarkTyping(ctx, &api.MarkTypingRequest{IsTyping: true})
}

// StopTyping clears the typing indicator if it was announced.
func (vm *ViewModel) StopTyping(ctx context.Context) {
	vm.mu.Lock()
	was := vm.typing
	vm.typing = false
	vm.mu.Unlock()
	if was {
		_, _ = vm.client.MarkTyping(ctx, &api.MarkTypingRequest{IsTyping: false})
	}
}

// Snapshot returns the cached state for rendering.
func (vm *ViewModel) Snapshot() (roster []api.RosterEntry, msgs []protocol.ChatMessage, counter *api.CounterResponse, status *api.StatusResponse) {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.Roster, vm.Messages, vm.Counter, vm.Status
}
