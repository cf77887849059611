package model

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/matheus3301/huddle/internal/api"
	"github.com/matheus3301/huddle/internal/protocol"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
)

type fakeSession struct {
	typing   []bool
	counter  int64
	sent     []*api.SendMessageRequest
	messages []protocol.ChatMessage
}

func (f *fakeSession) GetStatus(context.Context, *api.GetStatusRequest, ...grpc.CallOption) (*api.StatusResponse, error) {
	return &api.StatusResponse{Session: "main", Self: protocol.Peer{ID: "me"}}, nil
}

func (f *fakeSession) ListRoster(context.Context, *api.ListRosterRequest, ...grpc.CallOption) (*api.RosterResponse, error) {
	return &api.RosterResponse{Peers: []api.RosterEntry{{Peer: protocol.Peer{ID: "me"}, Online: true}}}, nil
}

func (f *fakeSession) ListMessages(context.Context, *api.ListMessagesRequest, ...grpc.CallOption) (*api.MessagesResponse, error) {
	return &api.MessagesResponse{Messages: f.messages}, nil
}

func (f *fakeSession) GetCounter(context.Context, *api.GetCounterRequest, ...grpc.CallOption) (*api.CounterResponse, error) {
	return &api.CounterResponse{Value: f.counter}, nil
}

func (f *fakeSession) SendMessage(_ context.Context, in *api.SendMessageRequest, _ ...grpc.CallOption) (*api.SendMessageResponse, error) {
	f.sent = append(f.sent, in)
	msg := protocol.ChatMessage{ID: "m", Text: in.Text}
	f.messages = append(f.messages, msg)
	return &api.SendMessageResponse{Message: msg}, nil
}

func (f *fakeSession) DeleteMessage(context.Context, *api.DeleteMessageRequest, ...grpc.CallOption) (*api.Empty, error) {
	return &api.Empty{}, nil
}

func (f *fakeSession) UpdateCounter(_ context.Context, in *api.UpdateCounterRequest, _ ...grpc.CallOption) (*api.CounterResponse, error) {
	f.counter = in.Value
	return &api.CounterResponse{Value: in.Value}, nil
}

func (f *fakeSession) MarkTyping(_ context.Context, in *api.MarkTypingRequest, _ ...grpc.CallOption) (*api.Empty, error) {
	f.typing = append(f.typing, in.IsTyping)
	return &api.Empty{}, nil
}

func TestKeystrokeThrottlesTyping(t *testing.T) {
	fake := &fakeSession{}
	clk := clock.NewMock()
	vm := NewViewModel(fake, clk)
	ctx := context.Background()

	vm.Keystroke(ctx)
	vm.Keystroke(ctx)
	clk.Add(100 * time.Millisecond)
	vm.Keystroke(ctx)
	require.Equal(t, []bool{true}, fake.typing)

	clk.Add(typingRenewal)
	vm.Keystroke(ctx)
	require.Equal(t, []bool{true, true}, fake.typing)
}

func TestSendClearsTyping(t *testing.T) {
	fake := &fakeSession{}
	vm := NewViewModel(fake, clock.NewMock())
	ctx := context.Background()

	vm.Keystroke(ctx)
	require.NoError(t, vm.Send(ctx, "hi", 10*time.Second))
	require.Equal(t, []bool{true, false}, fake.typing)
	require.Equal(t, int64(10_000), fake.sent[0].ExpiresInMs)

	_, msgs, _, _ := vm.Snapshot()
	require.Len(t, msgs, 1)

	// Nothing announced, nothing to clear.
	vm.StopTyping(ctx)
	require.Len(t, fake.typing, 2)
}

func TestStepCounterUsesCachedValue(t *testing.T) {
	fake := &fakeSession{counter: 4}
	vm := NewViewModel(fake, clock.NewMock())
	ctx := context.Background()

	require.NoError(t, vm.LoadAll(ctx))
	require.Equal(t, "me", vm.SelfID())

	require.NoError(t, vm.StepCounter(ctx, 1))
	require.NoError(t, vm.StepCounter(ctx, 1))
	require.NoError(t, vm.StepCounter(ctx, -1))
	require.Equal(t, int64(5), fake.counter)
}

func TestFlashExpires(t *testing.T) {
	clk := clock.NewMock()
	f := NewFlash(clk)

	msg, _ := f.Get()
	require.Empty(t, msg)

	f.Error("send failed", 3*time.Second)
	msg, isErr := f.Get()
	require.Equal(t, "send failed", msg)
	require.True(t, isErr)

	clk.Add(3 * time.Second)
	msg, _ = f.Get()
	require.Empty(t, msg)
}
