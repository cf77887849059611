package api

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/matheus3301/huddle/internal/bus"
	"github.com/matheus3301/huddle/internal/counter"
	"github.com/matheus3301/huddle/internal/identity"
	"github.com/matheus3301/huddle/internal/presence"
	"github.com/matheus3301/huddle/internal/protocol"
	"github.com/matheus3301/huddle/internal/status"
	intsync "github.com/matheus3301/huddle/internal/sync"
	"github.com/samber/lo"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
)

// Session is the part of the coordinator the control service drives.
type Session interface {
	Self() identity.Identity
	State() status.State
	Roster(ctx context.Context) ([]protocol.Peer, error)
	Messages(ctx context.Context) ([]protocol.ChatMessage, error)
	Counter(ctx context.Context) (counter.State, error)
	SendMessage(ctx context.Context, text string, ttl time.Duration) (protocol.ChatMessage, error)
	DeleteMyMessage(ctx context.Context, id string) error
	UpdateCounter(ctx context.Context, value int64) (counter.State, error)
	MarkTyping(ctx context.Context, isTyping bool) error
}

// ServiceParams configures a SessionService.
type ServiceParams struct {
	SessionName  string
	Channel      string
	OnlineWithin time.Duration
	Clock        clock.Clock
}

// SessionService implements SessionServer on top of a running session.
type SessionService struct {
	params    ServiceParams
	session   Session
	bus       *bus.Bus
	startedAt time.Time
	validate  *validator.Validate

	closing   chan struct{}
	closeOnce sync.Once
}

var _ SessionServer = (*SessionService)(nil)

// NewSessionService creates the control service.
func NewSessionService(p ServiceParams, sess Session, b *bus.Bus) *SessionService {
	if p.Clock == nil {
		p.Clock = clock.New()
	}
	return &SessionService{
		params:    p,
		session:   sess,
		bus:       b,
		startedAt: p.Clock.Now(),
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		closing:   make(chan struct{}),
	}
}

// Shutdown ends every open Watch stream so the server can stop gracefully.
func (s *SessionService) Shutdown() {
	s.closeOnce.Do(func() { close(s.closing) })
}

func (s *SessionService) GetStatus(_ context.Context, _ *GetStatusRequest) (*StatusResponse, error) {
	now := s.params.Clock.Now()
	return &StatusResponse{
		Session:  s.params.SessionName,
		Channel:  s.params.Channel,
		State:    string(s.session.State()),
		Self:     s.session.Self().Peer(now),
		UptimeMs: now.Sub(s.startedAt).Milliseconds(),
	}, nil
}

func (s *SessionService) ListRoster(ctx context.Context, _ *ListRosterRequest) (*RosterResponse, error) {
	peers, err := s.session.Roster(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	now := s.params.Clock.Now()
	return &RosterResponse{
		Peers: lo.Map(peers, func(p protocol.Peer, _ int) RosterEntry {
			return RosterEntry{
				Peer:   p,
				Online: presence.LivenessOf(p, now, s.params.OnlineWithin) == presence.Online,
			}
		}),
	}, nil
}

func (s *SessionService) ListMessages(ctx context.Context, _ *ListMessagesRequest) (*MessagesResponse, error) {
	msgs, err := s.session.Messages(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return &MessagesResponse{Messages: msgs}, nil
}

func (s *SessionService) GetCounter(ctx context.Context, _ *GetCounterRequest) (*CounterResponse, error) {
	st, err := s.session.Counter(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return counterToResponse(st), nil
}

func (s *SessionService) SendMessage(ctx context.Context, req *SendMessageRequest) (*SendMessageResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, grpcstatus.Errorf(codes.InvalidArgument, "send message: %v", err)
	}
	msg, err := s.session.SendMessage(ctx, req.Text, time.Duration(req.ExpiresInMs)*time.Millisecond)
	if err != nil {
		return nil, toStatus(err)
	}
	return &SendMessageResponse{Message: msg}, nil
}

func (s *SessionService) DeleteMessage(ctx context.Context, req *DeleteMessageRequest) (*Empty, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, grpcstatus.Errorf(codes.InvalidArgument, "delete message: %v", err)
	}
	if err := s.session.DeleteMyMessage(ctx, req.MessageID); err != nil {
		return nil, toStatus(err)
	}
	return &Empty{}, nil
}

func (s *SessionService) UpdateCounter(ctx context.Context, req *UpdateCounterRequest) (*CounterResponse, error) {
	st, err := s.session.UpdateCounter(ctx, req.Value)
	if err != nil {
		return nil, toStatus(err)
	}
	return counterToResponse(st), nil
}

func (s *SessionService) MarkTyping(ctx context.Context, req *MarkTypingRequest) (*Empty, error) {
	if err := s.session.MarkTyping(ctx, req.IsTyping); err != nil {
		return nil, toStatus(err)
	}
	return &Empty{}, nil
}

// Watch streams bus notifications until the client goes away.
func (s *SessionService) Watch(req *WatchRequest, stream grpc.ServerStreamingServer[WatchEvent]) error {
	sub := s.bus.Subscribe(64, req.Prefixes...)
	defer sub.Close()

	for {
		select {
		case evt := <-sub.C:
			// Payloads are hints; one that fails to encode is sent empty.
			payload, _ := json.Marshal(evt.Payload)
			if err := stream.Send(&WatchEvent{
				EventID: uuid.NewString(),
				Kind:    evt.Kind,
				Ts:      evt.Timestamp.UnixMilli(),
				Payload: payload,
			}); err != nil {
				return err
			}
		case <-stream.Context().Done():
			return nil
		case <-s.closing:
			return grpcstatus.Error(codes.Unavailable, "session shutting down")
		}
	}
}

func counterToResponse(st counter.State) *CounterResponse {
	return &CounterResponse{
		Value:       st.Value,
		LastWriter:  st.LastWriter,
		LastWriteTs: st.LastWriteTs,
	}
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, intsync.ErrEmptyMessage):
		return grpcstatus.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, intsync.ErrNotAuthor):
		return grpcstatus.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, intsync.ErrUnknownMessage):
		return grpcstatus.Error(codes.NotFound, err.Error())
	case errors.Is(err, intsync.ErrNotRunning):
		return grpcstatus.Error(codes.Unavailable, err.Error())
	case errors.Is(err, context.Canceled):
		return grpcstatus.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return grpcstatus.Error(codes.DeadlineExceeded, err.Error())
	default:
		return grpcstatus.Errorf(codes.Internal, "%v", err)
	}
}
