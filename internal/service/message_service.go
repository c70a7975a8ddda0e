package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tkubota31/express-messagely/internal/models"
	"github.com/tkubota31/express-messagely/internal/repository"
	"github.com/tkubota31/express-messagely/pkg/logger"
	"github.com/tkubota31/express-messagely/pkg/observability"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Notification event names
const (
	EventMessageCreated = "message.created"
	EventMessageRead    = "message.read"
)

const tracerName = "github.com/tkubota31/express-messagely/internal/service"

// Notifier pushes best-effort events to a connected user
type Notifier interface {
	Notify(username, event string, payload interface{})
}

// MessageService owns the message lifecycle and its access rules.
// The caller is always passed explicitly and is never read from a payload.
type MessageService struct {
	messages repository.MessageRepository
	users    UserLookup
	notifier Notifier
	metrics  *observability.Metrics
	tracer   trace.Tracer
	log      *logger.Logger
	now      func() time.Time
}

// NewMessageService creates a new message service
func NewMessageService(messages repository.MessageRepository, users UserLookup, log *logger.Logger) *MessageService {
	if log == nil {
		log = logger.GetGlobal()
	}
	return &MessageService{
		messages: messages,
		users:    users,
		tracer:   otel.Tracer(tracerName),
		log:      log,
		now:      time.Now,
	}
}

// SetNotifier sets the real-time notifier
func (s *MessageService) SetNotifier(n Notifier) {
	s.notifier = n
}

// SetMetrics sets the operation counters
func (s *MessageService) SetMetrics(m *observability.Metrics) {
	s.metrics = m
}

func (s *MessageService) startSpan(ctx context.Context, op, caller string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "MessageService."+op,
		trace.WithAttributes(attribute.String("messagely.caller", caller)))
}

func (s *MessageService) finish(ctx context.Context, span trace.Span, op string, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.metrics.OperationFailed(ctx, op, errorKind(err))
	}
	span.End()
}

// Get returns a message with both participants expanded.
// Only the sender or the recipient may see it.
func (s *MessageService) Get(ctx context.Context, id uint, caller string) (detail *models.MessageDetail, err error) {
	ctx, span := s.startSpan(ctx, "Get", caller)
	span.SetAttributes(attribute.Int64("messagely.message_id", int64(id)))
	defer func() { s.finish(ctx, span, "get", err) }()

	msg, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if caller != msg.FromUsername && caller != msg.ToUsername {
		return nil, ErrForbidden
	}

	from, err := s.expand(ctx, msg.FromUsername)
	if err != nil {
		return nil, err
	}
	to, err := s.expand(ctx, msg.ToUsername)
	if err != nil {
		return nil, err
	}

	return &models.MessageDetail{
		ID:       msg.ID,
		Body:     msg.Body,
		SentAt:   msg.SentAt,
		ReadAt:   msg.ReadAt,
		FromUser: *from,
		ToUser:   *to,
	}, nil
}

// Create stores a new unread message from caller to req.ToUsername
func (s *MessageService) Create(ctx context.Context, caller string, req models.CreateMessageRequest) (msg *models.Message, err error) {
	ctx, span := s.startSpan(ctx, "Create", caller)
	defer func() { s.finish(ctx, span, "create", err) }()

	if strings.TrimSpace(req.Body) == "" {
		return nil, ErrEmptyBody
	}
	if req.ToUsername == "" {
		return nil, ErrNoRecipient
	}
	if req.ToUsername == caller {
		return nil, ErrSelfMessage
	}

	if _, err := s.users.LookupUser(ctx, req.ToUsername); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrRecipientNotFound
		}
		return nil, err
	}

	msg = &models.Message{
		FromUsername: caller,
		ToUsername:   req.ToUsername,
		Body:         req.Body,
		SentAt:       s.now().UTC(),
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}

	span.SetAttributes(attribute.Int64("messagely.message_id", int64(msg.ID)))
	s.metrics.MessageCreated(ctx)
	s.log.Debug("Message created", "id", msg.ID, "from", msg.FromUsername, "to", msg.ToUsername)

	if s.notifier != nil {
		s.notifier.Notify(msg.ToUsername, EventMessageCreated, msg)
	}

	return msg, nil
}

// MarkRead sets read_at on an unread message. Only the recipient may do so,
// and only the first of any concurrent callers succeeds.
func (s *MessageService) MarkRead(ctx context.Context, id uint, caller string) (msg *models.Message, err error) {
	ctx, span := s.startSpan(ctx, "MarkRead", caller)
	span.SetAttributes(attribute.Int64("messagely.message_id", int64(id)))
	defer func() { s.finish(ctx, span, "mark_read", err) }()

	msg, err = s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if caller != msg.ToUsername {
		return nil, ErrForbidden
	}
	if msg.IsRead() {
		return nil, ErrAlreadyRead
	}

	readAt := s.now().UTC()
	if readAt.Before(msg.SentAt) {
		readAt = msg.SentAt
	}

	updated, err := s.messages.MarkReadIfUnread(ctx, id, readAt)
	if err != nil {
		return nil, fmt.Errorf("mark message %d read: %w", id, err)
	}
	if !updated {
		return nil, ErrAlreadyRead
	}

	msg.ReadAt = &readAt
	s.metrics.MessageRead(ctx)

	if s.notifier != nil {
		s.notifier.Notify(msg.FromUsername, EventMessageRead, msg.Receipt())
	}

	return msg, nil
}

// ListReceived returns the inbox of username, oldest first
func (s *MessageService) ListReceived(ctx context.Context, username, caller string) (out []models.ReceivedMessage, err error) {
	ctx, span := s.startSpan(ctx, "ListReceived", caller)
	defer func() { s.finish(ctx, span, "list_received", err) }()

	if caller != username {
		return nil, ErrForbidden
	}

	msgs, err := s.messages.ListByRecipient(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("list received: %w", err)
	}

	seen := make(map[string]*models.UserSummary)
	out = make([]models.ReceivedMessage, 0, len(msgs))
	for _, m := range msgs {
		from, err := s.expandMemo(ctx, seen, m.FromUsername)
		if err != nil {
			return nil, err
		}
		out = append(out, models.ReceivedMessage{
			ID:       m.ID,
			Body:     m.Body,
			SentAt:   m.SentAt,
			ReadAt:   m.ReadAt,
			FromUser: *from,
		})
	}
	return out, nil
}

// ListSent returns the outbox of username, oldest first
func (s *MessageService) ListSent(ctx context.Context, username, caller string) (out []models.SentMessage, err error) {
	ctx, span := s.startSpan(ctx, "ListSent", caller)
	defer func() { s.finish(ctx, span, "list_sent", err) }()

	if caller != username {
		return nil, ErrForbidden
	}

	msgs, err := s.messages.ListBySender(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("list sent: %w", err)
	}

	seen := make(map[string]*models.UserSummary)
	out = make([]models.SentMessage, 0, len(msgs))
	for _, m := range msgs {
		to, err := s.expandMemo(ctx, seen, m.ToUsername)
		if err != nil {
			return nil, err
		}
		out = append(out, models.SentMessage{
			ID:     m.ID,
			Body:   m.Body,
			SentAt: m.SentAt,
			ReadAt: m.ReadAt,
			ToUser: *to,
		})
	}
	return out, nil
}

func (s *MessageService) load(ctx context.Context, id uint) (*models.Message, error) {
	msg, err := s.messages.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, fmt.Errorf("load message %d: %w", id, err)
	}
	return msg, nil
}

// expand resolves a participant. A stored message always references
// existing users, so a miss here is an internal error.
func (s *MessageService) expand(ctx context.Context, username string) (*models.UserSummary, error) {
	summary, err := s.users.LookupUser(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("message participant %q is missing", username)
		}
		return nil, err
	}
	return summary, nil
}

func (s *MessageService) expandMemo(ctx context.Context, seen map[string]*models.UserSummary, username string) (*models.UserSummary, error) {
	if summary, ok := seen[username]; ok {
		return summary, nil
	}
	summary, err := s.expand(ctx, username)
	if err != nil {
		return nil, err
	}
	seen[username] = summary
	return summary, nil
}
