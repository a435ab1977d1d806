package service

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/cbdms-web/internal/models"
)

const (
	defaultFlashLimit = 20
	subscriberBuffer  = 8
)

// Notifier receives user-facing notifications for one workspace.
type Notifier interface {
	Notify(level models.NotificationLevel, message string)
}

// NotificationService fans notifications out to live subscribers of a
// workspace and keeps the rest as flash messages until the next page render.
type NotificationService struct {
	mu          sync.Mutex
	flash       map[string][]models.Notification
	subscribers map[string]map[uint64]chan models.Notification
	nextSub     uint64
	limit       int
	logger      *zap.Logger
	now         func() time.Time
}

// NewNotificationService constructs the notification hub.
func NewNotificationService(logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		flash:       make(map[string][]models.Notification),
		subscribers: make(map[string]map[uint64]chan models.Notification),
		limit:       defaultFlashLimit,
		logger:      logger,
		now:         time.Now,
	}
}

// Channel returns a Notifier bound to the workspace key.
func (s *NotificationService) Channel(key string) Notifier {
	return workspaceNotifier{hub: s, key: key}
}

// Notify publishes a notification for key. It is delivered to every live
// subscriber; when nobody is listening it is queued as a flash message.
func (s *NotificationService) Notify(key string, level models.NotificationLevel, message string) models.Notification {
	n := models.Notification{
		ID:        uuid.NewString(),
		Level:     level,
		Message:   message,
		CreatedAt: s.now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delivered := false
	for _, ch := range s.subscribers[key] {
		select {
		case ch <- n:
			delivered = true
		default:
			s.logger.Warn("notification subscriber lagging", zap.String("workspace", key))
		}
	}
	if delivered {
		return n
	}

	queue := append(s.flash[key], n)
	if len(queue) > s.limit {
		queue = queue[len(queue)-s.limit:]
	}
	s.flash[key] = queue
	return n
}

// Drain returns and clears the queued flash messages for key.
func (s *NotificationService) Drain(key string) []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	queue := s.flash[key]
	delete(s.flash, key)
	return queue
}

// Subscribe registers a live listener for key. The returned cancel func
// must be called once the listener goes away.
func (s *NotificationService) Subscribe(key string) (<-chan models.Notification, func()) {
	ch := make(chan models.Notification, subscriberBuffer)

	s.mu.Lock()
	s.nextSub++
	id := s.nextSub
	subs, ok := s.subscribers[key]
	if !ok {
		subs = make(map[uint64]chan models.Notification)
		s.subscribers[key] = subs
	}
	subs[id] = ch
	s.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if subs, ok := s.subscribers[key]; ok {
				if c, ok := subs[id]; ok {
					delete(subs, id)
					close(c)
				}
				if len(subs) == 0 {
					delete(s.subscribers, key)
				}
			}
		})
	}
	return ch, cancel
}

// Drop forgets everything held for key and disconnects its subscribers.
func (s *NotificationService) Drop(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.flash, key)
	for id, ch := range s.subscribers[key] {
		delete(s.subscribers[key], id)
		close(ch)
	}
	delete(s.subscribers, key)
}

type workspaceNotifier struct {
	hub *NotificationService
	key string
}

func (n workspaceNotifier) Notify(level models.NotificationLevel, message string) {
	n.hub.Notify(n.key, level, message)
}
