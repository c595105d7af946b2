package notification

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/voicevault/voicevault/internal/logging"
)

// Subscriber represents a notification subscriber
type Subscriber struct {
	ch     chan *Notification
	ctx    context.Context
	cancel context.CancelFunc
}

// ServiceConfig holds the configuration for the notification service.
type ServiceConfig struct {
	// Debug enables debug logging for the service
	Debug bool
	// MaxNotifications is the maximum number of notifications kept in memory
	MaxNotifications int
	// CleanupInterval is how often expired notifications are removed
	CleanupInterval time.Duration
}

// DefaultServiceConfig returns a default configuration
func DefaultServiceConfig() *ServiceConfig {
	return &ServiceConfig{
		MaxNotifications: 100,
		CleanupInterval:  time.Second,
	}
}

// Service manages notifications: it stores recent ones, expires them on a
// cleanup cadence, and broadcasts each new notification to subscribers.
type Service struct {
	mu            sync.RWMutex
	notifications []*Notification
	subscribers   []*Subscriber
	cleanupTicker *time.Ticker
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	logger        *slog.Logger
	config        *ServiceConfig
}

// NewService creates a new notification service and starts its cleanup loop.
func NewService(config *ServiceConfig) *Service {
	if config == nil {
		config = DefaultServiceConfig()
	}
	if config.MaxNotifications <= 0 {
		config.MaxNotifications = DefaultServiceConfig().MaxNotifications
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = DefaultServiceConfig().CleanupInterval
	}

	ctx, cancel := context.WithCancel(context.Background())

	service := &Service{
		cleanupTicker: time.NewTicker(config.CleanupInterval),
		ctx:           ctx,
		cancel:        cancel,
		logger:        logging.ForService("notification"),
		config:        config,
	}

	service.wg.Add(1)
	go service.cleanupLoop()

	return service
}

// Notify creates a notification and broadcasts it to subscribers.
func (s *Service) Notify(notifType Type, message string) *Notification {
	return s.NotifyWithComponent(notifType, message, "")
}

// NotifyWithComponent creates a notification attributed to a component.
func (s *Service) NotifyWithComponent(notifType Type, message, component string) *Notification {
	n := NewNotification(notifType, message)
	if component != "" {
		n.WithComponent(component)
	}

	s.mu.Lock()
	s.notifications = append(s.notifications, n)
	if len(s.notifications) > s.config.MaxNotifications {
		s.notifications = s.notifications[len(s.notifications)-s.config.MaxNotifications:]
	}
	s.mu.Unlock()

	if s.config.Debug {
		s.logger.Debug("notification created",
			"id", n.ID,
			"type", notifType,
			"component", component)
	}

	s.broadcast(n)
	return n
}

// List returns the currently visible (unexpired) notifications, oldest first.
func (s *Service) List() []*Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if !n.IsExpired() {
			out = append(out, n.Clone())
		}
	}
	return out
}

// Subscribe registers a new subscriber and returns its channel and an
// unsubscribe function. The channel is closed on unsubscribe or shutdown.
func (s *Service) Subscribe() (<-chan *Notification, func()) {
	ctx, cancel := context.WithCancel(s.ctx)
	sub := &Subscriber{
		ch:     make(chan *Notification, 16),
		ctx:    ctx,
		cancel: cancel,
	}

	s.mu.Lock()
	s.subscribers = append(s.subscribers, sub)
	s.mu.Unlock()

	unsubscribe := func() {
		sub.cancel()
		s.removeSubscriber(sub)
	}
	return sub.ch, unsubscribe
}

func (s *Service) removeSubscriber(sub *Subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, candidate := range s.subscribers {
		if candidate == sub {
			s.subscribers = append(s.subscribers[:i], s.subscribers[i+1:]...)
			close(sub.ch)
			return
		}
	}
}

// broadcast delivers a notification to all subscribers without blocking.
// Subscribers that cannot keep up miss notifications rather than stalling
// the producer.
func (s *Service) broadcast(n *Notification) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sub := range s.subscribers {
		select {
		case <-sub.ctx.Done():
		case sub.ch <- n.Clone():
		default:
			s.logger.Warn("subscriber channel full, dropping notification",
				"id", n.ID)
		}
	}
}

func (s *Service) cleanupLoop() {
	defer s.wg.Done()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-s.cleanupTicker.C:
			s.removeExpired()
		}
	}
}

func (s *Service) removeExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.notifications[:0]
	for _, n := range s.notifications {
		if !n.IsExpired() {
			kept = append(kept, n)
		}
	}
	s.notifications = kept
}

// Stop shuts down the service, closing all subscriber channels.
func (s *Service) Stop() {
	s.cancel()
	s.cleanupTicker.Stop()
	s.wg.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subscribers {
		close(sub.ch)
	}
	s.subscribers = nil
}
