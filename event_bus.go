package aspectlog

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
)

// observerRegistration holds information about a registered observer
type observerRegistration struct {
	observer     Observer
	eventTypes   map[string]bool // set of event types this observer is interested in
	registeredAt time.Time
}

// EventBus is an in-process Subject.
type EventBus struct {
	observers     map[string]*observerRegistration // key is observer ID
	observerMutex sync.RWMutex
	logger        Logger
}

// NewEventBus creates an EventBus. Observer failures are logged to logger.
func NewEventBus(logger Logger) *EventBus {
	if logger == nil {
		logger = NopLogger{}
	}
	return &EventBus{
		observers: make(map[string]*observerRegistration),
		logger:    logger,
	}
}

// RegisterObserver implements Subject.
func (b *EventBus) RegisterObserver(observer Observer, eventTypes ...string) error {
	if observer == nil {
		return ErrObserverNil
	}

	b.observerMutex.Lock()
	defer b.observerMutex.Unlock()

	eventTypeMap := make(map[string]bool)
	for _, eventType := range eventTypes {
		eventTypeMap[eventType] = true
	}

	b.observers[observer.ObserverID()] = &observerRegistration{
		observer:     observer,
		eventTypes:   eventTypeMap,
		registeredAt: time.Now(),
	}

	b.logger.Debug("Observer registered", "observerID", observer.ObserverID(), "eventTypes", eventTypes)
	return nil
}

// UnregisterObserver implements Subject.
func (b *EventBus) UnregisterObserver(observer Observer) error {
	if observer == nil {
		return ErrObserverNil
	}

	b.observerMutex.Lock()
	defer b.observerMutex.Unlock()

	if _, exists := b.observers[observer.ObserverID()]; exists {
		delete(b.observers, observer.ObserverID())
		b.logger.Debug("Observer unregistered", "observerID", observer.ObserverID())
	}
	return nil
}

// NotifyObservers implements Subject. Delivery is asynchronous unless ctx
// was marked with WithSynchronousNotification.
func (b *EventBus) NotifyObservers(ctx context.Context, event cloudevents.Event) error {
	b.observerMutex.RLock()
	defer b.observerMutex.RUnlock()

	if event.Time().IsZero() {
		event.SetTime(time.Now())
	}

	if err := ValidateCloudEvent(event); err != nil {
		b.logger.Error("Invalid CloudEvent", "eventType", event.Type(), "error", err)
		return err
	}

	inline := IsSynchronousNotification(ctx)
	for _, registration := range b.observers {
		if len(registration.eventTypes) > 0 && !registration.eventTypes[event.Type()] {
			continue
		}

		deliver := func(registration *observerRegistration) {
			defer func() {
				if r := recover(); r != nil {
					b.logger.Error("Observer panicked", "observerID", registration.observer.ObserverID(), "event", event.Type(), "panic", r)
				}
			}()

			if err := registration.observer.OnEvent(ctx, event); err != nil {
				b.logger.Error("Observer error", "observerID", registration.observer.ObserverID(), "event", event.Type(), "error", err)
			}
		}

		if inline {
			deliver(registration)
		} else {
			go deliver(registration)
		}
	}

	return nil
}

// GetObservers implements Subject.
func (b *EventBus) GetObservers() []ObserverInfo {
	b.observerMutex.RLock()
	defer b.observerMutex.RUnlock()

	info := make([]ObserverInfo, 0, len(b.observers))
	for id, registration := range b.observers {
		eventTypes := make([]string, 0, len(registration.eventTypes))
		for eventType := range registration.eventTypes {
			eventTypes = append(eventTypes, eventType)
		}
		sort.Strings(eventTypes)

		info = append(info, ObserverInfo{
			ID:           id,
			EventTypes:   eventTypes,
			RegisteredAt: registration.registeredAt,
		})
	}
	sort.Slice(info, func(i, j int) bool { return info[i].ID < info[j].ID })
	return info
}

// NewCloudEvent creates a new CloudEvent with the specified parameters.
func NewCloudEvent(eventType, source string, data interface{}, metadata map[string]interface{}) cloudevents.Event {
	event := cloudevents.NewEvent()

	event.SetID(generateEventID())
	event.SetSource(source)
	event.SetType(eventType)
	event.SetTime(time.Now())
	event.SetSpecVersion(cloudevents.VersionV1)

	if data != nil {
		_ = event.SetData(cloudevents.ApplicationJSON, data)
	}

	for key, value := range metadata {
		event.SetExtension(key, value)
	}

	return event
}

// generateEventID generates a unique identifier for CloudEvents using UUIDv7.
// UUIDv7 includes timestamp information which provides time-ordered uniqueness.
func generateEventID() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return id.String()
}

// ValidateCloudEvent validates that a CloudEvent conforms to the specification.
func ValidateCloudEvent(event cloudevents.Event) error {
	if err := event.Validate(); err != nil {
		return fmt.Errorf("CloudEvent validation failed: %w", err)
	}
	return nil
}

// CallEventData is the payload of call events.
type CallEventData struct {
	Method    string `json:"method"`
	Marker    string `json:"marker"`
	Level     string `json:"level,omitempty"`
	Message   string `json:"message,omitempty"`
	ErrorKind string `json:"errorKind,omitempty"`
	Error     string `json:"error,omitempty"`
}

// ReloadEventData is the payload of marker reload events.
type ReloadEventData struct {
	Path    string `json:"path"`
	Markers int    `json:"markers"`
	Error   string `json:"error,omitempty"`
}

// emitEvent publishes an event to subject when one is configured. Emission
// failures are logged, never returned: events must not affect the call.
func emitEvent(ctx context.Context, subject Subject, logger Logger, eventType string, data any) {
	if subject == nil {
		return
	}
	event := NewCloudEvent(eventType, EventSource, data, nil)
	if err := subject.NotifyObservers(ctx, event); err != nil {
		logger.Debug("Failed to emit event", "eventType", eventType, "error", err)
	}
}
