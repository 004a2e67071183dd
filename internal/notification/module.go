// Package notification provides event handlers for fanning dispatch events
// out to live dashboards (SSE), agency SMS, and agency email.
// This module subscribes to events and inverts the dependency: the dispatch
// core never needs to know about transports or templates.
package notification

import (
	"context"
	"fmt"
	"strings"

	"crisisnet_backend/internal/agencies/directory"
	"crisisnet_backend/internal/crisis/domain"
	"crisisnet_backend/internal/events"
	apphttp "crisisnet_backend/internal/http"
	"crisisnet_backend/internal/notification/email"
	"crisisnet_backend/internal/notification/sse"
	"crisisnet_backend/platform/config"
	"crisisnet_backend/platform/httpkit"
	"crisisnet_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

// SMSSender sends text messages to agency contact numbers.
type SMSSender interface {
	SendMessage(ctx context.Context, phoneNumber, message string) error
}

// AgencyContactReader resolves contact details for direct notification and
// tracks live-channel presence. A connected agency stream counts as a
// heartbeat; a dropped stream marks the agency offline.
type AgencyContactReader interface {
	Get(id string) (directory.Agency, bool)
	Touch(agencyID string)
	MarkOffline(agencyID string)
}

// Module handles all notification-related event subscriptions.
type Module struct {
	sse      *sse.Service
	sms      SMSSender
	sender   email.Sender
	contacts AgencyContactReader
	cfg      config.NotificationConfig
	log      *logger.Logger
}

// New creates the notification module. sms and sender may be nil; only the
// transports that are configured participate in fan-out.
func New(sseService *sse.Service, sms SMSSender, sender email.Sender, contacts AgencyContactReader, cfg config.NotificationConfig, log *logger.Logger) *Module {
	return &Module{
		sse:      sseService,
		sms:      sms,
		sender:   sender,
		contacts: contacts,
		cfg:      cfg,
		log:      log,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string { return "notification" }

// SSE exposes the stream service for composition.
func (m *Module) SSE() *sse.Service { return m.sse }

// RegisterRoutes mounts the live stream endpoints.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	stream := ctx.V1.Group("/stream")
	stream.GET("/dashboard", m.sse.Handler(func(*gin.Context) string {
		return sse.DashboardChannel
	}))

	agencyStream := ctx.Protected.Group("/stream")
	agencyStream.GET("/agency/:id", func(c *gin.Context) {
		id := c.Param("id")
		if identity := httpkit.GetIdentity(c); identity != nil && identity.IsAuthenticated() && identity.AgencyID() != "" {
			id = identity.AgencyID()
		}

		// A live stream is the agency's presence signal. Touch restores
		// offline units without clearing crisis commitments; a dropped
		// stream marks the unit offline until it reconnects.
		if m.contacts != nil {
			m.contacts.Touch(id)
			defer m.contacts.MarkOffline(id)
		}
		m.sse.Handler(func(*gin.Context) string {
			return sse.AgencyChannel(id)
		})(c)
	})
}

// RegisterHandlers subscribes to all relevant domain events on the event bus.
func (m *Module) RegisterHandlers(bus *events.InMemoryBus) {
	bus.Subscribe(events.CrisisReported{}.EventName(), m)
	bus.Subscribe(events.AgencyResponded{}.EventName(), m)
	bus.Subscribe(events.CrisisEscalated{}.EventName(), m)
	bus.Subscribe(events.CrisisClosed{}.EventName(), m)
	bus.Subscribe(events.CrisisLocationUpdated{}.EventName(), m)
	bus.Subscribe(events.AgencyStatusChanged{}.EventName(), m)

	m.log.Info("notification module registered event handlers")
}

// Handle routes events to the appropriate handler method.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.CrisisReported:
		return m.handleCrisisReported(ctx, e)
	case events.AgencyResponded:
		return m.handleAgencyResponded(ctx, e)
	case events.CrisisEscalated:
		return m.handleCrisisEscalated(ctx, e)
	case events.CrisisClosed:
		return m.handleCrisisClosed(ctx, e)
	case events.CrisisLocationUpdated:
		return m.handleLocationUpdated(ctx, e)
	case events.AgencyStatusChanged:
		return m.handleAgencyStatusChanged(ctx, e)
	default:
		m.log.Warn("unhandled event type", "event", event.EventName())
		return nil
	}
}

func (m *Module) handleCrisisReported(ctx context.Context, e events.CrisisReported) error {
	m.sse.Broadcast(sse.Event{
		Type:     sse.EventCrisisReported,
		CrisisID: e.CrisisID,
		Message:  e.Crisis.Title,
		Data:     e.Crisis,
	})

	for _, candidate := range e.Notified {
		m.sse.NotifyAgency(candidate.AgencyID, sse.Event{
			Type:     sse.EventAgencyNotified,
			CrisisID: e.CrisisID,
			Message:  e.Crisis.Title,
			Data:     candidate,
		})
		m.pageAgency(ctx, e.Crisis, candidate, false, e.Crisis.EscalationLevel)
	}
	return nil
}

func (m *Module) handleAgencyResponded(ctx context.Context, e events.AgencyResponded) error {
	m.sse.Broadcast(sse.Event{
		Type:     sse.EventAgencyResponded,
		CrisisID: e.CrisisID,
		AgencyID: e.Response.AgencyID,
		Data: map[string]interface{}{
			"response": e.Response,
			"crisis":   e.Crisis,
		},
	})

	// Confirm counted acceptances to the person who reported the crisis.
	if m.sms != nil && e.Response.Counted && e.Crisis.ContactNumber != "" {
		message := fmt.Sprintf("CrisisNet: %s is responding to %q, est. %d min.",
			e.Response.AgencyName, e.Crisis.Title, e.Response.ETAMinutes)
		if err := m.sms.SendMessage(ctx, e.Crisis.ContactNumber, message); err != nil {
			m.log.CollaboratorFailure("sms sender", err)
		}
	}
	return nil
}

func (m *Module) handleCrisisEscalated(ctx context.Context, e events.CrisisEscalated) error {
	m.sse.Broadcast(sse.Event{
		Type:     sse.EventCrisisEscalated,
		CrisisID: e.CrisisID,
		Message:  fmt.Sprintf("escalated to level %d", e.Level),
		Data:     e.Crisis,
	})

	for _, candidate := range e.NewCandidates {
		if !candidate.Notified {
			continue
		}
		m.sse.NotifyAgency(candidate.AgencyID, sse.Event{
			Type:     sse.EventCrisisEscalated,
			CrisisID: e.CrisisID,
			Message:  e.Crisis.Title,
			Data:     candidate,
		})
		m.pageAgency(ctx, e.Crisis, candidate, true, e.Level)
	}

	if m.sms != nil && e.Crisis.ContactNumber != "" {
		message := fmt.Sprintf("CrisisNet: your report %q was escalated to a wider responder pool (level %d).",
			e.Crisis.Title, e.Level)
		if err := m.sms.SendMessage(ctx, e.Crisis.ContactNumber, message); err != nil {
			m.log.CollaboratorFailure("sms sender", err)
		}
	}
	return nil
}

func (m *Module) handleCrisisClosed(ctx context.Context, e events.CrisisClosed) error {
	m.sse.Broadcast(sse.Event{
		Type:     sse.EventCrisisClosed,
		CrisisID: e.CrisisID,
		Data:     e.Crisis,
	})

	for _, agencyID := range e.Released {
		m.sse.NotifyAgency(agencyID, sse.Event{
			Type:     sse.EventCrisisClosed,
			CrisisID: e.CrisisID,
			Message:  e.Crisis.Title,
		})
		if m.sender == nil || m.contacts == nil {
			continue
		}
		agency, ok := m.contacts.Get(agencyID)
		if !ok || agency.ContactEmail == "" {
			continue
		}
		if err := m.sender.SendCrisisClosedEmail(ctx, agency.ContactEmail, agency.Name, e.Crisis.Title); err != nil {
			m.log.CollaboratorFailure("email sender", err)
		}
	}
	return nil
}

func (m *Module) handleLocationUpdated(_ context.Context, e events.CrisisLocationUpdated) error {
	m.sse.Broadcast(sse.Event{
		Type:     sse.EventLocationUpdate,
		CrisisID: e.CrisisID,
		AgencyID: e.Update.AgencyID,
		Data:     e.Update,
	})
	return nil
}

func (m *Module) handleAgencyStatusChanged(_ context.Context, e events.AgencyStatusChanged) error {
	m.sse.Broadcast(sse.Event{
		Type:     sse.EventAgencyStatusChanged,
		AgencyID: e.AgencyID,
		Data:     e.Agency,
	})
	return nil
}

// pageAgency delivers a direct SMS and email to one candidate. Synthetic
// units have no real contact points and are skipped. All failures are
// logged and swallowed; paging never fails the dispatch that triggered it.
func (m *Module) pageAgency(ctx context.Context, crisis domain.Crisis, candidate domain.Candidate, escalated bool, level int) {
	if candidate.Synthetic || m.contacts == nil {
		return
	}
	agency, ok := m.contacts.Get(candidate.AgencyID)
	if !ok {
		return
	}

	detailURL := m.crisisURL(crisis.ID.String())

	if m.sms != nil && agency.ContactPhone != "" {
		message := fmt.Sprintf("CrisisNet: %s (%s, severity %s) %.1fkm away, est. %d min. Respond: %s",
			crisis.Title, crisis.Type, crisis.Severity, candidate.DistanceKm, candidate.ETAMinutes, detailURL)
		if escalated {
			message = fmt.Sprintf("CrisisNet ESCALATION L%d: %s", level, message)
		}
		if err := m.sms.SendMessage(ctx, agency.ContactPhone, message); err != nil {
			m.log.CollaboratorFailure("sms sender", err)
		}
	}

	if m.sender != nil && agency.ContactEmail != "" {
		var err error
		if escalated {
			err = m.sender.SendEscalationEmail(ctx, agency.ContactEmail, agency.Name,
				crisis.Title, string(crisis.Severity), level, detailURL)
		} else {
			err = m.sender.SendCrisisAlertEmail(ctx, agency.ContactEmail, agency.Name,
				crisis.Title, crisis.Type, string(crisis.Severity), crisis.Description,
				fmt.Sprintf("%.1f", candidate.DistanceKm), candidate.ETAMinutes, detailURL)
		}
		if err != nil {
			m.log.CollaboratorFailure("email sender", err)
		}
	}
}

func (m *Module) crisisURL(id string) string {
	base := strings.TrimRight(m.cfg.GetAppBaseURL(), "/")
	if base == "" {
		return ""
	}
	return base + "/crisis/" + id
}
