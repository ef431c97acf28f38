package calendar

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/meetfold/meetfold/internal/google"
)

// PrimaryCalendarID is the well-known identifier of the user's primary
// calendar. All operations target it.
const PrimaryCalendarID = "primary"

// Notification update modes passed to the events.insert call.
const (
	sendUpdatesAll  = "all"
	sendUpdatesNone = "none"
)

// Client wraps the Google Calendar service. It owns the provider session
// and applies a fixed timezone to every event it creates.
type Client struct {
	svc      *calendar.Service
	timezone string
}

// NewClient creates a Calendar client authenticated through the given
// token provider. Extra client options are passed through to the
// service, letting tests point it at a local endpoint. It fails when no
// valid token can be obtained.
func NewClient(ctx context.Context, provider google.TokenProvider, timezone string, opts ...option.ClientOption) (*Client, error) {
	if provider == nil {
		return nil, fmt.Errorf("token provider cannot be nil")
	}
	if timezone == "" {
		timezone = "UTC"
	}

	client, err := newHTTPClient(ctx, provider)
	if err != nil {
		return nil, fmt.Errorf("failed to get Google OAuth token: %w", err)
	}

	svc, err := calendar.NewService(ctx, append([]option.ClientOption{option.WithHTTPClient(client)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}

	return &Client{svc: svc, timezone: timezone}, nil
}

// CreateEvent creates a new event on the primary calendar. When the
// input lists attendees the provider is asked to notify all of them;
// without attendees no notifications are sent. The returned summary
// carries the shareable event link.
func (c *Client) CreateEvent(ctx context.Context, input EventInput) (*EventSummary, error) {
	if input.Summary == "" {
		return nil, fmt.Errorf("event summary must not be empty")
	}
	if !input.End.After(input.Start) {
		return nil, fmt.Errorf("event end %s must be after start %s",
			input.End.Format(time.RFC3339), input.Start.Format(time.RFC3339))
	}

	event := &calendar.Event{
		Summary:     input.Summary,
		Description: input.Description,
		Start: &calendar.EventDateTime{
			DateTime: input.Start.Format(time.RFC3339),
			TimeZone: c.timezone,
		},
		End: &calendar.EventDateTime{
			DateTime: input.End.Format(time.RFC3339),
			TimeZone: c.timezone,
		},
	}

	sendUpdates := sendUpdatesNone
	if len(input.Attendees) > 0 {
		var attendees []*calendar.EventAttendee
		for _, email := range input.Attendees {
			attendees = append(attendees, &calendar.EventAttendee{
				Email: email,
			})
		}
		event.Attendees = attendees
		sendUpdates = sendUpdatesAll
	}

	created, err := c.svc.Events.Insert(PrimaryCalendarID, event).
		SendUpdates(sendUpdates).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	summary := toEventSummary(created)
	return &summary, nil
}

// ListEvents lists events on the primary calendar within a time range.
func (c *Client) ListEvents(ctx context.Context, timeMin, timeMax time.Time, query string) ([]EventSummary, error) {
	call := c.svc.Events.List(PrimaryCalendarID).
		TimeMin(timeMin.Format(time.RFC3339)).
		TimeMax(timeMax.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx)

	if query != "" {
		call = call.Q(query)
	}

	events, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	var summaries []EventSummary
	for _, event := range events.Items {
		summaries = append(summaries, toEventSummary(event))
	}

	return summaries, nil
}

// GetEvent retrieves a specific event by ID.
func (c *Client) GetEvent(ctx context.Context, eventID string) (*EventSummary, error) {
	event, err := c.svc.Events.Get(PrimaryCalendarID, eventID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	summary := toEventSummary(event)
	return &summary, nil
}

// QueryFreeBusy checks availability for calendars in a time range.
func (c *Client) QueryFreeBusy(ctx context.Context, timeMin, timeMax time.Time, calendarIDs []string) ([]FreeBusyInfo, error) {
	items := make([]*calendar.FreeBusyRequestItem, len(calendarIDs))
	for i, id := range calendarIDs {
		items[i] = &calendar.FreeBusyRequestItem{Id: id}
	}

	query := &calendar.FreeBusyRequest{
		TimeMin: timeMin.Format(time.RFC3339),
		TimeMax: timeMax.Format(time.RFC3339),
		Items:   items,
	}

	result, err := c.svc.Freebusy.Query(query).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to query freebusy: %w", err)
	}

	var infos []FreeBusyInfo
	for calID, cal := range result.Calendars {
		info := FreeBusyInfo{Calendar: calID}

		for _, busy := range cal.Busy {
			start, _ := time.Parse(time.RFC3339, busy.Start)
			end, _ := time.Parse(time.RFC3339, busy.End)
			info.Busy = append(info.Busy, TimeRange{Start: start, End: end})
		}
		for _, calErr := range cal.Errors {
			info.Errors = append(info.Errors, calErr.Reason)
		}

		infos = append(infos, info)
	}

	return infos, nil
}

// newHTTPClient builds the authenticated HTTP client for the service.
func newHTTPClient(ctx context.Context, provider google.TokenProvider) (*http.Client, error) {
	if creds, ok := provider.(*google.Credentials); ok {
		return creds.HTTPClient(ctx)
	}

	ts, err := provider.TokenSource(ctx)
	if err != nil {
		return nil, err
	}
	return oauth2.NewClient(ctx, ts), nil
}
