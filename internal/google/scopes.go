package google

import (
	calendar "google.golang.org/api/calendar/v3"
)

// DefaultOAuthScopes are the Google OAuth scopes the application requests.
// Event creation needs read/write calendar access; nothing else is asked
// for so the consent screen stays narrow.
var DefaultOAuthScopes = []string{
	calendar.CalendarScope,
}
