// Package calendar provides a client for the Google Calendar API.
//
// The client targets the user's primary calendar, applies a fixed
// configured timezone to every event it creates, and requests attendee
// notifications only when the event actually has attendees. It
// authenticates through the google.TokenProvider abstraction.
package calendar
