package interfaces

import (
	"time"

	"market-backfill/src/models"
)

// -----------------------------------------------------------------------------
// ISessionCalendar answers session questions for calendar dates.
// -----------------------------------------------------------------------------

type ISessionCalendar interface {

	// SessionWindow is a pure function of the date's year, month and day.
	SessionWindow(date time.Time) models.MSessionWindow

	// Location is the reference zone that Open/Close are expressed in.
	Location() *time.Location
}

// -----------------------------------------------------------------------------
// IClock supplies "now" in local market time.
// -----------------------------------------------------------------------------

type IClock interface {
	Now() time.Time
}
