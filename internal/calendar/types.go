package calendar

// EventParams is the input for creating a calendar event. Date and times are
// kept as strings ("2006-01-02", "15:04") because they arrive that way from
// language extraction and are passed on to the provider with an explicit
// timezone rather than being converted through the bot's local clock.
type EventParams struct {
	Title       string
	Date        string // YYYY-MM-DD
	TimeStart   string // HH:MM
	TimeEnd     string // HH:MM
	Description string
	Timezone    string // IANA name; empty means the service default
	Color       string // color name, Russian or English; empty for provider default
}

// EventResult describes a successfully created calendar event.
type EventResult struct {
	ID      string
	Link    string
	Summary string
	Start   string
	End     string
}
