package calendar

import "strings"

// colorIDs maps spoken color names to Google Calendar color ids.
// https://developers.google.com/calendar/api/v3/reference/colors
//
// Users dictate events in Russian or English, so both name sets are listed,
// including the marketing names Google uses for the palette (tomato, basil,
// peacock, ...).
var colorIDs = map[string]string{
	// Russian names
	"лавандовый":   "1",
	"сиреневый":    "1",
	"лаванда":      "1",
	"серо-зеленый": "2",
	"серо-зелёный": "2",
	"шалфей":       "2",
	"фиолетовый":   "3",
	"виноград":     "3",
	"пурпурный":    "3",
	"розовый":      "4",
	"фламинго":     "4",
	"желтый":       "5",
	"жёлтый":       "5",
	"банан":        "5",
	"банановый":    "5",
	"оранжевый":    "6",
	"мандарин":     "6",
	"мандариновый": "6",
	"голубой":      "7",
	"бирюзовый":    "7",
	"павлин":       "7",
	"циан":         "7",
	"серый":        "8",
	"графит":       "8",
	"графитовый":   "8",
	"синий":        "9",
	"черника":      "9",
	"темно-синий":  "9",
	"тёмно-синий":  "9",
	"зеленый":      "10",
	"зелёный":      "10",
	"базилик":      "10",
	"красный":      "11",
	"томат":        "11",
	"томатный":     "11",
	"алый":         "11",

	// English names
	"lavender":  "1",
	"sage":      "2",
	"grape":     "3",
	"flamingo":  "4",
	"banana":    "5",
	"tangerine": "6",
	"peacock":   "7",
	"graphite":  "8",
	"blueberry": "9",
	"basil":     "10",
	"tomato":    "11",
	"red":       "11",
	"blue":      "9",
	"green":     "10",
	"yellow":    "5",
	"orange":    "6",
	"pink":      "4",
	"purple":    "3",
	"gray":      "8",
	"grey":      "8",
}

// ColorID resolves a color name to a Google Calendar color id.
// The lookup is case-insensitive. Unknown names report false; callers are
// expected to leave the event color unset rather than fail.
func ColorID(name string) (string, bool) {
	id, ok := colorIDs[strings.ToLower(name)]
	return id, ok
}
