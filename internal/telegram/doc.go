// Package telegram implements the bot front end: long-polling for updates,
// the /start keyboard, the OAuth code conversation, and turning voice and
// text messages into calendar events through the language and calendar
// services.
package telegram
