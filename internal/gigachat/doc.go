// Package gigachat is a client for the GigaChat API used for two tasks:
// transcribing voice messages and extracting structured event fields from
// free text.
//
// The client handles the provider's OAuth token lifecycle internally and
// exposes just the two domain operations, Transcribe and ExtractEvent.
package gigachat
