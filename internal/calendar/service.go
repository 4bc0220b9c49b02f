package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	calendarapi "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/gigacal/gigacal/internal/logging"
	"github.com/gigacal/gigacal/internal/storage"
)

const (
	// oobRedirectURL is the out-of-band redirect for manual code entry.
	// The user copies the code from the browser and pastes it into the chat.
	oobRedirectURL = "urn:ietf:wg:oauth:2.0:oob"

	// primaryCalendarID is the user's primary calendar.
	primaryCalendarID = "primary"

	// fallbackEndTime is used when the start time cannot be parsed and no
	// usable end time was given.
	fallbackEndTime = "11:00"
)

// Service manages per-user Google Calendar access: the OAuth authorization
// flow, credential persistence and refresh, a per-user service handle cache,
// and event creation.
type Service struct {
	oauthCfg *oauth2.Config // nil when the client secrets file is unusable
	store    storage.TokenStore
	flows    *FlowStore
	timezone string
	logger   *slog.Logger

	mu      sync.Mutex
	handles map[int64]*calendarapi.Service
}

// NewService creates a calendar service. The Google OAuth client
// configuration is read from credentialsFile; if the file is missing or
// invalid the service still starts, but AuthURL reports that authorization
// is unavailable until the file is fixed.
func NewService(credentialsFile string, store storage.TokenStore, timezone string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logging.WithService(logger, "calendar")

	s := &Service{
		store:    store,
		flows:    NewFlowStore(DefaultFlowTTL, logger),
		timezone: timezone,
		logger:   logger,
		handles:  make(map[int64]*calendarapi.Service),
	}

	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		logger.Warn("google client secrets file not readable, authorization disabled",
			"file", credentialsFile, logging.Err(err))
		return s
	}

	cfg, err := google.ConfigFromJSON(data, calendarapi.CalendarScope)
	if err != nil {
		logger.Warn("google client secrets file invalid, authorization disabled",
			"file", credentialsFile, logging.Err(err))
		return s
	}

	cfg.RedirectURL = oobRedirectURL
	s.oauthCfg = cfg

	return s
}

// IsAuthenticated reports whether a usable calendar handle can be produced
// for the user. It may transparently refresh an expired credential.
func (s *Service) IsAuthenticated(ctx context.Context, userID int64) bool {
	_, ok := s.handle(ctx, userID)
	return ok
}

// AuthURL constructs the provider authorization URL for the user and records
// a pending authorization session. It reports false when the OAuth client
// configuration is missing.
func (s *Service) AuthURL(userID int64) (string, bool) {
	if s.oauthCfg == nil {
		s.logger.Error("cannot build auth url: no oauth client configuration", logging.UserID(userID))
		return "", false
	}

	url := s.oauthCfg.AuthCodeURL("state",
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("include_granted_scopes", "true"),
		oauth2.SetAuthURLParam("prompt", "consent"),
	)

	s.flows.Begin(userID)
	s.logger.Info("authorization started", logging.UserID(userID))

	return url, true
}

// CompleteAuth exchanges the one-time authorization code for a credential
// record and persists it. The pending session is discarded whether or not
// the exchange succeeds. Reports false on a missing or expired session, a
// failed exchange, or a failed save.
func (s *Service) CompleteAuth(ctx context.Context, userID int64, code string) bool {
	if _, ok := s.flows.Consume(userID); !ok {
		s.logger.Warn("no pending authorization flow", logging.UserID(userID))
		return false
	}

	if s.oauthCfg == nil {
		return false
	}

	token, err := s.oauthCfg.Exchange(ctx, strings.TrimSpace(code))
	if err != nil {
		s.logger.Error("authorization code exchange failed", logging.UserID(userID), logging.Err(err))
		return false
	}

	if !s.saveToken(ctx, userID, token) {
		return false
	}

	s.dropHandle(userID)
	s.logger.Info("user authorized", logging.UserID(userID))

	return true
}

// Disconnect deletes the persisted credential and the cached service handle.
// It is idempotent.
func (s *Service) Disconnect(ctx context.Context, userID int64) {
	s.store.Delete(ctx, userID)
	s.dropHandle(userID)
	s.flows.Cancel(userID)
	s.logger.Info("user disconnected", logging.UserID(userID))
}

// CreateEvent inserts an event into the user's primary calendar. It reports
// false without contacting the provider when the user has no usable
// credential, and on any provider API failure.
func (s *Service) CreateEvent(ctx context.Context, userID int64, p EventParams) (*EventResult, bool) {
	svc, ok := s.handle(ctx, userID)
	if !ok {
		s.logger.Warn("create event without calendar connection", logging.UserID(userID))
		return nil, false
	}

	timeEnd := correctEndTime(p.TimeStart, p.TimeEnd)
	if timeEnd != p.TimeEnd {
		s.logger.Info("corrected event end time",
			logging.UserID(userID), "time_start", p.TimeStart, "time_end", timeEnd)
	}

	timezone := p.Timezone
	if timezone == "" {
		timezone = s.timezone
	}

	event := buildEvent(p, timeEnd, timezone)

	created, err := svc.Events.Insert(primaryCalendarID, event).Context(ctx).Do()
	if err != nil {
		s.logger.Error("failed to create event",
			logging.UserID(userID), logging.Operation("create_event"), logging.Err(err))
		return nil, false
	}

	s.logger.Info("event created",
		logging.UserID(userID), "event_id", created.Id, "link", created.HtmlLink)

	result := &EventResult{
		ID:      created.Id,
		Link:    created.HtmlLink,
		Summary: created.Summary,
	}
	if created.Start != nil {
		result.Start = created.Start.DateTime
	}
	if created.End != nil {
		result.End = created.End.DateTime
	}

	return result, true
}

// handle returns a calendar API service for the user, building and caching
// one on first use. An expired credential with a refresh token is refreshed
// transparently and re-persisted; a credential that cannot be refreshed is
// deleted so the user is cleanly disconnected instead of failing repeatedly.
func (s *Service) handle(ctx context.Context, userID int64) (*calendarapi.Service, bool) {
	s.mu.Lock()
	if svc, ok := s.handles[userID]; ok {
		s.mu.Unlock()
		return svc, true
	}
	s.mu.Unlock()

	token, ok := s.loadToken(ctx, userID)
	if !ok {
		return nil, false
	}

	if s.oauthCfg == nil {
		return nil, false
	}

	source := s.oauthCfg.TokenSource(ctx, token)

	current, err := source.Token()
	if err != nil {
		// Refresh impossible: demote to disconnected rather than fail on
		// every message.
		s.logger.Warn("stored credential unusable, removing",
			logging.UserID(userID), logging.Err(err))
		s.store.Delete(ctx, userID)
		return nil, false
	}

	if current.AccessToken != token.AccessToken {
		s.logger.Info("credential refreshed", logging.UserID(userID))
		s.saveToken(ctx, userID, current)
	}

	client := oauth2.NewClient(ctx, source)
	svc, err := calendarapi.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		s.logger.Error("failed to create calendar service",
			logging.UserID(userID), logging.Err(err))
		return nil, false
	}

	s.mu.Lock()
	s.handles[userID] = svc
	s.mu.Unlock()

	return svc, true
}

// dropHandle invalidates the cached service handle for the user.
func (s *Service) dropHandle(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.handles, userID)
}

// loadToken reads the user's credential record from the store.
func (s *Service) loadToken(ctx context.Context, userID int64) (*oauth2.Token, bool) {
	blob, ok := s.store.Get(ctx, userID)
	if !ok {
		return nil, false
	}

	var token oauth2.Token
	if err := json.Unmarshal(blob, &token); err != nil {
		s.logger.Error("stored credential is not valid JSON",
			logging.UserID(userID), logging.Err(err))
		return nil, false
	}

	return &token, true
}

// saveToken persists the user's credential record.
func (s *Service) saveToken(ctx context.Context, userID int64, token *oauth2.Token) bool {
	blob, err := json.Marshal(token)
	if err != nil {
		s.logger.Error("failed to serialize credential",
			logging.UserID(userID), logging.Err(err))
		return false
	}

	return s.store.Save(ctx, userID, blob)
}

// buildEvent assembles the provider event payload.
func buildEvent(p EventParams, timeEnd, timezone string) *calendarapi.Event {
	event := &calendarapi.Event{
		Summary: p.Title,
		Start: &calendarapi.EventDateTime{
			DateTime: p.Date + "T" + p.TimeStart + ":00",
			TimeZone: timezone,
		},
		End: &calendarapi.EventDateTime{
			DateTime: p.Date + "T" + timeEnd + ":00",
			TimeZone: timezone,
		},
	}

	if p.Description != "" {
		event.Description = p.Description
	}

	if p.Color != "" {
		// Unknown color names are silently ignored: the event is created
		// with the calendar's default color.
		if id, found := ColorID(p.Color); found {
			event.ColorId = id
		}
	}

	return event
}

// correctEndTime ensures the event end is after its start. When the given
// end is empty or not after the start, the end becomes start plus one hour,
// clamped to 23:59 instead of wrapping into the next day. An unparsable
// start falls back to a fixed end time.
func correctEndTime(timeStart, timeEnd string) string {
	if timeEnd > timeStart {
		return timeEnd
	}

	hourStr, minuteStr, found := strings.Cut(timeStart, ":")
	if !found {
		return fallbackEndTime
	}
	hour, err := strconv.Atoi(hourStr)
	if err != nil {
		return fallbackEndTime
	}
	minute, err := strconv.Atoi(minuteStr)
	if err != nil {
		return fallbackEndTime
	}

	hour++
	if hour >= 24 {
		hour, minute = 23, 59
	}

	return fmt.Sprintf("%02d:%02d", hour, minute)
}
