package telegram

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/gigacal/gigacal/internal/calendar"
	"github.com/gigacal/gigacal/internal/gigachat"
	"github.com/gigacal/gigacal/internal/instrumentation"
	"github.com/gigacal/gigacal/internal/logging"
)

// Callback button payloads.
const (
	callbackConnect    = "connect"
	callbackDisconnect = "disconnect"
)

// Defaults applied when the language model omits a time.
const (
	defaultTimeStart = "10:00"
	defaultTimeEnd   = "11:00"
)

const updateTimeoutSeconds = 30

// CalendarService is the calendar surface the bot drives.
type CalendarService interface {
	IsAuthenticated(ctx context.Context, userID int64) bool
	AuthURL(userID int64) (string, bool)
	CompleteAuth(ctx context.Context, userID int64, code string) bool
	Disconnect(ctx context.Context, userID int64)
	CreateEvent(ctx context.Context, userID int64, p calendar.EventParams) (*calendar.EventResult, bool)
}

// LanguageService turns audio and free-form text into event requests.
type LanguageService interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
	ExtractEvent(ctx context.Context, text string) (*gigachat.EventRequest, error)
}

// Bot is the Telegram front end. Each update is handled on its own goroutine,
// so a slow transcription never blocks other users.
type Bot struct {
	api      *tgbotapi.BotAPI
	calendar CalendarService
	language LanguageService
	sessions *SessionStore
	metrics  *instrumentation.Metrics
	logger   *slog.Logger

	// download fetches a voice file by URL. Overridable in tests.
	download func(ctx context.Context, url string) (io.ReadCloser, error)
}

// New connects to the Telegram Bot API and returns a ready bot.
func New(token string, cal CalendarService, lang LanguageService, metrics *instrumentation.Metrics, logger *slog.Logger) (*Bot, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = &instrumentation.Metrics{}
	}

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("connecting to telegram: %w", err)
	}

	return &Bot{
		api:      api,
		calendar: cal,
		language: lang,
		sessions: NewSessionStore(),
		metrics:  metrics,
		logger:   logging.WithService(logger, "telegram"),
		download: downloadHTTP,
	}, nil
}

// Username returns the bot account name reported by Telegram.
func (b *Bot) Username() string {
	return b.api.Self.UserName
}

// Run long-polls for updates until the context is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = updateTimeoutSeconds
	updates := b.api.GetUpdatesChan(cfg)

	b.logger.Info("bot started", "username", b.api.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.logger.Info("bot stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	chatID := updateChatID(update)
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("panic while handling update", "panic", r)
			if chatID != 0 {
				b.reply(chatID, "❌ Произошла ошибка. Попробуй еще раз.")
			}
		}
	}()

	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message == nil:
		return
	case update.Message.IsCommand():
		b.handleCommand(ctx, update.Message)
	case update.Message.Voice != nil:
		b.handleVoice(ctx, update.Message)
	case update.Message.Text != "":
		b.handleText(ctx, update.Message)
	}
}

func updateChatID(update tgbotapi.Update) int64 {
	if update.Message != nil {
		return update.Message.Chat.ID
	}
	if update.CallbackQuery != nil && update.CallbackQuery.Message != nil {
		return update.CallbackQuery.Message.Chat.ID
	}
	return 0
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	if msg.Command() != "start" {
		return
	}

	userID := msg.From.ID
	b.sessions.Clear(userID)

	connected := b.calendar.IsAuthenticated(ctx, userID)
	out := tgbotapi.NewMessage(msg.Chat.ID, greeting(msg.From.FirstName, connected))
	out.ReplyMarkup = statusKeyboard(connected)
	b.send(out)
}

func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	// Ack first so the button stops spinning even if the rest fails.
	if _, err := b.api.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
		b.logger.Warn("callback ack failed", logging.Err(err))
	}
	if cq.Message == nil {
		return
	}
	chatID := cq.Message.Chat.ID
	userID := cq.From.ID

	switch cq.Data {
	case callbackConnect:
		authURL, ok := b.calendar.AuthURL(userID)
		if !ok {
			b.reply(chatID, replyAuthConfigMissing)
			return
		}
		b.sessions.Set(userID, StateAwaitingAuthCode)
		b.metrics.RecordAuthFlow(ctx, instrumentation.AuthStarted)

		out := tgbotapi.NewMessage(chatID, connectInstructions(authURL))
		out.ParseMode = tgbotapi.ModeMarkdown
		out.DisableWebPagePreview = true
		b.send(out)

	case callbackDisconnect:
		b.calendar.Disconnect(ctx, userID)
		b.sessions.Clear(userID)

		out := tgbotapi.NewMessage(chatID, replyDisconnected)
		out.ReplyMarkup = statusKeyboard(false)
		b.send(out)
	}
}

func (b *Bot) handleText(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID
	if b.sessions.Get(userID) == StateAwaitingAuthCode {
		b.handleAuthCode(ctx, msg)
		return
	}

	b.metrics.RecordMessage(ctx, "text")

	status := b.sendStatus(msg.Chat.ID, replyProcessingText)
	b.processEventText(ctx, msg.Chat.ID, userID, "", msg.Text)
	b.deleteStatus(msg.Chat.ID, status)
}

func (b *Bot) handleAuthCode(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID
	code := strings.TrimSpace(msg.Text)

	status := b.sendStatus(msg.Chat.ID, replyCheckingCode)
	ok := b.calendar.CompleteAuth(ctx, userID, code)
	b.deleteStatus(msg.Chat.ID, status)

	b.sessions.Clear(userID)

	if !ok {
		b.metrics.RecordAuthFlow(ctx, instrumentation.AuthFailed)
		b.reply(msg.Chat.ID, replyAuthFailed)
		return
	}
	b.metrics.RecordAuthFlow(ctx, instrumentation.AuthCompleted)

	out := tgbotapi.NewMessage(msg.Chat.ID, replyAuthSuccess)
	out.ReplyMarkup = statusKeyboard(true)
	b.send(out)
}

func (b *Bot) handleVoice(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID
	if b.sessions.Get(userID) == StateAwaitingAuthCode {
		b.reply(msg.Chat.ID, replyAwaitingCodeHint)
		return
	}

	b.metrics.RecordMessage(ctx, "voice")
	log := logging.WithUser(b.logger, userID)

	status := b.sendStatus(msg.Chat.ID, replyProcessingVoice)
	defer b.deleteStatus(msg.Chat.ID, status)

	path, err := b.downloadVoice(ctx, msg.Voice.FileID)
	if err != nil {
		log.Error("voice download failed", logging.Err(err))
		b.reply(msg.Chat.ID, fmt.Sprintf("❌ Произошла ошибка: %v", err))
		return
	}
	defer os.Remove(path)

	transcript, err := b.language.Transcribe(ctx, path)
	if err != nil {
		b.metrics.RecordTranscription(ctx, instrumentation.ResultError)
		log.Error("transcription failed", logging.Err(err))
		b.reply(msg.Chat.ID, fmt.Sprintf("❌ Произошла ошибка: %v", err))
		return
	}
	b.metrics.RecordTranscription(ctx, instrumentation.ResultSuccess)

	b.processEventText(ctx, msg.Chat.ID, userID, transcript, transcript)
}

// processEventText extracts an event from text, creates it when the user has
// a connected calendar, and sends the combined reply. transcript is empty for
// plain text messages.
func (b *Bot) processEventText(ctx context.Context, chatID, userID int64, transcript, text string) {
	log := logging.WithUser(b.logger, userID)

	req, err := b.language.ExtractEvent(ctx, text)
	if err != nil {
		b.metrics.RecordExtraction(ctx, instrumentation.ResultError)
		log.Error("event extraction failed", logging.Err(err))
		b.reply(chatID, fmt.Sprintf("❌ Произошла ошибка: %v", err))
		return
	}
	if req == nil {
		b.metrics.RecordExtraction(ctx, instrumentation.ResultAbsent)
		b.reply(chatID, buildEventReply(transcript, nil, false, nil))
		return
	}
	b.metrics.RecordExtraction(ctx, instrumentation.ResultSuccess)

	connected := b.calendar.IsAuthenticated(ctx, userID)

	var result *calendar.EventResult
	if connected {
		var ok bool
		result, ok = b.calendar.CreateEvent(ctx, userID, eventParams(req))
		if ok {
			b.metrics.RecordEventCreated(ctx, instrumentation.ResultSuccess)
		} else {
			b.metrics.RecordEventCreated(ctx, instrumentation.ResultError)
		}
	}

	b.reply(chatID, buildEventReply(transcript, req, connected, result))
}

// eventParams maps an extracted request onto calendar input, filling the
// times the model left out.
func eventParams(req *gigachat.EventRequest) calendar.EventParams {
	title := req.Title
	if title == "" {
		title = defaultTitle
	}
	return calendar.EventParams{
		Title:       capitalizeFirst(title),
		Date:        req.Date,
		TimeStart:   orDefault(req.TimeStart, defaultTimeStart),
		TimeEnd:     orDefault(req.TimeEnd, defaultTimeEnd),
		Description: req.Description,
		Color:       req.Color,
	}
}

// downloadVoice fetches the voice note into a temp .ogg file and returns its
// path. The caller removes the file.
func (b *Bot) downloadVoice(ctx context.Context, fileID string) (string, error) {
	url, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return "", fmt.Errorf("resolving voice file: %w", err)
	}

	body, err := b.download(ctx, url)
	if err != nil {
		return "", fmt.Errorf("downloading voice file: %w", err)
	}
	defer body.Close()

	tmp, err := os.CreateTemp("", "gigacal-voice-*.ogg")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("saving voice file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("saving voice file: %w", err)
	}
	return tmp.Name(), nil
}

func downloadHTTP(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return resp.Body, nil
}

func statusKeyboard(connected bool) tgbotapi.InlineKeyboardMarkup {
	if connected {
		return tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("🔓 Отключить Google Calendar", callbackDisconnect),
			),
		)
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔐 Подключить Google Calendar", callbackConnect),
		),
	)
}

// reply sends a Markdown message to the chat, logging delivery errors.
func (b *Bot) reply(chatID int64, text string) {
	out := tgbotapi.NewMessage(chatID, text)
	out.ParseMode = tgbotapi.ModeMarkdown
	b.send(out)
}

func (b *Bot) send(msg tgbotapi.MessageConfig) {
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Warn("sending message failed", logging.Err(err))
	}
}

// sendStatus posts a transient progress message and returns its id, or 0 when
// sending failed.
func (b *Bot) sendStatus(chatID int64, text string) int {
	sent, err := b.api.Send(tgbotapi.NewMessage(chatID, text))
	if err != nil {
		b.logger.Warn("sending status message failed", logging.Err(err))
		return 0
	}
	return sent.MessageID
}

func (b *Bot) deleteStatus(chatID int64, messageID int) {
	if messageID == 0 {
		return
	}
	if _, err := b.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		b.logger.Warn("deleting status message failed", logging.Err(err))
	}
}
