package telegram

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gigacal/gigacal/internal/calendar"
	"github.com/gigacal/gigacal/internal/gigachat"
)

func TestCapitalizeFirst(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"встреча с командой", "Встреча с командой"},
		{"meeting", "Meeting"},
		{"a", "A"},
		{"Уже заглавная", "Уже заглавная"},
		{"", ""},
		{"1:1 с Петей", "1:1 с Петей"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, capitalizeFirst(tt.in))
	}
}

func TestBuildEventReplyNoEvent(t *testing.T) {
	assert.Equal(t, replyNoEvent, buildEventReply("что-то невнятное", nil, true, nil))
}

func TestBuildEventReplyNotConnected(t *testing.T) {
	req := &gigachat.EventRequest{
		Title:     "созвон",
		Date:      "2026-08-29",
		TimeStart: "15:00",
		TimeEnd:   "16:00",
	}

	got := buildEventReply("", req, false, nil)

	assert.Contains(t, got, "• Название: Созвон")
	assert.Contains(t, got, "• Дата: 2026-08-29")
	assert.Contains(t, got, "• Время: 15:00 - 16:00")
	assert.Contains(t, got, replyNotConnected)
	assert.NotContains(t, got, "📝 Текст")
	assert.NotContains(t, got, "• Описание")
	assert.NotContains(t, got, "• Цвет")
}

func TestBuildEventReplyCreated(t *testing.T) {
	req := &gigachat.EventRequest{
		Title:       "встреча с командой",
		Date:        "2026-08-29",
		TimeStart:   "15:00",
		TimeEnd:     "16:00",
		Description: "обсудить релиз",
		Color:       "красный",
	}
	result := &calendar.EventResult{Link: "https://calendar.google.com/event?eid=abc"}

	got := buildEventReply("завтра в 15 встреча с командой", req, true, result)

	assert.Contains(t, got, `📝 Текст: "завтра в 15 встреча с командой"`)
	assert.Contains(t, got, "• Название: Встреча с командой")
	assert.Contains(t, got, "• Описание: обсудить релиз")
	assert.Contains(t, got, "• Цвет: красный")
	assert.Contains(t, got, "[ссылка](https://calendar.google.com/event?eid=abc)")
	assert.NotContains(t, got, replyCreateFailed)
}

func TestBuildEventReplyCreateFailed(t *testing.T) {
	req := &gigachat.EventRequest{Title: "созвон", Date: "2026-08-29"}

	got := buildEventReply("", req, true, nil)

	assert.Contains(t, got, replyCreateFailed)
	assert.NotContains(t, got, "Добавлено в календарь")
}

func TestBuildEventReplyMissingFields(t *testing.T) {
	got := buildEventReply("", &gigachat.EventRequest{}, false, nil)

	assert.Contains(t, got, "• Название: Без названия")
	assert.Contains(t, got, "• Дата: Не указана")
	assert.Contains(t, got, "• Время: ? - ?")
}

func TestGreeting(t *testing.T) {
	got := greeting("Аня", true)
	assert.Contains(t, got, "Привет, Аня!")
	assert.Contains(t, got, "✅ подключен")

	got = greeting("", false)
	assert.Contains(t, got, "Привет, друг!")
	assert.Contains(t, got, "❌ не подключен")
}

func TestConnectInstructions(t *testing.T) {
	got := connectInstructions("https://accounts.google.com/o/oauth2/auth?x=1")
	assert.Contains(t, got, "[Открыть авторизацию](https://accounts.google.com/o/oauth2/auth?x=1)")
	assert.True(t, strings.Contains(got, "Жду код авторизации"))
}
