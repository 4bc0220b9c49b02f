package telegram

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/gigacal/gigacal/internal/calendar"
	"github.com/gigacal/gigacal/internal/gigachat"
)

const (
	replyAuthConfigMissing = "❌ Не удалось создать ссылку для авторизации.\nПроверьте настройку credentials.json"

	replyAuthSuccess = "✅ Google Calendar успешно подключен!\n\n" +
		"Теперь ты можешь отправлять голосовые и текстовые сообщения " +
		"для создания событий в своём календаре."

	replyAuthFailed = "❌ Неверный код авторизации.\n\n" +
		"Попробуй ещё раз или нажми /start для получения новой ссылки."

	replyDisconnected = "✅ Google Calendar отключен.\n\n" +
		"Ты можешь подключить его снова в любое время."

	replyAwaitingCodeHint = "⚠️ Сначала отправь код авторизации или нажми /start для отмены."

	replyCheckingCode = "🔄 Проверяю код..."

	replyProcessingVoice = "🎤 Принял голосовое, обрабатываю..."

	replyProcessingText = "⚙️ Обрабатываю..."

	replyNoEvent = "❌ Не удалось извлечь информацию о событии. Попробуй еще раз."

	replyNotConnected = "⚠️ Google Calendar не подключен. Нажми /start для подключения."

	replyCreateFailed = "⚠️ Не удалось добавить в календарь."

	defaultTitle = "Без названия"
)

func greeting(firstName string, connected bool) string {
	if firstName == "" {
		firstName = "друг"
	}
	status := "❌ не подключен"
	if connected {
		status = "✅ подключен"
	}

	return fmt.Sprintf("👋 Привет, %s!\n\n"+
		"Я бот для добавления событий в Google Календарь.\n\n"+
		"📆 Google Calendar: %s\n\n"+
		"📝 Отправь мне голосовое сообщение с описанием события, например:\n"+
		"\"Завтра в 15:00 встреча с командой\"\n"+
		"\"Созвон в 10 утра с красным цветом\"\n\n"+
		"🎨 Можешь указать цвет: красный, синий, зеленый, желтый, оранжевый, розовый, фиолетовый, голубой, серый.\n\n"+
		"💡 Также можешь отправить текстовое сообщение.",
		firstName, status)
}

func connectInstructions(authURL string) string {
	return fmt.Sprintf("🔐 **Подключение Google Calendar**\n\n"+
		"1. Перейди по ссылке ниже\n"+
		"2. Войди в свой Google аккаунт\n"+
		"3. Разреши доступ к календарю\n"+
		"4. Скопируй код и отправь мне\n\n"+
		"🔗 [Открыть авторизацию](%s)\n\n"+
		"⏳ Жду код авторизации...", authURL)
}

// buildEventReply composes the single final message for an event request:
// the transcript (for voice messages), the extracted event fields, and the
// calendar outcome. A nil request means nothing could be extracted.
func buildEventReply(transcript string, req *gigachat.EventRequest, connected bool, result *calendar.EventResult) string {
	if req == nil {
		return replyNoEvent
	}

	title := req.Title
	if title == "" {
		title = defaultTitle
	}
	title = capitalizeFirst(title)

	var parts []string
	if transcript != "" {
		parts = append(parts, fmt.Sprintf("📝 Текст: %q", transcript))
	}

	parts = append(parts, "📅 Событие:")
	parts = append(parts, "• Название: "+title)
	parts = append(parts, "• Дата: "+orDefault(req.Date, "Не указана"))
	parts = append(parts, fmt.Sprintf("• Время: %s - %s",
		orDefault(req.TimeStart, "?"), orDefault(req.TimeEnd, "?")))
	if req.Description != "" {
		parts = append(parts, "• Описание: "+req.Description)
	}
	if req.Color != "" {
		parts = append(parts, "• Цвет: "+req.Color)
	}

	switch {
	case !connected:
		parts = append(parts, replyNotConnected)
	case result != nil:
		parts = append(parts, fmt.Sprintf("✅ Добавлено в календарь: [ссылка](%s)", result.Link))
	default:
		parts = append(parts, replyCreateFailed)
	}

	return strings.Join(parts, "\n")
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// capitalizeFirst upper-cases the first rune only, leaving the rest of the
// string as the model produced it.
func capitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
