package gigachat

import "fmt"

// transcriptionPrompt instructs the model to return a bare transcript.
const transcriptionPrompt = `Расшифруй аудиофайл и верни только текст, который был сказан.
Без комментариев, только расшифровка речи.`

// transcriptionUserMessage is the user-role message accompanying the
// attached audio file.
const transcriptionUserMessage = "Расшифруй этот аудиофайл"

// extractionPromptTemplate asks the model for the event fields as JSON.
// The current date is substituted so relative dates ("завтра") resolve
// correctly on the model side.
const extractionPromptTemplate = `Ты помощник для создания событий в календаре.
Из сообщения пользователя извлеки информацию о событии и верни JSON в формате:
{
    "title": "название события",
    "date": "YYYY-MM-DD",
    "time_start": "HH:MM",
    "time_end": "HH:MM",
    "description": "описание события (опционально)",
    "color": "цвет события (опционально)"
}

Если какая-то информация не указана, используй разумные значения по умолчанию:
- Если не указана дата - используй сегодняшнюю
- Если не указано время окончания - добавь 1 час к началу
- Если не указано время - используй 10:00
- Если не указан цвет - НЕ добавляй поле color в JSON

Доступные цвета: красный, синий, зеленый, желтый, оранжевый, розовый, фиолетовый, голубой, серый, сиреневый.
Если пользователь указал цвет (например: "с красным цветом", "красное событие", "пометь красным") - добавь его в поле color.

Сегодняшняя дата: %s

ВАЖНО: Верни ТОЛЬКО JSON без дополнительного текста.`

// extractionPrompt returns the extraction system prompt seeded with today's
// date in YYYY-MM-DD form.
func extractionPrompt(today string) string {
	return fmt.Sprintf(extractionPromptTemplate, today)
}
