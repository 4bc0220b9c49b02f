package telegram

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gigacal/gigacal/internal/gigachat"
)

func TestSessionStoreDefaultsToIdle(t *testing.T) {
	s := NewSessionStore()
	assert.Equal(t, StateIdle, s.Get(42))
}

func TestSessionStoreSetAndClear(t *testing.T) {
	s := NewSessionStore()

	s.Set(42, StateAwaitingAuthCode)
	assert.Equal(t, StateAwaitingAuthCode, s.Get(42))
	assert.Equal(t, StateIdle, s.Get(43))

	s.Clear(42)
	assert.Equal(t, StateIdle, s.Get(42))
}

func TestSessionStoreConcurrentAccess(t *testing.T) {
	s := NewSessionStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			s.Set(id, StateAwaitingAuthCode)
			s.Get(id)
			s.Clear(id)
		}(int64(i))
	}
	wg.Wait()

	for i := int64(0); i < 50; i++ {
		assert.Equal(t, StateIdle, s.Get(i))
	}
}

func TestEventParamsFillsDefaults(t *testing.T) {
	p := eventParams(&gigachat.EventRequest{
		Title: "обед",
		Date:  "2026-08-29",
	})

	assert.Equal(t, "Обед", p.Title)
	assert.Equal(t, defaultTimeStart, p.TimeStart)
	assert.Equal(t, defaultTimeEnd, p.TimeEnd)
	assert.Empty(t, p.Color)
}

func TestEventParamsKeepsExplicitValues(t *testing.T) {
	p := eventParams(&gigachat.EventRequest{
		Title:       "созвон",
		Date:        "2026-08-29",
		TimeStart:   "14:30",
		TimeEnd:     "15:00",
		Description: "повестка",
		Color:       "red",
	})

	assert.Equal(t, "Созвон", p.Title)
	assert.Equal(t, "14:30", p.TimeStart)
	assert.Equal(t, "15:00", p.TimeEnd)
	assert.Equal(t, "повестка", p.Description)
	assert.Equal(t, "red", p.Color)
}

func TestEventParamsUntitled(t *testing.T) {
	p := eventParams(&gigachat.EventRequest{Date: "2026-08-29"})
	assert.Equal(t, defaultTitle, p.Title)
}

func TestStatusKeyboard(t *testing.T) {
	kb := statusKeyboard(false)
	require.Len(t, kb.InlineKeyboard, 1)
	require.Len(t, kb.InlineKeyboard[0], 1)
	btn := kb.InlineKeyboard[0][0]
	require.NotNil(t, btn.CallbackData)
	assert.Equal(t, callbackConnect, *btn.CallbackData)
	assert.Contains(t, btn.Text, "Подключить")

	kb = statusKeyboard(true)
	btn = kb.InlineKeyboard[0][0]
	require.NotNil(t, btn.CallbackData)
	assert.Equal(t, callbackDisconnect, *btn.CallbackData)
	assert.Contains(t, btn.Text, "Отключить")
}
