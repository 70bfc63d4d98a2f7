package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringArrayRoundTrip(t *testing.T) {
	a := StringArray{"a", "b", "c"}

	v, err := a.Value()
	require.NoError(t, err)
	assert.Equal(t, "{a,b,c}", v)

	var out StringArray
	require.NoError(t, out.Scan(v))
	assert.Equal(t, a, out)
}

func TestStringArrayEmptyAndNil(t *testing.T) {
	v, err := StringArray{}.Value()
	require.NoError(t, err)
	assert.Equal(t, "{}", v)

	var out StringArray
	require.NoError(t, out.Scan("{}"))
	assert.Empty(t, out)

	v, err = StringArray(nil).Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, out.Scan(nil))
	assert.Nil(t, out)
}

func TestStringArrayMutations(t *testing.T) {
	a := StringArray{"b", "c"}

	a = a.PushFront("a")
	assert.Equal(t, StringArray{"a", "b", "c"}, a)
	assert.True(t, a.Contains("b"))
	assert.False(t, a.Contains("z"))

	a = a.Pull("b")
	assert.Equal(t, StringArray{"a", "c"}, a)

	// Pulling an absent id is a no-op
	assert.Equal(t, a, a.Pull("z"))
}

func TestNotificationEventsInsertOrdersAndTruncates(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	var events NotificationEvents
	for i := 0; i < MaxNotifications+5; i++ {
		events = events.Insert(NotificationEvent{
			ID:        string(rune('a' + i)),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}

	require.Len(t, events, MaxNotifications)
	for i := 1; i < len(events); i++ {
		assert.False(t, events[i].CreatedAt.After(events[i-1].CreatedAt))
	}
	// The oldest entries fell off the end
	assert.Equal(t, base.Add(5*time.Minute), events[len(events)-1].CreatedAt)
}

func TestSubscriptionsContainsAndRemove(t *testing.T) {
	subs := Subscriptions{
		{Endpoint: "https://push.example/a"},
		{Endpoint: "https://push.example/b"},
	}

	assert.True(t, subs.Contains("https://push.example/a"))
	assert.False(t, subs.Contains("https://push.example/c"))

	subs = subs.Remove("https://push.example/a")
	require.Len(t, subs, 1)
	assert.Equal(t, "https://push.example/b", subs[0].Endpoint)
}
