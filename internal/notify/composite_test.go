package notify

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeNotifier struct {
	err   error
	calls []Level
}

func (f *fakeNotifier) Notify(title, message string, level Level) error {
	f.calls = append(f.calls, level)
	return f.err
}

func TestCompositeFansOutToAllNotifiers(t *testing.T) {
	a := &fakeNotifier{}
	b := &fakeNotifier{}
	c := NewComposite(nil, a, b)

	err := c.Notify("title", "message", LevelInfo)

	require.NoError(t, err)
	require.Equal(t, []Level{LevelInfo}, a.calls)
	require.Equal(t, []Level{LevelInfo}, b.calls)
}

func TestCompositeOneFailureDoesNotStopOthers(t *testing.T) {
	failing := &fakeNotifier{err: errors.New("webhook down")}
	ok := &fakeNotifier{}

	var reported []error
	c := NewComposite(func(n Notifier, err error) { reported = append(reported, err) }, failing, ok)

	err := c.Notify("title", "message", LevelWarning)

	require.NoError(t, err)
	require.Equal(t, []Level{LevelWarning}, ok.calls)
	require.Len(t, reported, 1)
}

func TestNullNotifierDiscards(t *testing.T) {
	require.NoError(t, Null{}.Notify("t", "m", LevelError))
}

func TestConvenienceWrappersUseCorrectLevel(t *testing.T) {
	f := &fakeNotifier{}
	require.NoError(t, Success(f, "t", "m"))
	require.NoError(t, Alert(f, "t", "m"))
	require.Equal(t, []Level{LevelSuccess, LevelAlert}, f.calls)
}
