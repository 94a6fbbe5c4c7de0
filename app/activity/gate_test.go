package activity

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubReader struct {
	count   int
	idle    bool
	err     error
	minutes int
}

func (s *stubReader) ChannelActivityCount(channel string) (int, error) {
	return s.count, s.err
}

func (s *stubReader) IsChannelIdle(channel string, minutes int) (bool, error) {
	s.minutes = minutes
	return s.idle, s.err
}

func TestShouldSuppress(t *testing.T) {
	tests := []struct {
		name     string
		wait     bool
		count    int
		idle     bool
		suppress bool
	}{
		{"waiting and never heard", true, 0, true, true},
		{"waiting, heard, idle", true, 3, true, false},
		{"waiting, heard, busy", true, 3, false, true},
		{"not waiting, idle", false, 0, true, false},
		{"not waiting, busy", false, 5, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &stubReader{count: tt.count, idle: tt.idle}
			gate := &Gate{Store: store, Channel: "#news", WaitForFirstMessage: tt.wait, IdleMinutes: 10}

			suppress, err := gate.ShouldSuppress()
			assert.NoError(t, err)
			assert.Equal(t, tt.suppress, suppress)
		})
	}
}

func TestShouldSuppressPassesIdleWindow(t *testing.T) {
	store := &stubReader{idle: true}
	gate := &Gate{Store: store, Channel: "#news", IdleMinutes: 42}

	_, err := gate.ShouldSuppress()
	assert.NoError(t, err)
	assert.Equal(t, 42, store.minutes)
}

func TestShouldSuppressStoreError(t *testing.T) {
	store := &stubReader{err: errors.New("database is locked")}
	gate := &Gate{Store: store, Channel: "#news", WaitForFirstMessage: true}

	suppress, err := gate.ShouldSuppress()
	assert.Error(t, err)
	assert.True(t, suppress)
}

func TestOpenGate(t *testing.T) {
	suppress, err := OpenGate{}.ShouldSuppress()
	assert.NoError(t, err)
	assert.False(t, suppress)
}
