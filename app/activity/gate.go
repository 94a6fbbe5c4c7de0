package activity

import "fmt"

type Reader interface {
	ChannelActivityCount(channel string) (int, error)
	IsChannelIdle(channel string, minutes int) (bool, error)
}

// Gate decides whether announcements may go out to a channel. They do only
// while the channel is quiet, and, with WaitForFirstMessage, only after the
// channel has been heard from since the last reset.
type Gate struct {
	Store               Reader
	Channel             string
	WaitForFirstMessage bool
	IdleMinutes         int
}

func (g *Gate) ShouldSuppress() (bool, error) {
	if g.WaitForFirstMessage {
		count, err := g.Store.ChannelActivityCount(g.Channel)
		if err != nil {
			return true, fmt.Errorf("failed to read channel activity: %w", err)
		}
		if count == 0 {
			return true, nil
		}
	}

	idle, err := g.Store.IsChannelIdle(g.Channel, g.IdleMinutes)
	if err != nil {
		return true, fmt.Errorf("failed to check channel idleness: %w", err)
	}

	return !idle, nil
}

// OpenGate never suppresses. The warm-up poll uses it to record the backlog
// regardless of channel state.
type OpenGate struct{}

func (OpenGate) ShouldSuppress() (bool, error) {
	return false, nil
}
