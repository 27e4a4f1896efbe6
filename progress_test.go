package canim

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProgressPoll(t *testing.T) {
	p := NewProgress(8)
	ctx := context.Background()

	events, ok := p.Poll()
	assert.True(t, ok)
	assert.Empty(t, events)

	p.Status(ctx, "Processing frame %d...", 3)
	p.Percent(ctx, 42.5)

	events, ok = p.Poll()
	assert.True(t, ok)
	assert.Equal(t, []Event{
		{Kind: EventStatus, Status: "Processing frame 3..."},
		{Kind: EventProgress, Percent: 42.5},
	}, events)
	assert.Equal(t, "Processing frame 3...", events[0].String())
	assert.Equal(t, "42.5%", events[1].String())

	p.Status(ctx, "done")
	p.Close()
	events, ok = p.Poll()
	assert.False(t, ok)
	assert.Len(t, events, 1)
}

func TestProgressNil(t *testing.T) {
	var p *Progress
	assert.NotPanics(t, func() {
		p.Status(context.Background(), "ignored")
		p.Percent(context.Background(), 1)
	})
}

func TestProgressFullGivesUpOnCancel(t *testing.T) {
	p := NewProgress(1)
	ctx, cancel := context.WithCancel(context.Background())

	p.Percent(ctx, 1)

	done := make(chan struct{})
	go func() {
		p.Percent(ctx, 2)
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("send returned while the buffer was full")
	case <-time.After(20 * time.Millisecond):
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("send did not return after cancel")
	}
}
