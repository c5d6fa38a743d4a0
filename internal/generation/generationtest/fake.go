// Package generationtest provides a scripted text generator for tests.
package generationtest

import (
	"context"
	"iter"
	"strings"
	"sync"
	"time"

	"AutoBlogger/internal/domain"
)

// Fake answers every prompt through Handler and records what it was asked.
// Replies are streamed in small fragments so callers must concatenate.
type Fake struct {
	Handler func(prompt string) (string, error)

	mu      sync.Mutex
	prompts []string
}

// Stream implements ports.Generator.
func (f *Fake) Stream(ctx context.Context, req domain.GenerationRequest) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		f.mu.Lock()
		f.prompts = append(f.prompts, req.Prompt)
		f.mu.Unlock()

		if err := ctx.Err(); err != nil {
			yield("", err)
			return
		}

		reply, err := f.Handler(req.Prompt)
		if err != nil {
			yield("", err)
			return
		}
		for _, fragment := range chunk(reply, 7) {
			if !yield(fragment, nil) {
				return
			}
		}
	}
}

// Prompts returns every prompt received so far.
func (f *Fake) Prompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}

// Count returns how many prompts contained marker.
func (f *Fake) Count(marker string) int {
	n := 0
	for _, p := range f.Prompts() {
		if strings.Contains(p, marker) {
			n++
		}
	}
	return n
}

// NoSleep skips backoff delays.
func NoSleep(context.Context, time.Duration) error { return nil }

// ZeroJitter removes the random part of the backoff.
func ZeroJitter() time.Duration { return 0 }

func chunk(s string, size int) []string {
	runes := []rune(s)
	var out []string
	for len(runes) > 0 {
		n := min(size, len(runes))
		out = append(out, string(runes[:n]))
		runes = runes[n:]
	}
	return out
}
