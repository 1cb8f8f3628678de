package notifications

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// matchRow mirrors the columns of the matches table.
type matchRow struct {
	Match
	IsActive             bool
	LiveNotificationSent bool
}

// memStore applies the same predicates as the prepared statements.
type memStore struct {
	mu      sync.Mutex
	matches map[string]*matchRow
	tokens  []string
	logs    []LogEntry

	candidatesErr error
	tokensErr     error
	markErr       error
	logErr        error
	endErr        error

	candidateCalls int
	endCalls       int
}

func newMemStore() *memStore {
	return &memStore{matches: make(map[string]*matchRow)}
}

func (s *memStore) add(r matchRow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row := r
	s.matches[r.ID] = &row
}

func (s *memStore) get(id string) matchRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.matches[id]
}

func (s *memStore) LiveCandidates(_ context.Context, from, to time.Time) ([]Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.candidateCalls++
	if s.candidatesErr != nil {
		return nil, s.candidatesErr
	}
	var out []Match
	for _, r := range s.matches {
		if r.IsActive && !r.LiveNotificationSent &&
			!r.MatchTime.Before(from) && !r.MatchTime.After(to) {
			out = append(out, r.Match)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MatchTime.Before(out[j].MatchTime) })
	return out, nil
}

func (s *memStore) DeviceTokens(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tokensErr != nil {
		return nil, s.tokensErr
	}
	return append([]string(nil), s.tokens...), nil
}

func (s *memStore) MarkLive(_ context.Context, matchID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.markErr != nil {
		return s.markErr
	}
	r, ok := s.matches[matchID]
	if !ok {
		return errors.New("no such match")
	}
	r.LiveNotificationSent = true
	r.Status = status
	return nil
}

func (s *memStore) InsertLog(_ context.Context, e LogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.logErr != nil {
		return s.logErr
	}
	s.logs = append(s.logs, e)
	return nil
}

func (s *memStore) EndStale(_ context.Context, endedStatus string, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.endCalls++
	if s.endErr != nil {
		return 0, s.endErr
	}
	var n int64
	for _, r := range s.matches {
		if r.IsActive && r.Status != endedStatus && r.MatchTime.Before(before) {
			r.Status = endedStatus
			n++
		}
	}
	return n, nil
}

func (s *memStore) logCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.logs)
}

// fakeSender records every multicast and reports a fixed success count.
type fakeSender struct {
	mu      sync.Mutex
	calls   []sentMessage
	success func(tokens []string) int
	err     error
}

type sentMessage struct {
	Tokens []string
	Msg    Message
}

func (f *fakeSender) SendMulticast(_ context.Context, tokens []string, msg Message) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, sentMessage{Tokens: tokens, Msg: msg})
	if f.err != nil {
		return 0, f.err
	}
	if f.success != nil {
		return f.success(tokens), nil
	}
	return len(tokens), nil
}
