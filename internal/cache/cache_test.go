package cache

import (
	"testing"

	"planscope/internal/domain"
)

func TestDetailRoundTrip(t *testing.T) {
	s, err := New(10)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, ok := s.Detail("A1"); ok {
		t.Fatalf("unexpected hit on empty store")
	}
	s.SetDetail("A1", "rate x, rate y")

	got, ok := s.Detail("A1")
	if !ok || got != "rate x, rate y" {
		t.Fatalf("Detail(A1) = %q, %v", got, ok)
	}
	if !s.HasDetail("A1") {
		t.Fatalf("HasDetail(A1) = false after set")
	}
}

func TestChannelsIndependentOfDetail(t *testing.T) {
	s, err := New(10)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	s.SetDetail("A1", "detail")
	if s.HasChannels("A1") {
		t.Fatalf("detail write leaked into channel store")
	}

	s.SetChannels("A1", []domain.ChannelRecord{{Channel: "AG"}})
	recs, ok := s.Channels("A1")
	if !ok || len(recs) != 1 || recs[0].Channel != "AG" {
		t.Fatalf("Channels(A1) = %v, %v", recs, ok)
	}
}

func TestBoundEvictsOldest(t *testing.T) {
	s, err := New(2)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	s.SetDetail("A1", "1")
	s.SetDetail("A2", "2")
	s.SetDetail("A3", "3")

	if s.HasDetail("A1") {
		t.Fatalf("oldest key survived past the bound")
	}
	if !s.HasDetail("A2") || !s.HasDetail("A3") {
		t.Fatalf("recent keys evicted")
	}
}

func TestClearDropsBothSides(t *testing.T) {
	s, err := New(10)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	s.SetDetail("A1", "detail")
	s.SetChannels("A1", []domain.ChannelRecord{{Channel: "AG"}})
	s.Clear()

	if s.HasDetail("A1") || s.HasChannels("A1") {
		t.Fatalf("Clear left entries behind")
	}
}
