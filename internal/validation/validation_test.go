package validation

import (
	"strings"
	"testing"
	"time"

	"crisiswatch/internal/schema"
)

func TestAnalyzeRequest_RejectsEmptyMessage(t *testing.T) {
	req := &schema.AnalyzeRequest{Message: "   "}
	if _, err := AnalyzeRequest(req); err == nil {
		t.Fatal("expected validation error for empty message")
	}
}

func TestAnalyzeRequest_BoundaryLength(t *testing.T) {
	exact := strings.Repeat("a", 2000)
	if _, err := AnalyzeRequest(&schema.AnalyzeRequest{Message: exact}); err != nil {
		t.Fatalf("2000 chars should be accepted, got %v", err)
	}

	over := strings.Repeat("a", 2001)
	if _, err := AnalyzeRequest(&schema.AnalyzeRequest{Message: over}); err == nil {
		t.Fatal("2001 chars should be rejected")
	}
}

func TestAnalyzeRequest_InvalidTimezoneFallsBackWithWarning(t *testing.T) {
	req := &schema.AnalyzeRequest{Message: "hello", UserTimezone: "Not/AZone"}
	v, err := AnalyzeRequest(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.UserTimezone != "" {
		t.Error("expected invalid timezone to be discarded")
	}
	if len(v.Warnings) == 0 {
		t.Error("expected a warning about the invalid timezone")
	}
}

func TestAnalyzeRequest_SkipsMalformedHistoryItems(t *testing.T) {
	req := &schema.AnalyzeRequest{
		Message: "hello",
		MessageHistory: []schema.HistoryItem{
			{Text: "", Timestamp: time.Now()},
			{Text: "valid", Timestamp: time.Time{}},
			{Text: "also valid", Timestamp: time.Now()},
		},
	}
	v, err := AnalyzeRequest(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(v.History) != 1 {
		t.Fatalf("expected 1 surviving history item, got %d", len(v.History))
	}
	if len(v.Warnings) != 2 {
		t.Errorf("expected 2 warnings for the 2 skipped items, got %d", len(v.Warnings))
	}
}

func TestIncludeContextAnalysis_DefaultsOnHistoryPresence(t *testing.T) {
	if IncludeContextAnalysis(&schema.AnalyzeRequest{}, 0) {
		t.Error("expected no context analysis with no history and no explicit flag")
	}
	if !IncludeContextAnalysis(&schema.AnalyzeRequest{}, 3) {
		t.Error("expected context analysis to default on when history is present")
	}
	want := false
	if IncludeContextAnalysis(&schema.AnalyzeRequest{IncludeContextAnalysis: &want}, 3) {
		t.Error("expected explicit false to override the default")
	}
}
