// Package validation hand-rolls the /analyze request checks as plain,
// explicit if-checks rather than struct tags or a validation framework,
// returning the service's own *errors.Error.
package validation

import (
	"strings"
	"time"
	"unicode/utf8"

	cerrors "crisiswatch/internal/errors"
	"crisiswatch/internal/schema"
)

const maxMessageChars = 2000

// Validated is the outcome of checking one AnalyzeRequest: the normalized
// inputs plus any non-fatal warnings to surface in the response. History
// size truncation to max_history_size happens downstream in the context
// analyzer, which also owns the ItemsTruncated count; this package only
// filters out individually malformed items.
type Validated struct {
	Message      string
	UserTimezone string // "" if absent or invalid
	History      []schema.HistoryItem
	Warnings     []string
}

// AnalyzeRequest checks an incoming request and normalizes it. A
// validation error always carries KindValidation so the handler can map it
// to 400 without inspecting the message text.
func AnalyzeRequest(req *schema.AnalyzeRequest) (*Validated, *cerrors.Error) {
	text := strings.TrimSpace(req.Message)
	if text == "" {
		return nil, cerrors.Validation("message", "message is required and must not be empty")
	}
	if utf8.RuneCountInString(req.Message) > maxMessageChars {
		return nil, cerrors.Validation("message", "message must be at most 2000 characters")
	}

	v := &Validated{Message: text}

	if req.UserTimezone != "" {
		if _, err := time.LoadLocation(req.UserTimezone); err != nil {
			v.Warnings = append(v.Warnings, "user_timezone \""+req.UserTimezone+"\" is not a recognized IANA name; falling back to UTC")
		} else {
			v.UserTimezone = req.UserTimezone
		}
	}

	history := make([]schema.HistoryItem, 0, len(req.MessageHistory))
	for i, item := range req.MessageHistory {
		if strings.TrimSpace(item.Text) == "" {
			v.Warnings = append(v.Warnings, "message_history item skipped: empty text")
			continue
		}
		if item.Timestamp.IsZero() {
			v.Warnings = append(v.Warnings, "message_history item skipped: missing timestamp")
			continue
		}
		_ = i
		history = append(history, item)
	}
	v.History = history

	if req.ConsensusAlgorithm != "" {
		switch req.ConsensusAlgorithm {
		case "weighted_voting", "majority", "unanimous":
		default:
			return nil, cerrors.Validation("consensus_algorithm", "unrecognized consensus_algorithm")
		}
	}

	if req.Verbosity != "" {
		switch req.Verbosity {
		case "minimal", "standard", "detailed":
		default:
			return nil, cerrors.Validation("verbosity", "verbosity must be \"minimal\", \"standard\", or \"detailed\"")
		}
	}

	return v, nil
}

// IncludeContextAnalysis resolves the request's default by design:
// context analysis runs automatically whenever history is supplied, unless
// the caller explicitly opts out.
func IncludeContextAnalysis(req *schema.AnalyzeRequest, historyLen int) bool {
	if req.IncludeContextAnalysis != nil {
		return *req.IncludeContextAnalysis
	}
	return historyLen > 0
}
