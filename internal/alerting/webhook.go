package alerting

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"crisiswatch/internal/models"
)

const (
	maxMessageContent  = 2000
	maxEmbedDescription = 4096
	maxEmbedFieldValue = 1024
	maxEmbedTotal      = 6000
)

// embedPayload mirrors a generic chat-platform webhook body of embeds.
// Field names follow the common Discord-style webhook convention the
// rest of the ecosystem also targets.
type embedPayload struct {
	Content string  `json:"content,omitempty"`
	Embeds  []embed `json:"embeds"`
}

type embed struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Color       int          `json:"color"`
	Fields      []embedField `json:"fields"`
	Timestamp   string       `json:"timestamp"`
}

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

var severityColor = map[models.Severity]int{
	models.SeveritySafe:     0x2ecc71,
	models.SeverityLow:      0xf1c40f,
	models.SeverityMedium:   0xe67e22,
	models.SeverityHigh:     0xe74c3c,
	models.SeverityCritical: 0x992d22,
}

// buildPayload turns an Alert into an embed payload, truncating every
// field to the platform's embed limits.
func buildPayload(alert models.Alert) embedPayload {
	description := truncateText(alert.Description, maxEmbedDescription)

	var fields []embedField
	names := make([]string, 0, len(alert.Fields))
	for name := range alert.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fields = append(fields, embedField{
			Name:  name,
			Value: truncateText(alert.Fields[name], maxEmbedFieldValue),
		})
	}

	e := embed{
		Title:       truncateText(alert.Title, 256),
		Description: description,
		Color:       severityColor[alert.Severity],
		Fields:      fields,
		Timestamp:   alert.Timestamp.UTC().Format(time.RFC3339),
	}

	enforceTotalBudget(&e)

	return embedPayload{
		Content: "",
		Embeds:  []embed{e},
	}
}

// enforceTotalBudget trims field values further if the embed as a whole
// would exceed the platform's total-size limit.
func enforceTotalBudget(e *embed) {
	for totalSize(*e) > maxEmbedTotal && len(e.Fields) > 0 {
		last := len(e.Fields) - 1
		if len(e.Fields[last].Value) > 64 {
			e.Fields[last].Value = truncateText(e.Fields[last].Value, len(e.Fields[last].Value)/2)
			continue
		}
		e.Fields = e.Fields[:last]
	}
}

func totalSize(e embed) int {
	n := len(e.Title) + len(e.Description)
	for _, f := range e.Fields {
		n += len(f.Name) + len(f.Value)
	}
	return n
}

// truncateText cuts at the nearest sentence or word boundary when
// possible, appending a visible ellipsis.
func truncateText(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit - 1
	window := s[:cut]
	if idx := strings.LastIndexAny(window, ".!?"); idx > cut/2 {
		return window[:idx+1] + "…"
	}
	if idx := strings.LastIndex(window, " "); idx > cut/2 {
		return window[:idx] + "…"
	}
	return window + "…"
}

// barChart renders an ASCII bar chart of per-model crisis_signal values,
// included on alerts where variance was reported.
func barChart(signals map[string]models.ModelSignal) string {
	ids := make([]string, 0, len(signals))
	for id, sig := range signals {
		if sig.Available() {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	var b strings.Builder
	for _, id := range ids {
		sig := signals[id]
		barLen := int(sig.CrisisSignal * 20)
		b.WriteString(fmt.Sprintf("%-18s %s %.2f\n", id, strings.Repeat("#", barLen)+strings.Repeat(".", 20-barLen), sig.CrisisSignal))
	}
	return strings.TrimRight(b.String(), "\n")
}

// postWebhook sends the payload with a short timeout independent of the
// request deadline.
func postWebhook(client *http.Client, url string, payload embedPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
