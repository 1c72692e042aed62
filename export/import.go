package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// maxSampleTitles bounds how many channel titles an import preview carries.
const maxSampleTitles = 8

// channelURLRegex extracts a channel ID from a channel URL.
var channelURLRegex = regexp.MustCompile(`/channel/([a-zA-Z0-9_-]{10,})`)

// ImportItem is one channel to subscribe to.
type ImportItem struct {
	ChannelID string `json:"channelId"`
	Title     string `json:"channelTitle,omitempty"`
}

// ImportResult is the outcome of parsing an import file. Row errors are
// collected, not fatal: a file with some bad rows still imports the rest.
type ImportResult struct {
	Items []ImportItem `json:"items"`
	// Errors describes rows that yielded no channel ID.
	Errors []string `json:"errors,omitempty"`
	// SampleTitles previews up to eight channel titles for confirmation UIs.
	SampleTitles []string `json:"sampleTitles,omitempty"`
}

func (r *ImportResult) add(seen map[string]bool, id, title string) {
	if seen[id] {
		return
	}
	seen[id] = true
	r.Items = append(r.Items, ImportItem{ChannelID: id, Title: title})
	if title != "" && len(r.SampleTitles) < maxSampleTitles {
		r.SampleTitles = append(r.SampleTitles, title)
	}
}

// ParseImport parses a subscriptions import file, accepting the JSON
// export format (array or {items:[...]}) and CSV with a channel ID or
// channel URL column. Duplicate channel IDs collapse to one item.
func ParseImport(data []byte) (*ImportResult, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("import file is empty")
	}
	if trimmed[0] == '[' || trimmed[0] == '{' {
		return parseJSONImport(trimmed)
	}
	return parseCSVImport(trimmed)
}

type importEntry struct {
	ChannelID    string `json:"channelId"`
	ChannelIDAlt string `json:"channel_id"`
	ChannelURL   string `json:"channelUrl"`
	ChannelTitle string `json:"channelTitle"`
	Title        string `json:"title"`
}

func (e importEntry) id() string {
	if e.ChannelID != "" {
		return e.ChannelID
	}
	if e.ChannelIDAlt != "" {
		return e.ChannelIDAlt
	}
	return extractChannelID(e.ChannelURL)
}

func (e importEntry) title() string {
	if e.ChannelTitle != "" {
		return e.ChannelTitle
	}
	return e.Title
}

func parseJSONImport(data []byte) (*ImportResult, error) {
	var entries []importEntry
	if data[0] == '[' {
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("parse json import: %w", err)
		}
	} else {
		var envelope struct {
			Items []importEntry `json:"items"`
		}
		if err := json.Unmarshal(data, &envelope); err != nil {
			return nil, fmt.Errorf("parse json import: %w", err)
		}
		entries = envelope.Items
	}

	res := &ImportResult{}
	seen := make(map[string]bool)
	for i, e := range entries {
		id := e.id()
		if id == "" {
			res.Errors = append(res.Errors, fmt.Sprintf("item %d: no channel id", i+1))
			continue
		}
		res.add(seen, id, e.title())
	}
	return res, nil
}

func parseCSVImport(data []byte) (*ImportResult, error) {
	table, err := ParseCSV(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	idCol := table.Column("channelId", "channel_id", "Channel Id", "Channel ID")
	urlCol := table.Column("channelUrl", "channel_url", "Channel Url", "Channel URL", "url")
	titleCol := table.Column("channelTitle", "channel_title", "Channel Title", "title")
	if idCol == "" && urlCol == "" {
		return nil, fmt.Errorf("csv import: no channelId or channel URL column found (headers: %s)",
			strings.Join(table.Headers, ", "))
	}

	res := &ImportResult{}
	seen := make(map[string]bool)
	for i, row := range table.Rows {
		id := ""
		if idCol != "" {
			id = strings.TrimSpace(row[idCol])
		}
		if id == "" && urlCol != "" {
			id = extractChannelID(row[urlCol])
		}
		if id == "" {
			res.Errors = append(res.Errors, fmt.Sprintf("row %d: no channel id", i+1))
			continue
		}
		title := ""
		if titleCol != "" {
			title = strings.TrimSpace(row[titleCol])
		}
		res.add(seen, id, title)
	}
	return res, nil
}

// extractChannelID pulls a channel ID out of a channel URL, returning ""
// when the URL has no /channel/<id> segment.
func extractChannelID(url string) string {
	m := channelURLRegex.FindStringSubmatch(url)
	if m == nil {
		return ""
	}
	return m[1]
}
