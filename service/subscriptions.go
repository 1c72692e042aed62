package service

import (
	"bytes"
	"context"
	"fmt"

	"github.com/kuil09/youtube-subscriptions-backup/bulk"
	"github.com/kuil09/youtube-subscriptions-backup/export"
	"github.com/kuil09/youtube-subscriptions-backup/youtube"
)

// ListSubscriptions fetches the full subscription list.
func (s *Service) ListSubscriptions(ctx context.Context) ([]youtube.Subscription, error) {
	subs, err := s.api.ListSubscriptions(ctx)
	if err != nil {
		return nil, err
	}
	s.logAction(ctx, "subscriptions_listed", map[string]any{"count": len(subs)})
	return subs, nil
}

// ExportSubscriptions fetches subscriptions and encodes them in the
// requested format ("csv" or "json").
func (s *Service) ExportSubscriptions(ctx context.Context, format string) ([]byte, error) {
	subs, err := s.api.ListSubscriptions(ctx)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	switch format {
	case "csv":
		err = export.SubscriptionsCSV(&buf, subs)
	case "json", "":
		err = export.SubscriptionsJSON(&buf, subs, s.now())
	default:
		return nil, fmt.Errorf("unknown export format %q", format)
	}
	if err != nil {
		return nil, err
	}
	s.logAction(ctx, "subscriptions_exported", map[string]any{"format": format, "count": len(subs)})
	return buf.Bytes(), nil
}

// BulkUnsubscribe removes the given subscriptions one by one, collecting
// per-item failures.
func (s *Service) BulkUnsubscribe(ctx context.Context, subscriptionIDs []string) (bulk.Result, error) {
	res, err := s.runner.ApplyToAll(ctx, subscriptionIDs, func(ctx context.Context, id string) error {
		return s.api.Unsubscribe(ctx, id)
	})
	if err != nil {
		return res, err
	}
	s.logAction(ctx, "bulk_unsubscribe", res)
	return res, nil
}

// ImportReport is the outcome of an import: what the file parsed to,
// how many channels were already subscribed to, and how the subscribe
// calls went.
type ImportReport struct {
	Parsed  *export.ImportResult `json:"parsed"`
	Skipped int                  `json:"skipped_already_subscribed"`
	Result  bulk.Result          `json:"result"`
}

// ImportSubscriptions parses an import file and subscribes to every
// channel in it. Channels the account already subscribes to, per a fresh
// listing, are skipped rather than sent to the API.
func (s *Service) ImportSubscriptions(ctx context.Context, data []byte) (*ImportReport, error) {
	parsed, err := export.ParseImport(data)
	if err != nil {
		return nil, err
	}

	existing, err := s.api.ListSubscriptions(ctx)
	if err != nil {
		return nil, err
	}
	subscribed := make(map[string]bool, len(existing))
	for _, sub := range existing {
		subscribed[sub.ChannelID] = true
	}

	var ids []string
	skipped := 0
	for _, item := range parsed.Items {
		if subscribed[item.ChannelID] {
			skipped++
			continue
		}
		ids = append(ids, item.ChannelID)
	}

	res, err := s.importer.ApplyToAll(ctx, ids, func(ctx context.Context, id string) error {
		_, err := s.api.Subscribe(ctx, id)
		return err
	})
	report := &ImportReport{Parsed: parsed, Skipped: skipped, Result: res}
	if err != nil {
		return report, err
	}
	s.logAction(ctx, "subscriptions_imported", report)
	return report, nil
}
