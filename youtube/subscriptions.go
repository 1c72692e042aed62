package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

type subscriptionResource struct {
	ID      string `json:"id"`
	Snippet struct {
		Title       string    `json:"title"`
		Description string    `json:"description"`
		PublishedAt time.Time `json:"publishedAt"`
		ResourceID  struct {
			Kind      string `json:"kind"`
			ChannelID string `json:"channelId"`
		} `json:"resourceId"`
	} `json:"snippet"`
}

// ListSubscriptions fetches every subscription of the authenticated
// account, following pagination to the end.
func (c *Client) ListSubscriptions(ctx context.Context) ([]Subscription, error) {
	params := url.Values{
		"part": {"snippet"},
		"mine": {"true"},
	}

	var subs []Subscription
	err := c.paginate(ctx, ScopeReadonly, "/subscriptions", params, func(raw json.RawMessage) error {
		var res subscriptionResource
		if err := json.Unmarshal(raw, &res); err != nil {
			return fmt.Errorf("decode subscription: %w", err)
		}
		subs = append(subs, Subscription{
			ID:           res.ID,
			ChannelID:    res.Snippet.ResourceID.ChannelID,
			Title:        res.Snippet.Title,
			Description:  res.Snippet.Description,
			SubscribedAt: res.Snippet.PublishedAt,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	c.log.Debug().Int("count", len(subs)).Msg("listed subscriptions")
	return subs, nil
}

// Subscribe subscribes the account to the given channel.
func (c *Client) Subscribe(ctx context.Context, channelID string) (Subscription, error) {
	if channelID == "" {
		return Subscription{}, fmt.Errorf("channel id required")
	}
	body := map[string]any{
		"snippet": map[string]any{
			"resourceId": map[string]string{
				"kind":      "youtube#channel",
				"channelId": channelID,
			},
		},
	}

	var res subscriptionResource
	params := url.Values{"part": {"snippet"}}
	if err := c.call(ctx, ScopeManage, http.MethodPost, "/subscriptions", params, body, &res); err != nil {
		return Subscription{}, err
	}
	return Subscription{
		ID:           res.ID,
		ChannelID:    res.Snippet.ResourceID.ChannelID,
		Title:        res.Snippet.Title,
		Description:  res.Snippet.Description,
		SubscribedAt: res.Snippet.PublishedAt,
	}, nil
}

// Unsubscribe removes a subscription by its subscription resource ID
// (not the channel ID).
func (c *Client) Unsubscribe(ctx context.Context, subscriptionID string) error {
	if subscriptionID == "" {
		return fmt.Errorf("subscription id required")
	}
	params := url.Values{"id": {subscriptionID}}
	return c.call(ctx, ScopeManage, http.MethodDelete, "/subscriptions", params, nil, nil)
}
