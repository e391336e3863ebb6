package api

import (
	"context"
	"fmt"
	"net/http"
)

type chatMessage struct {
	Message string `json:"message"`
}

// Chat sends a free-text question about a listing and returns the assistant's reply.
func (c *Client) Chat(ctx context.Context, token string, listingID int64, message string) (string, error) {
	var out chatMessage
	if err := c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/ai/chat/%d", listingID), token, chatMessage{Message: message}, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}
