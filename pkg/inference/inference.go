// Package inference is a small client for the Anthropic Messages API.
//
// It covers what the bridge needs: single-turn requests mixing text and
// base64 images, with the reply's first text block read back.
//
//	client, err := inference.NewClient(
//	    inference.WithAPIKey(os.Getenv("ANTHROPIC_API_KEY")),
//	)
//	resp, err := client.Messages(ctx, &inference.Request{
//	    MaxTokens: 50,
//	    Messages: []inference.Message{
//	        inference.NewUserMessage(inference.TextBlock("Hello")),
//	    },
//	})
//	text, ok := resp.FirstText()
package inference

import "context"

// Provider sends Messages API requests. *Client and *Mock implement it.
type Provider interface {
	Messages(ctx context.Context, req *Request) (*Response, error)
}
