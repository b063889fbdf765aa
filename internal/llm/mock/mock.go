// Package mock provides a test double for the llm.Client interface.
//
// Queue replies with Responses/Errors or compute them with Respond. Every
// prompt is recorded in Prompts for later assertions.
//
//	c := &mock.Client{Responses: []string{"a###b###c###d###e"}}
//	out, err := c.Generate(ctx, prompt)
package mock

import (
	"context"
	"sync"

	"sales-auditor-go/internal/llm"
)

var _ llm.Client = (*Client)(nil)

// Client is a mock implementation of llm.Client.
type Client struct {
	mu sync.Mutex

	// Respond, if set, computes the reply for each prompt and takes
	// precedence over the queues.
	Respond func(prompt string) (string, error)

	// Responses are returned in order; the last one repeats once drained.
	Responses []string

	// Errors are returned in order before any response is used. A nil
	// entry lets the matching call fall through to Responses.
	Errors []error

	// Prompts records every prompt received, in order.
	Prompts []string

	// BackendName is returned by Name; empty means "mock".
	BackendName string
}

func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	call := len(c.Prompts)
	c.Prompts = append(c.Prompts, prompt)

	if c.Respond != nil {
		return c.Respond(prompt)
	}
	if call < len(c.Errors) && c.Errors[call] != nil {
		return "", c.Errors[call]
	}
	switch {
	case len(c.Responses) == 0:
		return "", nil
	case call < len(c.Responses):
		return c.Responses[call], nil
	default:
		return c.Responses[len(c.Responses)-1], nil
	}
}

func (c *Client) Name() string {
	if c.BackendName == "" {
		return "mock"
	}
	return c.BackendName
}

// Calls returns how many prompts were received.
func (c *Client) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Prompts)
}
