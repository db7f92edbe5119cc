package mcp

import (
	"context"
	"time"
)

// ListTools fetches the server's tool inventory.
func (c *Conn) ListTools(ctx context.Context) ([]ToolDefinition, error) {
	raw, err := c.call(ctx, methodListTools, nil)
	if err != nil {
		return nil, err
	}

	var result listToolsResult
	if err := codec.Unmarshal(raw, &result); err != nil {
		return nil, ErrParse(c.name, err)
	}
	return result.Tools, nil
}

// CallTool invokes a named tool with the given arguments.
func (c *Conn) CallTool(ctx context.Context, name string, args map[string]interface{}) (*ToolCallResult, error) {
	raw, err := c.call(ctx, methodCallTool, toolCallParams{Name: name, Arguments: args})
	if err != nil {
		return nil, err
	}

	var result ToolCallResult
	if err := codec.Unmarshal(raw, &result); err != nil {
		return nil, ErrParse(c.name, err)
	}
	return &result, nil
}

// ListResources fetches the server's resource inventory. Servers that
// do not implement resources answer method-not-found; that is treated
// as an empty inventory.
func (c *Conn) ListResources(ctx context.Context) ([]ResourceDefinition, error) {
	raw, err := c.call(ctx, methodListResources, nil)
	if err != nil {
		if IsMethodNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	var result listResourcesResult
	if err := codec.Unmarshal(raw, &result); err != nil {
		return nil, ErrParse(c.name, err)
	}
	return result.Resources, nil
}

// ReadResource fetches the contents of one resource by URI.
func (c *Conn) ReadResource(ctx context.Context, uri string) (*ReadResourceResult, error) {
	raw, err := c.call(ctx, methodReadResource, readResourceParams{URI: uri})
	if err != nil {
		return nil, err
	}

	var result ReadResourceResult
	if err := codec.Unmarshal(raw, &result); err != nil {
		return nil, ErrParse(c.name, err)
	}
	return &result, nil
}

// Ping checks liveness and returns the round-trip time. Servers that
// do not implement ping answer method-not-found; a reply of any kind
// still proves the server is responsive, so that counts as success.
func (c *Conn) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	_, err := c.call(ctx, methodPing, nil)
	rtt := time.Since(start)
	if err != nil {
		if IsMethodNotFound(err) {
			return rtt, nil
		}
		return rtt, err
	}
	return rtt, nil
}
