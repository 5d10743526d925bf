package provider

import (
	"context"
	"encoding/json"
	"fmt"
)

// Call issues method on p and decodes the result into T.
func Call[T any](ctx context.Context, p Provider, method string, params ...any) (T, error) {
	var out T
	raw, err := p.Request(ctx, method, params...)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decoding %s result: %w", method, err)
	}
	return out, nil
}
