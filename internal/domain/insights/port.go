package insights

import "context"

// Archive stores exported insight reports and returns their location.
type Archive interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}
