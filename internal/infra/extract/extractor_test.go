package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractPlainText(t *testing.T) {
	text, ct := NewExtractor(false, nil).Extract(context.Background(), "notes.txt", []byte("Meeting notes: discussed rebalancing."))
	assert.Equal(t, "text/plain", ct)
	assert.Equal(t, "Meeting notes: discussed rebalancing.", text)
}

func TestRawTextDropsControlBytes(t *testing.T) {
	assert.Equal(t, "ab\ncd", rawText([]byte{'a', 0x00, 'b', '\n', 0x01, 'c', 'd', 0xff}))
}
