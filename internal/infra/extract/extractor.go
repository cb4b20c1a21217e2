package extract

import (
	"bytes"
	"context"
	"log/slog"
	"strings"

	"code.sajari.com/docconv"
	"github.com/gabriel-vasile/mimetype"
)

// Extractor turns uploaded payloads into plain text with docconv. Payloads
// docconv cannot read fall back to their raw bytes as text.
type Extractor struct {
	useReadability bool
	logger         *slog.Logger
}

func NewExtractor(useReadability bool, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{useReadability: useReadability, logger: logger}
}

// Extract returns the text of payload and the detected MIME type.
func (e *Extractor) Extract(ctx context.Context, fileName string, payload []byte) (string, string) {
	mime := mimetype.Detect(payload)
	contentType := mime.String()
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}

	if mime.Is("text/plain") || strings.HasPrefix(contentType, "text/") {
		return strings.ToValidUTF8(string(payload), ""), contentType
	}

	res, err := docconv.Convert(bytes.NewReader(payload), contentType, e.useReadability)
	if err != nil || strings.TrimSpace(res.Body) == "" {
		e.logger.WarnContext(ctx, "docconv: extraction failed, storing raw payload",
			"file", fileName, "content_type", contentType, "error", err)
		return rawText(payload), contentType
	}
	return strings.TrimSpace(res.Body), contentType
}

// rawText keeps the printable part of a binary payload.
func rawText(payload []byte) string {
	s := strings.ToValidUTF8(string(payload), "")
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' || r >= 32 {
			return r
		}
		return -1
	}, s)
}
