package ai

import (
	"time"

	"github.com/swethakommuri/GEN-AI-DEMO/internal/domain/clients"
)

// GenerateRequest describes one generation. Zero MaxRetries and Timeout fall
// back to the client defaults.
type GenerateRequest struct {
	SessionID  string
	Prompt     string
	Model      string
	Role       string
	Client     clients.Profile
	MaxRetries int
	Timeout    time.Duration
}

// Result is either generated text or the reason none could be produced.
type Result struct {
	text   string
	reason string
	ok     bool
}

func Success(text string) Result { return Result{text: text, ok: true} }

func Unavailable(reason string) Result { return Result{reason: reason} }

func (r Result) OK() bool       { return r.ok }
func (r Result) Text() string   { return r.text }
func (r Result) Reason() string { return r.reason }
