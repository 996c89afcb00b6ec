package hook

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/penwyp/go-claude-insights/internal/core/model"
)

// MaxInputSize caps how much of stdin a hook reads.
const MaxInputSize = 10 << 20

var (
	ErrEmptyInput    = errors.New("empty hook input")
	ErrInputTooLarge = errors.New("hook input exceeds size limit")
)

// ReadInput reads and decodes one hook event from r.
func ReadInput(r io.Reader) (*model.HookInput, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxInputSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	if len(data) > MaxInputSize {
		return nil, ErrInputTooLarge
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyInput
	}

	in, err := model.DecodeHookInput(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse hook input: %w", err)
	}
	return in, nil
}
