package feedback

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/studiowebux/clicker/internal/toggle"
)

// Bell rings the terminal bell as the click sound
type Bell struct {
	mu  sync.Mutex
	out io.Writer
}

// NewBell writes to out, or stderr when out is nil
func NewBell(out io.Writer) *Bell {
	if out == nil {
		out = os.Stderr
	}
	return &Bell{out: out}
}

func (b *Bell) Name() string { return "audio" }

// Play rings once for either state
func (b *Bell) Play(ctx context.Context, _ toggle.State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	_, err := io.WriteString(b.out, "\a")
	return err
}
