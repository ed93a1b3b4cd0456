package alert

import (
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/jedawel/lenssafe/internal/rubbing"
)

const bannerWidth = 50

// Console reports alerts as a warning log entry and, when a writer is set,
// as a banner for a human watching the terminal.
type Console struct {
	w      io.Writer
	logger *zap.Logger
}

// NewConsole creates a Console. Either argument may be nil.
func NewConsole(w io.Writer, logger *zap.Logger) *Console {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Console{w: w, logger: logger.Named("console")}
}

// Dispatch logs ev and prints the banner.
func (c *Console) Dispatch(_ context.Context, ev rubbing.AlertEvent) error {
	c.logger.Warn("eye rubbing detected",
		zap.String("alert_id", ev.ID),
		zap.Time("time", ev.Time),
		zap.Int("consecutive_frames", ev.ConsecutiveFrames),
		zap.String("eye", string(ev.Eye)),
		zap.String("hand", ev.Hand))

	if c.w == nil {
		return nil
	}
	rule := strings.Repeat("=", bannerWidth)
	_, err := fmt.Fprintf(c.w, "\n%s\nALERT: Eye rubbing detected! (%s)\n%s\n\n",
		rule, ev.Time.Local().Format("2006-01-02 15:04:05"), rule)
	return err
}
