package cli

import (
	"fmt"
	"io"

	"go.uber.org/zap"
)

// printNotifier shows lifecycle outcomes on the terminal.
type printNotifier struct {
	out    io.Writer
	logger *zap.Logger
}

func (n printNotifier) Success(message string) {
	fmt.Fprintf(n.out, "✔ %s\n", message)
}

func (n printNotifier) Error(message string) {
	n.logger.Debug("operator notified", zap.String("message", message))
	fmt.Fprintf(n.out, "✘ %s\n", message)
}
