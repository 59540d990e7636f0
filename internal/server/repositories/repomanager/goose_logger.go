package repomanager

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/barbot/internal/logging"
)

// gooseLogger routes goose's printf-style output into the structured logger.
type gooseLogger struct {
	logger logging.Logger
}

func (g *gooseLogger) Printf(format string, v ...interface{}) {
	g.logger.Info(context.Background(), strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// Fatalf logs at error level only. Migration failures already come back to
// RunMigrations as errors, so the process is not terminated here.
func (g *gooseLogger) Fatalf(format string, v ...interface{}) {
	g.logger.Error(context.Background(), strings.TrimSpace(fmt.Sprintf(format, v...)))
}
