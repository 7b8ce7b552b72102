// Package probe filters a descriptor set down to the methods the target
// actually answers before a flood commits load to them.
package probe

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/storm-tools/storm/internal/params"
	"github.com/storm-tools/storm/internal/rpc"
	"github.com/storm-tools/storm/internal/stats"
)

// ErrNoMethodsAvailable signals that probing rejected every candidate. The
// run must not start a batch loop in that case.
var ErrNoMethodsAvailable = errors.New("no methods available after probing")

// DefaultTimeout bounds one probe request.
const DefaultTimeout = 5 * time.Second

// Config holds prober settings.
type Config struct {
	Session *rpc.Session
	Timeout time.Duration
	Logger  *slog.Logger
}

// Methods issues one request per descriptor and partitions the set into
// available and unavailable. A probe failure of any kind marks the method
// unavailable; probing itself never fails. The partition is recorded on the
// run aggregate.
func Methods(ctx context.Context, cfg Config, set params.Set, run *stats.Run) (params.Set, []string) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	available := make(params.Set, 0, len(set))
	var unavailable []string

	for _, d := range set {
		probeCtx, cancel := context.WithTimeout(ctx, timeout)
		out, _ := cfg.Session.Call(probeCtx, d.Name, d.Params())
		cancel()

		if out.Success {
			available = append(available, d)
			continue
		}

		unavailable = append(unavailable, d.Name)
		logger.Debug("method unavailable",
			slog.String("method", d.Name),
			slog.String("class", string(out.Class)),
			slog.String("error", out.Err.Error()),
		)
	}

	run.MarkAvailability(available.Names(), unavailable)

	logger.Info("probe complete",
		slog.Int("available", len(available)),
		slog.Int("unavailable", len(unavailable)),
	)

	return available, unavailable
}
