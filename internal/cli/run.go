package cli

import (
	"fmt"
	"strconv"

	"github.com/Domenick1991/airbooker/internal/domain"
	"github.com/Domenick1991/airbooker/internal/service/reservation"
	"github.com/spf13/cobra"
)

// runWithEngine opens the engine, runs fn and releases the engine. Any
// failure is reported through the formatter.
func runWithEngine(opts *RootOptions, cmd *cobra.Command, fn func(svc reservation.UseCase, out *OutputFormatter) error) error {
	out := newFormatter(opts, cmd)

	svc, closeEngine, err := opts.openEngine(cmd.Context(), opts)
	if err != nil {
		return out.Fail(err)
	}
	defer func() { _ = closeEngine() }()

	if err := fn(svc, out); err != nil {
		return out.Fail(err)
	}
	return nil
}

func parseID(kind, arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid %s id %q", domain.ErrInvalidInput, kind, arg)
	}
	return id, nil
}
