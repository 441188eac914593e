// Command garden builds the site rooted at the working directory. It takes
// no flags; configuration comes from garden.yaml, garden.toml, .env and
// GARDEN_* environment variables.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/goliatone/go-garden/cmd/garden/internal/bootstrap"
	buildcmd "github.com/goliatone/go-garden/internal/commands/build"
	"github.com/goliatone/go-garden/internal/generator"
	"github.com/goliatone/go-garden/internal/ui"
)

var moduleBuilder = bootstrap.BuildModule

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, ".", nil, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run performs one build and returns the process exit code. Item failures
// are reported but still exit 0; only setup failures exit 1.
func run(ctx context.Context, dir string, environ []string, stdout, stderr io.Writer) int {
	module, err := moduleBuilder(ctx, bootstrap.Options{
		Dir:       dir,
		Environ:   environ,
		LogWriter: stderr,
	})
	if err != nil {
		fmt.Fprintln(stderr, ui.RenderFailure(err))
		return 1
	}
	if module == nil || module.Handler == nil {
		fmt.Fprintln(stderr, ui.RenderFailure(fmt.Errorf("build handler not configured")))
		return 1
	}

	var result *generator.BuildResult
	cmd := module.Command()
	cmd.ResultCallback = func(env buildcmd.ResultEnvelope) {
		result = env.Result
	}

	if err := module.Handler.Execute(ctx, cmd); err != nil {
		fmt.Fprintln(stderr, ui.RenderFailure(err))
		return 1
	}

	if result != nil {
		fmt.Fprintln(stdout, ui.RenderSummary(result, module.OutputDir))
	}

	if module.Metrics != nil && module.MetricsPath != "" {
		if err := module.Metrics.WriteTextfile(module.MetricsPath); err != nil && module.Logger != nil {
			module.Logger.Warn("metrics.textfile.failed", "path", module.MetricsPath, "error", err)
		}
	}
	return 0
}
