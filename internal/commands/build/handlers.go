package buildcmd

import (
	"context"
	"errors"

	"github.com/goliatone/go-garden/internal/commands"
	"github.com/goliatone/go-garden/internal/generator"
	"github.com/goliatone/go-garden/pkg/interfaces"
)

// ErrRunnerRequired is returned when the handler has no pipeline.
var ErrRunnerRequired = errors.New("buildcmd: build runner is required")

// Runner executes one build.
type Runner interface {
	Run(ctx context.Context) (*generator.BuildResult, error)
}

// BuildSiteHandler runs the pipeline through the shared command handler.
type BuildSiteHandler struct {
	inner *commands.Handler[BuildSiteCommand]
}

// NewBuildSiteHandler constructs a handler wired to runner.
func NewBuildSiteHandler(runner Runner, logger interfaces.Logger, opts ...commands.HandlerOption[BuildSiteCommand]) *BuildSiteHandler {
	baseLogger := commands.EnsureLogger(logger)

	exec := func(ctx context.Context, msg BuildSiteCommand) error {
		if runner == nil {
			return ErrRunnerRequired
		}
		result, err := runner.Run(ctx)
		if result != nil {
			invokeCallback(msg.ResultCallback, ResultEnvelope{
				Result: result,
				Metadata: map[string]any{
					"operation":  "build",
					"output_dir": msg.OutputDir,
					"failed":     result.Failed,
				},
			})
		}
		return err
	}

	handlerOpts := []commands.HandlerOption[BuildSiteCommand]{
		commands.WithLogger[BuildSiteCommand](baseLogger),
		commands.WithOperation[BuildSiteCommand]("site.build"),
		commands.WithMessageFields(func(msg BuildSiteCommand) map[string]any {
			fields := map[string]any{
				"content_root": msg.ContentRoot,
				"output_dir":   msg.OutputDir,
			}
			if msg.Storage != "" {
				fields["storage"] = msg.Storage
			}
			return fields
		}),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &BuildSiteHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[BuildSiteCommand].
func (h *BuildSiteHandler) Execute(ctx context.Context, msg BuildSiteCommand) error {
	return h.inner.Execute(ctx, msg)
}

func invokeCallback(cb ResultCallback, env ResultEnvelope) {
	if cb != nil {
		cb(env)
	}
}
