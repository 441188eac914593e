package buildcmd

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"

	"github.com/goliatone/go-garden/internal/content"
	"github.com/goliatone/go-garden/internal/generator"
)

func TestDispatcherRetriesTransientBuildFailure(t *testing.T) {
	flaky := &fakeRunner{}
	flaky.runFunc = func(context.Context) (*generator.BuildResult, error) {
		if flaky.calls == 1 {
			return nil, errors.New("bucket temporarily unavailable")
		}
		return &generator.BuildResult{Listing: &content.Listing{}, Rendered: 1}, nil
	}

	var rendered int
	cmd := loadBuildFixture(t, "build_basic.json")
	cmd.ResultCallback = func(env ResultEnvelope) { rendered = env.Result.Rendered }

	sub := dispatcher.SubscribeCommand(NewBuildSiteHandler(flaky, nil), runner.WithMaxRetries(1))
	defer sub.Unsubscribe()

	if err := dispatcher.Dispatch(context.Background(), cmd); err != nil {
		t.Fatalf("dispatch: expected success after retry, got %v", err)
	}
	if flaky.calls != 2 || rendered != 1 {
		t.Fatalf("expected two attempts and a result, got calls=%d rendered=%d", flaky.calls, rendered)
	}
}
