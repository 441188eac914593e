package buildcmd

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-garden/internal/generator"
)

const buildSiteMessageType = "garden.site.build"

// ResultCallback receives the build result. It is invoked synchronously
// from the handler whenever a run produced a result, failed or not.
type ResultCallback func(ResultEnvelope)

// ResultEnvelope carries a build result and handler metadata.
type ResultEnvelope struct {
	Result   *generator.BuildResult
	Metadata map[string]any
}

// BuildSiteCommand runs one full build. The roots are carried for logging;
// the pipeline was wired against them at startup.
type BuildSiteCommand struct {
	ContentRoot    string         `json:"content_root"`
	OutputDir      string         `json:"output_dir"`
	Storage        string         `json:"storage,omitempty"`
	ResultCallback ResultCallback `json:"-"`
}

// Type implements command.Message.
func (BuildSiteCommand) Type() string { return buildSiteMessageType }

// Validate ensures both roots are named.
func (m BuildSiteCommand) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.ContentRoot, validation.Required.ErrorObject(
			validation.NewError("garden.site.build.content_root_required", "content_root is required"))),
		validation.Field(&m.OutputDir, validation.Required.ErrorObject(
			validation.NewError("garden.site.build.output_dir_required", "output_dir is required"))),
	)
}
