package sequence

import "context"

// Stage names, in execution order. They appear in log records and in
// ToolError values.
const (
	StageSelectBaseConfig   = "select-base-config"
	StageMaterializeConfig  = "materialize-config"
	StageNormalizeConfig    = "normalize-config"
	StagePrepareDirectories = "prepare-directories"
	StageRunBuild           = "run-build"
	StageConvertImage       = "convert-image"
)

// A stage is one step of the fixed build sequence. Stages run strictly in
// declaration order, none is retried, and a failure aborts the remainder.
// skip, when set, is evaluated just before the stage would run; ConvertImage
// is the only stage that uses it.
type stage struct {
	name string
	skip func() bool
	run  func(context.Context) error
}
