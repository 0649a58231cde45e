package pipeline

import (
	"time"

	"github.com/docpress/docpress/internal/apidoc"
	"github.com/docpress/docpress/internal/config"
	"github.com/docpress/docpress/internal/linkcheck"
	"github.com/docpress/docpress/internal/site"
)

// StageName is a strongly-typed identifier for a build stage.
type StageName string

// Canonical stage names, in execution order.
const (
	StageCheckout  StageName = "checkout"
	StageApidoc    StageName = "apidoc"
	StageRender    StageName = "render"
	StageLinkcheck StageName = "linkcheck"
	StagePublish   StageName = "publish"
)

// StageExecution is the structured result of one stage run.
type StageExecution struct {
	Err      error
	Warning  bool // stage finished but with findings worth surfacing
	Duration time.Duration
}

// ExecutionSuccess returns a successful stage execution result.
func ExecutionSuccess() StageExecution {
	return StageExecution{}
}

// ExecutionWarning returns a completed execution that carries findings.
func ExecutionWarning() StageExecution {
	return StageExecution{Warning: true}
}

// ExecutionFailure returns a failed stage execution result.
func ExecutionFailure(err error) StageExecution {
	return StageExecution{Err: err}
}

// IsSuccess reports whether the stage completed without error.
func (r StageExecution) IsSuccess() bool { return r.Err == nil }

// BuildState carries everything the stages produce and consume. Stages run
// sequentially, so no locking is needed.
type BuildState struct {
	BuildID   string
	Config    *config.Config
	StartedAt time.Time

	// Filled by the checkout stage.
	CheckoutDir string
	SourceHash  string

	// Filled by the apidoc stage.
	Tree     *apidoc.Tree
	PagesDir string

	// Filled by the render stage.
	SiteDir  string
	Manifest *site.Manifest

	// Filled by the linkcheck stage.
	Links *linkcheck.Result

	// Filled by the publish stage.
	PublishCommit string
	Committed     bool
}
