// PicoClaw - Ultra-lightweight personal AI agent
// License: MIT
//
// Copyright (c) 2026 PicoClaw contributors

// Package modes implements the tagged-union dispatcher over the five
// execution modes (single, parallel, chain, race, team): it resolves agent
// configuration via pkg/agent and drives pkg/executor (directly, or through
// pkg/concurrency/pkg/team) per mode, never via an OO mode hierarchy.
package modes

import (
	"context"
	"errors"

	"github.com/sipeed/pi-orchestrator/pkg/agent"
	"github.com/sipeed/pi-orchestrator/pkg/core"
	"github.com/sipeed/pi-orchestrator/pkg/executor"
	"github.com/sipeed/pi-orchestrator/pkg/team"
	"github.com/sipeed/pi-orchestrator/pkg/workspace"
)

// ErrUnknownMode is returned when Dispatch is given an Input whose dynamic
// type is none of the five known variants.
var ErrUnknownMode = errors.New("modes: unknown mode input")

// Mode names one of the five execution modes.
type Mode string

const (
	ModeSingle   Mode = "single"
	ModeParallel Mode = "parallel"
	ModeChain    Mode = "chain"
	ModeRace     Mode = "race"
	ModeTeam     Mode = "team"
)

// TaskSpec is the single-task input shared by single/parallel/chain/race —
// everything the executor needs, modulo agent-config resolution.
type TaskSpec struct {
	ID       string
	Agent    string
	Task     string
	CWD      string
	Provider string

	Overrides      agent.Overrides
	ResourceLimits core.ResourceLimits
	Retry          *core.RetryConfig
}

// Input is the tagged union of mode inputs. Each variant implements mode()
// so Dispatch can recover the tag with a single type switch.
type Input interface {
	mode() Mode
}

// SingleInput runs exactly one task.
type SingleInput struct {
	Spec TaskSpec
}

func (SingleInput) mode() Mode { return ModeSingle }

// ParallelInput runs every Spec concurrently, bounded by Concurrency
// (<=0 means len(Specs)).
type ParallelInput struct {
	Specs       []TaskSpec
	Concurrency int
}

func (ParallelInput) mode() Mode { return ModeParallel }

// ChainInput runs Specs sequentially; any `{previous}` substring in a
// step's Task is replaced with the prior step's output before that step
// runs.
type ChainInput struct {
	Specs []TaskSpec
}

func (ChainInput) mode() Mode { return ModeChain }

// RaceInput runs every Spec concurrently; the first to succeed wins and
// the rest are cancelled.
type RaceInput struct {
	Specs []TaskSpec
}

func (RaceInput) mode() Mode { return ModeRace }

// TeamInput drives the DAG engine.
type TeamInput struct {
	Objective         string
	Members           []team.Member
	Tasks             []team.Task
	MaxConcurrency    int
	Workspace         *workspace.Workspace
	Approve           team.ApproveFunc
	ApprovalPredicate team.ApprovalPredicate
}

func (TeamInput) mode() Mode { return ModeTeam }

// Output is the mode-agnostic result envelope Dispatch returns; only the
// fields relevant to the dispatched mode are populated.
type Output struct {
	Mode    Mode
	Results []core.TaskResult
	Winner  string
	Aborted bool
	Team    *team.Result
	Err     error
}

// Deps are the collaborators every driver needs.
type Deps struct {
	Registry   *agent.Registry
	Executor   *executor.Executor
	OnProgress func(core.TaskProgress)
}

// Dispatch resolves input's tag once via a type switch and invokes the
// matching driver — the mode-dispatch idiom spec §9 calls for in place of
// an OO mode hierarchy.
func Dispatch(ctx context.Context, input Input, deps Deps) Output {
	switch in := input.(type) {
	case SingleInput:
		r := runSingle(ctx, deps, in.Spec)
		return Output{Mode: ModeSingle, Results: []core.TaskResult{r}}

	case ParallelInput:
		mapResult, err := runParallel(ctx, deps, in.Specs, in.Concurrency)
		return Output{Mode: ModeParallel, Results: mapResult.Results, Aborted: mapResult.Aborted, Err: err}

	case ChainInput:
		results, aborted := runChain(ctx, deps, in.Specs)
		return Output{Mode: ModeChain, Results: results, Aborted: aborted}

	case RaceInput:
		raceResult, err := runRace(ctx, deps, in.Specs)
		return Output{
			Mode:    ModeRace,
			Results: []core.TaskResult{raceResult.Result},
			Winner:  raceResult.Winner,
			Aborted: raceResult.Aborted,
			Err:     err,
		}

	case TeamInput:
		teamResult, err := runTeam(ctx, deps, in)
		return Output{Mode: ModeTeam, Team: &teamResult, Aborted: teamResult.Aborted, Err: err}

	default:
		return Output{Err: ErrUnknownMode}
	}
}
