// PicoClaw - Ultra-lightweight personal AI agent
// License: MIT
//
// Copyright (c) 2026 PicoClaw contributors

package modes

import (
	"context"
	"strings"

	"github.com/sipeed/pi-orchestrator/pkg/agent"
	"github.com/sipeed/pi-orchestrator/pkg/concurrency"
	"github.com/sipeed/pi-orchestrator/pkg/core"
	"github.com/sipeed/pi-orchestrator/pkg/executor"
	"github.com/sipeed/pi-orchestrator/pkg/team"
)

// buildOptions resolves spec's agent (if any) through the registry, merges
// caller overrides, and assembles the executor invocation.
func buildOptions(reg *agent.Registry, spec TaskSpec, onProgress func(core.TaskProgress)) executor.Options {
	var settings agent.Settings
	if reg != nil {
		settings = reg.ResolveSettings(spec.Agent, spec.Overrides)
	} else {
		settings = agent.Settings{
			Model:        spec.Overrides.Model,
			Tools:        spec.Overrides.Tools,
			SystemPrompt: spec.Overrides.SystemPrompt,
			Thinking:     spec.Overrides.Thinking,
		}
	}

	return executor.Options{
		ID:             spec.ID,
		Name:           spec.Agent,
		Task:           spec.Task,
		CWD:            spec.CWD,
		Provider:       spec.Provider,
		Model:          settings.Model,
		Tools:          settings.Tools,
		SystemPrompt:   settings.SystemPrompt,
		Thinking:       settings.Thinking,
		Retry:          spec.Retry,
		ResourceLimits: spec.ResourceLimits,
		OnProgress:     onProgress,
	}
}

func runSingle(ctx context.Context, deps Deps, spec TaskSpec) core.TaskResult {
	return deps.Executor.RunAgent(ctx, buildOptions(deps.Registry, spec, deps.OnProgress))
}

// runParallel never triggers MapBounded's fail-fast path: a failed task is
// a normal TaskResult, not a Go error, per the executor's "never throws"
// contract — parallel mode always collects every result it can.
func runParallel(ctx context.Context, deps Deps, specs []TaskSpec, maxConcurrency int) (concurrency.MapResult[core.TaskResult], error) {
	return concurrency.MapBounded(ctx, specs, maxConcurrency, func(taskCtx context.Context, spec TaskSpec, _ int) (core.TaskResult, error) {
		return deps.Executor.RunAgent(taskCtx, buildOptions(deps.Registry, spec, deps.OnProgress)), nil
	})
}

// runChain runs specs in order, substituting "{previous}" in each step's
// task text with the prior step's output, and tagging each TaskResult's
// Step with its chain position. A failed step halts the chain; later
// steps are not attempted.
func runChain(ctx context.Context, deps Deps, specs []TaskSpec) ([]core.TaskResult, bool) {
	results := make([]core.TaskResult, 0, len(specs))
	previous := ""

	for i, spec := range specs {
		step := i
		spec.Task = strings.ReplaceAll(spec.Task, "{previous}", previous)

		opts := buildOptions(deps.Registry, spec, deps.OnProgress)
		opts.Step = &step

		result := deps.Executor.RunAgent(ctx, opts)
		results = append(results, result)

		if ctx.Err() != nil {
			return results, true
		}
		if !result.Succeeded() {
			return results, false
		}
		previous = result.Output
	}
	return results, false
}

func runRace(ctx context.Context, deps Deps, specs []TaskSpec) (concurrency.RaceResult[core.TaskResult], error) {
	tasks := make([]concurrency.RaceTask[core.TaskResult], 0, len(specs))
	for _, spec := range specs {
		spec := spec
		tasks = append(tasks, concurrency.RaceTask[core.TaskResult]{
			ID: spec.ID,
			Run: func(taskCtx context.Context) (core.TaskResult, error) {
				r := deps.Executor.RunAgent(taskCtx, buildOptions(deps.Registry, spec, deps.OnProgress))
				if !r.Succeeded() {
					return r, errFromResult(r)
				}
				return r, nil
			},
		})
	}
	return concurrency.Race(ctx, tasks)
}

func runTeam(ctx context.Context, deps Deps, in TeamInput) (team.Result, error) {
	dag, err := team.BuildDag(in.Members, in.Tasks)
	if err != nil {
		return team.Result{}, err
	}

	return team.ExecuteDag(ctx, dag, deps.Executor, team.Config{
		MaxConcurrency:    in.MaxConcurrency,
		Workspace:         in.Workspace,
		OnProgress:        deps.OnProgress,
		Approve:           in.Approve,
		ApprovalPredicate: in.ApprovalPredicate,
	})
}

func errFromResult(r core.TaskResult) error {
	if r.Error != "" {
		return taskError(r.Error)
	}
	return taskError("task failed")
}

type taskError string

func (e taskError) Error() string { return string(e) }
