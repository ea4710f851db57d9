// PicoClaw - Ultra-lightweight personal AI agent
// License: MIT
//
// Copyright (c) 2026 PicoClaw contributors

package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sipeed/pi-orchestrator/pkg/modes"
	"github.com/sipeed/pi-orchestrator/pkg/team"
	"github.com/sipeed/pi-orchestrator/pkg/workspace"
)

// teamFileMember and teamFileTask are the on-disk (JSON or YAML) shapes a
// --team-file describes; they convert 1:1 into team.Member/team.Task.
type teamFileMember struct {
	Role         string   `json:"role" yaml:"role"`
	Model        string   `json:"model" yaml:"model"`
	Tools        []string `json:"tools" yaml:"tools"`
	SystemPrompt string   `json:"systemPrompt" yaml:"systemPrompt"`
	Thinking     string   `json:"thinking" yaml:"thinking"`
}

type teamFileReview struct {
	Assignee      string `json:"assignee" yaml:"assignee"`
	MaxIterations int    `json:"maxIterations" yaml:"maxIterations"`
	Task          string `json:"task" yaml:"task"`
}

type teamFileTask struct {
	ID               string          `json:"id" yaml:"id"`
	Task             string          `json:"task" yaml:"task"`
	Assignee         string          `json:"assignee" yaml:"assignee"`
	Depends          []string        `json:"depends" yaml:"depends"`
	Review           *teamFileReview `json:"review,omitempty" yaml:"review,omitempty"`
	RequiresApproval bool            `json:"requiresApproval" yaml:"requiresApproval"`
	Model            string          `json:"model" yaml:"model"`
	Tools            []string        `json:"tools" yaml:"tools"`
}

type teamFile struct {
	Objective      string           `json:"objective" yaml:"objective"`
	Members        []teamFileMember `json:"members" yaml:"members"`
	Tasks          []teamFileTask   `json:"tasks" yaml:"tasks"`
	MaxConcurrency int              `json:"maxConcurrency" yaml:"maxConcurrency"`
}

func loadTeamFile(path string) (teamFile, error) {
	var tf teamFile
	data, err := os.ReadFile(path)
	if err != nil {
		return tf, fmt.Errorf("reading team file: %w", err)
	}

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		err = yaml.Unmarshal(data, &tf)
	} else {
		err = json.Unmarshal(data, &tf)
	}
	if err != nil {
		return tf, fmt.Errorf("parsing team file: %w", err)
	}
	return tf, nil
}

func (tf teamFile) toInput(ws *workspace.Workspace, approve team.ApproveFunc) modes.TeamInput {
	members := make([]team.Member, len(tf.Members))
	for i, m := range tf.Members {
		members[i] = team.Member{
			Role:         m.Role,
			Model:        m.Model,
			Tools:        m.Tools,
			SystemPrompt: m.SystemPrompt,
			Thinking:     m.Thinking,
		}
	}

	tasks := make([]team.Task, len(tf.Tasks))
	for i, t := range tf.Tasks {
		task := team.Task{
			ID:               t.ID,
			Task:             t.Task,
			Assignee:         t.Assignee,
			Depends:          t.Depends,
			RequiresApproval: t.RequiresApproval,
			Model:            t.Model,
			Tools:            t.Tools,
		}
		if t.Review != nil {
			task.Review = &team.ReviewSpec{
				Assignee:      t.Review.Assignee,
				MaxIterations: t.Review.MaxIterations,
				Task:          t.Review.Task,
			}
		}
		tasks[i] = task
	}

	return modes.TeamInput{
		Objective:      tf.Objective,
		Members:        members,
		Tasks:          tasks,
		MaxConcurrency: tf.MaxConcurrency,
		Workspace:      ws,
		Approve:        approve,
	}
}

func newTeamCommand() *cobra.Command {
	var teamFilePath string
	var workspaceDir string
	var interactiveApproval bool

	cmd := &cobra.Command{
		Use:   "team",
		Short: "Run a team of agents over a dependency graph defined by --team-file",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().StringVar(&teamFilePath, "team-file", "", "path to a JSON or YAML team definition (required)")
	cmd.Flags().StringVar(&workspaceDir, "workspace", "", "workspace base directory for team artifacts (default: config defaults.workspace)")
	cmd.Flags().BoolVar(&interactiveApproval, "interactive-approval", false, "prompt on stdin for any task requiring human approval")
	_ = cmd.MarkFlagRequired("team-file")

	cmd.RunE = func(c *cobra.Command, _ []string) error {
		tf, err := loadTeamFile(teamFilePath)
		if err != nil {
			return err
		}

		base := workspaceDir
		if base == "" {
			base = cfg.WorkspacePath()
		}
		runID := fmt.Sprintf("%d", time.Now().UnixNano())
		ws, err := workspace.New(base, tf.Objective, runID)
		if err != nil {
			return fmt.Errorf("creating workspace: %w", err)
		}

		var approve team.ApproveFunc
		if interactiveApproval {
			approve = interactiveApprove
		}

		out := modes.Dispatch(c.Context(), tf.toInput(ws, approve), modes.Deps{
			Registry: registry, Executor: exec, OnProgress: onProgress,
		})
		if out.Err != nil {
			return out.Err
		}

		failed := 0
		for id, node := range out.Team.Nodes {
			fmt.Printf("task=%s status=%s exitCode=%d\n", id, node.Status, node.ExitCode)
			if node.Error != "" {
				fmt.Printf("  error: %s\n", node.Error)
			}
			// A skipped node is a cascade effect of an upstream failure,
			// not itself a failure to report on the exit code.
			if node.Status == team.NodeFailed {
				failed++
			}
		}
		if out.Team.Aborted {
			fmt.Println("aborted: team run cancelled before all tasks completed")
		}
		return exitError(boolToCode(failed > 0))
	}
	return cmd
}

func boolToCode(failed bool) int {
	if failed {
		return 1
	}
	return 0
}

func interactiveApprove(taskID, output string) (bool, string) {
	fmt.Printf("\n--- approval required: %s ---\n%s\napprove? [y/N]: ", taskID, output)
	reader := bufio.NewReader(os.Stdin)
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(strings.ToLower(line))
	if line == "y" || line == "yes" {
		return true, ""
	}
	fmt.Print("feedback: ")
	feedback, _ := reader.ReadString('\n')
	return false, strings.TrimSpace(feedback)
}
