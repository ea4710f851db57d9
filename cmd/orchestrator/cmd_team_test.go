// PicoClaw - Ultra-lightweight personal AI agent
// License: MIT
//
// Copyright (c) 2026 PicoClaw contributors

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTeamJSON = `{
  "objective": "ship the feature",
  "members": [
    {"role": "writer", "model": "writer-model", "tools": ["write"]},
    {"role": "reviewer", "model": "reviewer-model"}
  ],
  "tasks": [
    {
      "id": "draft",
      "task": "write the draft",
      "assignee": "writer",
      "review": {"assignee": "reviewer", "maxIterations": 2, "task": "check it"}
    },
    {
      "id": "publish",
      "task": "publish it",
      "assignee": "writer",
      "depends": ["draft"],
      "requiresApproval": true
    }
  ],
  "maxConcurrency": 2
}`

const sampleTeamYAML = `
objective: ship the feature
members:
  - role: writer
    model: writer-model
tasks:
  - id: draft
    task: write the draft
    assignee: writer
maxConcurrency: 2
`

func TestLoadTeamFile_ParsesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "team.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleTeamJSON), 0644))

	tf, err := loadTeamFile(path)
	require.NoError(t, err)
	assert.Equal(t, "ship the feature", tf.Objective)
	require.Len(t, tf.Members, 2)
	require.Len(t, tf.Tasks, 2)
	assert.Equal(t, "reviewer", tf.Tasks[0].Review.Assignee)
	assert.Equal(t, []string{"draft"}, tf.Tasks[1].Depends)
	assert.True(t, tf.Tasks[1].RequiresApproval)
	assert.Equal(t, 2, tf.MaxConcurrency)
}

func TestLoadTeamFile_ParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "team.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleTeamYAML), 0644))

	tf, err := loadTeamFile(path)
	require.NoError(t, err)
	assert.Equal(t, "ship the feature", tf.Objective)
	require.Len(t, tf.Tasks, 1)
	assert.Equal(t, "draft", tf.Tasks[0].ID)
}

func TestLoadTeamFile_MissingFileErrors(t *testing.T) {
	_, err := loadTeamFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestLoadTeamFile_MalformedJSONErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "team.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := loadTeamFile(path)
	assert.Error(t, err)
}

func TestTeamFile_ToInputConvertsMembersAndTasks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "team.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleTeamJSON), 0644))
	tf, err := loadTeamFile(path)
	require.NoError(t, err)

	in := tf.toInput(nil, nil)
	assert.Equal(t, "ship the feature", in.Objective)
	require.Len(t, in.Members, 2)
	assert.Equal(t, "writer", in.Members[0].Role)
	assert.Equal(t, "writer-model", in.Members[0].Model)

	require.Len(t, in.Tasks, 2)
	require.NotNil(t, in.Tasks[0].Review)
	assert.Equal(t, "reviewer", in.Tasks[0].Review.Assignee)
	assert.Equal(t, 2, in.Tasks[0].Review.MaxIterations)
	assert.Equal(t, []string{"draft"}, in.Tasks[1].Depends)
	assert.True(t, in.Tasks[1].RequiresApproval)
	assert.Equal(t, 2, in.MaxConcurrency)
}

func TestTeamFile_ToInputOmitsReviewWhenAbsent(t *testing.T) {
	tf := teamFile{
		Members: []teamFileMember{{Role: "writer"}},
		Tasks:   []teamFileTask{{ID: "t1", Assignee: "writer"}},
	}
	in := tf.toInput(nil, nil)
	assert.Nil(t, in.Tasks[0].Review)
}
