// PicoClaw - Ultra-lightweight personal AI agent
// License: MIT
//
// Copyright (c) 2026 PicoClaw contributors

package agent

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/sipeed/pi-orchestrator/pkg/logger"
)

// Discover reads every *.md file in userDir (scope "user") and, if
// projectDir is non-empty, every *.md file there too (scope "project"),
// parsing each per §6.3. Files missing name or description are skipped
// with a logged warning rather than a hard failure, per §4.7. The returned
// list has project-scope entries listed after user-scope ones, so feeding
// it straight into NewRegistry gives project-over-user collision
// precedence (later entries win).
func Discover(userDir, projectDir string) ([]*Config, error) {
	var configs []*Config

	if userDir != "" {
		cfgs, err := discoverDir(userDir, SourceUser)
		if err != nil {
			return nil, err
		}
		configs = append(configs, cfgs...)
	}

	if projectDir != "" {
		cfgs, err := discoverDir(projectDir, SourceProject)
		if err != nil {
			return nil, err
		}
		configs = append(configs, cfgs...)
	}

	return configs, nil
}

func discoverDir(dir string, source Source) ([]*Config, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var configs []*Config
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		cfg, err := parseFile(path, source)
		if err != nil {
			logger.WarnCF("agent-discovery", "skipping malformed agent file", map[string]any{
				"path": path, "error": err.Error(),
			})
			continue
		}
		if cfg == nil {
			logger.WarnCF("agent-discovery", "skipping agent file missing name or description", map[string]any{
				"path": path,
			})
			continue
		}
		configs = append(configs, cfg)
	}
	return configs, nil
}

// parseFile parses one agent definition file per §6.3. It returns a nil
// config (no error) when the file is missing name or description, since
// that is a skip, not a failure.
func parseFile(path string, source Source) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	frontmatter, body, err := splitFrontmatter(string(data))
	if err != nil {
		return nil, err
	}

	fields := parseFrontmatterFields(frontmatter)
	name := fields["name"]
	description := fields["description"]
	if name == "" || description == "" {
		return nil, nil
	}

	cfg := &Config{
		Name:         name,
		Description:  description,
		Model:        fields["model"],
		Thinking:     fields["thinking"],
		Extends:      fields["extends"],
		SystemPrompt: strings.TrimSpace(body),
		Source:       source,
		FilePath:     path,
	}
	if tools := fields["tools"]; tools != "" {
		for _, t := range strings.Split(tools, ",") {
			if t = strings.TrimSpace(t); t != "" {
				cfg.Tools = append(cfg.Tools, t)
			}
		}
	}
	return cfg, nil
}

// splitFrontmatter separates the leading "---"-delimited frontmatter block
// from the body. A file with no frontmatter has an empty frontmatter and
// its entire contents as body.
func splitFrontmatter(content string) (frontmatter, body string, err error) {
	scanner := bufio.NewScanner(strings.NewReader(content))
	lines := []string{}
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}

	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "---" {
		return "", content, nil
	}

	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			frontmatter = strings.Join(lines[1:i], "\n")
			body = strings.Join(lines[i+1:], "\n")
			return frontmatter, body, nil
		}
	}

	return "", content, nil
}

// parseFrontmatterFields parses a minimal "key: value" per line subset of
// YAML sufficient for §6.3's recognized frontmatter keys.
func parseFrontmatterFields(frontmatter string) map[string]string {
	fields := make(map[string]string)
	for _, line := range strings.Split(frontmatter, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		idx := strings.Index(line, ":")
		if idx < 0 {
			continue
		}
		key := strings.TrimSpace(line[:idx])
		val := strings.TrimSpace(line[idx+1:])
		val = strings.Trim(val, `"'`)
		fields[key] = val
	}
	return fields
}
