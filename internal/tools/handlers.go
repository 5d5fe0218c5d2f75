package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/vantage-bot/gateway/internal/adapter/llm"
)

// RunScriptFunc executes a tool script with a bounded timeout.
// script.Runner.Run satisfies it.
type RunScriptFunc func(ctx context.Context, timeout time.Duration, scriptPath string, args ...string) (json.RawMessage, error)

// Dirs holds the script directories the handlers shell out to.
type Dirs struct {
	Task    string
	RFP     string
	Project string
}

const (
	defaultTimeout  = 30 * time.Second
	documentTimeout = 60 * time.Second
	rfpTimeout      = 300 * time.Second
)

// All returns the complete gateway tool set. Adding a tool means adding a
// handler here; the registry rejects duplicates at startup.
func All(run RunScriptFunc, dirs Dirs) []Handler {
	return []Handler{
		getTasksTool{run, dirs.Task},
		getTaskTool{run, dirs.Task},
		analyzeTaskDocumentTool{run, dirs.Task},
		completeTaskTool{run, dirs.Task},
		createTaskTool{run, dirs.Task},
		updateTaskTool{run, dirs.Task},
		deleteTaskTool{run, dirs.Task},
		processRFPTool{run, dirs.RFP},
		getProjectStatsTool{run, dirs.Project},
		deleteProjectTool{run, dirs.Project},
		getProjectsTool{run, dirs.Project},
	}
}

func schema(name, description string, properties map[string]interface{}, required []string) llm.Tool {
	if required == nil {
		required = []string{}
	}
	return llm.Tool{
		Type: "function",
		Function: llm.ToolFunction{
			Name:        name,
			Description: description,
			Parameters: map[string]interface{}{
				"type":       "object",
				"properties": properties,
				"required":   required,
			},
		},
	}
}

func prop(typ, description string) map[string]interface{} {
	return map[string]interface{}{"type": typ, "description": description}
}

func enumProp(typ, description string, values []string) map[string]interface{} {
	return map[string]interface{}{"type": typ, "description": description, "enum": values}
}

type getTasksTool struct {
	run RunScriptFunc
	dir string
}

func (t getTasksTool) Definition() llm.Tool {
	return schema("get_tasks",
		"List tasks for a project, optionally filtered by urgency (due_today, due_this_week, overdue, upcoming, completed, all)",
		map[string]interface{}{
			"project_slug": prop("string", "Project identifier slug"),
			"filter": enumProp("string", "Filter tasks by urgency. Defaults to 'all'",
				[]string{"due_today", "due_this_week", "overdue", "upcoming", "completed", "all"}),
		},
		[]string{"project_slug"})
}

func (t getTasksTool) Execute(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
	var a struct {
		ProjectSlug string `json:"project_slug"`
		Filter      string `json:"filter"`
	}
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	cmd := []string{"list", a.ProjectSlug}
	if a.Filter != "" {
		cmd = append(cmd, "--filter", a.Filter)
	}
	return t.run(ctx, defaultTimeout, filepath.Join(t.dir, "tasks.py"), cmd...)
}

type getTaskTool struct {
	run RunScriptFunc
	dir string
}

func (t getTaskTool) Definition() llm.Tool {
	return schema("get_task",
		"Get a single task by its ID with full details",
		map[string]interface{}{
			"task_id": prop("integer", "Task identifier"),
		},
		[]string{"task_id"})
}

func (t getTaskTool) Execute(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
	var a struct {
		TaskID int `json:"task_id"`
	}
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	return t.run(ctx, defaultTimeout, filepath.Join(t.dir, "tasks.py"), "get", strconv.Itoa(a.TaskID))
}

type analyzeTaskDocumentTool struct {
	run RunScriptFunc
	dir string
}

func (t analyzeTaskDocumentTool) Definition() llm.Tool {
	return schema("analyze_task_document",
		"Analyze an uploaded document for task compatibility WITHOUT completing the task. Returns language detection, comprehensive analysis, and compatibility assessment. Use this BEFORE completing to show user analysis and ask for approval.",
		map[string]interface{}{
			"task_id": prop("integer", "Task identifier to analyze document for"),
		},
		[]string{"task_id"})
}

func (t analyzeTaskDocumentTool) Execute(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
	var a struct {
		TaskID int `json:"task_id"`
	}
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	return t.run(ctx, documentTimeout, filepath.Join(t.dir, "analyze_task_document.py"), strconv.Itoa(a.TaskID))
}

type completeTaskTool struct {
	run RunScriptFunc
	dir string
}

func (t completeTaskTool) Definition() llm.Tool {
	return schema("complete_task",
		"Complete a task with full file upload workflow. Fetches task and deliverable details, finds latest uploaded file, validates content, creates document record, links document to deliverable, and marks task complete.",
		map[string]interface{}{
			"task_id": prop("integer", "Task identifier to complete"),
		},
		[]string{"task_id"})
}

func (t completeTaskTool) Execute(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
	var a struct {
		TaskID int `json:"task_id"`
	}
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	return t.run(ctx, documentTimeout, filepath.Join(t.dir, "complete_task.py"), strconv.Itoa(a.TaskID))
}

type createTaskTool struct {
	run RunScriptFunc
	dir string
}

func (t createTaskTool) Definition() llm.Tool {
	return schema("create_task",
		"Create a single task with specified details",
		map[string]interface{}{
			"topic_id":    prop("integer", "Topic ID to create task under"),
			"title":       prop("string", "Task title/description"),
			"due":         prop("string", "Due date in YYYY-MM-DD format"),
			"assignee_id": prop("integer", "Team member ID to assign task to"),
			"priority": enumProp("string", "Task priority level",
				[]string{"critical", "high", "medium", "low"}),
			"description":    prop("string", "Detailed task description"),
			"source":         prop("string", "Source reference (e.g., 'Section 2.1')"),
			"deliverable_id": prop("integer", "Deliverable ID to link task to"),
		},
		[]string{"topic_id", "title"})
}

func (t createTaskTool) Execute(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
	var a struct {
		TopicID       int    `json:"topic_id"`
		Title         string `json:"title"`
		Due           string `json:"due"`
		AssigneeID    *int   `json:"assignee_id"`
		Priority      string `json:"priority"`
		Description   string `json:"description"`
		Source        string `json:"source"`
		DeliverableID *int   `json:"deliverable_id"`
	}
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	cmd := []string{"create", "--topic-id", strconv.Itoa(a.TopicID), "--title", a.Title}
	if a.Due != "" {
		cmd = append(cmd, "--due", a.Due)
	}
	if a.AssigneeID != nil {
		cmd = append(cmd, "--assignee-id", strconv.Itoa(*a.AssigneeID))
	}
	if a.Priority != "" {
		cmd = append(cmd, "--priority", a.Priority)
	}
	if a.Description != "" {
		cmd = append(cmd, "--description", a.Description)
	}
	if a.Source != "" {
		cmd = append(cmd, "--source", a.Source)
	}
	if a.DeliverableID != nil {
		cmd = append(cmd, "--deliverable-id", strconv.Itoa(*a.DeliverableID))
	}
	return t.run(ctx, defaultTimeout, filepath.Join(t.dir, "tasks.py"), cmd...)
}

type updateTaskTool struct {
	run RunScriptFunc
	dir string
}

func (t updateTaskTool) Definition() llm.Tool {
	return schema("update_task",
		"Update an existing task's fields (title, due date, status, etc.)",
		map[string]interface{}{
			"task_id": prop("integer", "Task identifier to update"),
			"title":   prop("string", "New task title"),
			"due":     prop("string", "New due date in YYYY-MM-DD format"),
			"status": enumProp("string", "New task status",
				[]string{"todo", "in_progress", "blocked", "complete"}),
		},
		[]string{"task_id"})
}

func (t updateTaskTool) Execute(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
	var a struct {
		TaskID int    `json:"task_id"`
		Title  string `json:"title"`
		Due    string `json:"due"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	cmd := []string{"update", strconv.Itoa(a.TaskID)}
	if a.Title != "" {
		cmd = append(cmd, "--title", a.Title)
	}
	if a.Due != "" {
		cmd = append(cmd, "--due", a.Due)
	}
	if a.Status != "" {
		cmd = append(cmd, "--status", a.Status)
	}
	return t.run(ctx, defaultTimeout, filepath.Join(t.dir, "tasks.py"), cmd...)
}

type deleteTaskTool struct {
	run RunScriptFunc
	dir string
}

func (t deleteTaskTool) Definition() llm.Tool {
	return schema("delete_task",
		"Delete a task by its ID",
		map[string]interface{}{
			"task_id": prop("integer", "Task identifier to delete"),
		},
		[]string{"task_id"})
}

func (t deleteTaskTool) Execute(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
	var a struct {
		TaskID int `json:"task_id"`
	}
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	return t.run(ctx, defaultTimeout, filepath.Join(t.dir, "tasks.py"), "delete", strconv.Itoa(a.TaskID))
}

type processRFPTool struct {
	run RunScriptFunc
	dir string
}

func (t processRFPTool) Definition() llm.Tool {
	return schema("process_rfp",
		"Process an RFP document and create project with all topics, requirements, deliverables, and tasks. Automatically uses the most recently uploaded file or accepts a specific file path.",
		map[string]interface{}{
			"file_path": prop("string", "Optional specific file path. If not provided, uses 'latest' to process most recent upload from the media inbox"),
		},
		nil)
}

func (t processRFPTool) Execute(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
	var a struct {
		FilePath string `json:"file_path"`
	}
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	filePath := a.FilePath
	if filePath == "" {
		filePath = "latest"
	}
	return t.run(ctx, rfpTimeout, filepath.Join(t.dir, "process_rfp.py"), filePath)
}

type getProjectStatsTool struct {
	run RunScriptFunc
	dir string
}

func (t getProjectStatsTool) Definition() llm.Tool {
	return schema("get_project_stats",
		"Get project statistics including task counts, completion rates, and deadlines",
		map[string]interface{}{
			"project_slug": prop("string", "Project identifier slug"),
		},
		[]string{"project_slug"})
}

func (t getProjectStatsTool) Execute(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
	var a struct {
		ProjectSlug string `json:"project_slug"`
	}
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	return t.run(ctx, defaultTimeout, filepath.Join(t.dir, "projects.py"), "stats", a.ProjectSlug)
}

type deleteProjectTool struct {
	run RunScriptFunc
	dir string
}

func (t deleteProjectTool) Definition() llm.Tool {
	return schema("delete_project",
		"Delete a project by its slug. Use when user wants to replace a duplicate project.",
		map[string]interface{}{
			"project_slug": prop("string", "Project slug to delete"),
		},
		[]string{"project_slug"})
}

func (t deleteProjectTool) Execute(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
	var a struct {
		ProjectSlug string `json:"project_slug"`
	}
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	return t.run(ctx, defaultTimeout, filepath.Join(t.dir, "projects.py"), "delete", a.ProjectSlug)
}

type getProjectsTool struct {
	run RunScriptFunc
	dir string
}

func (t getProjectsTool) Definition() llm.Tool {
	return schema("get_projects",
		"List all available projects. Use when user asks 'show me projects', 'list projects', 'my tasks' (to find current project), or when project slug is unknown.",
		map[string]interface{}{},
		nil)
}

func (t getProjectsTool) Execute(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
	return t.run(ctx, defaultTimeout, filepath.Join(t.dir, "projects.py"), "list")
}
