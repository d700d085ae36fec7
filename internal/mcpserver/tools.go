package mcpserver

import (
	"bytes"
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/embrace-io/embrace-wizard/internal/setup"
	"github.com/embrace-io/embrace-wizard/internal/terminal"
	"github.com/embrace-io/embrace-wizard/internal/wizard"
)

type runInput struct {
	ProjectRoot  string `json:"project_root" jsonschema:"Absolute path of the React Native project (the folder with package.json)"`
	IOSAppID     string `json:"ios_app_id,omitempty" jsonschema:"Embrace app ID of the iOS app (5 characters)"`
	AndroidAppID string `json:"android_app_id,omitempty" jsonschema:"Embrace app ID of the Android app (5 characters)"`
	APIToken     string `json:"api_token,omitempty" jsonschema:"Embrace symbol upload API token"`
	ProjectName  string `json:"project_name,omitempty" jsonschema:"Xcode project name when it differs from the app name"`
	SkipAndroid  bool   `json:"skip_android,omitempty" jsonschema:"Leave the Android project alone"`
	SkipIOS      bool   `json:"skip_ios,omitempty" jsonschema:"Leave the iOS project alone"`
	DryRun       bool   `json:"dry_run,omitempty" jsonschema:"Report diffs instead of writing files"`
}

type stepOutput struct {
	Name   string `json:"name"`
	DocURL string `json:"doc_url,omitempty"`
}

type runOutput struct {
	Completed  []string     `json:"completed"`
	Incomplete []stepOutput `json:"incomplete,omitempty"`
	Error      string       `json:"error,omitempty"`
	Log        string       `json:"log"`
}

type statusInput struct {
	ProjectRoot string `json:"project_root" jsonschema:"Absolute path of the React Native project"`
	ProjectName string `json:"project_name,omitempty" jsonschema:"Xcode project name when it differs from the app name"`
}

type statusOutput struct {
	Checks []setup.Check `json:"checks"`
}

// env builds a per-call environment. Output is captured, never printed, and
// missing values fail instead of prompting.
func (s *Server) env(in runInput, log *bytes.Buffer) setup.Env {
	cfg := s.base
	if in.ProjectRoot != "" {
		cfg.ProjectRoot = in.ProjectRoot
	}
	override := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	override(&cfg.IOSAppID, in.IOSAppID)
	override(&cfg.AndroidAppID, in.AndroidAppID)
	override(&cfg.APIToken, in.APIToken)
	override(&cfg.ProjectName, in.ProjectName)
	cfg.SkipAndroid = cfg.SkipAndroid || in.SkipAndroid
	cfg.SkipIOS = cfg.SkipIOS || in.SkipIOS
	cfg.DryRun = cfg.DryRun || in.DryRun

	return setup.Env{
		Config:  &cfg,
		Out:     terminal.New(log),
		Prompt:  setup.NoPrompt{},
		Secrets: s.secrets,
	}
}

func report(r wizard.Report, log *bytes.Buffer) runOutput {
	out := runOutput{Completed: []string{}, Log: log.String()}
	for _, s := range r.Completed {
		out.Completed = append(out.Completed, s.Name)
	}
	for _, s := range r.Incomplete {
		out.Incomplete = append(out.Incomplete, stepOutput{Name: s.Name, DocURL: s.DocURL})
	}
	if r.Err != nil {
		out.Error = r.Err.Error()
	}
	return out
}

func (s *Server) handleInstall(ctx context.Context, req *mcp.CallToolRequest, in runInput) (*mcp.CallToolResult, runOutput, error) {
	var log bytes.Buffer
	r := setup.Install(s.env(in, &log)).RunSteps(ctx)
	return nil, report(r, &log), nil
}

func (s *Server) handleUninstall(ctx context.Context, req *mcp.CallToolRequest, in runInput) (*mcp.CallToolResult, runOutput, error) {
	var log bytes.Buffer
	r := setup.Uninstall(s.env(in, &log)).RunSteps(ctx)
	return nil, report(r, &log), nil
}

func (s *Server) handleStatus(ctx context.Context, req *mcp.CallToolRequest, in statusInput) (*mcp.CallToolResult, statusOutput, error) {
	var log bytes.Buffer
	env := s.env(runInput{ProjectRoot: in.ProjectRoot, ProjectName: in.ProjectName}, &log)
	return nil, statusOutput{Checks: setup.Status(ctx, env)}, nil
}
