package api

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/avolkov/intervu/internal/interview"
	"github.com/avolkov/intervu/internal/storage"
)

// NoAnswerPlaceholder is displayed for questions that have no stored response.
const NoAnswerPlaceholder = "No answer provided."

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Service *interview.Service
	Store   *storage.Store
}

// NewMCPServer creates an MCP server exposing the interview lifecycle as
// tools, so LLM-driven clients can run the create/conduct/review phases.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"intervu",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("intervu — interview assistant: generate questions from a vacancy, record candidate answers, and produce a suitability analysis."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("create_interview",
			mcp.WithDescription("Create an interview: generate questions from job vacancy text and persist them."),
			mcp.WithString("vacancy_info", mcp.Description("Free text describing the job opening"), mcp.Required()),
			mcp.WithNumber("num_questions", mcp.Description("Number of questions to generate (default 5)")),
		),
		mcpCreateInterview(deps),
	)

	s.AddTool(
		mcp.NewTool("get_interview",
			mcp.WithDescription("Fetch an interview and its ordered questions by id."),
			mcp.WithString("id", mcp.Description("Interview id"), mcp.Required()),
		),
		mcpGetInterview(deps),
	)

	s.AddTool(
		mcp.NewTool("submit_responses",
			mcp.WithDescription("Record candidate answers for an interview. Answers map question ids to free text; empty answers are allowed."),
			mcp.WithString("id", mcp.Description("Interview id"), mcp.Required()),
			mcp.WithString("answers", mcp.Description("JSON object mapping question id to answer text"), mcp.Required()),
		),
		mcpSubmitResponses(deps),
	)

	s.AddTool(
		mcp.NewTool("analyze_interview",
			mcp.WithDescription("Run the LLM suitability analysis over an interview's questions and recorded answers, persist it, and return the text."),
			mcp.WithString("id", mcp.Description("Interview id"), mcp.Required()),
		),
		mcpAnalyzeInterview(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"interviews://recent",
			"Recent Interviews",
			mcp.WithResourceDescription("Last 10 interviews (id, vacancy excerpt, created_at)"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceRecent(deps),
	)

	return s
}

func mcpCreateInterview(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		vacancyInfo, err := req.RequireString("vacancy_info")
		if err != nil {
			return mcpError("vacancy_info is required"), nil
		}
		numQuestions := req.GetInt("num_questions", 0)

		result, err := deps.Service.Create(ctx, interview.CreateInput{
			VacancyInfo:  vacancyInfo,
			NumQuestions: numQuestions,
		})
		if err != nil {
			return mcpError(fmt.Sprintf("create failed: %v", err)), nil
		}

		b, err := json.Marshal(map[string]any{"id": result.ID, "questions": result.Questions})
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal result: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpGetInterview(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("id")
		if err != nil {
			return mcpError("id is required"), nil
		}

		iv, questions, err := deps.Service.Load(id)
		if err != nil {
			return mcpError(fmt.Sprintf("lookup failed: %v", err)), nil
		}

		type questionResult struct {
			ID   string `json:"id"`
			Text string `json:"text"`
		}
		qs := make([]questionResult, len(questions))
		for i, q := range questions {
			qs[i] = questionResult{ID: q.ID, Text: q.Text}
		}

		b, err := json.Marshal(map[string]any{
			"id":           iv.ID,
			"vacancy_info": iv.VacancyInfo,
			"created_at":   iv.CreatedAt.Format(time.RFC3339),
			"questions":    qs,
		})
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal interview: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpSubmitResponses(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("id")
		if err != nil {
			return mcpError("id is required"), nil
		}
		answersJSON, err := req.RequireString("answers")
		if err != nil {
			return mcpError("answers is required"), nil
		}

		var answers map[string]string
		if err := json.Unmarshal([]byte(answersJSON), &answers); err != nil {
			return mcpError(fmt.Sprintf("invalid answers JSON: %v", err)), nil
		}

		if err := deps.Service.SubmitResponses(id, answers); err != nil {
			return mcpError(fmt.Sprintf("submit failed: %v", err)), nil
		}
		return mcpText(fmt.Sprintf("Recorded %d answers for interview %s", len(answers), id)), nil
	}
}

func mcpAnalyzeInterview(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("id")
		if err != nil {
			return mcpError("id is required"), nil
		}

		analysis, err := deps.Service.Analyze(ctx, id)
		if err != nil {
			return mcpError(fmt.Sprintf("analysis failed: %v", err)), nil
		}
		return mcpText(analysis), nil
	}
}

func mcpResourceRecent(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		interviews, err := deps.Store.ListInterviews(10, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to list interviews: %w", err)
		}

		type interviewSummary struct {
			ID        string `json:"id"`
			CreatedAt string `json:"created_at"`
			Vacancy   string `json:"vacancy"`
		}

		summaries := make([]interviewSummary, len(interviews))
		for i, iv := range interviews {
			vacancy := iv.VacancyInfo
			if utf8.RuneCountInString(vacancy) > 200 {
				runes := []rune(vacancy)
				vacancy = string(runes[:200]) + "..."
			}
			summaries[i] = interviewSummary{
				ID:        iv.ID,
				CreatedAt: iv.CreatedAt.Format(time.RFC3339),
				Vacancy:   vacancy,
			}
		}

		b, err := json.Marshal(summaries)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal interviews: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
