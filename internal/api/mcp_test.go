package api

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/avolkov/intervu/internal/analyzer"
	"github.com/avolkov/intervu/internal/generator"
	"github.com/avolkov/intervu/internal/interview"
	"github.com/avolkov/intervu/internal/storage"
)

// --- helpers ---

func newTestMCPDeps(t *testing.T, fake *fakeCompleter) (MCPDeps, *storage.Store) {
	t.Helper()
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	svc := interview.NewService(store, generator.New(fake), analyzer.New(fake))
	return MCPDeps{Service: svc, Store: store}, store
}

func toolText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("no content in result")
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected TextContent, got %T", result.Content[0])
	}
	return tc.Text
}

func makeCallToolRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func makeReadResourceRequest(uri string) mcp.ReadResourceRequest {
	return mcp.ReadResourceRequest{
		Params: mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

// --- tests ---

func TestMCPTool_CreateInterview(t *testing.T) {
	fake := &fakeCompleter{replies: []string{"1. First?\n2. Second?"}}
	deps, store := newTestMCPDeps(t, fake)
	handler := mcpCreateInterview(deps)

	req := makeCallToolRequest("create_interview", map[string]interface{}{
		"vacancy_info":  "Backend engineer, Go, SQLite",
		"num_questions": 2,
	})

	result, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error: %s", toolText(t, result))
	}

	var created struct {
		ID        string   `json:"id"`
		Questions []string `json:"questions"`
	}
	if err := json.Unmarshal([]byte(toolText(t, result)), &created); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if created.ID == "" {
		t.Fatal("empty interview id")
	}
	if len(created.Questions) != 2 || created.Questions[0] != "First?" {
		t.Fatalf("unexpected questions: %v", created.Questions)
	}

	_, questions, err := store.GetInterview(created.ID)
	if err != nil {
		t.Fatalf("GetInterview: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("expected 2 stored questions, got %d", len(questions))
	}
}

func TestMCPTool_CreateInterview_MissingVacancy(t *testing.T) {
	deps, _ := newTestMCPDeps(t, &fakeCompleter{replies: []string{"unused"}})
	handler := mcpCreateInterview(deps)

	result, err := handler(context.Background(), makeCallToolRequest("create_interview", map[string]interface{}{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected IsError for missing vacancy_info")
	}
}

func TestMCPTool_GetInterview_NotFound(t *testing.T) {
	deps, _ := newTestMCPDeps(t, &fakeCompleter{replies: []string{"unused"}})
	handler := mcpGetInterview(deps)

	req := makeCallToolRequest("get_interview", map[string]interface{}{
		"id": "no-such-id",
	})

	result, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected IsError for unknown interview")
	}
}

func TestMCPTool_SubmitAndAnalyze(t *testing.T) {
	fake := &fakeCompleter{replies: []string{
		"strong candidate overall",
	}}
	deps, store := newTestMCPDeps(t, fake)

	id, err := store.CreateInterview("vacancy", []string{"Q1?", "Q2?"})
	if err != nil {
		t.Fatalf("CreateInterview: %v", err)
	}
	_, questions, err := store.GetInterview(id)
	if err != nil {
		t.Fatalf("GetInterview: %v", err)
	}

	answers, _ := json.Marshal(map[string]string{
		questions[0].ID: "Five years",
		questions[1].ID: "",
	})

	submitResult, err := mcpSubmitResponses(deps)(context.Background(), makeCallToolRequest("submit_responses", map[string]interface{}{
		"id":      id,
		"answers": string(answers),
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if submitResult.IsError {
		t.Fatalf("unexpected error: %s", toolText(t, submitResult))
	}

	got, err := store.ResponseForQuestion(questions[0].ID)
	if err != nil {
		t.Fatalf("ResponseForQuestion: %v", err)
	}
	if got != "Five years" {
		t.Fatalf("stored answer = %q", got)
	}

	analyzeResult, err := mcpAnalyzeInterview(deps)(context.Background(), makeCallToolRequest("analyze_interview", map[string]interface{}{
		"id": id,
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if analyzeResult.IsError {
		t.Fatalf("unexpected error: %s", toolText(t, analyzeResult))
	}
	if text := toolText(t, analyzeResult); text != "strong candidate overall" {
		t.Fatalf("analysis = %q", text)
	}

	stored, err := store.LatestAnalysis(id)
	if err != nil {
		t.Fatalf("LatestAnalysis: %v", err)
	}
	if stored != "strong candidate overall" {
		t.Fatalf("stored analysis = %q", stored)
	}
}

func TestMCPTool_SubmitResponses_InvalidJSON(t *testing.T) {
	deps, store := newTestMCPDeps(t, &fakeCompleter{replies: []string{"unused"}})

	id, err := store.CreateInterview("vacancy", []string{"Q1?"})
	if err != nil {
		t.Fatalf("CreateInterview: %v", err)
	}

	result, err := mcpSubmitResponses(deps)(context.Background(), makeCallToolRequest("submit_responses", map[string]interface{}{
		"id":      id,
		"answers": "{not json",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected IsError for malformed answers")
	}
}

func TestMCPResource_RecentInterviews(t *testing.T) {
	deps, store := newTestMCPDeps(t, &fakeCompleter{replies: []string{"unused"}})
	handler := mcpResourceRecent(deps)

	longVacancy := strings.Repeat("x", 300)
	if _, err := store.CreateInterview(longVacancy, []string{"Q1?"}); err != nil {
		t.Fatalf("CreateInterview: %v", err)
	}
	if _, err := store.CreateInterview("short vacancy", []string{"Q1?"}); err != nil {
		t.Fatalf("CreateInterview: %v", err)
	}

	contents, err := handler(context.Background(), makeReadResourceRequest("interviews://recent"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(contents) != 1 {
		t.Fatalf("expected 1 content item, got %d", len(contents))
	}
	text, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("expected TextResourceContents, got %T", contents[0])
	}

	var summaries []struct {
		ID      string `json:"id"`
		Vacancy string `json:"vacancy"`
	}
	if err := json.Unmarshal([]byte(text.Text), &summaries); err != nil {
		t.Fatalf("failed to parse resource: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected 2 interviews, got %d", len(summaries))
	}
	for _, s := range summaries {
		if strings.HasPrefix(s.Vacancy, "xxx") && !strings.HasSuffix(s.Vacancy, "...") {
			t.Fatalf("long vacancy not truncated: %q", s.Vacancy)
		}
	}
}
