package main

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/avolkov/intervu/internal/api"
	"github.com/avolkov/intervu/internal/config"
	"github.com/avolkov/intervu/internal/extract"
	"github.com/avolkov/intervu/internal/storage"
)

// --- create ---

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an interview from a job vacancy description",
	Long: `Create an interview: generate questions from a vacancy and persist them.

Examples:
  intervu create --text "Senior Go engineer, 5+ years, distributed systems"
  intervu create --file ./vacancy.pdf
  intervu create --url https://example.com/jobs/backend --questions 7`,
	RunE: func(cmd *cobra.Command, args []string) error {
		text, _ := cmd.Flags().GetString("text")
		file, _ := cmd.Flags().GetString("file")
		url, _ := cmd.Flags().GetString("url")
		questions, _ := cmd.Flags().GetInt("questions")

		if text == "" && file == "" && url == "" {
			return fmt.Errorf("one of --text, --file, or --url is required")
		}

		req := map[string]any{}
		if questions > 0 {
			req["num_questions"] = questions
		}
		switch {
		case file != "":
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("reading file: %w", err)
			}
			contentType := extract.ContentTypeForPath(file)
			if contentType == "" {
				return fmt.Errorf("unsupported file type: %s (want .pdf, .docx, or .html)", file)
			}
			req["content"] = base64.StdEncoding.EncodeToString(data)
			req["content_type"] = contentType
		case url != "":
			req["url"] = url
		default:
			req["vacancy_info"] = text
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		printStep("Generating questions...")
		resp, err := client.post(cmd.Context(), "/interviews", req)
		if err != nil {
			return err
		}

		var result struct {
			ID        string   `json:"id"`
			Questions []string `json:"questions"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Created interview %s", result.ID)
		for i, q := range result.Questions {
			fmt.Printf("%d. %s\n", i+1, q)
		}
		return nil
	},
}

func init() {
	createCmd.Flags().String("text", "", "vacancy description as inline text")
	createCmd.Flags().String("file", "", "vacancy document (.pdf, .docx, or .html)")
	createCmd.Flags().String("url", "", "URL of a vacancy page to fetch")
	createCmd.Flags().Int("questions", 0, "number of questions to generate (default 5)")
}

// --- conduct ---

var conductCmd = &cobra.Command{
	Use:   "conduct <id>",
	Short: "Answer interview questions interactively",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/interviews/"+args[0])
		if err != nil {
			return err
		}

		var iv struct {
			Interview storage.Interview  `json:"interview"`
			Questions []storage.Question `json:"questions"`
		}
		if err := decodeJSON(resp, &iv); err != nil {
			return err
		}

		answers := make(map[string]string, len(iv.Questions))
		for i, q := range iv.Questions {
			fmt.Printf("\n%s %s\n", colorize(colorBold, fmt.Sprintf("Question %d/%d:", i+1, len(iv.Questions))), q.Text)
			prompt := promptui.Prompt{
				Label:     "Answer (empty to skip)",
				AllowEdit: true,
			}
			answer, err := prompt.Run()
			if err != nil {
				return fmt.Errorf("reading answer: %w", err)
			}
			answers[q.ID] = strings.TrimSpace(answer)
		}

		submitResp, err := client.post(cmd.Context(), "/interviews/"+args[0]+"/responses", map[string]any{
			"answers": answers,
		})
		if err != nil {
			return err
		}
		var status map[string]string
		if err := decodeJSON(submitResp, &status); err != nil {
			return err
		}

		printSuccess("Recorded %d answers", len(answers))
		return nil
	},
}

// --- review ---

var reviewCmd = &cobra.Command{
	Use:   "review <id>",
	Short: "Show an interview's questions, answers, and analysis",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/interviews/"+args[0]+"/review")
		if err != nil {
			return err
		}

		var review struct {
			Interview   storage.Interview `json:"interview"`
			Items       []api.ReviewItem  `json:"items"`
			Analysis    string            `json:"analysis"`
			HasAnalysis bool              `json:"has_analysis"`
		}
		if err := decodeJSON(resp, &review); err != nil {
			return err
		}

		fmt.Printf("%s %s\n", colorize(colorBold, "Interview:"), review.Interview.ID)
		fmt.Printf("%s %s\n", colorize(colorBold, "Created:"), review.Interview.CreatedAt.Format("2006-01-02 15:04"))

		for i, item := range review.Items {
			answer := item.Answer
			if !item.Answered || answer == "" {
				answer = api.NoAnswerPlaceholder
			}
			fmt.Printf("\n%s %s\n", colorize(colorCyan, fmt.Sprintf("Q%d:", i+1)), item.Question)
			fmt.Printf("%s %s\n", colorize(colorBold, "A:"), answer)
		}

		if review.HasAnalysis {
			fmt.Printf("\n%s\n%s\n", colorize(colorBold, "Analysis:"), review.Analysis)
		} else {
			fmt.Printf("\n%s\n", colorize(colorYellow, "No analysis yet. Run: intervu analyze "+args[0]))
		}
		return nil
	},
}

// --- analyze ---

var analyzeCmd = &cobra.Command{
	Use:   "analyze <id>",
	Short: "Run the suitability analysis over recorded answers",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		printStep("Analyzing responses...")
		resp, err := client.post(cmd.Context(), "/interviews/"+args[0]+"/analysis", map[string]any{})
		if err != nil {
			return err
		}

		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		fmt.Println(result["analysis"])
		return nil
	},
}

// --- list ---

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent interviews",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), fmt.Sprintf("/interviews?limit=%d", limit))
		if err != nil {
			return err
		}

		var interviews []storage.Interview
		if err := decodeJSON(resp, &interviews); err != nil {
			return err
		}

		if len(interviews) == 0 {
			fmt.Println("No interviews found.")
			return nil
		}

		for _, iv := range interviews {
			vacancy := strings.Join(strings.Fields(iv.VacancyInfo), " ")
			if len(vacancy) > 80 {
				vacancy = vacancy[:80] + "..."
			}
			fmt.Printf("%s  %s  %s\n",
				colorize(colorCyan, iv.ID[:8]),
				iv.CreatedAt.Format("2006-01-02 15:04"),
				vacancy,
			)
		}
		return nil
	},
}

func init() {
	listCmd.Flags().Int("limit", 20, "maximum number of interviews to list")
}

// --- status ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show intervu system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			printError("config error: %v", err)
			return nil
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		if resp, healthErr := client.get(cmd.Context(), "/health"); healthErr != nil {
			printStatus("Server", "stopped")
		} else {
			resp.Body.Close()
			if resp.StatusCode == 200 {
				printStatus("Server", "running on port %d", cfg.Server.Port)
			} else {
				printStatus("Server", "error (HTTP %d)", resp.StatusCode)
			}

			listResp, listErr := client.get(cmd.Context(), "/interviews?limit=100")
			if listErr == nil {
				var interviews []storage.Interview
				if decodeJSON(listResp, &interviews) == nil {
					printStatus("Interviews", "%s", countLabel(len(interviews), 100))
				}
			}
		}

		printStatus("Model", "%s", cfg.LLM.Model)
		printStatus("LLM endpoint", "%s", cfg.LLM.BaseURL)
		if cfg.LLM.APIKey == "" {
			printWarning("No LLM API key configured (set INTERVU_LLM_API_KEY or OPENAI_API_KEY)")
		}
		printStatus("Data dir", "%s", cfg.Storage.DataDir)
		return nil
	},
}

func countLabel(count, limit int) string {
	if count >= limit {
		return fmt.Sprintf("%d+", count)
	}
	return fmt.Sprintf("%d", count)
}
