package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/learnedge/learnedge/internal/ai"
	"github.com/learnedge/learnedge/internal/analysis"
	"github.com/learnedge/learnedge/internal/evaluation"
	"github.com/learnedge/learnedge/internal/extract"
	"github.com/learnedge/learnedge/internal/llm"
	"github.com/learnedge/learnedge/internal/logger"
	"github.com/learnedge/learnedge/internal/mastery"
	"github.com/learnedge/learnedge/internal/questiongen"
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Analyze a file and preview generated questions (no database)",
	Long: `Extract text from a PDF, DOCX or text file, analyze its topics and
generate a question set.

This is a stateless developer tool: no database, no progress tracking, no
events. With --answer each question is asked on stdin and graded.`,
	RunE: runPreview,
}

func init() {
	previewCmd.Flags().String("file", "", "Path to a PDF, DOCX or text file (required)")
	previewCmd.Flags().Int("count", 5, "Number of questions to generate")
	previewCmd.Flags().Int("mastery", mastery.DefaultMastery, "Mastery level steering difficulty (0-100)")
	previewCmd.Flags().Bool("answer", false, "Answer each question interactively and grade it")
	_ = previewCmd.MarkFlagRequired("file")
}

func runPreview(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("file")
	count, _ := cmd.Flags().GetInt("count")
	level, _ := cmd.Flags().GetInt("mastery")
	interactive, _ := cmd.Flags().GetBool("answer")

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	content, err := extract.Extract(&extract.Upload{Name: filepath.Base(path), Data: data})
	if err != nil {
		return fmt.Errorf("extract %s: %w", path, err)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	// No EventRepo: nothing is recorded.
	ctx := cmd.Context()
	provider, err := llm.NewProvider(ctx, cfg.LLM, nil, logger.Nop())
	if err != nil {
		return fmt.Errorf("LLM provider: %w", err)
	}
	gw := ai.NewGateway(provider, cfg.LLM.Timeout, nil)
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "File: %s (%d characters)\n\n", path, len([]rune(content)))

	topics, err := analysis.NewAnalyzer(gw).Analyze(ctx, content)
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}
	fmt.Fprintln(out, "── Topics ──")
	for _, t := range topics.Topics() {
		fmt.Fprintf(out, "  • %s [%s] %s\n", t.Topic, t.Difficulty, t.Description)
	}
	fmt.Fprintln(out)

	fmt.Fprintf(out, "Generating %d questions at mastery %d...\n\n", count, level)
	qs, err := questiongen.New(gw, questiongen.DefaultConfig()).Generate(ctx, questiongen.GenerateInput{
		Content:      content,
		Count:        count,
		MasteryLevel: level,
		Topics:       analysis.TopicNames(topics),
	})
	if err != nil {
		return fmt.Errorf("generate questions: %w", err)
	}

	if !interactive {
		for i, q := range qs {
			printQuestion(out, i+1, len(qs), q)
			fmt.Fprintf(out, "Answer: %s\n", q.CorrectAnswer)
			if q.Explanation != "" {
				fmt.Fprintf(out, "Explanation: %s\n", q.Explanation)
			}
			fmt.Fprintln(out)
		}
		return nil
	}
	return quizInteractively(ctx, out, cmd.InOrStdin(), evaluation.NewEvaluator(gw, evaluation.DefaultConfig()), content, qs)
}

func quizInteractively(ctx context.Context, out io.Writer, in io.Reader, ev *evaluation.Evaluator, content string, qs []questiongen.Question) error {
	scanner := bufio.NewScanner(in)
	var correct, total int
	for i, q := range qs {
		printQuestion(out, i+1, len(qs), q)

		fmt.Fprint(out, "\nYour answer: ")
		if !scanner.Scan() {
			fmt.Fprintln(out, "\n(input closed)")
			break
		}
		answer := strings.TrimSpace(scanner.Text())
		if answer == "" {
			fmt.Fprintln(out, "(skipped)")
			fmt.Fprintln(out)
			continue
		}

		res, err := ev.Evaluate(ctx, evaluation.Request{
			Context:       content,
			Question:      q.QuestionText,
			StudentAnswer: answer,
			IdealAnswer:   q.CorrectAnswer,
		})
		if err != nil {
			fmt.Fprintf(out, "grading failed: %v\n\n", err)
			continue
		}
		total++
		if res.IsCorrect {
			correct++
			fmt.Fprintf(out, "\033[32m✓ %d/100\033[0m\n", res.Score)
		} else {
			fmt.Fprintf(out, "\033[31m✗ %d/100\033[0m Ideal answer: %s\n", res.Score, q.CorrectAnswer)
		}
		fmt.Fprintln(out, res.FlattenedFeedback())
		if res.MemoryTrick != "" {
			fmt.Fprintf(out, "Memory trick: %s\n", res.MemoryTrick)
		}
		fmt.Fprintln(out)
	}

	fmt.Fprintf(out, "── Summary: %d/%d correct ──\n", correct, total)
	return nil
}

func printQuestion(out io.Writer, n, total int, q questiongen.Question) {
	fmt.Fprintf(out, "── Question %d/%d · %s · %s · %s ──\n", n, total, q.Type, q.Difficulty, q.SubTopic)
	fmt.Fprintln(out, q.QuestionText)
	for j, o := range q.Options {
		fmt.Fprintf(out, "  %c) %s\n", 'A'+j, o)
	}
}
