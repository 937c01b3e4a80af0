package cmd

import (
	"context"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/resume-matcher/internal/document"
	"github.com/spigell/resume-matcher/internal/pipeline"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Score a resume against a job description",
	Run: func(cmd *cobra.Command, _ []string) {
		analyze(cmd)
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringP("resume", "r", "", "resume file (pdf, docx, txt or md)")
	analyzeCmd.Flags().String("resume-text", "", "resume text, used instead of --resume")
	analyzeCmd.Flags().StringP("job", "J", "", "job description file")
	analyzeCmd.Flags().String("job-text", "", "job description text, used instead of --job")
	analyzeCmd.Flags().Bool("semantic", false, "add embedding based skill comparison")
	analyzeCmd.Flags().Bool("profile", false, "add an LLM extracted resume profile (requires a Gemini API key)")
	analyzeCmd.Flags().Bool("no-cache", false, "do not read or write the result cache")
	analyzeCmd.Flags().StringP("output", "o", outputPretty, "output format: pretty or json")
}

func analyze(cmd *cobra.Command) {
	ctx := context.Background()
	logger, config := setup()

	semanticFlag, _ := cmd.Flags().GetBool("semantic")
	profileFlag, _ := cmd.Flags().GetBool("profile")
	noCache, _ := cmd.Flags().GetBool("no-cache")
	output, _ := cmd.Flags().GetString("output")

	jobText, err := textInput(cmd, "job", "job-text")
	if err != nil {
		logger.Fatal("reading job description", zap.Error(err))
	}

	d := newDeps(config, logger)
	defer d.close()

	analyzer, err := d.analyzer(ctx, analyzerOptions{semantic: semanticFlag, profile: profileFlag, cache: !noCache})
	if err != nil {
		logger.Fatal("preparing analyzer", zap.Error(err))
	}

	var res *pipeline.Result
	resumePath, _ := cmd.Flags().GetString("resume")
	if resumeText, _ := cmd.Flags().GetString("resume-text"); resumeText != "" || resumePath == "" {
		res = analyzer.Analyze(ctx, resumeText, jobText)
	} else {
		res = analyzer.AnalyzeFile(ctx, resumePath, jobText)
	}

	if err := writeResult(os.Stdout, output, res); err != nil {
		logger.Fatal("writing result", zap.Error(err))
	}
	if !res.Success {
		os.Exit(1)
	}
}

// textInput returns the inline flag value or the contents of the file flag.
func textInput(cmd *cobra.Command, fileFlag, textFlag string) (string, error) {
	if text, _ := cmd.Flags().GetString(textFlag); strings.TrimSpace(text) != "" {
		return text, nil
	}
	path, _ := cmd.Flags().GetString(fileFlag)
	if strings.TrimSpace(path) == "" {
		return "", nil
	}
	return document.ReadFile(path)
}
