package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var vocabCmd = &cobra.Command{
	Use:   "vocab",
	Short: "Manage the skill embedding vocabulary",
}

var vocabWarmCmd = &cobra.Command{
	Use:   "warm",
	Short: "Build the skill embedding cache ahead of concurrent use",
	Run: func(_ *cobra.Command, _ []string) {
		vocabWarm()
	},
}

var vocabMatchCmd = &cobra.Command{
	Use:   "match",
	Short: "List vocabulary skills semantically present in a text",
	Run: func(cmd *cobra.Command, _ []string) {
		vocabMatch(cmd)
	},
}

func init() {
	rootCmd.AddCommand(vocabCmd)
	vocabCmd.AddCommand(vocabWarmCmd, vocabMatchCmd)

	vocabMatchCmd.Flags().String("text", "", "text to scan")
	vocabMatchCmd.Flags().String("file", "", "file to scan (pdf, docx, txt or md)")
	vocabMatchCmd.Flags().Float64("threshold", 0, "minimum similarity, defaults to semantic.threshold")
	vocabMatchCmd.Flags().Int("top", 20, "maximum number of skills to show, 0 for all")
	vocabMatchCmd.Flags().String("target-role", "", "recommend skills for this role description instead of matching")
}

func vocabWarm() {
	ctx := context.Background()
	logger, config := setup()

	d := newDeps(config, logger)
	defer d.close()

	embedder, err := d.embedder(ctx)
	if err != nil {
		logger.Fatal("creating embedder", zap.Error(err))
	}
	vocab, err := d.vocabulary(ctx, embedder)
	if err != nil {
		logger.Fatal("loading vocabulary", zap.Error(err))
	}

	logger.Info("vocabulary ready",
		zap.Int("skills", vocab.Len()),
		zap.String("model", vocab.Model()),
		zap.String("cache_file", config.Vocabulary.CacheFile),
	)
}

func vocabMatch(cmd *cobra.Command) {
	ctx := context.Background()
	logger, config := setup()

	text, err := textInput(cmd, "file", "text")
	if err != nil {
		logger.Fatal("reading input", zap.Error(err))
	}

	threshold, _ := cmd.Flags().GetFloat64("threshold")
	if !cmd.Flags().Changed("threshold") {
		threshold = config.Semantic.Threshold
	}
	top, _ := cmd.Flags().GetInt("top")
	role, _ := cmd.Flags().GetString("target-role")

	d := newDeps(config, logger)
	defer d.close()

	matcher, err := d.matcher(ctx)
	if err != nil {
		logger.Fatal("preparing semantic matcher", zap.Error(err))
	}

	if role != "" {
		current, err := matcher.Match(ctx, text, threshold, 0)
		if err != nil {
			logger.Fatal("matching skills", zap.Error(err))
		}
		names := make([]string, len(current))
		for i, s := range current {
			names[i] = s.Skill
		}
		recommended, err := matcher.Recommend(ctx, names, role, top, threshold)
		if err != nil {
			logger.Fatal("recommending skills", zap.Error(err))
		}
		if err := writeJSON(os.Stdout, recommended); err != nil {
			logger.Fatal("writing result", zap.Error(err))
		}
		return
	}

	scores, err := matcher.Match(ctx, text, threshold, top)
	if err != nil {
		logger.Fatal("matching skills", zap.Error(err))
	}
	if err := writeJSON(os.Stdout, scores); err != nil {
		logger.Fatal("writing result", zap.Error(err))
	}
}
