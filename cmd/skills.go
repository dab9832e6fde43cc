package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/spigell/resume-screener/internal/extract"
	"github.com/spigell/resume-screener/internal/logger"
	"github.com/spigell/resume-screener/internal/skills"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var skillsCmd = &cobra.Command{
	Use:   "skills",
	Short: "Print the skill taxonomy, or the top matches for a resume",
	Run: func(cmd *cobra.Command, _ []string) {
		listSkills(cmd)
	},
}

func init() {
	rootCmd.AddCommand(skillsCmd)

	skillsCmd.Flags().StringP("resume", "r", "", "resume file to match against the taxonomy")
}

func listSkills(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	out := cmd.OutOrStdout()

	resume, _ := cmd.Flags().GetString("resume")
	if resume == "" {
		printTaxonomy(out, skills.Default.With(config.Skills.Extra...))
		return
	}

	c, err := buildComponents(ctx, config, logger)
	if err != nil {
		logger.Fatal("building components", zap.Error(err))
	}

	data, err := os.ReadFile(resume)
	if err != nil {
		logger.Fatal("reading resume", zap.Error(err))
	}

	text, err := extract.Text(data, filepath.Base(resume))
	if err != nil {
		logger.Fatal("extracting resume text", zap.Error(err))
	}

	matches, err := c.screener.Skills(ctx, text)
	if err != nil {
		logger.Fatal("matching skills", zap.Error(err))
	}

	if err := printSkills(out, matches); err != nil {
		logger.Fatal("printing skills", zap.Error(err))
	}
}

func printTaxonomy(w io.Writer, taxonomy skills.Taxonomy) {
	for _, skill := range taxonomy {
		fmt.Fprintln(w, skill)
	}
}
