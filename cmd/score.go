package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spigell/resume-screener/internal/logger"
	"github.com/spigell/resume-screener/internal/screening"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	outputText = "text"
	outputJSON = "json"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score one resume against a job description",
	Run: func(cmd *cobra.Command, _ []string) {
		score(cmd)
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().StringP("resume", "r", "", "resume file (.pdf, .txt, .md)")
	scoreCmd.Flags().String("job-desc", "", "job description text")
	scoreCmd.Flags().String("job-desc-file", "", "file with the job description")
	scoreCmd.Flags().StringP("job-title", "t", "", "job title (optional)")
	scoreCmd.Flags().StringP("output", "o", outputText, "output format: text or json")
	scoreCmd.Flags().BoolP("interactive", "i", false, "prompt for missing inputs")
}

type scoreInput struct {
	resume      string
	jobTitle    string
	jobDesc     string
	jobDescFile string
}

func score(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	output, _ := cmd.Flags().GetString("output")
	if output != outputText && output != outputJSON {
		logger.Fatal("invalid output format", zap.String("output", output))
	}

	in := scoreInput{}
	in.resume, _ = cmd.Flags().GetString("resume")
	in.jobTitle, _ = cmd.Flags().GetString("job-title")
	in.jobDesc, _ = cmd.Flags().GetString("job-desc")
	in.jobDescFile, _ = cmd.Flags().GetString("job-desc-file")

	if interactive, _ := cmd.Flags().GetBool("interactive"); interactive {
		if err := promptMissing(&in); err != nil {
			logger.Fatal("reading input", zap.Error(err))
		}
	}

	req, err := in.request()
	if err != nil {
		logger.Fatal("preparing request", zap.Error(err))
	}

	logger.Info("starting the resume-screener", zap.String("version", version))

	c, err := buildComponents(ctx, config, logger)
	if err != nil {
		logger.Fatal("building components", zap.Error(err))
	}

	report, err := c.screener.Screen(ctx, req)
	if err != nil {
		logger.Fatal("screening failed", zap.Error(err))
	}

	if err := printReport(cmd.OutOrStdout(), report, output); err != nil {
		logger.Fatal("printing report", zap.Error(err))
	}
}

func (in scoreInput) request() (screening.Request, error) {
	req := screening.Request{
		Filename: strings.TrimSpace(in.resume),
		JobTitle: in.jobTitle,
	}

	if in.jobDesc != "" && in.jobDescFile != "" {
		return req, errors.New("use only one of --job-desc and --job-desc-file")
	}

	req.JobDescription = in.jobDesc
	if in.jobDescFile != "" {
		data, err := os.ReadFile(in.jobDescFile)
		if err != nil {
			return req, fmt.Errorf("reading job description: %w", err)
		}
		req.JobDescription = string(data)
	}

	if req.Filename == "" {
		return req, nil
	}

	data, err := os.ReadFile(req.Filename)
	if err != nil {
		return req, fmt.Errorf("reading resume: %w", err)
	}
	req.Data = data

	return req, nil
}

func promptMissing(in *scoreInput) error {
	if strings.TrimSpace(in.resume) == "" {
		p := promptui.Prompt{
			Label: "Resume file",
			Validate: func(s string) error {
				if _, err := os.Stat(strings.TrimSpace(s)); err != nil {
					return errors.New("file not found")
				}
				return nil
			},
		}
		v, err := p.Run()
		if err != nil {
			return err
		}
		in.resume = strings.TrimSpace(v)
	}

	if in.jobTitle == "" {
		p := promptui.Prompt{Label: "Job title (optional)"}
		v, err := p.Run()
		if err != nil {
			return err
		}
		in.jobTitle = v
	}

	if strings.TrimSpace(in.jobDesc) == "" && in.jobDescFile == "" {
		p := promptui.Prompt{
			Label: "Job description",
			Validate: func(s string) error {
				if strings.TrimSpace(s) == "" {
					return screening.ErrEmptyJobDescription
				}
				return nil
			},
		}
		v, err := p.Run()
		if err != nil {
			return err
		}
		in.jobDesc = v
	}

	return nil
}
