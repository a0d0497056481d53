package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"jobsieve/internal/fetch"
	"jobsieve/internal/job"
	"jobsieve/internal/listing"
	"jobsieve/internal/logger"
	"jobsieve/internal/pipeline"
	"jobsieve/internal/score"
	"jobsieve/internal/secrets"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	PromptYes               = "Yes"
	PromptNo                = "No"
	PromptReportByCompany   = "Report by company"
	PromptCandidatesToFile  = "Dump candidates to a temporary file"
	defaultCandidatesOutput = "candidates.json"
)

var errExit = errors.New("exit requested")

var prompt = promptui.Select{
	Label: "Hand the candidates off?",
	Items: []string{PromptYes, PromptNo, PromptReportByCompany, PromptCandidatesToFile},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the jobsieve pipeline",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolP("auto-approve", "y", false, "do not ask for confirmation before writing the candidate set")
	runCmd.Flags().StringP("output", "o", "", "file for the final candidate set. Default is "+defaultCandidatesOutput)

	viper.BindPFlag("output.file", runCmd.Flags().Lookup("output"))
}

// run is the main command for the cli.
func run(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting jobsieve", zap.String("version", version))

	if config == nil {
		logger.Fatal("config is required")
	}

	if config.Source == nil || config.Source.Endpoint == "" {
		logger.Fatal("listing endpoint is required under source.endpoint")
	}

	if len(config.Source.Boards) == 0 {
		logger.Fatal("at least one board is required under source.boards")
	}

	applyDefaults(config)

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	token, err := resolveToken(config)
	if err != nil {
		logger.Warn(
			"running without a listing token",
			zap.Error(err),
			zap.String("hint", "set JOBSIEVE_TOKEN_FILE environment variable or the 'source.token-file' key in the configuration file"),
		)
	}

	sources := make([]listing.Source, 0, len(config.Source.Boards))
	for _, board := range config.Source.Boards {
		sources = append(sources, listing.NewClient(config.Source.Endpoint, board, token, logger))
	}

	scorer := score.New(score.Profile{
		TargetRoles: config.Profile.TargetRoles,
		Skills:      config.Profile.Skills,
	})

	fetcher := fetch.NewHTTP(config.Enrich.FetchTimeout, config.Enrich.RatePerSec, logger)

	p := pipeline.New(
		listing.NewMulti(sources, config.Source.Timeout, logger),
		scorer,
		fetcher,
		pipeline.Config{
			MinScore:         config.Filters.MinScore,
			CheckSponsorship: config.Filters.CheckSponsorship,
			TargetRoles:      config.Profile.TargetRoles,
			TopPerCompany:    config.Filters.TopPerCompany,
			Workers:          config.Enrich.Workers,
			EnrichDeadline:   config.Enrich.Deadline,
			FetchTimeout:     config.Enrich.FetchTimeout,
		},
		logger,
	)

	candidates, rep, err := p.Run(ctx)
	if err != nil {
		if errors.Is(err, pipeline.ErrNoPostings) {
			logger.Fatal("exiting", zap.String("reason", "no postings to process"))
		}
		logger.Fatal("pipeline failed", zap.Error(err))
	}

	// do not bother error since the report is built from plain counters
	summary, _ := json.MarshalIndent(rep, "", "  ")
	logger.Info(fmt.Sprintf("run report: \n %s", summary))

	if candidates.Len() == 0 {
		logger.Info("exiting", zap.String("reason", "no candidates left after the pipeline"))
		return
	}

	action := PromptYes
	for {
		var err error
		if cmd.Flag("auto-approve").Value.String() == "false" {
			_, action, err = prompt.Run()
			if err != nil {
				logger.Fatal("exiting", zap.Error(err))
			}
		}

		logger.Info("current list of candidates", zap.Int("count", candidates.Len()))

		if err := handleAction(action, logger, candidates); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func handleAction(action string, logger *zap.Logger, candidates *job.Records) error {
	switch action {
	case PromptYes:
		output := viper.GetString("output.file")
		if output == "" {
			output = defaultCandidatesOutput
		}
		if err := candidates.DumpToFile(output); err != nil {
			return fmt.Errorf("writing candidates to file: %w", err)
		}
		logger.Info("candidates handed off", zap.String("filename", output), zap.Int("count", candidates.Len()))
		return errExit
	case PromptNo:
		logger.Info("exiting", zap.String("reason", "got no from prompt"))
		return errExit
	case PromptReportByCompany:
		pretty, _ := json.MarshalIndent(candidates.ReportByCompany(), "", "  ")
		logger.Info(string(pretty), zap.Int("candidates count", candidates.Len()))
		return nil
	case PromptCandidatesToFile:
		filename, err := candidates.DumpToTmpFile()
		if err != nil {
			return fmt.Errorf("dump candidates to file: %w", err)
		}
		logger.Info("dumping candidates to file", zap.String("filename", filename))
		return nil
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func resolveToken(config *Config) (string, error) {
	tokenFile := strings.TrimSpace(config.Source.TokenFile)
	if tokenFile == "" {
		tokenFile = strings.TrimSpace(viper.GetString("source.token-file"))
	}

	if tokenFile == "" {
		return "", errors.New("listing token file is not configured")
	}

	return secrets.Load(secrets.Source{
		Name: "listing token",
		File: tokenFile,
	})
}
