package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kelsos/sonar-gate/internal/config"
	"github.com/kelsos/sonar-gate/internal/logger"
	"github.com/kelsos/sonar-gate/internal/models"
	"github.com/kelsos/sonar-gate/internal/services"
	"github.com/kelsos/sonar-gate/internal/storage"
	"github.com/kelsos/sonar-gate/internal/tui"
	"github.com/kelsos/sonar-gate/internal/utils"
)

type options struct {
	configPath   string
	envFile      string
	host         string
	token        string
	maxAttempts  int
	pollInterval time.Duration
	pageSize     int
	projectKey   string
	reportTask   string
	report       string
}

// loadConfig layers defaults, the config file, the environment and finally explicitly set flags
func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	if opts.envFile != "" {
		utils.LoadEnvironment(opts.envFile)
	} else {
		utils.LoadEnvironment()
	}

	cfg := config.NewConfig()
	if opts.configPath != "" {
		if err := cfg.LoadFromFile(opts.configPath); err != nil {
			return nil, err
		}
	}
	cfg.LoadFromEnvironment()

	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.HostURL = opts.host
	}
	if flags.Changed("token") {
		cfg.Token = opts.token
	}
	if flags.Changed("max-attempts") {
		cfg.MaxAttempts = opts.maxAttempts
	}
	if flags.Changed("poll-interval") {
		cfg.PollInterval = opts.pollInterval
	}
	if flags.Changed("page-size") {
		cfg.PageSize = opts.pageSize
	}
	if flags.Changed("project-key") {
		cfg.ProjectKey = opts.projectKey
	}
	if flags.Changed("report-task") {
		cfg.ReportTaskFile = opts.reportTask
	}
	if flags.Changed("report") {
		cfg.ReportFile = opts.report
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func runGate(gateService *services.GateService, taskID models.TaskID, useTUI bool) (*models.Outcome, error) {
	if !useTUI {
		return gateService.Run(taskID)
	}

	logDir, err := storage.GetLogDir()
	if err != nil {
		return nil, err
	}
	if _, err := logger.InitFileOnly(logDir); err != nil {
		return nil, err
	}
	defer func() {
		logger.Close()
		logger.Init()
	}()

	return tui.NewGateMonitor(gateService).Run(taskID)
}

func main() {
	logger.Init()

	var (
		opts       options
		taskID     string
		useTUI     bool
		analysisID string
	)

	rootCmd := &cobra.Command{
		Use:   "sonar-gate",
		Short: "Wait for a static analysis and enforce its quality gate",
		Long: `sonar-gate waits for a submitted analysis task to finish, checks the quality gate of the
resulting analysis and exits with a non-zero status unless the gate passed.`,
		Run: func(cmd *cobra.Command, args []string) {
			cfg, err := loadConfig(cmd, &opts)
			if err != nil {
				logger.Fatal("Failed to load configuration: %v", err)
			}

			gateService := services.NewGateService(cfg)

			resolvedID, err := gateService.ResolveTaskID(taskID)
			if err != nil {
				logger.Fatal("Failed to determine the analysis task: %v", err)
			}

			outcome, err := runGate(gateService, resolvedID, useTUI)

			if cfg.ReportFile != "" && outcome != nil {
				if saveErr := storage.SaveReport(cfg.ReportFile, outcome); saveErr != nil {
					logger.Error("Failed to save report: %v", saveErr)
				} else {
					logger.Info("Report written to %s", cfg.ReportFile)
				}
			}

			if err != nil {
				logger.Fatal("Quality gate check failed: %v", err)
			}

			logger.Info("Quality gate passed")
		},
	}

	gateCmd := &cobra.Command{
		Use:   "gate",
		Short: "Fetch the quality gate verdict of a finished analysis",
		Run: func(cmd *cobra.Command, args []string) {
			cfg, err := loadConfig(cmd, &opts)
			if err != nil {
				logger.Fatal("Failed to load configuration: %v", err)
			}

			result, err := services.NewGateService(cfg).FetchGateResult(models.AnalysisID(analysisID))
			if err != nil {
				logger.Fatal("Failed to fetch quality gate: %v", err)
			}

			for _, c := range result.FailedConditions() {
				logger.Warn("Condition failed: %s %s %s (actual: %s)", c.MetricKey, c.Comparator, c.ErrorThreshold, c.ActualValue)
			}

			if result.Verdict != models.VerdictPass {
				logger.Fatal("Quality gate status is %s", result.RawStatus)
			}
			logger.Info("Quality gate status is %s", result.RawStatus)
		},
	}
	gateCmd.Flags().StringVarP(&analysisID, "analysis-id", "a", "", "Analysis identifier to check")
	_ = gateCmd.MarkFlagRequired("analysis-id")

	issuesCmd := &cobra.Command{
		Use:   "issues",
		Short: "List unresolved issues of a project",
		Run: func(cmd *cobra.Command, args []string) {
			cfg, err := loadConfig(cmd, &opts)
			if err != nil {
				logger.Fatal("Failed to load configuration: %v", err)
			}

			issues, err := services.NewGateService(cfg).FetchIssues(cfg.ProjectKey)
			if err != nil {
				logger.Fatal("Failed to fetch issues: %v", err)
			}

			services.LogIssues(issues)
		},
	}

	// Flags shared by every command
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "Path to a YAML configuration file")
	flags.StringVarP(&opts.envFile, "env-file", "", "", "Additional .env file to load")
	flags.StringVarP(&opts.host, "host", "H", "", "Analysis host base URL (env SONAR_HOST_URL)")
	flags.StringVarP(&opts.token, "token", "", "", "Analysis host token (env SONAR_TOKEN)")
	flags.IntVarP(&opts.maxAttempts, "max-attempts", "r", 30, "Maximum number of task status polls")
	flags.DurationVarP(&opts.pollInterval, "poll-interval", "d", 10*time.Second, "Delay between task status polls")
	flags.IntVarP(&opts.pageSize, "page-size", "", 100, "Number of issues to list when the gate fails")
	flags.StringVarP(&opts.projectKey, "project-key", "k", "", "Project key used to list issues")

	rootCmd.Flags().StringVarP(&taskID, "task-id", "t", "", "Analysis task identifier (default: read from the report task file)")
	rootCmd.Flags().StringVarP(&opts.reportTask, "report-task", "", ".scannerwork/report-task.txt", "Scanner report task file")
	rootCmd.Flags().StringVarP(&opts.report, "report", "o", "", "Write a JSON report of the run to this file")
	rootCmd.Flags().BoolVarP(&useTUI, "tui", "", false, "Show an interactive monitor while waiting")

	rootCmd.AddCommand(gateCmd)
	rootCmd.AddCommand(issuesCmd)

	if err := rootCmd.Execute(); err != nil {
		logger.Fatal("Failed to execute command: %v", err)
	}
}
