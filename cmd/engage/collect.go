package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"engage/internal/browser"
	"engage/pkg/config"
	"engage/pkg/export"
	"engage/pkg/logger"
	"engage/pkg/orchestrator"
	"engage/pkg/secrets"
	"engage/pkg/ui"
)

var collectFlags struct {
	debuggerURL string
	headless    bool
	mode        string
	webhook     string
	output      string
	filter      string
	credential  string
	max         int
}

var collectCmd = &cobra.Command{
	Use:   "collect <post-url>",
	Short: "Collect reactors, commenters and reposters of a post",
	Long: `Open a post in the browser and collect the people who reacted, commented
or reposted. Stages run in that order; a stage the post does not offer is
skipped. Collection stops at the global cap (2000 by default).

The browser must already be signed in. Point --debugger-url at a running
Chrome started with --remote-debugging-port, or let engage launch one.`,
	Example: `  # Attach to a running Chrome and write a CSV in the current directory
  engage collect --debugger-url http://127.0.0.1:9222 https://www.linkedin.com/feed/update/urn:li:activity:7100000000000000000/

  # Post to a webhook, keeping only second-degree connections
  engage collect --webhook https://hooks.example.com/in --filter 'degree == "2nd"' <post-url>`,
	Args: cobra.ExactArgs(1),
	RunE: runCollect,
}

func init() {
	f := collectCmd.Flags()
	f.StringVar(&collectFlags.debuggerURL, "debugger-url", "", "DevTools URL of a running browser")
	f.BoolVar(&collectFlags.headless, "headless", false, "launch the browser headless")
	f.StringVar(&collectFlags.mode, "mode", "", "export mode (local, remote)")
	f.StringVar(&collectFlags.webhook, "webhook", "", "webhook endpoint; implies --mode remote")
	f.StringVarP(&collectFlags.output, "output", "o", "", "directory for CSV files")
	f.StringVar(&collectFlags.filter, "filter", "", "CEL expression selecting exported rows")
	f.StringVar(&collectFlags.credential, "credential", "", "name of the stored webhook token")
	f.IntVar(&collectFlags.max, "max", 0, "global cap on collected people")
	rootCmd.AddCommand(collectCmd)
}

func collectFlagMap(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	set := func(name string, v interface{}) {
		if cmd.Flags().Changed(name) {
			flags[name] = v
		}
	}
	set("debugger-url", collectFlags.debuggerURL)
	set("headless", collectFlags.headless)
	set("mode", collectFlags.mode)
	set("webhook", collectFlags.webhook)
	set("output", collectFlags.output)
	set("filter", collectFlags.filter)
	set("credential", collectFlags.credential)
	set("max", collectFlags.max)
	if logLevel != "" {
		flags["log-level"] = logLevel
	}
	return flags
}

func validatePostURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("not a post URL: %q", raw)
	}
	return raw, nil
}

func runCollect(cmd *cobra.Command, args []string) error {
	postURL, err := validatePostURL(args[0])
	if err != nil {
		return err
	}

	cfg, err := config.Load(configFile, collectFlagMap(cmd))
	if err != nil {
		return err
	}
	if err := logger.Initialize(&cfg.Logging); err != nil {
		return err
	}
	log := logger.GetLogger()

	if !quiet {
		ui.PrintLogo()
		ui.PrintInfo("Post", postURL)
		ui.PrintInfo("Export", describeExport(&cfg.Export))
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	token, err := webhookToken(&cfg.Export)
	if err != nil {
		return err
	}
	exp, err := export.FromConfig(&cfg.Export, token, log)
	if err != nil {
		return err
	}
	ocfg, err := orchestrator.FromConfig(cfg)
	if err != nil {
		return err
	}

	sess, err := browser.Connect(ctx, cfg.Browser, log)
	if err != nil {
		return fmt.Errorf("browser: %w", err)
	}
	defer sess.Close()

	page, err := sess.Open(ctx, postURL)
	if err != nil {
		return fmt.Errorf("open post: %w", err)
	}

	var reporter orchestrator.Reporter = ui.NewProgressDisplay(os.Stdout, verbose)
	if quiet {
		reporter = nil
	}
	opts := []orchestrator.Option{orchestrator.WithLogger(log)}
	if reporter != nil {
		opts = append(opts, orchestrator.WithReporter(reporter))
	}
	run := orchestrator.New(page, exp, ocfg, opts...)

	sum, err := run.Run(ctx)
	notifier := ui.NewNotifier(os.Stdout, notifications)
	if err != nil {
		if notifications {
			notifier.SendError("engage", "Export failed")
		}
		return err
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		ui.PrintWarning("Interrupted, partial results were exported")
	}
	if notifications {
		notifier.SendSuccess("engage", fmt.Sprintf("Exported %d people to %s", sum.Exported, sum.Delivery.Target))
	}
	return nil
}

func describeExport(c *config.ExportConfig) string {
	if c.Mode == config.ModeRemote {
		return "webhook " + c.Endpoint + " (local fallback in " + c.OutputDir + ")"
	}
	return "CSV in " + c.OutputDir
}

func webhookToken(c *config.ExportConfig) (string, error) {
	if c.Mode != config.ModeRemote {
		return "", nil
	}
	mgr, err := secrets.NewManager()
	if err != nil {
		return "", fmt.Errorf("token store: %w", err)
	}
	return mgr.Resolve(c.Credential)
}
