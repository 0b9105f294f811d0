package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"xscraper/pkg/auth"
	"xscraper/pkg/browser"
	"xscraper/pkg/checkpoint"
	"xscraper/pkg/config"
	"xscraper/pkg/logger"
	"xscraper/pkg/pacing"
	"xscraper/pkg/scraper"
	"xscraper/pkg/session"
	"xscraper/pkg/storage"
	"xscraper/pkg/ui"
)

var (
	// Scrape command flags
	outputFile   string
	outputDir    string
	maxCycles    int
	cookiesFile  string
	username     string
	password     string
	accountName  string
	skipLogin    bool
	resumeRun    bool
	forceRestart bool
)

// scrapeCmd represents the scrape command
var scrapeCmd = &cobra.Command{
	Use:   "scrape <query>",
	Short: "Collect tweets from the live search results for a query",
	Long: `Collect tweets from x.com's live search results for a query.

A persisted session from a previous run is reused when it is still valid.
Otherwise the scraper logs in with credentials from:
  - The --username and --password flags
  - Stored credentials (use 'xscraper auth login' to store)
  - Environment variables (XSCRAPER_USERNAME and XSCRAPER_PASSWORD)

Results are written as a JSON array named after the query.`,
	Example: `  # Collect with default settings
  xscraper scrape "rust programming"

  # Reuse the persisted session only, never attempt a login
  xscraper scrape "rust programming" --skip-login

  # Use a specific stored account and a custom output file
  xscraper scrape golang --account myaccount --output golang.json

  # Resume an interrupted run
  xscraper scrape golang --resume`,
	Args: cobra.ExactArgs(1),
	Run:  runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	scrapeCmd.Flags().StringVarP(&outputFile, "output", "o", "", "output file name (default: <query>_tweets.json)")
	scrapeCmd.Flags().StringVar(&outputDir, "output-dir", "", "output directory (default: current directory)")
	scrapeCmd.Flags().IntVar(&maxCycles, "max-cycles", 0, "maximum number of scroll cycles")
	scrapeCmd.Flags().StringVar(&cookiesFile, "cookies", "", "session cookie file path")
	scrapeCmd.Flags().StringVarP(&username, "username", "u", "", "x.com username")
	scrapeCmd.Flags().StringVar(&password, "password", "", "x.com password (prefer 'xscraper auth login' over this flag)")
	scrapeCmd.Flags().StringVarP(&accountName, "account", "a", "", "use specific stored account")
	scrapeCmd.Flags().BoolVar(&skipLogin, "skip-login", false, "reuse the persisted session, never attempt a login")
	scrapeCmd.Flags().BoolVar(&resumeRun, "resume", false, "resume from the last checkpoint")
	scrapeCmd.Flags().BoolVar(&forceRestart, "force-restart", false, "discard any existing checkpoint")
}

func runScrape(cmd *cobra.Command, args []string) {
	query := strings.TrimSpace(args[0])
	ui.PrintInfo("Search query", query)

	cfg := loadScrapeConfig(cmd)

	if err := logger.Initialize(&cfg.Logging); err != nil {
		ui.PrintError("Failed to initialize logging", err.Error())
		os.Exit(1)
	}
	log := logger.GetLogger()
	log.WithField("version", version).Info("x scraper starting")

	notifier := ui.NewNotifier()
	store := session.NewStore(cfg.X.CookiesFile, log)

	b, err := browser.Launch(&cfg.Browser, log)
	if err != nil {
		ui.PrintError("Failed to launch browser", err.Error())
		os.Exit(1)
	}
	defer b.Close()

	sess, err := browser.NewSession(b, cfg, pacing.FromConfig(&cfg.Pacing), log)
	if err != nil {
		ui.PrintError("Failed to open browser page", err.Error())
		os.Exit(1)
	}
	feed := scraper.NewSessionFeed(sess)

	if !ensureAuthenticated(cfg, store, sess, feed, log) {
		if cfg.Notifications.Enabled && cfg.Notifications.OnError {
			notifier.SendError("X Scraper", "Authentication failed")
		}
		os.Exit(1)
	}

	s := scraper.New(feed, cfg, log)
	if mgr := checkpointManager(query, log); mgr != nil {
		s = s.WithCheckpoints(mgr, resumeRun)
	}

	ui.PrintHighlight("[COLLECTING LIVE SEARCH RESULTS]")
	result, runErr := s.Run(query)

	// Partial results are worth keeping even when the run died early.
	writeResults(cfg, query, result, log)

	if runErr != nil {
		log.WithError(runErr).WithField("query", query).Error("scrape run failed")
		ui.PrintError("COLLECTION FAILED", runErr.Error())
		if cfg.Notifications.Enabled && cfg.Notifications.OnError {
			notifier.SendError("X Scraper", fmt.Sprintf("Collection for %q failed: %v", query, runErr))
		}
		os.Exit(1)
	}

	ui.PrintSuccess(fmt.Sprintf("[COLLECTED %d TWEETS IN %d CYCLES]", len(result.Tweets), result.Cycles))
	if cfg.Notifications.Enabled && cfg.Notifications.OnComplete {
		notifier.SendSuccess("X Scraper", fmt.Sprintf("Collected %d tweets for %q", len(result.Tweets), query))
	}
}

// loadScrapeConfig merges the config file, environment and flags.
func loadScrapeConfig(cmd *cobra.Command) *config.Config {
	flags := make(map[string]interface{})
	if outputFile != "" {
		flags["output"] = outputFile
	}
	if outputDir != "" {
		flags["output-dir"] = outputDir
	}
	if maxCycles > 0 {
		flags["max-cycles"] = maxCycles
	}
	if cookiesFile != "" {
		flags["cookies"] = cookiesFile
	}
	if cmd.Flags().Changed("headless") || headless {
		flags["headless"] = headless
	}
	if logLevel != "info" {
		flags["log-level"] = logLevel
	}
	if !notifications {
		flags["notifications"] = false
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}
	return cfg
}

// ensureAuthenticated reuses the persisted session when it still works,
// and otherwise walks the login flow. It returns false when no
// authenticated session could be established.
func ensureAuthenticated(cfg *config.Config, store *session.Store, sess *browser.Session, feed *scraper.SessionFeed, log logger.Logger) bool {
	if cookies, ok := store.Load(); ok {
		if err := feed.ApplyCookies(cookies); err != nil {
			log.WithError(err).Warn("failed to install persisted cookies")
		} else if err := feed.Open(cfg.X.HomeURL); err != nil {
			log.WithError(err).Warn("failed to open home with persisted session")
		} else if auth.SessionLive(feed, cfg.Browser.SignalWait) {
			log.Info("persisted session is still authenticated")
			ui.PrintInfo("Session", "reusing persisted cookies")
			return true
		} else {
			log.Warn("persisted session is stale")
		}
	}

	if skipLogin {
		ui.PrintError("No usable persisted session", "remove --skip-login or run 'xscraper scrape' to log in again")
		return false
	}

	account := resolveAccount(log)
	if account == nil {
		return false
	}

	flow := auth.NewFlow(sess, cfg, store, promptChallenge, log)
	if err := flow.Login(account); err != nil {
		log.WithError(err).Error("login failed")
		ui.PrintError("Login failed", err.Error())
		return false
	}
	return true
}

// resolveAccount finds login credentials from flags, the credential
// manager or the environment.
func resolveAccount(log logger.Logger) *auth.Account {
	if username != "" {
		pass := password
		if pass == "" {
			fmt.Printf("Password for %s: ", username)
			input, err := readPassword()
			if err != nil {
				ui.PrintError("Failed to read password", err.Error())
				return nil
			}
			pass = input
		}
		return &auth.Account{Username: username, Password: pass}
	}

	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		return nil
	}

	if accountName != "" {
		account, err := manager.Retrieve(accountName)
		if err != nil {
			ui.PrintError("Account not found", accountName)
			ui.PrintInfo("Available accounts", "use 'xscraper auth list' to see stored accounts")
			return nil
		}
		log.WithField("account", account.Username).Info("using stored credentials")
		return account
	}

	account, err := manager.RetrieveDefault()
	if err != nil {
		ui.PrintError("No x.com credentials found", "")
		fmt.Println("\nTo store credentials securely, run:")
		fmt.Println("  xscraper auth login")
		fmt.Println("\nYou can also set environment variables:")
		fmt.Println("  export XSCRAPER_USERNAME=your_username")
		fmt.Println("  export XSCRAPER_PASSWORD=your_password")
		return nil
	}
	log.WithField("account", account.Username).Info("using stored credentials")
	return account
}

// checkpointManager builds the checkpoint manager for the query, honoring
// --force-restart. A nil return disables checkpointing for the run.
func checkpointManager(query string, log logger.Logger) *checkpoint.Manager {
	mgr, err := checkpoint.NewManager(storage.Slug(query))
	if err != nil {
		log.WithError(err).Warn("checkpointing unavailable")
		return nil
	}
	if forceRestart {
		if err := mgr.Delete(); err != nil {
			log.WithError(err).Warn("failed to discard previous checkpoint")
		}
	}
	return mgr
}

// writeResults persists whatever the run collected.
func writeResults(cfg *config.Config, query string, result *scraper.Result, log logger.Logger) {
	writer, err := storage.NewWriter(cfg.Output.Directory, log)
	if err != nil {
		ui.PrintError("Failed to prepare output directory", err.Error())
		return
	}

	filename := cfg.Output.File
	if filename == "" {
		filename = storage.DefaultFilename(query)
	}

	path, err := writer.Write(filename, result.Tweets)
	if err != nil {
		ui.PrintError("Failed to write results", err.Error())
		return
	}
	ui.PrintInfo("Results", path)
}

// promptChallenge asks the operator to answer a login verification prompt.
func promptChallenge(prompt string) (string, error) {
	fmt.Printf("\n%s\n", ui.Yellow(prompt))
	fmt.Print("Verification answer: ")
	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
