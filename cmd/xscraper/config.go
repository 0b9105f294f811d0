package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"xscraper/pkg/config"
	"xscraper/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage scraper configuration",
	Long: `Manage scraper configuration.

Configuration is resolved in order: built-in defaults, an optional .env
file, the YAML config file, XSCRAPER_* environment variables, and
finally command-line flags.`,
}

// configShowCmd prints the effective configuration
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Run:   runConfigShow,
}

// configInitCmd writes an example configuration file
var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write an example configuration file",
	Args:  cobra.MaximumNArgs(1),
	Run:   runConfigInit,
}

// configValidateCmd checks the configuration for problems
var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Run:   runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	out, err := yaml.Marshal(cfg)
	if err != nil {
		ui.PrintError("Failed to render configuration", err.Error())
		os.Exit(1)
	}

	ui.PrintHighlight("[EFFECTIVE CONFIGURATION]")
	fmt.Println(string(out))
	fmt.Println(ui.Dim("Sources: defaults < .env < config file < XSCRAPER_* env < flags"))
}

func runConfigInit(cmd *cobra.Command, args []string) {
	path := "xscraper.yaml"
	if len(args) == 1 {
		path = args[0]
	}

	if _, err := os.Stat(path); err == nil {
		ui.PrintError("File already exists", path)
		os.Exit(1)
	}

	if err := os.WriteFile(path, []byte(exampleConfig), 0644); err != nil {
		ui.PrintError("Failed to write configuration file", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess(fmt.Sprintf("Wrote example configuration to %s", path))
	fmt.Println("\nEdit the file and re-run with:")
	fmt.Printf("  xscraper --config %s scrape <query>\n", path)
}

func runConfigValidate(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		ui.PrintError("Configuration is invalid", err.Error())
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		ui.PrintError("Configuration is invalid", err.Error())
		os.Exit(1)
	}
	ui.PrintSuccess("Configuration is valid")
}

const exampleConfig = `# X Scraper configuration
# All values shown are the defaults.

x:
  login_url: https://x.com/i/flow/login
  home_url: https://x.com/home
  search_url: https://x.com/search?q=%s&src=typed_query&f=live
  cookies_file: x_cookies.json

browser:
  headless: false
  # chrome_path: /usr/bin/chromium
  user_agent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
  locale: en-US
  window_width: 1200
  window_height: 800
  slow_motion: 100ms
  nav_attempts: 3
  nav_cooldown: 5s
  element_wait: 15s
  signal_wait: 2s
  challenge_wait: 8s

scrape:
  max_cycles: 15
  scroll_pixels: 3000
  min_text_length: 10
  empty_cycle_max: 2
  no_new_cycle_max: 3
  checkpoint_each: 1

pacing:
  navigate: 3s
  scroll: 4s
  field_filled: 1s
  submit: 4s
  login: 8s
  verify: 5s
  search: 5s

output:
  directory: .
  # file: custom_name.json

notifications:
  enabled: true
  on_complete: true
  on_error: true

logging:
  level: info
  # file: xscraper.log
  max_size: 100
  max_backups: 3
  max_age: 7
  compress: false
`
