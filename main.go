package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"frames-scraper/config"
	"frames-scraper/db"
	"frames-scraper/notify"
	"frames-scraper/scheduler"
	"frames-scraper/sheets"

	"github.com/joho/godotenv"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	siteName := flag.String("site", "", "Scrape only the named site (default: all configured sites)")
	outDir := flag.String("out", "", "Output directory (overrides config)")
	maxPages := flag.Int("pages", 0, "Maximum number of pages to scrape (overrides config)")
	interval := flag.Duration("interval", 0, "Re-run the scrape on this interval (0 = run once and exit)")
	useDB := flag.Bool("db", false, "Also save sessions to Postgres (DATABASE_URL / DB_* env)")
	spreadsheetURL := flag.String("spreadsheet", "", "Google Sheets URL to export sessions to (optional)")
	credentialsPath := flag.String("credentials", "", "Path to Google service account credentials JSON file (or use GOOGLE_SHEETS_CREDENTIALS env var)")
	flag.Parse()

	// .env is optional; real env vars win.
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env")
	}

	cfg := loadConfig(*configPath)
	applyOverrides(cfg, *siteName, *outDir, *maxPages)

	var database *db.DB
	if *useDB {
		var err error
		database, err = db.NewDB()
		if err != nil {
			log.Fatalf("Failed to initialize database: %v\n", err)
		}
		defer database.Close()
		log.Println("Database initialized successfully")
	}

	var sheetsWriter *sheets.Writer
	if *spreadsheetURL != "" {
		spreadsheetID := sheets.ExtractSpreadsheetID(*spreadsheetURL)
		if spreadsheetID == "" {
			log.Fatalf("Could not extract spreadsheet ID from URL: %s\n", *spreadsheetURL)
		}
		var err error
		sheetsWriter, err = sheets.NewWriter(spreadsheetID, *credentialsPath)
		if err != nil {
			log.Fatalf("Failed to initialize Google Sheets writer: %v\n", err)
		}
		log.Printf("Google Sheets export enabled for spreadsheet %s\n", spreadsheetID)
	}

	notifier, err := notify.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to initialize Telegram notifier: %v\n", err)
	}
	if notifier != nil {
		log.Println("Telegram notifications enabled")
	}

	sched := scheduler.New(cfg, database, sheetsWriter, notifier, *interval)

	if *interval <= 0 {
		if err := sched.RunOnce(); err != nil {
			log.Fatalf("Scraping failed: %v\n", err)
		}
		return
	}

	sched.Start()
	log.Printf("Scheduler started with interval %s\n", *interval)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	sched.Stop()
}

// loadConfig loads configuration from file or falls back to the built-in
// FramesDirect defaults.
func loadConfig(configPath string) *config.Config {
	if _, err := os.Stat(configPath); err == nil {
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			log.Fatalf("Failed to load config file: %v\n", err)
		}
		return cfg
	}
	log.Println("Config file not found. Using default configuration.")
	return config.GetDefaultConfig()
}

// applyOverrides narrows the loaded config down to the flags' choices.
func applyOverrides(cfg *config.Config, siteName, outDir string, maxPages int) {
	if siteName != "" {
		var kept []config.Site
		for _, s := range cfg.Sites {
			if s.Name == siteName {
				kept = append(kept, s)
			}
		}
		if len(kept) == 0 {
			log.Fatalf("Unknown site %q in config\n", siteName)
		}
		cfg.Sites = kept
	}
	if outDir != "" {
		cfg.OutputDir = outDir
	}
	if maxPages > 0 {
		for i := range cfg.Sites {
			if cfg.Sites[i].Pagination.Mode != config.PaginationNone {
				cfg.Sites[i].Pagination.MaxPages = maxPages
			}
		}
	}
}
