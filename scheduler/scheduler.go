package scheduler

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"frames-scraper/config"
	"frames-scraper/db"
	"frames-scraper/fetcher"
	"frames-scraper/filter"
	"frames-scraper/models"
	"frames-scraper/notify"
	"frames-scraper/output"
	"frames-scraper/scraper"
	"frames-scraper/sheets"
)

// Scheduler runs scrape passes over all configured sites, either once or on
// a fixed interval. In interval mode every pass writes into its own
// timestamped subfolder, so runs never overwrite each other and no cross-run
// merging happens.
type Scheduler struct {
	cfg      *config.Config
	database *db.DB         // optional, nil disables the Postgres sink
	sheetsW  *sheets.Writer // optional, nil disables the Sheets export
	notifier *notify.Notifier
	interval time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
}

// New creates a scheduler. database, sheetsW and notifier may be nil.
func New(cfg *config.Config, database *db.DB, sheetsW *sheets.Writer, notifier *notify.Notifier, interval time.Duration) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cfg:      cfg,
		database: database,
		sheetsW:  sheetsW,
		notifier: notifier,
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start launches the interval loop in a goroutine. The first pass runs
// immediately, subsequent ones every interval.
func (s *Scheduler) Start() {
	go s.run()
}

// Stop cancels the loop.
func (s *Scheduler) Stop() {
	s.cancel()
	log.Println("Scheduler stopped")
}

func (s *Scheduler) run() {
	s.pass()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.pass()
		}
	}
}

// pass scrapes every configured site into a timestamped subfolder.
func (s *Scheduler) pass() {
	runDir := filepath.Join(s.cfg.OutputDir, time.Now().Format("20060102_150405"))
	log.Printf("Starting scheduled pass, output dir: %s\n", runDir)

	for i := range s.cfg.Sites {
		site := &s.cfg.Sites[i]
		if err := s.RunSite(site, filepath.Join(runDir, site.Name)); err != nil {
			log.Printf("Error: site %s failed: %v\n", site.Name, err)
			s.notifyFailure(site.Name, err)
		}
	}
}

// RunOnce runs a single pass over all sites into the configured output
// directory. With more than one site each gets its own subfolder.
func (s *Scheduler) RunOnce() error {
	var firstErr error
	for i := range s.cfg.Sites {
		site := &s.cfg.Sites[i]
		dir := s.cfg.OutputDir
		if len(s.cfg.Sites) > 1 {
			dir = filepath.Join(dir, site.Name)
		}
		if err := s.RunSite(site, dir); err != nil {
			log.Printf("Error: site %s failed: %v\n", site.Name, err)
			s.notifyFailure(site.Name, err)
			if firstErr == nil {
				firstErr = fmt.Errorf("site %s: %w", site.Name, err)
			}
		}
	}
	return firstErr
}

// RunSite scrapes one site end to end: fetch + extract across pages, filter,
// write CSV/JSON, then feed the optional sinks.
func (s *Scheduler) RunSite(site *config.Site, outDir string) error {
	f, err := newFetcher(site)
	if err != nil {
		return fmt.Errorf("failed to create fetcher: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Printf("Warning: failed to close fetcher: %v\n", err)
		}
	}()

	runner, err := scraper.NewRunner(site, f)
	if err != nil {
		return err
	}
	session, err := runner.Run()
	if err != nil {
		return err
	}

	s.applyFilters(site, session)

	if err := output.NewWriter(outDir).Write(session); err != nil {
		return err
	}
	log.Printf("Wrote %d records to %s\n", session.Len(), outDir)

	if s.database != nil {
		runID, err := s.database.SaveSession(session)
		if err != nil {
			log.Printf("Warning: failed to save session to database: %v\n", err)
		} else {
			log.Printf("Saved session as run %d\n", runID)
		}
	}

	if s.sheetsW != nil {
		sheetName := fmt.Sprintf("%s_%s", site.Name, time.Now().Format("20060102_150405"))
		if _, err := s.sheetsW.WriteSession(sheetName, session); err != nil {
			log.Printf("Warning: failed to write to Google Sheets: %v\n", err)
		}
	}

	if s.notifier != nil {
		if err := s.notifier.SessionDone(session, outDir); err != nil {
			log.Printf("Warning: failed to send notification: %v\n", err)
		}
	}

	return nil
}

func (s *Scheduler) applyFilters(site *config.Site, session *models.Session) {
	fl := filter.NewFilter(&site.Filters)
	if !fl.Enabled() {
		return
	}
	before := session.Len()
	session.Records = fl.Apply(session.Records)
	log.Printf("Filters kept %d of %d records\n", session.Len(), before)
}

func (s *Scheduler) notifyFailure(site string, err error) {
	if s.notifier == nil {
		return
	}
	if nerr := s.notifier.RunFailed(site, err); nerr != nil {
		log.Printf("Warning: failed to send failure notification: %v\n", nerr)
	}
}

// newFetcher builds the fetcher kind the site config asks for.
func newFetcher(site *config.Site) (fetcher.Fetcher, error) {
	switch site.Fetcher {
	case config.FetcherColly:
		return fetcher.NewCollyFetcher(), nil
	default:
		return fetcher.NewRodFetcher(site.WaitSelector, site.WaitTimeout())
	}
}
