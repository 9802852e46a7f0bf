package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"taskdeck/internal/api"
	"taskdeck/internal/config"
	"taskdeck/internal/localdb"
	"taskdeck/internal/notify"
	"taskdeck/internal/session"
	"taskdeck/internal/store"
	"taskdeck/internal/ui"
)

// Version information set via ldflags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// Handle version flag
	if len(os.Args) > 1 && (os.Args[1] == "--version" || os.Args[1] == "-v") {
		fmt.Printf("taskdeck %s (commit: %s, built: %s)\n", version, commit, date)
		os.Exit(0)
	}

	// A .env file is optional
	_ = godotenv.Load()

	cfgPath, err := config.DefaultConfigPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving config path: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Initialize local state database
	database, err := localdb.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing database: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()

	// Notices flow from the stores to the UI over this channel. The
	// send never blocks so a full buffer just drops the notice.
	notices := make(chan notify.Notice, 16)
	notifier := notify.Func(func(n notify.Notice) {
		select {
		case notices <- n:
		default:
		}
	})

	sess := session.NewStore(database, notifier)
	client := api.NewClient(cfg.APIBaseURL, cfg.Timeout(), sess)
	sess.SetAPI(client)
	if err := sess.Initialize(); err != nil {
		fmt.Fprintf(os.Stderr, "Error restoring session: %v\n", err)
		os.Exit(1)
	}

	st := store.New(client, notifier)

	app := ui.NewApp(sess, st, database, notices)
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running application: %v\n", err)
		os.Exit(1)
	}
}
