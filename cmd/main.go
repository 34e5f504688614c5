package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"golang.org/x/oauth2"

	"smartsched/internal/google"
	"smartsched/internal/icloud"
	"smartsched/internal/scheduler"
)

func main() {
	// Load .env file first, but don't error if it doesn't exist.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "smartsched",
		Usage: "Suggest meeting times and analyze calendar health.",
		Commands: []*cli.Command{
			authCommand(),
			suggestCommand(),
			optimizeCommand(),
			calendarsCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

func authCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authenticate with a Google account to get an API token.",
		Action: func(c *cli.Context) error {
			logger := setupLogger("info")
			logger.Info("Starting Google authentication flow.")

			config, err := google.GetOAuthConfigForAuthFlow(os.Getenv("GOOGLE_CLIENT_ID"), os.Getenv("GOOGLE_CLIENT_SECRET"))
			if err != nil {
				return fmt.Errorf("failed to get google oauth config: %w", err)
			}

			authURL := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
			fmt.Printf("Go to the following link in your browser then type the "+
				"authorization code: \n%v\n", authURL)

			fmt.Print("Enter Authorization Code: ")
			reader := bufio.NewReader(os.Stdin)
			authCode, _ := reader.ReadString('\n')
			authCode = strings.TrimSpace(authCode)

			token, err := google.TokenFromWeb(config, authCode)
			if err != nil {
				return fmt.Errorf("unable to retrieve token from web: %w", err)
			}

			fmt.Print("Enter a name for this account (e.g., 'personal', 'work'): ")
			accountName, _ := reader.ReadString('\n')
			accountName = strings.TrimSpace(accountName)
			tokenFile := "token-" + accountName + ".json"

			if err := google.SaveToken(tokenFile, token); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			logger.Info("Successfully authenticated and saved token.", "file", tokenFile)
			return nil
		},
	}
}

func suggestCommand() *cli.Command {
	return &cli.Command{
		Name:  "suggest",
		Usage: "Find the best available time slots for a meeting.",
		Flags: append(commonFlags(),
			&cli.StringFlag{Name: "title", Usage: "Meeting title.", Required: true},
			&cli.IntFlag{Name: "duration", Value: 60, Usage: "Meeting duration in minutes."},
			&cli.StringFlag{Name: "attendees", Usage: "Comma-separated attendee emails."},
			&cli.StringFlag{Name: "organizer", Usage: "Organizer email. Defaults to the primary calendar."},
			&cli.IntFlag{Name: "horizon", Value: 14, Usage: "How many days ahead to search."},
		),
		Action: func(c *cli.Context) error {
			logger := setupLoggerFromEnv()

			sched, err := buildScheduler(c, logger, scheduler.WithHorizon(c.Int("horizon")))
			if err != nil {
				return err
			}

			var attendees []string
			if raw := c.String("attendees"); raw != "" {
				for _, a := range strings.Split(raw, ",") {
					attendees = append(attendees, strings.TrimSpace(a))
				}
			}

			req := &scheduler.MeetingRequest{
				Title:           c.String("title"),
				DurationMinutes: c.Int("duration"),
				Attendees:       attendees,
				Organizer:       c.String("organizer"),
			}

			ctx, cancel := context.WithTimeout(c.Context, c.Duration("timeout"))
			defer cancel()

			slots := sched.ResolveConflicts(ctx, req)
			if len(slots) == 0 {
				fmt.Println("No viable time slots found.")
				return nil
			}

			fmt.Printf("Best times for %q (%d minutes):\n", req.Title, req.DurationMinutes)
			for i, slot := range slots {
				fmt.Printf("%d. %s - %s (score %.1f)\n", i+1,
					slot.Start.Format("Mon Jan 2 15:04"),
					slot.End.Format("15:04"),
					slot.Score)
				for _, note := range slot.Notes {
					fmt.Printf("   - %s\n", note)
				}
			}
			return nil
		},
	}
}

func optimizeCommand() *cli.Command {
	return &cli.Command{
		Name:  "optimize",
		Usage: "Scan the calendar for health issues and print suggestions.",
		Flags: append(commonFlags(),
			&cli.StringFlag{Name: "from", Usage: "Start date (YYYY-MM-DD). Defaults to today."},
			&cli.IntFlag{Name: "days", Value: 7, Usage: "Number of days to analyze."},
		),
		Action: func(c *cli.Context) error {
			logger := setupLoggerFromEnv()

			sched, err := buildScheduler(c, logger)
			if err != nil {
				return err
			}

			loc, err := primaryLocation()
			if err != nil {
				return err
			}

			start := time.Now().In(loc)
			if from := c.String("from"); from != "" {
				start, err = time.ParseInLocation("2006-01-02", from, loc)
				if err != nil {
					return fmt.Errorf("invalid --from date '%s': %w", from, err)
				}
			}

			ctx, cancel := context.WithTimeout(c.Context, c.Duration("timeout"))
			defer cancel()

			suggestions := sched.OptimizeCalendar(ctx, start, c.Int("days"))
			if len(suggestions) == 0 {
				fmt.Println("No optimization suggestions. Calendar looks healthy.")
				return nil
			}

			for _, s := range suggestions {
				printSuggestion(s)
			}
			return nil
		},
	}
}

// printSuggestion renders one finding. The type switch is exhaustive over the
// suggestion variants so a new rule can't be forgotten here silently.
func printSuggestion(s scheduler.Suggestion) {
	day := s.Date().Format("Mon Jan 2")
	switch v := s.(type) {
	case scheduler.OverbookedDay:
		fmt.Printf("[%s] %s: %s\n", v.Severity(), day, v.Message())
	case scheduler.InsufficientBreak:
		fmt.Printf("[%s] %s: %s (events %s, %s)\n", v.Severity(), day, v.Message(), v.FirstEventID, v.SecondEventID)
	case scheduler.LunchConflict:
		fmt.Printf("[%s] %s: %s (%d events)\n", v.Severity(), day, v.Message(), len(v.IDs))
	default:
		fmt.Printf("[%s] %s: %s\n", s.Severity(), day, s.Message())
	}
}

func calendarsCommand() *cli.Command {
	return &cli.Command{
		Name:  "calendars",
		Usage: "List calendars visible to an authenticated Google account.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "account", Usage: "Named account from the auth command. Defaults to the first one found."},
		},
		Action: func(c *cli.Context) error {
			logger := setupLoggerFromEnv()

			client, err := buildGoogleClient(c, logger)
			if err != nil {
				return err
			}

			ids, err := client.DiscoverCalendars()
			if err != nil {
				return fmt.Errorf("failed to discover calendars: %w", err)
			}
			for _, id := range ids {
				fmt.Println(id)
			}
			return nil
		},
	}
}

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "provider", Value: "google", Usage: "Calendar backend: google or caldav."},
		&cli.StringFlag{Name: "account", Usage: "Named Google account from the auth command. Defaults to the first one found."},
		&cli.StringFlag{Name: "prefs", Usage: "Path to a YAML preferences file."},
		&cli.DurationFlag{Name: "timeout", Value: time.Minute, Usage: "Overall deadline for calendar lookups."},
	}
}

// buildScheduler wires the selected availability provider and preferences
// into a scheduler instance.
func buildScheduler(c *cli.Context, logger *slog.Logger, opts ...scheduler.Option) (*scheduler.Scheduler, error) {
	provider, err := buildProvider(c, logger)
	if err != nil {
		return nil, err
	}

	prefs := scheduler.DefaultPreferences()
	if path := c.String("prefs"); path != "" {
		prefs, err = scheduler.LoadPreferences(path)
		if err != nil {
			return nil, err
		}
	}

	loc, err := primaryLocation()
	if err != nil {
		return nil, err
	}
	opts = append(opts, scheduler.WithClock(func() time.Time { return time.Now().In(loc) }))

	return scheduler.New(logger, provider, prefs, opts...)
}

func buildProvider(c *cli.Context, logger *slog.Logger) (scheduler.AvailabilityProvider, error) {
	switch c.String("provider") {
	case "google":
		return buildGoogleClient(c, logger)
	case "caldav":
		client, err := icloud.NewClient(logger, os.Getenv("ICLOUD_USERNAME"), os.Getenv("ICLOUD_APP_SPECIFIC_PASSWORD"), os.Getenv("ICLOUD_CALENDAR_NAME"))
		if err != nil {
			return nil, fmt.Errorf("failed to create caldav client: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown provider '%s', expected google or caldav", c.String("provider"))
	}
}

func buildGoogleClient(c *cli.Context, logger *slog.Logger) (*google.CalendarClient, error) {
	account := c.String("account")
	if account == "" {
		accounts, err := google.GetTokenAccounts()
		if err != nil || len(accounts) == 0 {
			return nil, fmt.Errorf("no google accounts found. Run the 'auth' command first")
		}
		account = accounts[0]
	}

	client, err := google.NewClient(c.Context, logger, os.Getenv("GOOGLE_CLIENT_ID"), os.Getenv("GOOGLE_CLIENT_SECRET"), account)
	if err != nil {
		return nil, fmt.Errorf("failed to create google client for account %s: %w", account, err)
	}
	return client, nil
}

func primaryLocation() (*time.Location, error) {
	tzStr := os.Getenv("PRIMARY_TIMEZONE")
	if tzStr == "" {
		tzStr = "UTC"
	}
	loc, err := time.LoadLocation(tzStr)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone '%s': %w", tzStr, err)
	}
	return loc, nil
}

func setupLoggerFromEnv() *slog.Logger {
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	return setupLogger(logLevel)
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}
