package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/core-coin/blocksage/internal/advisor"
	"github.com/core-coin/blocksage/internal/blocksage"
	"github.com/core-coin/blocksage/internal/config"
	"github.com/core-coin/blocksage/internal/feed"
	"github.com/core-coin/blocksage/internal/http_api"
	"github.com/core-coin/blocksage/internal/knowledge"
	"github.com/core-coin/blocksage/internal/models"
	"github.com/core-coin/blocksage/internal/notificator"
	"github.com/core-coin/blocksage/internal/repository"
	"github.com/core-coin/blocksage/internal/risk"
	"github.com/core-coin/blocksage/pkg/logger"
)

func main() {
	app := &cli.App{
		Name:  "blocksage",
		Usage: "BlockSage scores crypto portfolio risk and answers crypto safety questions",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "api-port", Aliases: []string{"a"}, Usage: "HTTP API port"},
			&cli.BoolFlag{Name: "database", Usage: "Store wallets and scan history in Postgres"},
			&cli.StringFlag{Name: "postgres-user", Aliases: []string{"u"}, Usage: "Postgres user"},
			&cli.StringFlag{Name: "postgres-password", Aliases: []string{"p"}, Usage: "Postgres password"},
			&cli.StringFlag{Name: "postgres-host", Aliases: []string{"t"}, Usage: "Postgres host"},
			&cli.IntFlag{Name: "postgres-port", Aliases: []string{"P"}, Usage: "Postgres port"},
			&cli.StringFlag{Name: "postgres-db", Aliases: []string{"d"}, Usage: "Postgres database name"},
			&cli.StringFlag{Name: "knowledge-url", Aliases: []string{"k"}, Usage: "Knowledge service chat completion URL"},
			&cli.StringFlag{Name: "feed-url", Aliases: []string{"f"}, Usage: "Portfolio feed base URL (empty serves the demo portfolio)"},
			&cli.DurationFlag{Name: "rescan-interval", Aliases: []string{"r"}, Usage: "Periodic rescan interval, 0 disables"},
			&cli.BoolFlag{Name: "development", Aliases: []string{"D"}, Usage: "Development mode"},
			&cli.StringFlag{Name: "log-level", Aliases: []string{"l"}, Usage: "Log level (debug, info, warn, error)"},
		},
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API, the periodic rescan and the Telegram bot",
				Action: serve,
			},
			{
				Name:      "score",
				Usage:     "Score the token records in a JSON file and print the portfolio summary",
				ArgsUsage: "<file>",
				Action:    score,
			},
			{
				Name:      "scan",
				Usage:     "Scan one wallet through the configured feed and print the result",
				ArgsUsage: "<address>",
				Action:    scan,
			},
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	// Load configuration from environment variables
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %v", err)
	}

	// Override with flags if set
	if c.IsSet("api-port") {
		cfg.APIPort = c.Int("api-port")
	}
	if c.IsSet("database") {
		cfg.DatabaseEnabled = c.Bool("database")
	}
	if c.IsSet("postgres-user") {
		cfg.PostgresUser = c.String("postgres-user")
	}
	if c.IsSet("postgres-password") {
		cfg.PostgresPassword = c.String("postgres-password")
	}
	if c.IsSet("postgres-host") {
		cfg.PostgresHost = c.String("postgres-host")
	}
	if c.IsSet("postgres-port") {
		cfg.PostgresPort = c.Int("postgres-port")
	}
	if c.IsSet("postgres-db") {
		cfg.PostgresDB = c.String("postgres-db")
	}
	if c.IsSet("knowledge-url") {
		cfg.KnowledgeServiceURL = c.String("knowledge-url")
	}
	if c.IsSet("feed-url") {
		cfg.FeedURL = c.String("feed-url")
	}
	if c.IsSet("rescan-interval") {
		cfg.RescanInterval = c.Duration("rescan-interval")
	}
	if c.IsSet("development") {
		cfg.Development = c.Bool("development")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// components are the pieces shared by every command
type components struct {
	repo     models.Repository
	feed     models.PortfolioFeed
	sessions *advisor.Manager
	close    func()
}

func build(cfg *config.Config, log *logger.Logger) (*components, error) {
	comps := &components{close: func() {}}

	if cfg.DatabaseEnabled {
		db, err := repository.NewPostgresDB(cfg.PostgresDSN(), log.Named("postgres"))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %v", err)
		}
		comps.repo = db
		comps.close = func() {
			if err := db.Close(); err != nil {
				log.Error("Failed to close database", "error", err)
			}
		}
	} else {
		log.Info("No database configured, keeping scan history in memory")
		comps.repo = repository.NewMemoryDB()
	}

	if cfg.FeedURL != "" {
		comps.feed = feed.NewHTTPFeed(cfg.FeedURL, log.Named("feed"))
	} else {
		log.Info("No feed configured, serving the demo portfolio")
		comps.feed = feed.NewStaticFeed()
	}

	if cfg.KnowledgeAPIKey == "" {
		log.Warn("KNOWLEDGE_API_KEY is not set, advisory replies will come from the fallback responder")
	}
	knowledgeClient := knowledge.NewClient(knowledge.Options{
		Endpoint:    cfg.KnowledgeServiceURL,
		APIKey:      cfg.KnowledgeAPIKey,
		Model:       cfg.KnowledgeModel,
		Temperature: cfg.KnowledgeTemperature,
		MaxTokens:   cfg.KnowledgeMaxTokens,
	}, log.Named("knowledge"))
	log.Info("Knowledge service configured", "endpoint", cfg.KnowledgeServiceURL, "model", knowledgeClient.Model(), "timeout", cfg.KnowledgeTimeout)
	engine := advisor.NewEngine(knowledgeClient, cfg.KnowledgeTimeout, log.Named("advisor"))
	comps.sessions = advisor.NewManager(engine)

	return comps, nil
}

func serve(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Development, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %v", err)
	}
	defer log.Sync()

	comps, err := build(cfg, log)
	if err != nil {
		return err
	}
	defer comps.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize notificator
	var (
		alerts   models.NotificationService
		telegram *notificator.TelegramNotificator
	)
	if cfg.TelegramBotToken != "" {
		telegram, err = notificator.NewTelegramNotificator(log.Named("telegram"), cfg.TelegramBotToken, comps.sessions)
		if err != nil {
			return err
		}
		alerts = notificator.NewNotificator(log.Named("notificator"), comps.repo, telegram)
	} else {
		log.Info("TELEGRAM_BOT_TOKEN is not set, alerts are disabled")
	}

	// Create BlockSage instance
	app := blocksage.NewBlockSage(comps.repo, comps.feed, alerts, comps.sessions, log, cfg)
	if telegram != nil {
		go telegram.Start(ctx, app)
	}

	apiServer := http_api.NewHTTPServer(app, cfg.APIPort, log.Named("http"))
	go apiServer.Start()

	// Start the application
	app.Start(ctx)

	return apiServer.Shutdown()
}

func score(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("usage: blocksage score <file>", 2)
	}
	raw, err := os.ReadFile(c.Args().First())
	if err != nil {
		return fmt.Errorf("failed to read token file: %w", err)
	}
	var tokens []models.TokenRecord
	if err := json.Unmarshal(raw, &tokens); err != nil {
		return fmt.Errorf("failed to parse token file: %w", err)
	}

	classified := make([]models.TokenRecord, 0, len(tokens))
	for _, t := range tokens {
		rec, err := risk.ClassifyToken(t)
		if err != nil {
			return fmt.Errorf("failed to classify token %q: %w", t.ID, err)
		}
		classified = append(classified, rec)
	}

	return printJSON(c, struct {
		Tokens  []models.TokenRecord    `json:"tokens"`
		Summary models.PortfolioSummary `json:"summary"`
	}{classified, risk.Aggregate(classified)})
}

func scan(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("usage: blocksage scan <address>", 2)
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	log, err := logger.NewLogger(cfg.Development, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %v", err)
	}
	defer log.Sync()

	comps, err := build(cfg, log)
	if err != nil {
		return err
	}
	defer comps.close()

	app := blocksage.NewBlockSage(comps.repo, comps.feed, nil, comps.sessions, log, cfg)
	result, err := app.Scan(c.Context, c.Args().First())
	if err != nil {
		return err
	}
	for _, w := range result.Warnings() {
		log.Warn("Transaction warning", "warning", w)
	}
	return printJSON(c, result)
}

func printJSON(c *cli.Context, v interface{}) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
