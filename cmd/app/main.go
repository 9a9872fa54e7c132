package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"inventory-agent/internal/ai"
	"inventory-agent/internal/core"
	"inventory-agent/internal/db"
	"inventory-agent/internal/notify"
	"inventory-agent/internal/store"
)

const defaultDataFile = "data/inventory.csv"

func main() {
	_ = godotenv.Load()

	logger := newLogger()
	ctx := context.Background()

	recordStore, cleanup, err := newStore(ctx, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("unable to open record store")
	}
	defer cleanup()

	search := ai.NewSearchClient()
	agent := ai.NewAgent(os.Getenv("OPENAI_API_KEY"), search, logger)
	orch := core.NewOrchestrator(recordStore, agent, agent, logger)

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "list":
			printRecords(ctx, recordStore)

		case "analyze":
			if len(os.Args) < 3 {
				logger.Fatal().Msg("usage: app analyze <SKU_ID>")
			}
			res, err := orch.Analyze(ctx, os.Args[2])
			if err != nil {
				logger.Fatal().Err(err).Msg("analysis failed")
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			enc.Encode(res)

		case "run":
			if len(os.Args) < 3 {
				logger.Fatal().Msg("usage: app run <SKU_ID>")
			}
			res, commit, err := orch.Run(ctx, os.Args[2])
			if err != nil {
				logger.Fatal().Err(err).Msg("run failed")
			}
			fmt.Println(res.Summary)
			reportCommit(commit)

		default:
			logger.Fatal().Str("command", os.Args[1]).Msg("unknown command")
		}
		return
	}

	runREPL(ctx, orch, recordStore)
}

func newLogger() zerolog.Logger {
	level, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
}

// newStore picks Postgres when DATABASE_URL is set, otherwise the CSV file
// named by INVENTORY_FILE (default data/inventory.csv).
func newStore(ctx context.Context, logger zerolog.Logger) (core.RecordStore, func(), error) {
	if os.Getenv("DATABASE_URL") != "" {
		pool, err := db.NewPool(ctx)
		if err != nil {
			return nil, nil, err
		}
		pg := store.NewPGStore(pool, logger)
		if err := pg.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return pg, pool.Close, nil
	}

	path := os.Getenv("INVENTORY_FILE")
	if path == "" {
		path = defaultDataFile
	}
	return store.NewCSVStore(path, logger), func() {}, nil
}

func runREPL(ctx context.Context, orch *core.Orchestrator, recordStore core.RecordStore) {
	reader := bufio.NewReader(os.Stdin)
	fmt.Println("Inventory Agent REPL")
	fmt.Println("Type a SKU ID to analyze it, 'list' to see the store, 'exit' to quit.")
	fmt.Println("--------------------")

	for {
		fmt.Print("\n> ")
		input, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		input = strings.TrimSpace(input)
		switch strings.ToLower(input) {
		case "":
			continue
		case "exit", "quit":
			return
		case "list":
			printRecords(ctx, recordStore)
			continue
		case "help":
			fmt.Println("Commands: <SKU_ID>, list, help, exit")
			continue
		}

		res, err := orch.Analyze(ctx, input)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}

		fmt.Println("\n--- PIPELINE LOG ---")
		for _, entry := range res.Logs {
			fmt.Printf("[%s] %s\n", entry.Stage, entry.Message)
		}
		fmt.Println("\n--- SUMMARY ---")
		fmt.Println(res.Summary)

		if !res.HasChanges() {
			fmt.Println("\nNothing to persist.")
			continue
		}

		printProposals(res)
		fmt.Print("\nApprove these changes? (y/n): ")
		choice, _ := reader.ReadString('\n')
		choice = strings.TrimSpace(strings.ToLower(choice))
		if choice != "y" && choice != "yes" {
			fmt.Println("Changes discarded.")
			continue
		}

		reportCommit(orch.Commit(ctx, res))
		offerEmail(ctx, reader, res)
	}
}

func printProposals(res *core.RunResult) {
	fmt.Println("\n--- PROPOSED CHANGES ---")
	if res.ProposedForecast != nil && *res.ProposedForecast != res.Record.Forecast {
		fmt.Printf("  Forecast:       %d -> %d (%s)\n", res.Record.Forecast, *res.ProposedForecast, res.ForecastMethod)
	}
	if res.Transfer != nil {
		fmt.Printf("  Transfer:       %d units from %s to %s\n",
			res.Transfer.Quantity, res.Transfer.SourceLocation, res.Record.Location)
	}
	if res.PurchaseOrder != nil {
		fmt.Printf("  Purchase order: %d units (lead time %d days)\n",
			res.PurchaseOrder.Quantity, res.PurchaseOrder.LeadTimeDays)
	}
}

func reportCommit(commit *core.CommitResult) {
	if commit.Persisted {
		fmt.Println("Changes PERSISTED.")
		return
	}
	fmt.Printf("Changes NOT persisted: %s\n", commit.Error)
}

func offerEmail(ctx context.Context, reader *bufio.Reader, res *core.RunResult) {
	fmt.Print("Email this report? Enter recipient address (or press enter to skip): ")
	recipient, _ := reader.ReadString('\n')
	recipient = strings.TrimSpace(recipient)
	if recipient == "" {
		return
	}

	notifier, err := notify.NewEmailNotifierFromEnv()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	subject := fmt.Sprintf("Supply Chain Alert: %s - %s", res.Record.Name, res.Status)
	if err := notifier.Send(ctx, recipient, subject, res.Summary); err != nil {
		fmt.Printf("%v\n", err)
		return
	}
	fmt.Printf("Report sent to %s.\n", recipient)
}

func printRecords(ctx context.Context, recordStore core.RecordStore) {
	records, err := recordStore.LoadAll(ctx)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	fmt.Printf("%-8s %-36s %-10s %6s %9s %6s %8s\n", "SKU", "PRODUCT", "LOCATION", "STOCK", "FORECAST", "TREND", "ON ORDER")
	fmt.Println(strings.Repeat("-", 90))
	for _, r := range records {
		fmt.Printf("%-8s %-36s %-10s %6d %9d %6d %8d\n",
			r.SKUID, r.Name, r.Location, r.Stock, r.Forecast, r.SalesTrend30d, r.OnOrder)
	}
}
