// Command seed generates a synthetic inventory dataset: a real-world
// product catalog stocked across five locations, with a per-location
// scenario draw so the store always contains healthy, trending, stock-out
// and overstock rows to analyze.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"inventory-agent/internal/core"
	"inventory-agent/internal/db"
	"inventory-agent/internal/store"
)

type catalogEntry struct {
	Category string
	Product  string
	Season   core.Season
}

var catalog = []catalogEntry{
	{"Electronics", "Apple AirPods Pro", core.SeasonAllYear},
	{"Electronics", "Sony WH-1000XM5 Headphones", core.SeasonAllYear},
	{"Electronics", "Samsung 65-inch 4K TV", core.SeasonWinter},
	{"Electronics", "Nintendo Switch OLED", core.SeasonWinter},
	{"Home", "Dyson V15 Detect Vacuum", core.SeasonAllYear},
	{"Home", "Instant Pot Duo 7-in-1", core.SeasonWinter},
	{"Home", "Weber Spirit II Gas Grill", core.SeasonSummer},
	{"Clothing", "Nike Air Force 1 '07", core.SeasonAllYear},
	{"Clothing", "North Face Nuptse Jacket", core.SeasonWinter},
	{"Clothing", "Adidas Ultraboost 22", core.SeasonSummer},
	{"Toys", "LEGO Star Wars Millennium Falcon", core.SeasonWinter},
	{"Toys", "Barbie Dreamhouse", core.SeasonWinter},
	{"Personal Care", "Colgate Total Toothpaste", core.SeasonAllYear},
	{"Personal Care", "Dove Body Wash", core.SeasonAllYear},
	{"Personal Care", "Philips Norelco Shaver", core.SeasonWinter},
	{"Sports", "Wilson NFL Football", core.SeasonWinter},
	{"Sports", "Spalding NBA Basketball", core.SeasonWinter},
	{"Sports", "Callaway Golf Set", core.SeasonSummer},
	{"Office", "Logitech MX Master 3S Mouse", core.SeasonAllYear},
	{"Office", "Herman Miller Aeron Chair", core.SeasonAllYear},
}

var locations = []string{"NJ", "CA", "TX", "NY", "FL"}

func main() {
	_ = godotenv.Load()

	out := flag.String("out", "data/inventory.csv", "CSV file to write (ignored when DATABASE_URL is set)")
	seed := flag.Int64("seed", 0, "random seed (0 = nondeterministic)")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	rng := rand.New(rand.NewSource(*seed))
	if *seed == 0 {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	records := Generate(rng)

	ctx := context.Background()
	if os.Getenv("DATABASE_URL") != "" {
		pool, err := db.NewPool(ctx)
		if err != nil {
			logger.Fatal().Err(err).Msg("unable to connect to database")
		}
		defer pool.Close()

		pg := store.NewPGStore(pool, logger)
		if err := pg.EnsureSchema(ctx); err != nil {
			logger.Fatal().Err(err).Msg("unable to create schema")
		}
		if err := pg.ReplaceAll(ctx, records); err != nil {
			logger.Fatal().Err(err).Msg("unable to load records")
		}
		fmt.Printf("Loaded %d SKUs (%d products x %d locations) into Postgres\n",
			len(records), len(catalog), len(locations))
		return
	}

	if dir := filepath.Dir(*out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Fatal().Err(err).Msg("unable to create output directory")
		}
	}
	csvStore := store.NewCSVStore(*out, logger)
	if err := csvStore.WriteAll(ctx, records); err != nil {
		logger.Fatal().Err(err).Msg("unable to write records")
	}
	fmt.Printf("Generated %d SKUs (%d products x %d locations) in %s\n",
		len(records), len(catalog), len(locations), *out)
}

// Generate builds one record per product per location. Each row draws a
// scenario shaping stock and trend around a random forecast: Normal 60%,
// Trending 10%, Stock-out 10%, Overstock 20%.
func Generate(rng *rand.Rand) []core.ItemRecord {
	var records []core.ItemRecord
	for _, item := range catalog {
		for _, loc := range locations {
			forecast := 50 + rng.Intn(151)
			var stock, trend int
			switch scenario := rng.Float64(); {
			case scenario < 0.6: // Normal
				stock = scale(forecast, 0.8, 1.2, rng)
				trend = scale(forecast, 0.9, 1.1, rng)
			case scenario < 0.7: // Trending
				stock = scale(forecast, 0.5, 0.8, rng)
				trend = scale(forecast, 1.3, 2.0, rng)
			case scenario < 0.8: // Stock-out
				stock = scale(forecast, 0.0, 0.3, rng)
				trend = scale(forecast, 0.9, 1.1, rng)
			default: // Overstock
				stock = scale(forecast, 2.0, 3.0, rng)
				trend = scale(forecast, 0.7, 0.9, rng)
			}

			records = append(records, core.ItemRecord{
				SKUID:         fmt.Sprintf("P-%d", 101+len(records)),
				Name:          item.Product,
				Category:      item.Category,
				Season:        item.Season,
				Stock:         stock,
				Forecast:      forecast,
				SalesTrend30d: trend,
				LeadTimeDays:  3 + rng.Intn(28),
				Location:      loc,
			})
		}
	}
	return records
}

func scale(base int, lo, hi float64, rng *rand.Rand) int {
	return int(float64(base) * (lo + rng.Float64()*(hi-lo)))
}
