package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/irfndi/coincorr-go/internal/config"
	"github.com/irfndi/coincorr-go/pkg/coingecko"
)

func main() {
	fmt.Println("🔧 Validating CoinGecko API configuration...")

	// Load .env file
	if err := godotenv.Load(); err != nil {
		fmt.Printf("⚠️  Warning: Could not load .env file: %v\n", err)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("❌ Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Check if an API key is configured
	if cfg.CoinGecko.APIKey == "" {
		fmt.Println("⚠️  COINGECKO_API_KEY is not configured, using public rate limits")
	} else {
		fmt.Printf("✅ COINGECKO_API_KEY is configured (length: %d)\n", len(cfg.CoinGecko.APIKey))
	}

	client := coingecko.NewClient(coingecko.Config{
		BaseURL: cfg.CoinGecko.BaseURL,
		APIKey:  cfg.CoinGecko.APIKey,
		Timeout: time.Duration(cfg.CoinGecko.Timeout) * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Ping the API (this makes an actual API call)
	fmt.Println("🔍 Testing API connection...")
	ping, err := client.Ping(ctx)
	if err != nil {
		fmt.Printf("❌ Failed to reach CoinGecko: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✅ API connection successful (%s)\n", ping.GeckoSays)

	// Fetch the current top coins
	markets, err := client.ListCoinMarkets(ctx, cfg.Analysis.VsCurrency, 3, 1)
	if err != nil {
		fmt.Printf("❌ Failed to list coin markets: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✅ Top %d coins by market cap:\n", len(markets))
	for _, market := range markets {
		fmt.Printf("   #%d %s (%s): %s %s\n", market.MarketCapRank, market.ID, market.Symbol, market.CurrentPrice, cfg.Analysis.VsCurrency)
	}

	// Fetch a small chart to validate the market chart endpoint
	chart, err := client.GetMarketChart(ctx, "bitcoin", cfg.Analysis.VsCurrency, 7)
	if err != nil {
		fmt.Printf("❌ Failed to fetch bitcoin market chart: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✅ Market chart fetch successful (%d price points over 7 days)\n", len(chart.Prices))

	fmt.Println("\n🎉 All CoinGecko API checks passed!")
}
