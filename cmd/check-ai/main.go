package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/kdimtricp/camlens/internal/app"
	"github.com/kdimtricp/camlens/internal/config"
	"github.com/kdimtricp/camlens/internal/database"
	"github.com/kdimtricp/camlens/internal/logging"
)

func main() {
	envFile := flag.String("env", ".env", "Optional .env file")
	limit := flag.Int("n", 5, "Number of recent analyses to show")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatal("Invalid configuration: ", err)
	}

	fmt.Println("🔍 Checking Camera Analysis Setup")
	fmt.Println("=================================")

	key := cfg.Vision.AnthropicAPIKey
	if cfg.Vision.Provider == "openai" {
		key = cfg.Vision.OpenAIAPIKey
	}
	if key == "" {
		fmt.Printf("⚠️  WARNING: No API key configured for vision provider %q!\n", cfg.Vision.Provider)
		fmt.Println("   Set ANTHROPIC_API_KEY, or VISION_PROVIDER=openai with OPENAI_API_KEY")
	} else {
		fmt.Printf("✅ Vision provider: %s (key ****%s)\n", cfg.Vision.Provider, lastFour(key))
	}

	if cfg.Camera.Configured() {
		fmt.Printf("✅ Camera credentials: %s\n", cfg.Camera.Email)
	} else {
		fmt.Println("⚠️  Camera credentials incomplete (EMAIL, PASSWORD, KEYID, APIKEY)")
	}
	fmt.Printf("🎞️  Extractor backend: %s\n\n", cfg.ExtractorBackend)

	ctx := context.Background()
	db, err := database.NewDB(ctx, app.DBConfig(cfg.DB))
	if err != nil {
		log.Fatal("Failed to open database: ", err)
	}
	defer db.Close()

	if _, err := database.NewMigrator(db, logging.New("warn", "console")).Run(ctx); err != nil {
		log.Fatal("Failed to migrate database: ", err)
	}

	history := database.NewHistoryRepo(db)
	total, err := history.Count(ctx)
	if err != nil {
		log.Fatal("Failed to count analyses: ", err)
	}
	fmt.Printf("📊 Total analyses: %d\n", total)

	prompt, err := database.NewPromptRepo(db).Get(ctx)
	if err != nil {
		log.Fatal("Failed to read prompt: ", err)
	}
	fmt.Printf("📝 Current prompt: %s\n\n", logging.Preview(prompt, 60))

	recent, err := history.ListRecent(ctx, *limit)
	if err != nil {
		log.Fatal("Failed to query analyses: ", err)
	}

	if len(recent) == 0 {
		fmt.Println("No analyses found yet. Run analyze-video or hit /api/analyze to test!")
		return
	}

	fmt.Println("Recent Analyses:")
	fmt.Println("----------------")
	for _, r := range recent {
		fmt.Printf("\n#%d %s [%s]\n", r.ID, r.Timestamp.Local().Format("2006-01-02 15:04:05"), r.DeviceID)
		fmt.Printf("   🖼️  Frame: %s\n", r.FramePath)
		fmt.Printf("   💬 %s\n", logging.Preview(r.Result, 100))
	}
}

func lastFour(s string) string {
	if len(s) <= 4 {
		return s
	}
	return s[len(s)-4:]
}
