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
	var (
		envFile = flag.String("env", ".env", "Optional .env file")
		dbType  = flag.String("db", "", "Database type (postgres or sqlite); overrides DB_TYPE")
		status  = flag.Bool("status", false, "Show migration status only")
	)
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatal("Invalid configuration: ", err)
	}
	if *dbType != "" {
		cfg.DB.Type = *dbType
	}

	ctx := context.Background()
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	db, err := database.NewDB(ctx, app.DBConfig(cfg.DB))
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}
	defer db.Close()

	migrator := database.NewMigrator(db, logger)

	if *status {
		migrations, err := migrator.Status(ctx)
		if err != nil {
			log.Fatal("Failed to get migration status: ", err)
		}

		fmt.Println("Migration Status:")
		fmt.Println("=================")
		for _, m := range migrations {
			state := "pending"
			if m.Applied {
				state = "applied"
			}
			fmt.Printf("%s - %s [%s]\n", m.Version, m.Name, state)
		}
		return
	}

	fmt.Printf("Running %s migrations...\n", cfg.DB.Type)
	n, err := migrator.Run(ctx)
	if err != nil {
		log.Fatal("Failed to run migrations: ", err)
	}
	fmt.Printf("Migrations completed successfully! (%d applied)\n", n)
}
