package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/relocrm/leadstack/config"
	"github.com/relocrm/leadstack/internal/database"
	"github.com/relocrm/leadstack/internal/repository"
	"github.com/relocrm/leadstack/server"
)

func main() {
	app := &cli.App{
		Name:  "leadstack",
		Usage: "mailbox lead ingestion and customer sync for the moving CRM",
		Commands: []*cli.Command{
			{
				Name:   "migrate",
				Usage:  "Run database migrations",
				Action: migrate,
			},
			{
				Name:   "server",
				Usage:  "Start the application server",
				Action: serve,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.InitConfig()
	if err != nil {
		return nil, cli.Exit("Config initialization failed: "+err.Error(), 1)
	}
	if cfg == nil {
		return nil, cli.Exit("config is empty", 1)
	}
	return cfg, nil
}

func migrate(_ *cli.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	primaryDB, err := database.InitPrimaryDatabase(cfg.DatabaseConfig)
	if err != nil {
		return cli.Exit("Leadstack database initialization failed: "+err.Error(), 1)
	}

	if err := repository.MigrateDB(cfg.DatabaseConfig, primaryDB); err != nil {
		return cli.Exit("Database migration failed: "+err.Error(), 1)
	}
	log.Println("Database migration completed successfully")
	return nil
}

func serve(_ *cli.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	primaryDB, err := database.InitPrimaryDatabase(cfg.DatabaseConfig)
	if err != nil {
		return cli.Exit("Leadstack database initialization failed: "+err.Error(), 1)
	}
	legacyDB, err := database.InitLegacyDatabase(cfg.LegacyDatabaseConfig)
	if err != nil {
		return cli.Exit("Legacy database initialization failed: "+err.Error(), 1)
	}

	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Println("Leadstack starting up...")

	srv, err := server.NewServer(cfg, primaryDB, legacyDB)
	if err != nil {
		return cli.Exit("Server setup failed: "+err.Error(), 1)
	}

	if err := srv.Run(); err != nil {
		return cli.Exit("Server startup failed: "+err.Error(), 1)
	}

	log.Println("Shutdown complete")
	return nil
}
