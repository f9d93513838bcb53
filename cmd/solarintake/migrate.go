package main

import (
	"fmt"

	"solarintake/internal/db"

	"github.com/urfave/cli/v2"
)

var migrateCommand = &cli.Command{
	Name:  "migrate",
	Usage: "Apply the database migrations used by the postgres transport",
	Action: func(c *cli.Context) error {
		config, err := loadConfig(c)
		if err != nil {
			return err
		}
		if config.DatabaseURL == "" {
			return fmt.Errorf("set DATABASE_URL")
		}

		return db.Migrate(config.DatabaseURL, newLogger(config))
	},
}
