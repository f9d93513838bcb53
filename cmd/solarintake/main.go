package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "solarintake",
		Usage: "Registration intake for solar energy installations",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "env-prefix",
				Aliases: []string{"p"},
				Usage:   "Environment variable prefix",
				Value:   "SOLAR",
			},
		},
		Commands: []*cli.Command{
			serveCommand,
			normalizeCommand,
			cepCommand,
			migrateCommand,
			submissionsCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		logrus.WithError(err).Fatal("application failed")
	}
}
