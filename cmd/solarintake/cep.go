package main

import (
	"errors"
	"fmt"

	"solarintake/internal/cep"

	"github.com/k0kubun/pp/v3"
	"github.com/urfave/cli/v2"
)

var cepCommand = &cli.Command{
	Name:      "cep",
	Usage:     "Look up a postal code",
	ArgsUsage: "CODE",
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return fmt.Errorf("pass exactly one postal code")
		}

		config, err := loadConfig(c)
		if err != nil {
			return err
		}
		logger := newLogger(config)

		lookuper, closeLookuper, err := newLookuper(c.Context, config, logger)
		if err != nil {
			return err
		}
		defer closeLookuper()

		res, err := lookuper.Lookup(c.Context, c.Args().First())
		if errors.Is(err, cep.ErrNotFound) {
			fmt.Printf("%s: not found\n", cep.Format(c.Args().First()))
			return nil
		}
		if err != nil {
			return err
		}

		pp.Println(res)
		return nil
	},
}
