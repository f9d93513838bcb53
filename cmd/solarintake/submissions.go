package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"solarintake/internal/attachment"
	"solarintake/internal/db"
	"solarintake/internal/store"

	"github.com/urfave/cli/v2"
)

var submissionsCommand = &cli.Command{
	Name:  "submissions",
	Usage: "List submissions stored by the postgres transport",
	Flags: []cli.Flag{
		&cli.Uint64Flag{
			Name:    "limit",
			Aliases: []string{"n"},
			Usage:   "Number of submissions to list",
			Value:   20,
		},
	},
	Action: func(c *cli.Context) error {
		config, err := loadConfig(c)
		if err != nil {
			return err
		}

		pool, err := db.Connect(c.Context, config)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()

		rows, err := store.NewSubmissionRepository(pool).Recent(c.Context, c.Uint64("limit"))
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tCUSTOMER\tFILES\tSIZE\tACCEPTED")
		for _, r := range rows {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
				r.ID, r.CustomerName, r.FileCount, attachment.FormatSize(r.TotalBytes), r.AcceptedAt.Format(time.RFC3339))
		}
		return w.Flush()
	},
}
