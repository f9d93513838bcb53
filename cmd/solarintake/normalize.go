package main

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"

	"solarintake/internal/attachment"
	"solarintake/pkg/types"

	"github.com/urfave/cli/v2"
)

var normalizeCommand = &cli.Command{
	Name:      "normalize",
	Usage:     "Run files through the upload pipeline and report sizes against the payload budget",
	ArgsUsage: "FILE...",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "out",
			Aliases: []string{"o"},
			Usage:   "Directory to write the normalized files to",
		},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() == 0 {
			return fmt.Errorf("pass at least one file")
		}

		config, err := loadConfig(c)
		if err != nil {
			return err
		}

		guard := attachment.NewGuard(config.MaxPayloadBytes, config.MaxFileBytes)
		normalizer := attachment.NewNormalizer(attachment.Options{
			MaxDimension: config.MaxImageDimension,
			Quality:      config.ImageQuality,
		})

		outDir := c.String("out")
		if outDir != "" {
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("create output directory: %w", err)
			}
		}

		var processed []types.Attachment
		for _, path := range c.Args().Slice() {
			src, err := attachment.FromPath(path)
			if err != nil {
				fmt.Printf("%s\tskipped: %v\n", path, err)
				continue
			}

			if err := guard.AdmitFile(src.Name, src.Size); err != nil {
				fmt.Printf("%s\tskipped: %v\n", path, err)
				continue
			}

			att, err := normalizer.Normalize(c.Context, src)
			if err != nil {
				fmt.Printf("%s\tskipped: %v\n", path, err)
				continue
			}
			processed = append(processed, *att)

			dims := ""
			if att.Width > 0 {
				dims = fmt.Sprintf("\t%dx%d", att.Width, att.Height)
			}
			fmt.Printf("%s\t%s\t%s%s\n", att.Name, att.Type, attachment.FormatSize(att.Size), dims)

			if outDir != "" {
				if err := writeAttachment(outDir, att); err != nil {
					return err
				}
			}
		}

		total, err := guard.Within(processed)
		verdict := "within budget"
		if err != nil {
			verdict = "over budget"
		}
		fmt.Printf("total %s of %s: %s\n", attachment.FormatSize(total), attachment.FormatSize(guard.MaxPayload()), verdict)

		return nil
	},
}

func writeAttachment(dir string, att *types.Attachment) error {
	data, err := base64.StdEncoding.DecodeString(att.Content)
	if err != nil {
		return fmt.Errorf("decode %s: %w", att.Name, err)
	}

	path := filepath.Join(dir, att.Name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	return nil
}
