package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	melonerrors "github.com/matzehuels/melonchart/pkg/errors"
	"github.com/matzehuels/melonchart/pkg/melon"
)

// chartOpts holds options for the chart command.
type chartOpts struct {
	imageSize int
	limit     int
	json      bool
	output    string
	refresh   bool
}

// chartCommand creates the chart command.
func (c *CLI) chartCommand() *cobra.Command {
	var opts chartOpts

	cmd := &cobra.Command{
		Use:   "chart",
		Short: "Print the current real-time chart",
		Long: `Fetch the Melon real-time chart and print it as a table or as JSON.

Examples:
  melonchart chart --limit 10
  melonchart chart --json -o chart.json
  melonchart chart --image-size 500 --refresh --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runChart(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.imageSize, "image-size", 0, "cover image size in pixels (default from config)")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "show at most N entries (0 = all)")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print the chart as JSON")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write output to file instead of stdout")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "bypass the response cache")

	return cmd
}

func (c *CLI) runChart(cmd *cobra.Command, opts chartOpts) error {
	if opts.limit < 0 {
		return melonerrors.New(melonerrors.ErrCodeInvalidInput, "limit cannot be negative, got %d", opts.limit)
	}
	if err := checkImageSizeFlag(opts.imageSize); err != nil {
		return err
	}

	ch, err := c.fetchChart(cmd.Context(), opts.imageSize, opts.refresh)
	if err != nil {
		return err
	}

	var out string
	if opts.json {
		if out, err = ch.JSON(); err != nil {
			return fmt.Errorf("encode chart: %w", err)
		}
		out += "\n"
	} else {
		out = renderChart(ch, opts.limit) + "\n"
	}

	if opts.output == "" {
		_, err := fmt.Fprint(cmd.OutOrStdout(), out)
		return err
	}
	if err := os.WriteFile(opts.output, []byte(out), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", opts.output, err)
	}
	printSuccess("Wrote %d entries", ch.Len())
	printFile(opts.output)
	return nil
}

// entryCommand creates the entry command.
func (c *CLI) entryCommand() *cobra.Command {
	var (
		imageSize int
		refresh   bool
	)

	cmd := &cobra.Command{
		Use:   "entry <index>",
		Short: "Print one chart entry as JSON",
		Long: `Print the entry at the given zero-based position in the chart as JSON.

Examples:
  melonchart entry 0
  melonchart entry 9 --image-size 1000`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkImageSizeFlag(imageSize); err != nil {
				return err
			}
			i, err := strconv.Atoi(args[0])
			if err != nil {
				return melonerrors.New(melonerrors.ErrCodeInvalidInput, "index must be an integer, got %q", args[0])
			}
			ch, err := c.fetchChart(cmd.Context(), imageSize, refresh)
			if err != nil {
				return err
			}
			e, err := ch.Entry(i)
			if err != nil {
				return err
			}
			s, err := e.JSON()
			if err != nil {
				return fmt.Errorf("encode entry: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), s)
			return err
		},
	}

	cmd.Flags().IntVar(&imageSize, "image-size", 0, "cover image size in pixels (default from config)")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass the response cache")

	return cmd
}

// checkImageSizeFlag rejects negative --image-size values; 0 selects the
// configured size.
func checkImageSizeFlag(size int) error {
	if size < 0 {
		return melonerrors.New(melonerrors.ErrCodeInvalidInput, "image size cannot be negative, got %d", size)
	}
	return nil
}

// fetchChart builds a client from the configuration and fetches one chart,
// showing a spinner on stderr while the request runs.
func (c *CLI) fetchChart(ctx context.Context, imageSize int, refresh bool) (*melon.Chart, error) {
	logger := loggerFromContext(ctx)

	client, err := c.newClient(ctx)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	ch, err := melon.NewChart(ctx, client, imageSize, false)
	if err != nil {
		return nil, err
	}

	prog := newProgress(logger)
	spin := newSpinner(ctx, os.Stderr, "Fetching chart...")
	spin.Start()
	if refresh {
		err = ch.Refresh(ctx)
	} else {
		err = ch.FetchEntries(ctx)
	}
	if err != nil {
		spin.StopWithError("Fetch failed")
		return nil, err
	}
	spin.Stop()

	prog.done("Fetched chart", "name", ch.Name, "entries", ch.Len())
	return ch, nil
}
