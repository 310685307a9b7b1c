package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gridorganize/gridorganize/pkg/graph"
	"github.com/gridorganize/gridorganize/pkg/overlap"
	"github.com/gridorganize/gridorganize/pkg/pipeline"
)

// overlapsCommand creates the overlaps command for detecting obstructed links.
func (c *CLI) overlapsCommand() *cobra.Command {
	var (
		output  string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "overlaps [graph.json]",
		Short: "Find links that pass through unrelated nodes",
		Long: `Find links that pass through unrelated nodes.

The overlaps command scans a graph.json snapshot for links whose straight-line
path crosses a node that is neither its origin nor its target, and plans a
reroute for each: two waypoints above or below the obstructing row, placed on
a clearance lane so parallel reroutes do not collide with each other.

Use -o to also write the full reroute plan as JSON.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := withLogger(cmd.Context(), c.Logger)
			return c.runOverlaps(ctx, args[0], output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the reroute plan to a file")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

// runOverlaps loads the graph, detects overlaps, and prints a summary.
func (c *CLI) runOverlaps(ctx context.Context, input, output string, noCache bool) error {
	logger := loggerFromContext(ctx)

	g, err := graph.ReadFile(input)
	if err != nil {
		return fmt.Errorf("load graph %s: %w", input, err)
	}
	logger.Debug("graph loaded", "file", input, "nodes", len(g.Nodes), "links", len(g.Links))

	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Cache.Close()

	prog := newProgress(logger)
	spinner := newSpinnerWithContext(ctx, "Scanning links...")
	spinner.Start()

	data, cached, err := runner.Execute(ctx, pipeline.Request{
		Action: pipeline.ActionReroute,
		Graph:  g,
	})
	if err != nil {
		spinner.StopWithError("Scan failed")
		return fmt.Errorf("detect overlaps: %w", err)
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	var res overlap.Result
	if err := json.Unmarshal(data, &res); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	prog.done(fmt.Sprintf("Checked %d links", len(g.Links)))

	if len(res.Overlaps) == 0 {
		printSuccess("No overlapping links")
	} else {
		printWarning("%s", res.Message)
		for _, o := range res.Overlaps {
			printDetail("link %s: %s %s %s, reroute %s at y=%.0f",
				o.LinkID, o.OriginType, iconArrow, o.TargetType, o.RerouteDirection, o.RerouteY)
		}
	}

	if output != "" {
		if err := os.WriteFile(output, data, 0644); err != nil {
			return fmt.Errorf("write output %s: %w", output, err)
		}
		printFile(output)
	}

	printStats(len(g.Nodes), len(g.Links), cached)

	return nil
}
