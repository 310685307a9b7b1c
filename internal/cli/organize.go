package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gridorganize/gridorganize/pkg/graph"
	"github.com/gridorganize/gridorganize/pkg/layout"
	"github.com/gridorganize/gridorganize/pkg/pipeline"
)

// organizeCommand creates the organize command for computing column layouts.
func (c *CLI) organizeCommand() *cobra.Command {
	var (
		output  string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "organize [graph.json]",
		Short: "Compute a column layout for a workflow graph snapshot",
		Long: `Compute a column layout for a workflow graph snapshot.

The organize command takes a graph.json snapshot exported from a node editor
and arranges its connected nodes into dependency-ordered columns: nodes feed
left to right, independent subgraphs are stacked vertically, and node widths
are resized to match their column. The output is a positions/sizes document
the editor applies back onto the graph.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := withLogger(cmd.Context(), c.Logger)
			return c.runOrganize(ctx, args[0], output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

// runOrganize loads the graph, computes the layout, and writes output.
func (c *CLI) runOrganize(ctx context.Context, input, output string, noCache bool) error {
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
	spinner := newSpinnerWithContext(ctx, "Organizing nodes...")
	spinner.Start()

	data, cached, err := runner.Execute(ctx, pipeline.Request{
		Action: pipeline.ActionOrganize,
		Graph:  g,
	})
	if err != nil {
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("organize: %w", err)
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	var res layout.Result
	if err := json.Unmarshal(data, &res); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	prog.done(fmt.Sprintf("Positioned %d nodes", len(res.Positions)))

	outputPath := output
	if outputPath == "" {
		base := strings.TrimSuffix(input, filepath.Ext(input))
		outputPath = base + ".layout.json"
	}

	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("%s", res.Message)
	printFile(outputPath)
	printStats(len(g.Nodes), len(g.Links), cached)
	printNewline()
	printNextStep("Check for obstructed links", "gridorganize overlaps "+input)

	return nil
}
