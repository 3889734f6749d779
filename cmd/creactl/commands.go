package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ZanzyTHEbar/creative-o-meter/internal/creativity"
	apperrors "github.com/ZanzyTHEbar/creative-o-meter/internal/errors"
	"github.com/ZanzyTHEbar/creative-o-meter/internal/monitoring"
	"github.com/ZanzyTHEbar/creative-o-meter/internal/prompt"
	"github.com/ZanzyTHEbar/creative-o-meter/internal/types"
)

// globalOptions are shared by every subcommand
type globalOptions struct {
	logLevel string
	asJSON   bool
	seed     int64
}

// source returns a seeded source when --seed was given
func (o *globalOptions) source(cmd *cobra.Command) creativity.Source {
	if cmd.Flags().Changed("seed") {
		return creativity.NewSeededSource(o.seed)
	}
	return creativity.GlobalSource()
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:           "creactl",
		Short:         "Score creative attributes and compose prompts",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			logger := monitoring.NewLoggerWithWriter(cmd.ErrOrStderr(), monitoring.ParseLevel(opts.logLevel))
			slog.SetDefault(logger.Logger)
		},
	}

	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&opts.asJSON, "json", false, "Print JSON instead of text")
	root.PersistentFlags().Int64Var(&opts.seed, "seed", 0, "Seed for random draws (default: unseeded)")

	root.AddCommand(
		newSynergyCmd(opts),
		newRandomizeCmd(opts),
		newComposeCmd(opts),
		newGridCmd(opts),
	)
	return root
}

func addVectorFlags(cmd *cobra.Command, v *creativity.AttributeVector) {
	*v = creativity.DefaultAttributeVector()
	cmd.Flags().Float64Var(&v.Subject, creativity.Subject, v.Subject, "Subject value in [0, 1]")
	cmd.Flags().Float64Var(&v.Style, creativity.Style, v.Style, "Style value in [0, 1]")
	cmd.Flags().Float64Var(&v.Mood, creativity.Mood, v.Mood, "Mood value in [0, 1]")
	cmd.Flags().Float64Var(&v.Detail, creativity.Detail, v.Detail, "Detail value in [0, 1]")
	cmd.Flags().Float64Var(&v.Context, creativity.Context, v.Context, "Context value in [0, 1]")
}

func validateVector(v creativity.AttributeVector) error {
	if problems := types.ValidateVector(v); len(problems) > 0 {
		return apperrors.NewValidationErrorWithMap(problems)
	}
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeSynergy(w io.Writer, resp types.SynergyResponse) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if resp.Attributes != nil {
		vals := resp.Attributes.Values()
		for k, name := range creativity.AttributeNames {
			fmt.Fprintf(tw, "%s\t%.3f\n", name, vals[k])
		}
	}
	fmt.Fprintf(tw, "linear sum\t%.3f\n", resp.LinearSum)
	fmt.Fprintf(tw, "synergy\t%.3f\n", resp.Synergy)
	fmt.Fprintf(tw, "score\t%.3f\n", resp.Score)
	_ = tw.Flush()
}

func synergyFor(v creativity.AttributeVector, withAttributes bool) types.SynergyResponse {
	d := creativity.SynergyDetails(v)
	resp := types.SynergyResponse{
		Score:     d.Score,
		LinearSum: d.LinearSum,
		Synergy:   d.Synergy,
		Matrix:    creativity.SynergyMatrix(v),
	}
	if withAttributes {
		resp.Attributes = &v
	}
	return resp
}

func newSynergyCmd(opts *globalOptions) *cobra.Command {
	var v creativity.AttributeVector
	var matrix bool

	cmd := &cobra.Command{
		Use:     "synergy",
		Short:   "Score an attribute vector",
		Example: "  creactl synergy --subject 0.9 --mood 0.2 --matrix",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateVector(v); err != nil {
				return err
			}
			resp := synergyFor(v, false)
			slog.Debug("Scored vector", "score", resp.Score)

			out := cmd.OutOrStdout()
			if opts.asJSON {
				if !matrix {
					resp.Matrix = nil
				}
				return writeJSON(out, resp)
			}
			writeSynergy(out, resp)
			if matrix {
				tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				for _, p := range resp.Matrix {
					fmt.Fprintf(tw, "%s x %s\t%.3f\n", p.Row, p.Col, p.Value)
				}
				_ = tw.Flush()
			}
			return nil
		},
	}
	addVectorFlags(cmd, &v)
	cmd.Flags().BoolVar(&matrix, "matrix", false, "Also print the pairwise display matrix")
	return cmd
}

func newRandomizeCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "randomize",
		Short: "Draw a random attribute vector and score it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp := synergyFor(creativity.RandomAttributeVector(opts.source(cmd)), true)
			if opts.asJSON {
				resp.Matrix = nil
				return writeJSON(cmd.OutOrStdout(), resp)
			}
			writeSynergy(cmd.OutOrStdout(), resp)
			return nil
		},
	}
}

func newComposeCmd(opts *globalOptions) *cobra.Command {
	var (
		v          creativity.AttributeVector
		threshold  float64
		vocabulary string
		lead       string
	)

	cmd := &cobra.Command{
		Use:     "compose",
		Short:   "Compose a prompt from an attribute vector",
		Example: "  creactl compose --subject 1 --style 1 --threshold 3 --lead Imagine --seed 7",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateVector(v); err != nil {
				return err
			}
			if threshold < 0 {
				return apperrors.NewValidationError("threshold must not be negative", threshold)
			}

			composer := prompt.NewComposer(opts.source(cmd))
			if vocabulary != "" {
				vocab, twists, err := prompt.LoadVocabularyFile(vocabulary)
				if err != nil {
					return err
				}
				composer.Vocabulary = vocab
				composer.Twists = twists
			}
			if lead = strings.TrimSpace(lead); lead != "" {
				composer.Lead = lead + " "
			}

			result, err := composer.ComposeWithThreshold(v, threshold)
			if err != nil {
				return err
			}
			slog.Info("Composed prompt", "score", result.Score, "twist_applied", result.TwistApplied != nil)

			if opts.asJSON {
				return writeJSON(cmd.OutOrStdout(), result)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), result.Prompt)
			return err
		},
	}
	addVectorFlags(cmd, &v)
	cmd.Flags().Float64Var(&threshold, "threshold", prompt.DefaultThreshold, "Score at which a twist is appended")
	cmd.Flags().StringVar(&vocabulary, "vocabulary", "", "YAML vocabulary file")
	cmd.Flags().StringVar(&lead, "lead", "", "Words placed before the prompt")
	return cmd
}

func newGridCmd(opts *globalOptions) *cobra.Command {
	var (
		req    types.FrameRequest
		params = creativity.DefaultScoreParameters()
		cells  bool
	)

	cmd := &cobra.Command{
		Use:     "grid",
		Short:   "Render one canvas frame and print its summary",
		Example: "  creactl grid --cols 40 --rows 15 --iteration 120 --theta 0.4",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req.Params = &params
			if err := validateFrame(req); err != nil {
				return err
			}

			cols, rows := req.Grid(creativity.DefaultCellSize)
			grid := creativity.NewEngine(opts.source(cmd)).ScoreGrid(cols, rows, float64(req.Iteration), params)
			if !cells {
				grid = grid.Summary()
			}

			out := cmd.OutOrStdout()
			if opts.asJSON {
				return writeJSON(out, grid)
			}
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "grid\t%dx%d\n", grid.Cols, grid.Rows)
			fmt.Fprintf(tw, "iteration\t%g\n", grid.Iteration)
			fmt.Fprintf(tw, "max score\t%.3f\n", grid.MaxScore)
			fmt.Fprintf(tw, "avg score\t%.3f\n", grid.AvgScore)
			fmt.Fprintf(tw, "above threshold\t%d (%.1f%%)\n", grid.CellsAboveThreshold, grid.ThresholdPercentage)
			fmt.Fprintf(tw, "threshold reached\t%t\n", grid.ThresholdReached)
			return tw.Flush()
		},
	}

	cmd.Flags().IntVar(&req.Cols, "cols", 0, "Grid columns")
	cmd.Flags().IntVar(&req.Rows, "rows", 0, "Grid rows")
	cmd.Flags().IntVar(&req.Width, "width", 800, "Canvas width in pixels, used when --cols/--rows are unset")
	cmd.Flags().IntVar(&req.Height, "height", 300, "Canvas height in pixels, used when --cols/--rows are unset")
	cmd.Flags().IntVar(&req.CellSize, "cell-size", creativity.DefaultCellSize, "Cell size in pixels")
	cmd.Flags().IntVar(&req.Iteration, "iteration", 0, "Animation iteration")
	cmd.Flags().Float64Var(&params.Alpha, "alpha", params.Alpha, "Deterministic weight in [0, 1]")
	cmd.Flags().Float64Var(&params.Beta, "beta", params.Beta, "Random amplitude in [0, 1]")
	cmd.Flags().Float64Var(&params.Gamma, "gamma", params.Gamma, "Creativity factor in [0, 1]")
	cmd.Flags().Float64Var(&params.Delta, "delta", params.Delta, "Decay factor in [0, 0.2]")
	cmd.Flags().Float64Var(&params.Theta, "theta", params.Theta, "Creativity threshold in [0.1, 1]")
	cmd.Flags().BoolVar(&cells, "cells", false, "Include every cell in JSON output")
	return cmd
}

func validateFrame(req types.FrameRequest) error {
	if problems := req.Validate(creativity.DefaultCellSize, 0); len(problems) > 0 {
		return apperrors.NewValidationErrorWithMap(problems)
	}
	return nil
}
