package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/wheelscan/go-wheel-trainer/internal/training"
)

var (
	trainVideo string
	trainTag   string
	runsLimit  int
	runsTag    string
)

// trainCmd trains and publishes a model from a local video
var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the model on a local wheel video",
	Long: `Extract frames from a video, upload them, tag them in Custom Vision,
train the project and publish the new iteration.

A failed run rolls back the tag following the same rules as the HTTP API.`,
	RunE: runTrain,
}

// clearTagsCmd deletes every tag of the project
var clearTagsCmd = &cobra.Command{
	Use:   "clear-tags",
	Short: "Delete every tag in the Custom Vision project",
	RunE:  runClearTags,
}

// tagsCmd lists project tags
var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "List project tags with image counts",
	RunE:  runTags,
}

// runsCmd lists recorded training runs
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent training runs from run history",
	RunE:  runRuns,
}

func init() {
	trainCmd.Flags().StringVar(&trainVideo, "video", "", "Path to the wheel video")
	trainCmd.Flags().StringVar(&trainTag, "tag", "", "Wheel identifier")
	_ = trainCmd.MarkFlagRequired("video")
	_ = trainCmd.MarkFlagRequired("tag")

	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "Maximum number of runs (1-200)")
	runsCmd.Flags().StringVar(&runsTag, "tag", "", "Only runs for this tag")
}

func runTrain(cmd *cobra.Command, args []string) error {
	tag := training.NormalizeTag(trainTag)
	if tag == "" {
		return errors.New("tag is required")
	}
	if _, err := os.Stat(trainVideo); err != nil {
		return fmt.Errorf("video not readable: %w", err)
	}

	return withService(cmd, func(ctx context.Context, svc service) error {
		result, err := svc.Train(ctx, training.Input{VideoPath: trainVideo, Tag: tag})
		if err != nil {
			var outcomeErr *training.OutcomeError
			if errors.As(err, &outcomeErr) {
				return fmt.Errorf("%s (%s)", outcomeErr.Message, outcomeErr.Outcome)
			}
			return err
		}
		return printJSON(cmd.OutOrStdout(), result)
	})
}

func runClearTags(cmd *cobra.Command, args []string) error {
	return withService(cmd, func(ctx context.Context, svc service) error {
		result, err := svc.ClearTags(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), result.Message)
		return nil
	})
}

func runTags(cmd *cobra.Command, args []string) error {
	return withService(cmd, func(ctx context.Context, svc service) error {
		tags, err := svc.ListTags(ctx)
		if err != nil {
			return err
		}
		if len(tags) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), training.MsgNoTags)
			return nil
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tIMAGES")
		for _, t := range tags {
			fmt.Fprintf(tw, "%s\t%s\t%d\n", t.ID, t.Name, t.ImageCount)
		}
		return tw.Flush()
	})
}

func runRuns(cmd *cobra.Command, args []string) error {
	if runsLimit < 1 || runsLimit > 200 {
		return fmt.Errorf("limit must be between 1 and 200, got %d", runsLimit)
	}
	return withService(cmd, func(ctx context.Context, svc service) error {
		runs, err := svc.ListRuns(ctx, training.NormalizeTag(runsTag), runsLimit)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), runs)
	})
}
