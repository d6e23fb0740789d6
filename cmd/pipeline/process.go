package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"vacancy-pipeline/internal/entity"
)

var errAborted = errors.New("aborted by operator")

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Queue a processing run over pending scraped vacancies, or over the given ids",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runProcess(cmd)
	},
}

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Queue a model training run",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runTrain(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(trainCmd)

	processCmd.Flags().StringSlice("ids", nil, "re-process these scraped vacancy ids whatever their status")
	processCmd.Flags().Int("batch-size", 0, "records per chunk (default from config)")
	processCmd.Flags().Int("concurrency", 0, "records extracted in parallel (default from config)")
	processCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")
}

func runProcess(cmd *cobra.Command) error {
	ctx := cmd.Context()
	rawIDs, _ := cmd.Flags().GetStringSlice("ids")
	batchSize, _ := cmd.Flags().GetInt("batch-size")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	yes, _ := cmd.Flags().GetBool("yes")

	in := entity.ProcessInput{BatchSize: batchSize, Concurrency: concurrency}
	for _, raw := range rawIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return fmt.Errorf("invalid id %q: %w", raw, err)
		}
		in.IDs = append(in.IDs, id)
	}

	// Re-selection also rewrites records that already finished.
	if len(in.IDs) > 0 && !yes {
		prompt := promptui.Prompt{
			Label:     fmt.Sprintf("Re-process %d records regardless of status", len(in.IDs)),
			IsConfirm: true,
		}
		if _, err := prompt.Run(); err != nil {
			return errAborted
		}
	}

	e, err := setup(ctx, true)
	if err != nil {
		return err
	}
	defer e.close()

	id, err := e.jobService().EnqueueProcessing(ctx, in)
	if err != nil {
		e.logger.Error("enqueue processing failed", zap.Error(err))
		return err
	}
	e.logger.Info("processing queued", zap.String("job_id", id.String()), zap.Int("ids", len(in.IDs)))
	return nil
}

func runTrain(ctx context.Context) error {
	e, err := setup(ctx, true)
	if err != nil {
		return err
	}
	defer e.close()

	id, err := e.jobService().EnqueueTraining(ctx)
	if err != nil {
		e.logger.Error("enqueue training failed", zap.Error(err))
		return err
	}
	e.logger.Info("training queued", zap.String("job_id", id.String()))
	return nil
}
