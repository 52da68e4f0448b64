// Package backfill replays every file in a local bucket directory.
package backfill

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"bcgov/pay-reconciler/cmd/root"
	"bcgov/pay-reconciler/internal/config"
	"bcgov/pay-reconciler/internal/fileutils"
	"bcgov/pay-reconciler/internal/logging"
	"bcgov/pay-reconciler/internal/queue"
	"bcgov/pay-reconciler/internal/reconcile"
	"bcgov/pay-reconciler/internal/validation"
	"bcgov/pay-reconciler/internal/worker"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var (
	eventType  string
	location   string
	extensions []string
)

// Cmd represents the backfill command
var Cmd = &cobra.Command{
	Use:   "backfill",
	Short: "Reconcile every file found in a local bucket",
	Long: `Dispatch one event per file under <blob.local_root>/<location>, in name order.

Files already processed are replayed safely: completed EFT files and known CAS
settlement files are skipped. Only the local blob provider is supported.

Example:
  pay-reconciler backfill --type eft --location eft --ext .txt`,
	RunE: backfillFunc,
}

func init() {
	Cmd.Flags().StringVarP(&eventType, "type", "t", "eft", "Event type: eft or cas")
	Cmd.Flags().StringVarP(&location, "location", "l", "", "Bucket directory under blob.local_root (required)")
	Cmd.Flags().StringSliceVar(&extensions, "ext", nil, "File extensions to include (default all files)")
	_ = Cmd.MarkFlagRequired("location")
}

// Tally counts outcomes by status.
type Tally map[reconcile.Status]int

func backfillFunc(cmd *cobra.Command, args []string) error {
	c, err := root.RequireContainer()
	if err != nil {
		return err
	}
	cfg := c.GetConfig()
	if cfg.Blob.Provider != config.BlobProviderLocal {
		return fmt.Errorf("backfill requires the local blob provider, got %s", cfg.Blob.Provider)
	}

	t, ok := queue.ParseMessageType(eventType)
	if !ok || (t != queue.MessageTypeEFTFile && t != queue.MessageTypeCASSettlement) {
		return fmt.Errorf("backfill supports eft and cas files, got %s", eventType)
	}

	if err := validation.IsValidBucketDir(cfg.Blob.LocalRoot, location); err != nil {
		return err
	}
	files, err := fileutils.ListObjects(filepath.Join(cfg.Blob.LocalRoot, location), extensions...)
	if err != nil {
		return err
	}

	tally, err := Run(cmd.Context(), c.GetDispatcher(), t, location, files, cmd.ErrOrStderr(), c.GetLogger())
	if err != nil {
		return err
	}
	for status, n := range tally {
		c.GetLogger().Info("Backfill result", logging.F(logging.FieldStatus, status), logging.F(logging.FieldCount, n))
	}
	if tally[reconcile.StatusFatal] > 0 {
		return fmt.Errorf("%d of %d files failed", tally[reconcile.StatusFatal], len(files))
	}
	return nil
}

// Run dispatches one event per file, reporting progress to w. It stops
// early only when ctx is cancelled.
func Run(ctx context.Context, handler worker.Handler, t queue.MessageType, loc string, files []string, w io.Writer, logger logging.Logger) (Tally, error) {
	tally := Tally{}
	if len(files) == 0 {
		logger.Warn("No files found to backfill", logging.F(logging.FieldLocation, loc))
		return tally, nil
	}

	bar := progressbar.NewOptions(len(files),
		progressbar.OptionSetWriter(w),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("Reconciling files"),
	)

	for _, name := range files {
		if err := ctx.Err(); err != nil {
			return tally, err
		}

		ce, err := queue.NewCloudEvent(t, queue.FileMessage{FileName: name, Location: loc})
		if err != nil {
			return tally, err
		}
		out := handler.Handle(ctx, ce)
		tally[out.Status]++
		if out.Status == reconcile.StatusFatal {
			logger.WithError(out.Err).Warn("File failed", logging.F(logging.FieldFileName, name))
		}
		_ = bar.Add(1)
	}
	_ = bar.Finish()
	return tally, nil
}
