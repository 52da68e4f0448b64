// Package reconcile runs a single queue event from the command line.
package reconcile

import (
	"fmt"
	"io"

	"bcgov/pay-reconciler/cmd/root"
	"bcgov/pay-reconciler/internal/queue"
	recon "bcgov/pay-reconciler/internal/reconcile"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	eventType      string
	fileName       string
	location       string
	tempIdentifier string
	identifier     string
)

// Cmd represents the reconcile command
var Cmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile one settlement file or identifier change",
	Long: `Build the event the message queue would deliver and handle it in-process.

Examples:
  pay-reconciler reconcile --type eft --file TDI17_20240501.TXT --location eft
  pay-reconciler reconcile --type cas --file cas_20240501.csv --location cas
  pay-reconciler reconcile --type bc.registry.business.registration --temp T123 --identifier FM0001`,
	RunE: reconcileFunc,
}

func init() {
	Cmd.Flags().StringVarP(&eventType, "type", "t", "eft", "Event type: eft, cas, cgi-ack, cgi-feedback or a full event type")
	Cmd.Flags().StringVarP(&fileName, "file", "f", "", "Object name of the file")
	Cmd.Flags().StringVarP(&location, "location", "l", "", "Bucket holding the file")
	Cmd.Flags().StringVar(&tempIdentifier, "temp", "", "Temporary business identifier (identifier events)")
	Cmd.Flags().StringVar(&identifier, "identifier", "", "Registered business identifier (identifier events)")
}

func reconcileFunc(cmd *cobra.Command, args []string) error {
	c, err := root.RequireContainer()
	if err != nil {
		return err
	}

	ce, err := buildEvent(eventType, fileName, location, tempIdentifier, identifier)
	if err != nil {
		return err
	}

	out := c.GetDispatcher().Handle(cmd.Context(), ce)
	if err := writeOutcome(cmd.OutOrStdout(), out); err != nil {
		return err
	}
	if out.Status == recon.StatusFatal {
		return fmt.Errorf("reconciliation failed: %w", out.Err)
	}
	return nil
}

// buildEvent creates the CloudEvent for the requested type.
func buildEvent(typ, file, loc, temp, ident string) (*queue.CloudEvent, error) {
	t, ok := queue.ParseMessageType(typ)
	if !ok {
		return nil, fmt.Errorf("unknown event type: %s", typ)
	}

	switch t {
	case queue.MessageTypeIncorporation, queue.MessageTypeRegistration:
		if temp == "" || ident == "" {
			return nil, fmt.Errorf("--temp and --identifier are required for %s", t)
		}
		return queue.NewCloudEvent(t, queue.IdentifierUpdate{TempIdentifier: temp, Identifier: ident})
	case queue.MessageTypeCGIAck, queue.MessageTypeCGIFeedback:
		return queue.NewCloudEvent(t, queue.FileMessage{FileName: file, Location: loc})
	default:
		if file == "" {
			return nil, fmt.Errorf("--file is required for %s", t)
		}
		return queue.NewCloudEvent(t, queue.FileMessage{FileName: file, Location: loc})
	}
}

// summary is the printable form of an outcome.
type summary struct {
	Status          recon.Status `yaml:"status"`
	FileName        string       `yaml:"file_name,omitempty"`
	CreditsCreated  int          `yaml:"credits_created"`
	CreditsReplayed int          `yaml:"credits_replayed"`
	LinksCreated    int          `yaml:"links_created"`
	FileErrors      []string     `yaml:"file_errors,omitempty"`
	LineErrors      []string     `yaml:"line_errors,omitempty"`
	Error           string       `yaml:"error,omitempty"`
}

func writeOutcome(w io.Writer, out *recon.Outcome) error {
	s := summary{
		Status:          out.Status,
		FileName:        out.FileName,
		CreditsCreated:  out.CreditsCreated,
		CreditsReplayed: out.CreditsReplayed,
		LinksCreated:    out.LinksCreated,
		FileErrors:      out.FileErrors,
		LineErrors:      out.LineErrors,
	}
	if out.Err != nil {
		s.Error = out.Err.Error()
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("failed to write outcome: %w", err)
	}
	return enc.Close()
}
