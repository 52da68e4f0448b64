package reconcile

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bcgov/pay-reconciler/internal/logging"
	"bcgov/pay-reconciler/internal/notify"
	"bcgov/pay-reconciler/internal/parsererror"
	"bcgov/pay-reconciler/internal/queue"
	"bcgov/pay-reconciler/internal/settlement"
)

// Table names reported in alerts.
const (
	tableEFTFiles       = "eft_files"
	tableCasSettlements = "cas_settlements"
)

// Dispatcher routes CloudEvents to the pipeline for their type and raises
// an alert when a pipeline reports errors.
type Dispatcher struct {
	eft         *EFTReconciler
	settlements *settlement.Reconciler
	identifiers IdentifierStore
	notifier    notify.Notifier
	logger      logging.Logger
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(eft *EFTReconciler, settlements *settlement.Reconciler, identifiers IdentifierStore, notifier notify.Notifier, logger logging.Logger) *Dispatcher {
	return &Dispatcher{
		eft:         eft,
		settlements: settlements,
		identifiers: identifiers,
		notifier:    notifier,
		logger:      logger,
	}
}

// Handle processes one event to completion. It never returns an error: a
// failed message is reported through the outcome and the notifier, because
// redelivery would not fix it.
func (d *Dispatcher) Handle(ctx context.Context, ce *queue.CloudEvent) *Outcome {
	start := time.Now()
	log := d.logger.WithFields(
		logging.F(logging.FieldMessageType, ce.Type),
		logging.F(logging.FieldMessageID, ce.ID))
	log.Info("Processing message")

	var out *Outcome
	switch ce.Type {
	case queue.MessageTypeCASSettlement:
		out = d.handleSettlement(ctx, ce)
	case queue.MessageTypeCGIAck, queue.MessageTypeCGIFeedback:
		out = d.handleCGI(ctx, ce, log)
	case queue.MessageTypeEFTFile:
		out = d.handleEFT(ctx, ce)
	case queue.MessageTypeIncorporation, queue.MessageTypeRegistration:
		out = d.handleIdentifier(ctx, ce)
	default:
		out = fatalOutcome("", parsererror.Fatal("dispatch", fmt.Errorf("unknown message type %q", ce.Type)))
		d.alert(ctx, ce, notify.SubjectFatal, "", out)
	}

	fields := []logging.Field{
		logging.F(logging.FieldStatus, out.Status),
		logging.F(logging.FieldDuration, time.Since(start).Milliseconds()),
	}
	if out.Err != nil {
		log.WithError(out.Err).Error("Message failed", fields...)
	} else {
		log.Info("Message processed", fields...)
	}
	return out
}

func (d *Dispatcher) handleEFT(ctx context.Context, ce *queue.CloudEvent) *Outcome {
	msg, err := ce.FileMessage()
	if err != nil {
		out := fatalOutcome("", parsererror.Fatal("decode eft message", err))
		d.alert(ctx, ce, notify.SubjectEFT, tableEFTFiles, out)
		return out
	}

	out, err := d.eft.Reconcile(ctx, msg)
	if err != nil {
		out = fatalOutcome(msg.FileName, err)
	}
	if out.HasErrors() {
		d.alert(ctx, ce, notify.SubjectEFT, tableEFTFiles, out)
	}
	return out
}

func (d *Dispatcher) handleSettlement(ctx context.Context, ce *queue.CloudEvent) *Outcome {
	msg, err := ce.FileMessage()
	if err != nil {
		out := fatalOutcome("", parsererror.Fatal("decode settlement message", err))
		d.alert(ctx, ce, notify.SubjectSettlement, tableCasSettlements, out)
		return out
	}

	res, err := d.settlements.Reconcile(ctx, msg)
	if err != nil {
		out := fatalOutcome(msg.FileName, err)
		d.alert(ctx, ce, notify.SubjectSettlement, tableCasSettlements, out)
		return out
	}

	out := &Outcome{Status: StatusSuccess, FileName: msg.FileName}
	switch {
	case res.Duplicate:
		out.Status = StatusReplayed
	case res.HasErrors():
		out.Status = StatusPartial
		for _, e := range res.Errors {
			out.LineErrors = append(out.LineErrors, fmt.Sprintf("row %s: %s", e.Row, e.Error))
		}
		params := d.emailParams(ce, notify.SubjectSettlement, tableCasSettlements, msg)
		params.ErrorMessages = res.Errors
		d.send(ctx, params)
	}
	return out
}

// handleCGI acknowledges CGI acknowledgement and feedback files. Neither
// names the batch it answers, so there is nothing to reconcile.
func (d *Dispatcher) handleCGI(ctx context.Context, ce *queue.CloudEvent, log logging.Logger) *Outcome {
	msg, err := ce.FileMessage()
	if err != nil {
		out := fatalOutcome("", parsererror.Fatal("decode cgi message", err))
		d.alert(ctx, ce, notify.SubjectFatal, "", out)
		return out
	}
	if ce.Type == queue.MessageTypeCGIFeedback {
		log.Info("Received CGI feedback", logging.F(logging.FieldFileName, msg.FileName))
	} else {
		log.Info("Received CGI acknowledgement", logging.F(logging.FieldFileName, msg.FileName))
	}
	return &Outcome{Status: StatusSuccess, FileName: msg.FileName}
}

func (d *Dispatcher) handleIdentifier(ctx context.Context, ce *queue.CloudEvent) *Outcome {
	var update queue.IdentifierUpdate
	if err := ce.DecodeData(&update); err != nil {
		out := fatalOutcome("", parsererror.Fatal("decode identifier update", err))
		d.alert(ctx, ce, notify.SubjectFatal, "", out)
		return out
	}
	if _, err := RenameIdentifier(ctx, d.identifiers, update, d.logger); err != nil {
		out := fatalOutcome("", err)
		d.alert(ctx, ce, notify.SubjectFatal, "invoices", out)
		return out
	}
	return &Outcome{Status: StatusSuccess}
}

func (d *Dispatcher) emailParams(ce *queue.CloudEvent, subject, table string, msg queue.FileMessage) notify.EmailParams {
	payload, err := json.Marshal(ce)
	if err != nil {
		payload = []byte(ce.ID)
	}
	return notify.EmailParams{
		Subject:   subject,
		FileName:  msg.FileName,
		Location:  msg.Location,
		TableName: table,
		Payload:   string(payload),
	}
}

func (d *Dispatcher) alert(ctx context.Context, ce *queue.CloudEvent, subject, table string, out *Outcome) {
	msg, err := ce.FileMessage()
	if err != nil {
		d.logger.Debug("Alerting without file details", logging.F(logging.FieldError, err.Error()))
	}
	if msg.FileName == "" {
		msg.FileName = out.FileName
	}
	params := d.emailParams(ce, subject, table, msg)
	params.ErrorMessages = out.Messages()
	d.send(ctx, params)
}

func (d *Dispatcher) send(ctx context.Context, params notify.EmailParams) {
	if err := d.notifier.SendErrorEmail(ctx, params); err != nil {
		d.logger.WithError(err).Error("Failed to send error email", logging.F(logging.FieldFileName, params.FileName))
	}
}
