// Package reconcile routes queue messages to the reconciliation pipelines
// and runs EFT file reconciliation.
package reconcile

import (
	"bcgov/pay-reconciler/internal/notify"
)

// Status is the overall result of handling one message.
type Status string

const (
	StatusSuccess  Status = "SUCCESS"
	StatusPartial  Status = "PARTIAL"
	StatusFatal    Status = "FATAL"
	StatusReplayed Status = "REPLAYED"
)

// Outcome describes how a message was handled.
type Outcome struct {
	Status          Status
	FileName        string
	FileErrors      []string
	LineErrors      []string
	CreditsCreated  int
	CreditsReplayed int
	LinksCreated    int
	Err             error
}

// HasErrors reports whether anything needs attention.
func (o *Outcome) HasErrors() bool {
	return o.Err != nil || len(o.FileErrors) > 0 || len(o.LineErrors) > 0
}

// Messages lists the outcome's errors in alert form.
func (o *Outcome) Messages() []notify.ErrorMessage {
	var msgs []notify.ErrorMessage
	if o.Err != nil {
		msgs = append(msgs, notify.ErrorMessage{Error: o.Err.Error()})
	}
	for _, e := range o.FileErrors {
		msgs = append(msgs, notify.ErrorMessage{Error: e})
	}
	for _, e := range o.LineErrors {
		msgs = append(msgs, notify.ErrorMessage{Error: e})
	}
	return msgs
}

func fatalOutcome(fileName string, err error) *Outcome {
	return &Outcome{Status: StatusFatal, FileName: fileName, Err: err}
}
