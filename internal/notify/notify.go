// Package notify alerts operations staff when reconciliation hits errors.
package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"

	"bcgov/pay-reconciler/internal/logging"
)

// ErrSendFailed is returned when no recipient could be notified.
var ErrSendFailed = errors.New("failed to send error email")

// Subjects used by the pipelines.
const (
	SubjectEFT        = "EFT TDI17 Reconciliation Failure"
	SubjectSettlement = "Payment Reconciliation Failure"
	SubjectFatal      = "Payment Queue Message Failure"
)

// ErrorMessage is one problem reported in an alert. Row identifies the line
// or record, when there is one.
type ErrorMessage struct {
	Error string `json:"error"`
	Row   string `json:"row,omitempty"`
}

// EmailParams describes an alert.
type EmailParams struct {
	Subject       string
	FileName      string
	Location      string
	ErrorMessages []ErrorMessage
	TableName     string
	Payload       string
}

// Notifier sends alerts.
type Notifier interface {
	SendErrorEmail(ctx context.Context, params EmailParams) error
}

var emailTemplate = template.Must(template.New("payment_reconciliation_failed").Parse(`<!DOCTYPE html>
<html>
<body>
<h2>{{.Subject}}</h2>
<p>Reconciliation of <strong>{{.FileName}}</strong>{{if .Location}} from <strong>{{.Location}}</strong>{{end}} reported errors.</p>
{{if .TableName}}<p>Table: {{.TableName}}</p>{{end}}
<table border="1" cellpadding="4">
<tr><th>Row</th><th>Error</th></tr>
{{range .ErrorMessages}}<tr><td>{{.Row}}</td><td>{{.Error}}</td></tr>
{{end}}</table>
{{if .Payload}}<p>Payload:</p>
<pre>{{.Payload}}</pre>{{end}}
</body>
</html>
`))

// RenderBody renders the HTML body of an alert.
func RenderBody(params EmailParams) (string, error) {
	var buf bytes.Buffer
	if err := emailTemplate.Execute(&buf, params); err != nil {
		return "", fmt.Errorf("failed to render email body: %w", err)
	}
	return buf.String(), nil
}

// LogNotifier writes alerts to the log instead of sending them.
type LogNotifier struct {
	logger logging.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger logging.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// SendErrorEmail logs the alert.
func (n *LogNotifier) SendErrorEmail(_ context.Context, params EmailParams) error {
	msgs := make([]string, 0, len(params.ErrorMessages))
	for _, m := range params.ErrorMessages {
		msgs = append(msgs, m.Error)
	}
	n.logger.Error(params.Subject,
		logging.F(logging.FieldFileName, params.FileName),
		logging.F(logging.FieldLocation, params.Location),
		logging.F(logging.FieldCount, len(params.ErrorMessages)),
		logging.F(logging.FieldError, strings.Join(msgs, "; ")))
	return nil
}
