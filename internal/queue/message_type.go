// Package queue decodes the push messages that trigger reconciliation.
package queue

// MessageType is the closed set of event types the service handles.
type MessageType string

const (
	MessageTypeCASSettlement MessageType = "bc.registry.payment.casSettlementUploaded"
	MessageTypeCGIAck        MessageType = "bc.registry.payment.cgi.ACKReceived"
	MessageTypeCGIFeedback   MessageType = "bc.registry.payment.cgi.FEEDBACKReceived"
	MessageTypeEFTFile       MessageType = "bc.registry.payment.eft.fileUploaded"
	MessageTypeIncorporation MessageType = "bc.registry.business.incorporationApplication"
	MessageTypeRegistration  MessageType = "bc.registry.business.registration"
)

var knownTypes = map[MessageType]bool{
	MessageTypeCASSettlement: true,
	MessageTypeCGIAck:        true,
	MessageTypeCGIFeedback:   true,
	MessageTypeEFTFile:       true,
	MessageTypeIncorporation: true,
	MessageTypeRegistration:  true,
}

// Known reports whether t is one of the handled types.
func (t MessageType) Known() bool {
	return knownTypes[t]
}

func (t MessageType) String() string {
	return string(t)
}

// ParseMessageType maps a CLI alias or full type string to a MessageType.
func ParseMessageType(s string) (MessageType, bool) {
	switch s {
	case "eft":
		return MessageTypeEFTFile, true
	case "cas":
		return MessageTypeCASSettlement, true
	case "cgi-ack":
		return MessageTypeCGIAck, true
	case "cgi-feedback":
		return MessageTypeCGIFeedback, true
	}
	t := MessageType(s)
	return t, t.Known()
}
