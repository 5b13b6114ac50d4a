package msgtemplate

// MessageType is the carrier billing tier of a message.
type MessageType string

const (
	MessageTypeSMS     MessageType = "SMS"
	MessageTypeLMS     MessageType = "LMS"
	MessageTypeTooLong MessageType = "TOO_LONG"
)

const (
	// SMSByteLimit is the largest message billed as SMS.
	SMSByteLimit = 90
	// LMSByteLimit is the largest message billed as LMS.
	LMSByteLimit = 2000
)

const (
	hangulSyllableFirst = 0xAC00
	hangulSyllableLast  = 0xD7A3
)

// CalculateMessageBytes counts message size under the SMS/LMS byte model:
// Hangul syllables count as two bytes, every other character as one.
func CalculateMessageBytes(message string) int {
	total := 0
	for _, r := range message {
		if r >= hangulSyllableFirst && r <= hangulSyllableLast {
			total += 2
			continue
		}
		total++
	}
	return total
}

// ClassifyMessage picks the billing tier for message.
func ClassifyMessage(message string) MessageType {
	switch n := CalculateMessageBytes(message); {
	case n <= SMSByteLimit:
		return MessageTypeSMS
	case n <= LMSByteLimit:
		return MessageTypeLMS
	default:
		return MessageTypeTooLong
	}
}
