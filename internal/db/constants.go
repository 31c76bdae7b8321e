package db

// timeLayout is the text encoding of topic and message timestamps.
const timeLayout = "2006-01-02T15:04:05.999999999Z07:00"

// Ledger kinds for MarkRecorded.
const (
	KindMessage = "message"
	KindTopic   = "topic"
)
