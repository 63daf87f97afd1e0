package logging

// Console timestamps are UTC with millisecond precision, matching the
// sub-second instants that appear in extraction messages.
const logTimestampLayout = "2006-01-02T15:04:05.000Z"
