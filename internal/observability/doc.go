// Package observability provides event logging, metrics calculation, and
// alerting for the task board. Board changes are appended to a JSON Lines
// event log from which metrics are derived on demand; alerts are
// evaluated against the live board.
package observability
