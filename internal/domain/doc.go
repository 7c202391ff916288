// Package domain defines the data model and contracts of the simulator.
// It contains plain types (messages, traces, records) and interfaces only.
package domain
