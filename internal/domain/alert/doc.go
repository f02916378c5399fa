// Package alert contains the core domain types of the job-alert flow.
//
// It defines the immutable JobAlert record, the lifecycle State and terminal
// Decision enums, the Presentation choice with the Environment predicates it
// is derived from, and the Resolution handed to the dispatch gateway.
package alert
