// Package engine implements the self-correcting execution loop at the
// heart of autoprep: it turns an ordered plan of natural-language data
// transformation tasks into validated dataframe mutations.
//
// # Overview
//
// A full pipeline run proceeds through four phases:
//
//  1. Load - Read the input CSV into the state holder (StateHolder)
//  2. Profile - Summarize the dataset for planning (dataset.Profile)
//  3. Plan - Ask the plan producer for an ordered task list (PlanProducer)
//  4. Execute - Drive the per-task retry protocol (Orchestrator)
//
// # Execution protocol
//
// Tasks execute strictly sequentially; each task's input is the previous
// task's committed output. Per task the states are:
//
//	Pending -> Generating -> Executing -> {Success | Retrying -> Executing ... | Failed}
//
// Code generation failures fail the task immediately without entering the
// execution cycle. Execution failures drive a bounded retry loop: the
// failure's error text is fed to the code producer's repair operation and
// the repaired candidate is re-executed, up to the configured attempt
// budget. A repair failure is not fatal; the previous code is retried
// unchanged. A task that exhausts its budget is recorded as failed and
// the loop advances, leaving the dataset snapshot untouched.
//
// # Ledger
//
// The append-only ledger, one terminal entry per attempted task, is the
// pipeline's authoritative result. A failed task never aborts the plan;
// only catastrophic failures outside any task boundary (initial load
// failure, empty plan with no fallback possible) end a run early.
//
// The plan producer, code producer, and isolated executor are
// collaborators behind interfaces defined here: nondeterministic,
// latency-bearing, fallible black boxes. The loop assumes neither
// idempotence nor determinism from them.
package engine
