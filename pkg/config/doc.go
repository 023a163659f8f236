// Package config provides YAML run-spec parsing and validation for the
// autoprep data preparation pipeline.
//
// # Overview
//
// A run spec describes a single pipeline run: the input dataset, the cleaning
// goal, the LLM model to use, and the execution knobs (retry budget, sandbox
// timeout, interpreter). Specs are loaded from YAML files and validated with
// struct tags before the pipeline starts, so a bad spec fails fast instead of
// mid-run.
//
// # Components
//
//   - RunSpec: the top-level configuration structure
//   - Load / LoadFile: YAML parsing with defaults and validation
//   - PromptOverrides: optional replacement prompt templates
package config
