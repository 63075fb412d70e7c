package report

// Schema is the JSON Schema (Draft 2020-12) for the output of
// "covlines lines --format=json". Editor integrations can validate
// against it.
const Schema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://github.com/unbound-force/covlines/lines-report.schema.json",
  "title": "covlines Lines Report",
  "description": "Output schema for covlines lines --format=json",
  "type": "object",
  "required": ["version", "coverage", "percent_text"],
  "properties": {
    "version": {
      "type": "string",
      "description": "Schema version (semver)"
    },
    "coverage": { "$ref": "#/$defs/Coverage" },
    "percent_text": {
      "type": "string",
      "description": "Percentage rendered for a status line (e.g. 50.0%)"
    }
  },
  "$defs": {
    "LineSet": {
      "type": "array",
      "items": { "type": "integer", "minimum": 1 },
      "description": "Sorted 1-based line numbers"
    },
    "Coverage": {
      "type": "object",
      "required": [
        "file", "measured", "covered", "uncovered", "partial",
        "statements", "covered_statements", "percentage"
      ],
      "properties": {
        "file": {
          "type": "string",
          "description": "Absolute path of the source file"
        },
        "measured": {
          "type": "boolean",
          "description": "Whether the store had data for the file"
        },
        "covered": { "$ref": "#/$defs/LineSet" },
        "uncovered": { "$ref": "#/$defs/LineSet" },
        "partial": { "$ref": "#/$defs/LineSet" },
        "statements": { "type": "integer", "minimum": 0 },
        "covered_statements": { "type": "integer", "minimum": 0 },
        "percentage": {
          "type": "number",
          "minimum": 0,
          "maximum": 100,
          "description": "Statement coverage percentage"
        }
      }
    }
  }
}`
