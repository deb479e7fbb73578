package ai

import "github.com/santhosh-tekuri/jsonschema/v5"

// The contract the generator's JSON output must satisfy. A response that
// parses but violates this shape is a schema mismatch, not a transport error.
const analysisSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["summary", "strategies", "forecasts"],
  "properties": {
    "summary": {"type": "string", "minLength": 1},
    "strengths": {"type": "array", "items": {"type": "string"}},
    "weaknesses": {"type": "array", "items": {"type": "string"}},
    "next_goals": {"type": "array", "items": {"type": "string"}},
    "strategies": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["type", "title"],
        "properties": {
          "type": {"enum": ["concept_review", "problem_solving", "habit", "time_management", "motivation"]},
          "title": {"type": "string", "minLength": 1},
          "description": {"type": "string"},
          "target_concept": {"type": "string"}
        }
      }
    },
    "forecasts": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["timeframe", "predicted_score"],
        "properties": {
          "timeframe": {"enum": ["1_month", "3_month", "6_month", "1_year"]},
          "predicted_score": {"type": "number", "exclusiveMinimum": 0, "maximum": 100},
          "confidence": {"enum": ["low", "medium", "high"]},
          "assumptions": {"type": "array", "items": {"type": "string"}}
        }
      }
    }
  }
}`

var analysisSchema = jsonschema.MustCompileString("analysis.json", analysisSchemaJSON)
