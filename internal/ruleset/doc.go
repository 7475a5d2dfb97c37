// Package ruleset loads rule files into an ordered, immutable Ruleset.
//
// A rule file is a JSON, YAML or CUE document:
//
//	{
//	  "includes": ["common.json"],
//	  "rules": [
//	    {"needs": {"solved": "hello"}, "towards": "lab1", "points": 1, "name": "Hello"}
//	  ]
//	}
//
// Every document is lowered to a CUE value and checked against the embedded
// #RuleFile schema before its rules are decoded. Missing fields default to
// needs=true, points=1 and empty strings. The late policy is read from
// "late", falling back to the older "after-deadline" key.
package ruleset
