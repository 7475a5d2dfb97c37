package ruleset

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"

	"github.com/Friduric/kattis-cli/internal/expr"
)

//go:embed schema.cue
var schemaSrc string

// Format identifies a rule file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCUE  Format = "cue"
)

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".cue":
		return FormatCUE, nil
	default:
		return "", &LoadError{Code: ErrCodeFormat, Path: path, Message: fmt.Sprintf("unsupported rule file extension %q", filepath.Ext(path))}
	}
}

// document is one decoded rule file before include resolution.
type document struct {
	rules    []Rule
	includes []string
}

// decoder lowers documents to CUE and checks them against #RuleFile.
type decoder struct {
	ctx    *cue.Context
	schema cue.Value
}

func newDecoder() (*decoder, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSrc, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile rule schema: %w", err)
	}
	return &decoder{
		ctx:    ctx,
		schema: schema.LookupPath(cue.ParsePath("#RuleFile")),
	}, nil
}

func (d *decoder) decode(data []byte, format Format, name string) (*document, error) {
	var v cue.Value
	switch format {
	case FormatJSON, FormatCUE:
		// JSON is a subset of CUE, so both go through the CUE compiler.
		v = d.ctx.CompileBytes(data, cue.Filename(name))
	case FormatYAML:
		var raw any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, &LoadError{Code: ErrCodeBuildFailed, Path: name, Message: "invalid YAML", Err: err}
		}
		if raw == nil {
			raw = map[string]any{}
		}
		v = d.ctx.Encode(raw)
	default:
		return nil, &LoadError{Code: ErrCodeFormat, Path: name, Message: fmt.Sprintf("unsupported format %q", format)}
	}
	if err := v.Err(); err != nil {
		return nil, &LoadError{Code: ErrCodeBuildFailed, Path: name, Message: cueMessage(err), Err: err}
	}

	checked := d.schema.Unify(v)
	if err := checked.Validate(cue.Concrete(true)); err != nil {
		return nil, &LoadError{Code: ErrCodeSchema, Path: name, Message: cueMessage(err), Err: err}
	}

	js, err := checked.MarshalJSON()
	if err != nil {
		return nil, &LoadError{Code: ErrCodeBuildFailed, Path: name, Message: cueMessage(err), Err: err}
	}
	root, err := expr.Parse(js)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeBuildFailed, Path: name, Message: err.Error(), Err: err}
	}
	obj, ok := root.(expr.Object)
	if !ok {
		return nil, &LoadError{Code: ErrCodeSchema, Path: name, Message: "rule file must be an object"}
	}

	doc := &document{}
	if list, ok := obj["includes"].(expr.List); ok {
		for _, inc := range list {
			doc.includes = append(doc.includes, string(inc.(expr.String)))
		}
	}
	if list, ok := obj["rules"].(expr.List); ok {
		for i, item := range list {
			ruleObj, ok := item.(expr.Object)
			if !ok {
				return nil, &RuleError{Source: name, Index: i, Field: "", Message: "rule must be an object"}
			}
			rule, err := decodeRule(ruleObj, i, name)
			if err != nil {
				return nil, err
			}
			doc.rules = append(doc.rules, rule)
		}
	}
	return doc, nil
}

// cueMessage flattens a CUE error list into one line per error.
func cueMessage(err error) string {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err.Error()
	}
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msg := e.Error()
		if pos := cueerrors.Positions(e); len(pos) > 0 && pos[0].IsValid() {
			msg = fmt.Sprintf("%d:%d: %s", pos[0].Line(), pos[0].Column(), msg)
		}
		msgs = append(msgs, msg)
	}
	return strings.Join(msgs, "; ")
}

// Parse decodes a single in-memory document. Includes are not followed;
// a document that names includes is rejected because there is no base
// directory to resolve them against.
func Parse(data []byte, format Format) (*Ruleset, error) {
	d, err := newDecoder()
	if err != nil {
		return nil, err
	}
	doc, err := d.decode(data, format, "")
	if err != nil {
		return nil, err
	}
	if len(doc.includes) > 0 {
		return nil, &LoadError{Code: ErrCodeGeneric, Message: "includes are only supported when loading from a file"}
	}
	return New(doc.rules...), nil
}

// Load reads a rule file and every file it includes, transitively.
//
// Include paths are relative to the including file. Files are visited
// breadth-first and each file is read once, so include cycles are harmless.
// Rules are appended root first, then included files in visit order.
func Load(path string) (*Ruleset, error) {
	d, err := newDecoder()
	if err != nil {
		return nil, err
	}

	root, err := filepath.Abs(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Path: path, Message: err.Error(), Err: err}
	}

	rs := New()
	visited := map[string]bool{root: true}
	queue := []string{root}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		doc, err := loadFile(d, current)
		if err != nil {
			return nil, err
		}
		rs.Files = append(rs.Files, current)
		for _, r := range doc.rules {
			rs.Add(r)
		}

		for _, inc := range doc.includes {
			next := inc
			if !filepath.IsAbs(next) {
				next = filepath.Join(filepath.Dir(current), next)
			}
			next = filepath.Clean(next)
			if visited[next] {
				continue
			}
			visited[next] = true
			queue = append(queue, next)
		}
	}
	return rs, nil
}

func loadFile(d *decoder, path string) (*document, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, &LoadError{Code: ErrCodeNotFound, Path: path, Message: "rule file not found", Err: err}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeReadFailed, Path: path, Message: "reading rule file", Err: err}
	}
	return d.decode(data, format, path)
}
