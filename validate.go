package rpcconform

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/openrpckit/rpcconform/i18n"
	"github.com/openrpckit/rpcconform/internal/jsonval"
	"github.com/openrpckit/rpcconform/jsonschema"
)

// maxRefDepth bounds $ref chasing so reference cycles terminate with a
// schema_error instead of recursing forever.
const maxRefDepth = 64

// ValidateValue validates a decoded JSON value against a schema. A nil schema
// accepts any value; an empty schema or a bare {"type":"object"} accepts any
// object. Issues carry JSON Pointer paths into value, rooted at "/".
func ValidateValue(s *jsonschema.Schema, v any, res *jsonschema.Resolver) Issues {
	return validateAt("/", s, v, res, 0)
}

func validateAt(path string, s *jsonschema.Schema, v any, res *jsonschema.Resolver, depth int) Issues {
	if s == nil {
		return nil
	}
	if depth > maxRefDepth {
		return Issues{{Path: path, Code: CodeSchemaError, Message: "schema reference chain too deep"}}
	}
	if s.Ref != "" {
		target, ok := res.Resolve(s.Ref)
		if !ok {
			return Issues{{
				Path:    path,
				Code:    CodeSchemaError,
				Message: fmt.Sprintf("unresolvable $ref %q", s.Ref),
				Params:  map[string]any{"ref": s.Ref},
			}}
		}
		return validateAt(path, target, v, res, depth+1)
	}

	var iss Issues
	for _, sub := range s.AllOf {
		iss = append(iss, validateAt(path, sub, v, res, depth+1)...)
	}
	if len(s.AnyOf) > 0 && countMatches(path, s.AnyOf, v, res, depth) == 0 {
		iss = append(iss, unionIssue(path, "anyOf", 0))
	}
	if len(s.OneOf) > 0 {
		if n := countMatches(path, s.OneOf, v, res, depth); n != 1 {
			iss = append(iss, unionIssue(path, "oneOf", n))
		}
	}

	kind := jsonval.KindOf(v)
	if s.Type != "" && !typeMatches(s.Type, v, kind) {
		return append(iss, Issue{
			Path:    path,
			Code:    CodeInvalidType,
			Message: i18n.T(CodeInvalidType, map[string]string{"expected": s.Type, "got": kind.String()}),
			Params:  map[string]any{"expected": s.Type, "got": kind.String()},
		})
	}
	if len(s.Enum) > 0 {
		found := false
		for _, e := range s.Enum {
			if jsonval.Equal(e, v) {
				found = true
				break
			}
		}
		if !found {
			iss = append(iss, Issue{Path: path, Code: CodeInvalidEnum, Message: i18n.T(CodeInvalidEnum, nil)})
		}
	}
	if s.Const != nil && !jsonval.Equal(s.Const, v) {
		iss = append(iss, Issue{Path: path, Code: CodeInvalidConst, Message: i18n.T(CodeInvalidConst, nil)})
	}

	switch kind {
	case jsonval.KindObject:
		iss = append(iss, validateObject(path, s, v.(map[string]any), res, depth)...)
	case jsonval.KindArray:
		iss = append(iss, validateArray(path, s, v.([]any), res, depth)...)
	case jsonval.KindString:
		iss = append(iss, validateString(path, s, v.(string))...)
	case jsonval.KindNumber:
		iss = append(iss, validateNumber(path, s, v)...)
	}
	return iss
}

// countMatches reports how many variant schemas accept v. Variants that fail
// for any reason, including their own schema errors, count as non-matching.
func countMatches(path string, subs []*jsonschema.Schema, v any, res *jsonschema.Resolver, depth int) int {
	n := 0
	for _, sub := range subs {
		if len(validateAt(path, sub, v, res, depth+1)) == 0 {
			n++
		}
	}
	return n
}

func unionIssue(path, combinator string, matched int) Issue {
	return Issue{
		Path:    path,
		Code:    CodeUnionMismatch,
		Message: i18n.T(CodeUnionMismatch, nil),
		Params:  map[string]any{"combinator": combinator, "matched": matched},
	}
}

func typeMatches(typ string, v any, kind jsonval.Kind) bool {
	switch typ {
	case "object":
		return kind == jsonval.KindObject
	case "array":
		return kind == jsonval.KindArray
	case "string":
		return kind == jsonval.KindString
	case "boolean":
		return kind == jsonval.KindBool
	case "null":
		return kind == jsonval.KindNull
	case "number":
		return kind == jsonval.KindNumber
	case "integer":
		return kind == jsonval.KindNumber && isIntegral(v)
	default:
		// Unknown type names are a schema defect reported by CheckSchemaSyntax,
		// not a value defect.
		return true
	}
}

func validateObject(path string, s *jsonschema.Schema, m map[string]any, res *jsonschema.Resolver, depth int) Issues {
	var iss Issues
	props := make([]string, 0, len(s.Properties))
	for name := range s.Properties {
		props = append(props, name)
	}
	sort.Strings(props)
	for _, name := range props {
		if pv, ok := m[name]; ok {
			iss = append(iss, validateAt(childPath(path, name), s.Properties[name], pv, res, depth+1)...)
		}
	}
	for _, name := range s.Required {
		if _, ok := m[name]; !ok {
			iss = append(iss, Issue{
				Path:    childPath(path, name),
				Code:    CodeRequired,
				Message: i18n.T(CodeRequired, nil),
				Params:  map[string]any{"key": name},
			})
		}
	}
	if ap := s.AdditionalProperties; ap != nil {
		extra := make([]string, 0)
		for key := range m {
			if _, known := s.Properties[key]; !known {
				extra = append(extra, key)
			}
		}
		sort.Strings(extra)
		for _, key := range extra {
			if ap.Forbidden {
				iss = append(iss, Issue{
					Path:    childPath(path, key),
					Code:    CodeUnknownKey,
					Message: i18n.T(CodeUnknownKey, nil),
					Params:  map[string]any{"key": key},
				})
				continue
			}
			if ap.Schema != nil {
				iss = append(iss, validateAt(childPath(path, key), ap.Schema, m[key], res, depth+1)...)
			}
		}
	}
	return iss
}

func validateArray(path string, s *jsonschema.Schema, arr []any, res *jsonschema.Resolver, depth int) Issues {
	var iss Issues
	if s.Items != nil {
		for i, item := range arr {
			iss = append(iss, validateAt(childPath(path, strconv.Itoa(i)), s.Items, item, res, depth+1)...)
		}
	}
	if s.MinItems != nil && len(arr) < *s.MinItems {
		iss = append(iss, boundIssue(path, CodeTooShort, *s.MinItems, len(arr)))
	}
	if s.MaxItems != nil && len(arr) > *s.MaxItems {
		iss = append(iss, boundIssue(path, CodeTooLong, *s.MaxItems, len(arr)))
	}
	return iss
}

func validateString(path string, s *jsonschema.Schema, str string) Issues {
	var iss Issues
	n := len([]rune(str))
	if s.MinLength != nil && n < *s.MinLength {
		iss = append(iss, boundIssue(path, CodeTooShort, *s.MinLength, n))
	}
	if s.MaxLength != nil && n > *s.MaxLength {
		iss = append(iss, boundIssue(path, CodeTooLong, *s.MaxLength, n))
	}
	if s.Pattern != "" {
		re, err := regexp.Compile(s.Pattern)
		if err != nil {
			iss = append(iss, Issue{
				Path:    path,
				Code:    CodeSchemaError,
				Message: fmt.Sprintf("invalid pattern %q: %v", s.Pattern, err),
				Cause:   err,
			})
		} else if !re.MatchString(str) {
			iss = append(iss, Issue{
				Path:    path,
				Code:    CodePattern,
				Message: i18n.T(CodePattern, nil),
				Params:  map[string]any{"pattern": s.Pattern},
			})
		}
	}
	if s.Format != "" && !formatOK(s.Format, str) {
		iss = append(iss, Issue{
			Path:    path,
			Code:    CodeInvalidFormat,
			Message: i18n.T(CodeInvalidFormat, nil),
			Params:  map[string]any{"format": s.Format},
		})
	}
	return iss
}

// formatOK checks the formats the documents actually declare. Unknown format
// names pass, matching JSON Schema's annotation-by-default stance.
func formatOK(format, s string) bool {
	switch format {
	case "date-time":
		if _, err := time.Parse(time.RFC3339, s); err == nil {
			return true
		}
		// Zone-less timestamps occur in the wild (e.g. "2020-01-01T10:00:00").
		_, err := time.Parse("2006-01-02T15:04:05", s)
		return err == nil
	case "date":
		_, err := time.Parse("2006-01-02", s)
		return err == nil
	case "time":
		_, err := time.Parse("15:04:05", s)
		return err == nil
	case "uuid":
		_, err := uuid.Parse(s)
		return err == nil
	default:
		return true
	}
}

func validateNumber(path string, s *jsonschema.Schema, v any) Issues {
	var iss Issues
	f, ok := numberFloat(v)
	if !ok {
		return iss
	}
	if s.Minimum != nil && f < *s.Minimum {
		iss = append(iss, boundIssue(path, CodeTooSmall, *s.Minimum, f))
	}
	if s.Maximum != nil && f > *s.Maximum {
		iss = append(iss, boundIssue(path, CodeTooBig, *s.Maximum, f))
	}
	return iss
}

func boundIssue(path, code string, limit, got any) Issue {
	return Issue{
		Path:    path,
		Code:    code,
		Message: i18n.T(code, nil),
		Params:  map[string]any{"limit": limit, "got": got},
	}
}

func numberFloat(v any) (float64, bool) {
	s, ok := jsonval.NumberString(v)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func isIntegral(v any) bool {
	s, ok := jsonval.NumberString(v)
	if !ok {
		return false
	}
	if !strings.ContainsAny(s, ".eE") {
		return true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return false
	}
	return f == math.Trunc(f)
}

// childPath appends a JSON Pointer segment with ~/ escaping.
func childPath(base, seg string) string {
	seg = strings.ReplaceAll(seg, "~", "~0")
	seg = strings.ReplaceAll(seg, "/", "~1")
	if base == "/" {
		return "/" + seg
	}
	return base + "/" + seg
}

// CheckSchemaSyntax verifies that a schema is itself well-formed: known type
// names, sane bounds, compilable patterns, resolvable $refs. Paths point into
// the schema, not into any value.
func CheckSchemaSyntax(s *jsonschema.Schema, res *jsonschema.Resolver) Issues {
	return checkSyntaxAt("/", s, res, 0)
}

var knownTypes = map[string]struct{}{
	"object": {}, "array": {}, "string": {}, "number": {},
	"integer": {}, "boolean": {}, "null": {},
}

func checkSyntaxAt(path string, s *jsonschema.Schema, res *jsonschema.Resolver, depth int) Issues {
	if s == nil {
		return nil
	}
	if depth > maxRefDepth {
		return Issues{{Path: path, Code: CodeSchemaError, Message: "schema nesting too deep"}}
	}
	var iss Issues
	if s.Type != "" {
		if _, ok := knownTypes[s.Type]; !ok {
			iss = append(iss, syntaxIssue(path, fmt.Sprintf("unknown type %q", s.Type)))
		}
	}
	if s.Ref != "" {
		if _, ok := res.Resolve(s.Ref); !ok {
			iss = append(iss, syntaxIssue(path, fmt.Sprintf("unresolvable $ref %q", s.Ref)))
		}
	}
	if s.Pattern != "" {
		if _, err := regexp.Compile(s.Pattern); err != nil {
			iss = append(iss, syntaxIssue(path, fmt.Sprintf("invalid pattern %q: %v", s.Pattern, err)))
		}
	}
	iss = append(iss, checkBounds(path, "minItems", "maxItems", s.MinItems, s.MaxItems)...)
	iss = append(iss, checkBounds(path, "minLength", "maxLength", s.MinLength, s.MaxLength)...)
	if s.Minimum != nil && s.Maximum != nil && *s.Minimum > *s.Maximum {
		iss = append(iss, syntaxIssue(path, "minimum exceeds maximum"))
	}

	props := make([]string, 0, len(s.Properties))
	for name := range s.Properties {
		props = append(props, name)
	}
	sort.Strings(props)
	for _, name := range props {
		iss = append(iss, checkSyntaxAt(childPath(childPath(path, "properties"), name), s.Properties[name], res, depth+1)...)
	}
	if s.AdditionalProperties != nil && s.AdditionalProperties.Schema != nil {
		iss = append(iss, checkSyntaxAt(childPath(path, "additionalProperties"), s.AdditionalProperties.Schema, res, depth+1)...)
	}
	if s.Items != nil {
		iss = append(iss, checkSyntaxAt(childPath(path, "items"), s.Items, res, depth+1)...)
	}
	for i, sub := range s.OneOf {
		iss = append(iss, checkSyntaxAt(childPath(childPath(path, "oneOf"), strconv.Itoa(i)), sub, res, depth+1)...)
	}
	for i, sub := range s.AnyOf {
		iss = append(iss, checkSyntaxAt(childPath(childPath(path, "anyOf"), strconv.Itoa(i)), sub, res, depth+1)...)
	}
	for i, sub := range s.AllOf {
		iss = append(iss, checkSyntaxAt(childPath(childPath(path, "allOf"), strconv.Itoa(i)), sub, res, depth+1)...)
	}
	defs := make([]string, 0, len(s.Defs))
	for name := range s.Defs {
		defs = append(defs, name)
	}
	sort.Strings(defs)
	for _, name := range defs {
		iss = append(iss, checkSyntaxAt(childPath(childPath(path, "$defs"), name), s.Defs[name], res, depth+1)...)
	}
	return iss
}

func checkBounds(path, minName, maxName string, min, max *int) Issues {
	var iss Issues
	if min != nil && *min < 0 {
		iss = append(iss, syntaxIssue(path, minName+" is negative"))
	}
	if max != nil && *max < 0 {
		iss = append(iss, syntaxIssue(path, maxName+" is negative"))
	}
	if min != nil && max != nil && *min > *max {
		iss = append(iss, syntaxIssue(path, minName+" exceeds "+maxName))
	}
	return iss
}

func syntaxIssue(path, msg string) Issue {
	return Issue{Path: path, Code: CodeSchemaError, Message: msg}
}
