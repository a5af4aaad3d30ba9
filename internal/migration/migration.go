// Package migration upgrades on-disk chart documents between integer
// format versions, operating on decoded JSON values rather than typed
// structs so each step only touches the keys it changes.
//
// Grounded on original_source/phichain-chart/src/migration/{migration_2_3,
// migration_4_5}.rs; the ascending-version driver shape mirrors
// cartomix/internal/storage/db.go's migrate() loop, applied to JSON values
// instead of .sql files.
package migration

import (
	"fmt"
	"strings"
)

// Step upgrades a decoded chart document from one format version to the
// next and returns the upgraded document.
type Step func(doc map[string]any) (map[string]any, error)

// steps is keyed by the version a step upgrades FROM.
var steps = map[int]Step{
	2: migrate2To3,
	// 3 -> 4 changes no keys this package reads; it only bumps the version.
	3: func(doc map[string]any) (map[string]any, error) {
		doc["format"] = float64(4)
		return doc, nil
	},
	4: migrate4To5,
}

// TargetFormat is the newest format version this package knows how to
// produce.
const TargetFormat = 5

// Migrate repeatedly applies registered steps, in ascending version order,
// until the document reaches TargetFormat. A version below TargetFormat
// with no registered step is an error.
func Migrate(doc map[string]any) (map[string]any, error) {
	for {
		version, err := formatVersion(doc)
		if err != nil {
			return nil, err
		}
		if version >= TargetFormat {
			return doc, nil
		}
		step, ok := steps[version]
		if !ok {
			return nil, fmt.Errorf("migration: no step registered for format %d", version)
		}
		doc, err = step(doc)
		if err != nil {
			return nil, fmt.Errorf("migration: upgrading from format %d: %w", version, err)
		}
	}
}

func formatVersion(doc map[string]any) (int, error) {
	raw, ok := doc["format"]
	if !ok {
		return 0, fmt.Errorf("migration: document has no \"format\" field")
	}
	switch v := raw.(type) {
	case float64:
		return int(v), nil
	case int:
		return v, nil
	default:
		return 0, fmt.Errorf("migration: \"format\" field has unexpected type %T", raw)
	}
}

func asArray(v any) ([]any, bool) {
	a, ok := v.([]any)
	return a, ok
}

func asObject(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

// pascalToSnake mirrors convert_case's default PascalCase->snake_case
// conversion for the enum tags this migration renames
// ("Tap" -> "tap", "X" -> "x", "EaseInOutCubic" -> "ease_in_out_cubic").
func pascalToSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r - 'A' + 'a')
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// migrate2To3 introduces the transition/constant event value envelope and
// renames every PascalCase enum tag (LineEventKind, NoteKind, Easing) to
// snake_case.
func migrate2To3(doc map[string]any) (map[string]any, error) {
	lines, ok := asArray(doc["lines"])
	if !ok {
		return nil, fmt.Errorf("\"lines\" is not an array")
	}

	for _, lineRaw := range lines {
		line, ok := asObject(lineRaw)
		if !ok {
			return nil, fmt.Errorf("line is not an object")
		}

		events, ok := asArray(line["events"])
		if !ok {
			return nil, fmt.Errorf("\"line.events\" is not an array")
		}
		for _, eventRaw := range events {
			event, ok := asObject(eventRaw)
			if !ok {
				return nil, fmt.Errorf("event is not an object")
			}
			kindStr, ok := event["kind"].(string)
			if !ok {
				return nil, fmt.Errorf("event kind is not a string")
			}
			event["kind"] = pascalToSnake(kindStr)

			newEasing, err := migrateEasing(event["easing"])
			if err != nil {
				return nil, err
			}

			event["value"] = map[string]any{
				"transition": map[string]any{
					"start":  event["start"],
					"end":    event["end"],
					"easing": newEasing,
				},
			}
			delete(event, "start")
			delete(event, "end")
			delete(event, "easing")
		}

		notes, ok := asArray(line["notes"])
		if !ok {
			return nil, fmt.Errorf("\"line.notes\" is not an array")
		}
		for _, noteRaw := range notes {
			note, ok := asObject(noteRaw)
			if !ok {
				return nil, fmt.Errorf("note is not an object")
			}
			newKind, err := migrateNoteKind(note["kind"])
			if err != nil {
				return nil, err
			}
			note["kind"] = newKind
		}
	}

	doc["format"] = float64(3)
	return doc, nil
}

func migrateEasing(v any) (any, error) {
	switch e := v.(type) {
	case string:
		return pascalToSnake(e), nil
	case map[string]any:
		bezier, ok := e["Custom"]
		if !ok {
			return nil, fmt.Errorf("expected \"Custom\" key in easing object")
		}
		return map[string]any{"custom": bezier}, nil
	default:
		return nil, fmt.Errorf("expected an object or a string as easing, got: %T", v)
	}
}

func migrateNoteKind(v any) (any, error) {
	switch k := v.(type) {
	case string:
		return pascalToSnake(k), nil
	case map[string]any:
		hold, ok := asObject(k["Hold"])
		if !ok {
			return nil, fmt.Errorf("expected \"Hold\" key in note kind object")
		}
		return map[string]any{
			"hold": map[string]any{"hold_beat": hold["hold_beat"]},
		}, nil
	default:
		return nil, fmt.Errorf("expected an object or a string as note kind, got: %T", v)
	}
}

// migrate4To5 adds the (initially empty) curve_note_tracks array introduced
// alongside curve-note-track support.
func migrate4To5(doc map[string]any) (map[string]any, error) {
	lines, ok := asArray(doc["lines"])
	if !ok {
		return nil, fmt.Errorf("\"lines\" is not an array")
	}
	for _, lineRaw := range lines {
		line, ok := asObject(lineRaw)
		if !ok {
			return nil, fmt.Errorf("line is not an object")
		}
		line["curve_note_tracks"] = []any{}
	}
	doc["format"] = float64(5)
	return doc, nil
}
