package actions

import (
	"encoding/json"
	"log"
	"sort"
	"strings"
)

// ParseResult is the outcome of scanning one assistant message.
type ParseResult struct {
	Actions     []Action
	DisplayText string
}

// segment is one recognized tagged span within the source text.
type segment struct {
	kind        Kind
	start, end  int // full [KIND]...[/KIND] span, [start,end)
	payStart    int // raw JSON object bounds within the text
	payEnd      int
	isJSON      bool
	action      *Action // parsed and field-complete; Index assigned later
	replacement string  // substituted into the display text (inline-text PRODUCT)
}

// Parse extracts every well-formed [KIND]{json}[/KIND] segment from text and
// returns the typed actions plus the text with those spans removed so the
// prose reads naturally around the affordances.
//
// The payload is extracted by balanced-brace scanning from the first '{'
// after the opening tag, honoring JSON string literals, because payloads
// such as weekly schedules contain nested objects that defeat a non-greedy
// pattern. Parse is pure: the same input always yields structurally equal
// results, and action indexes derive from occurrence order, never from
// wall-clock time.
//
// While a buffer is still streaming in, an unterminated opening tag is not
// an error: the segment is simply not yet extractable and stays part of the
// visible prose until it closes. Unknown kinds are left verbatim.
func Parse(text string) ParseResult {
	kept := keptSegments(text)

	var acts []Action
	counts := make(map[Kind]int)
	for _, sg := range kept {
		if !sg.isJSON {
			continue
		}
		idx := counts[sg.kind]
		counts[sg.kind]++
		if sg.action != nil {
			a := *sg.action
			a.Index = idx
			acts = append(acts, a)
		}
	}

	var b strings.Builder
	pos := 0
	for _, sg := range kept {
		b.WriteString(text[pos:sg.start])
		b.WriteString(sg.replacement)
		pos = sg.end
	}
	b.WriteString(text[pos:])

	return ParseResult{Actions: acts, DisplayText: b.String()}
}

// keptSegments scans every kind and resolves cross-kind overlaps. A
// bracketed kind literal inside another segment's JSON string values can
// produce overlapping candidates; the earliest span wins. Occurrence
// indexes are assigned over this kept list, so anything that re-locates an
// action by index must count over the same list.
func keptSegments(text string) []segment {
	var segs []segment
	for _, kind := range Kinds {
		segs = append(segs, scanKind(text, kind)...)
	}
	sort.SliceStable(segs, func(i, j int) bool { return segs[i].start < segs[j].start })

	kept := segs[:0]
	lastEnd := 0
	for _, sg := range segs {
		if sg.start < lastEnd {
			continue
		}
		kept = append(kept, sg)
		lastEnd = sg.end
	}
	return kept
}

// scanKind collects the candidate segments for a single kind, in text
// order. It stops early when it hits a segment the stream has not finished
// delivering yet.
func scanKind(text string, kind Kind) []segment {
	open := "[" + string(kind) + "]"
	closeTag := "[/" + string(kind) + "]"
	var segs []segment
	from := 0
	for {
		rel := strings.Index(text[from:], open)
		if rel < 0 {
			return segs
		}
		start := from + rel
		body := start + len(open)

		p := skipSpace(text, body)
		if p < len(text) && text[p] == '{' {
			objEnd, closed := scanObject(text, p)
			if !closed {
				// Mid-stream: the object is still arriving.
				return segs
			}
			q := skipSpace(text, objEnd)
			if strings.HasPrefix(text[q:], closeTag) {
				end := q + len(closeTag)
				sg := segment{kind: kind, start: start, end: end, payStart: p, payEnd: objEnd, isJSON: true}
				if a, ok := decodePayload(kind, []byte(text[p:objEnd])); ok {
					if a.valid() {
						ac := a
						sg.action = &ac
					}
					segs = append(segs, sg)
				} else {
					// Malformed payload: drop this occurrence only, the
					// span stays in the prose, parsing continues.
					log.Printf("actions: dropping malformed %s payload", kind)
				}
				from = end
				continue
			}
			if q >= len(text) {
				// The closing tag has not streamed in yet.
				return segs
			}
			// Prose between the object and the closing tag: not a segment.
			from = body
			continue
		}

		if relClose := strings.Index(text[body:], closeTag); relClose >= 0 {
			end := body + relClose + len(closeTag)
			if kind == KindProduct {
				// Inline-text product mention: strip the wrapping tags but
				// keep the inner text visible.
				segs = append(segs, segment{kind: kind, start: start, end: end, replacement: text[body : body+relClose]})
			}
			from = end
			continue
		}
		if p >= len(text) {
			// Open tag at the buffer tail, still streaming.
			return segs
		}
		from = body
	}
}

// scanObject returns the index just past the '}' matching the '{' at start,
// or false when the object is not closed within s. Braces inside string
// literals, including escaped quotes, do not count.
func scanObject(s string, start int) (int, bool) {
	depth := 0
	inStr := false
	esc := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inStr {
			switch {
			case esc:
				esc = false
			case c == '\\':
				esc = true
			case c == '"':
				inStr = false
			}
			continue
		}
		switch c {
		case '"':
			inStr = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1, true
			}
		}
	}
	return 0, false
}

func skipSpace(s string, i int) int {
	for i < len(s) {
		switch s[i] {
		case ' ', '\t', '\n', '\r':
			i++
		default:
			return i
		}
	}
	return i
}

// decodePayload unmarshals raw into the payload struct for kind. A JSON
// error fails the occurrence, never the whole parse.
func decodePayload(kind Kind, raw []byte) (Action, bool) {
	a := Action{Kind: kind}
	var err error
	switch kind {
	case KindProduct:
		p := &ProductSuggestion{}
		err = json.Unmarshal(raw, p)
		a.Product = p
	case KindRoutine:
		r := &RoutineUpdate{}
		err = json.Unmarshal(raw, r)
		a.Routine = r
	case KindTreatment:
		t := &TreatmentSuggestion{}
		err = json.Unmarshal(raw, t)
		a.Treatment = t
	case KindGoal:
		g := &GoalSuggestion{}
		err = json.Unmarshal(raw, g)
		a.Goal = g
	case KindRoutineAction:
		c := &RoutineCompletion{}
		err = json.Unmarshal(raw, c)
		a.Complete = c
	case KindCabinetAction:
		c := &CabinetChange{}
		err = json.Unmarshal(raw, c)
		a.Cabinet = c
	case KindAppointmentAction:
		ap := &AppointmentChange{}
		err = json.Unmarshal(raw, ap)
		a.Appointment = ap
	case KindCheckinAction:
		c := &CheckinPhotos{}
		err = json.Unmarshal(raw, c)
		a.Checkin = c
	case KindWeeklyRoutine:
		w := &WeeklyRoutineSuggestion{}
		err = json.Unmarshal(raw, w)
		a.Weekly = w
	default:
		return Action{}, false
	}
	if err != nil {
		return Action{}, false
	}
	return a, true
}
