package actions

import "encoding/json"

// Serialize renders an action back to its tagged wire form. It is the
// inverse of Parse for a single segment and is also what the completion
// rewrite tests round-trip against.
func Serialize(a Action) string {
	payload := a.payload()
	if payload == nil {
		return ""
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return ""
	}
	return "[" + string(a.Kind) + "]" + string(b) + "[/" + string(a.Kind) + "]"
}

// HandledFlag is the JSON field spliced into a tag payload after successful
// dispatch: "added" for product and cabinet changes, "completed" otherwise.
func HandledFlag(kind Kind) string {
	if kind == KindProduct || kind == KindCabinetAction {
		return "added"
	}
	return "completed"
}

// MarkHandled rewrites content so the tag occurrence matching the
// just-dispatched action carries `"added":true` (or `"completed":true`).
// Reloading the conversation from storage then reproduces the terminal
// affordance state without separate bookkeeping.
//
// The occurrence is located by re-running the same kept-segment scan Parse
// assigns indexes over and comparing the payload's name/brand (or
// product_name/product_brand) fields against the action; for kinds without
// a natural identity the occurrence index is used. The flag is spliced in
// front of the payload's own closing brace, so every byte outside the
// insertion survives unchanged even when string values contain literal
// braces. When no occurrence matches, content comes back untouched and the
// second return is false; the completion state then only lives in the
// transient local mark.
func MarkHandled(content string, target Action) (string, bool) {
	flag := HandledFlag(target.Kind)
	idx := 0
	for _, sg := range keptSegments(content) {
		if sg.kind != target.Kind || !sg.isJSON {
			continue
		}
		occurrence := idx
		idx++

		raw := content[sg.payStart:sg.payEnd]
		var fields map[string]interface{}
		if err := json.Unmarshal([]byte(raw), &fields); err != nil {
			continue
		}
		if !payloadMatches(target, fields, occurrence) {
			continue
		}
		if done, _ := fields[flag].(bool); done {
			// Already flagged; splicing again would duplicate it.
			return content, false
		}

		insert := `,"` + flag + `":true`
		if len(fields) == 0 {
			insert = `"` + flag + `":true`
		}
		rewritten := content[:sg.payEnd-1] + insert + content[sg.payEnd-1:]
		return rewritten, true
	}
	return content, false
}

// payloadMatches reports whether the decoded payload fields identify the
// same action instance as target.
func payloadMatches(target Action, fields map[string]interface{}, occurrence int) bool {
	str := func(key string) string {
		s, _ := fields[key].(string)
		return s
	}
	switch target.Kind {
	case KindProduct:
		return target.Product != nil &&
			str("name") == target.Product.Name &&
			str("brand") == target.Product.Brand
	case KindCabinetAction:
		return target.Cabinet != nil &&
			str("product_name") == target.Cabinet.ProductName &&
			str("product_brand") == target.Cabinet.ProductBrand
	default:
		return occurrence == target.Index
	}
}
