package actions

import (
	"strings"
	"testing"
)

func TestMarkHandledProductExactlyOnce(t *testing.T) {
	content := `Try this: [PRODUCT]{"name":"Foo","brand":"Bar","category":"serum","description":"d","key_ingredients":["x"],"benefits":["y"],"reason":"r"}[/PRODUCT] Enjoy!`
	res := Parse(content)
	if len(res.Actions) != 1 {
		t.Fatalf("setup: expected 1 action, got %d", len(res.Actions))
	}

	rewritten, changed := MarkHandled(content, res.Actions[0])
	if !changed {
		t.Fatalf("expected a rewrite")
	}
	if n := strings.Count(rewritten, `"added":true`); n != 1 {
		t.Fatalf("flag spliced %d times", n)
	}

	// Everything outside the insertion is byte-identical.
	without := strings.Replace(rewritten, `,"added":true`, "", 1)
	if without != content {
		t.Fatalf("rewrite touched unrelated bytes:\n%q\n%q", without, content)
	}

	// The rewritten content parses back with the flag set.
	reparsed := Parse(rewritten)
	if len(reparsed.Actions) != 1 || !reparsed.Actions[0].Product.Added {
		t.Fatalf("rewritten content did not round-trip the flag")
	}

	// Applying again is a no-op: the flag stays exactly once.
	again, changed := MarkHandled(rewritten, res.Actions[0])
	if changed {
		t.Fatalf("second rewrite should be skipped")
	}
	if again != rewritten {
		t.Fatalf("second rewrite altered content")
	}
}

func TestMarkHandledMatchesByIdentityNotPosition(t *testing.T) {
	content := `[PRODUCT]{"name":"One","brand":"A","category":"serum","description":"d","key_ingredients":["x"],"benefits":["y"],"reason":"r"}[/PRODUCT] and [PRODUCT]{"name":"Two","brand":"B","category":"serum","description":"d","key_ingredients":["x"],"benefits":["y"],"reason":"r"}[/PRODUCT]`
	res := Parse(content)
	if len(res.Actions) != 2 {
		t.Fatalf("setup: expected 2 actions, got %d", len(res.Actions))
	}

	rewritten, changed := MarkHandled(content, res.Actions[1])
	if !changed {
		t.Fatalf("expected a rewrite")
	}
	reparsed := Parse(rewritten)
	if reparsed.Actions[0].Product.Added {
		t.Fatalf("wrong occurrence flagged")
	}
	if !reparsed.Actions[1].Product.Added {
		t.Fatalf("target occurrence not flagged")
	}
}

func TestMarkHandledCabinetByProductFields(t *testing.T) {
	content := `Swap: [CABINET_ACTION]{"action":"add","product_name":"New Toner","product_brand":"Acme","category":"toner","reason":"replacement"}[/CABINET_ACTION]`
	res := Parse(content)
	rewritten, changed := MarkHandled(content, res.Actions[0])
	if !changed {
		t.Fatalf("expected a rewrite")
	}
	if !Parse(rewritten).Actions[0].Cabinet.Added {
		t.Fatalf("cabinet flag not visible after reparse")
	}
}

func TestMarkHandledNoMatchSkipped(t *testing.T) {
	content := `Nothing tagged here.`
	a := Action{Kind: KindProduct, Product: &ProductSuggestion{Name: "Ghost", Brand: "None"}}
	out, changed := MarkHandled(content, a)
	if changed || out != content {
		t.Fatalf("rewrite should be skipped when no occurrence matches")
	}
}

func TestMarkHandledBracesInsideStrings(t *testing.T) {
	content := `[TREATMENT]{"type":"peel","reason":"helps with {textured} skin","frequency":"monthly"}[/TREATMENT]`
	res := Parse(content)
	if len(res.Actions) != 1 {
		t.Fatalf("setup: expected 1 action")
	}
	rewritten, changed := MarkHandled(content, res.Actions[0])
	if !changed {
		t.Fatalf("expected a rewrite")
	}
	reparsed := Parse(rewritten)
	if len(reparsed.Actions) != 1 || !reparsed.Actions[0].Treatment.Completed {
		t.Fatalf("brace-laden payload broke the splice: %q", rewritten)
	}
}

func TestMarkHandledSkipsTagEmbeddedInOtherPayload(t *testing.T) {
	// The goal-shaped span inside the product description is swallowed by
	// the product segment, so the standalone goal is GOAL occurrence 0 for
	// both Parse and the rewrite.
	content := `[PRODUCT]{"name":"Foo","brand":"Bar","category":"serum","description":"apply [GOAL]{}[/GOAL] nightly","key_ingredients":["x"],"benefits":["y"],"reason":"r"}[/PRODUCT] then [GOAL]{"title":"Glow","description":"d","target_date":"2025-06-01"}[/GOAL]`
	res := Parse(content)
	if len(res.Actions) != 2 {
		t.Fatalf("setup: expected product+goal, got %d actions", len(res.Actions))
	}
	goal := res.Actions[1]
	if goal.Kind != KindGoal || goal.Index != 0 {
		t.Fatalf("setup: unexpected goal identity %s:%d", goal.Kind, goal.Index)
	}

	rewritten, changed := MarkHandled(content, goal)
	if !changed {
		t.Fatalf("expected a rewrite")
	}
	if strings.Contains(rewritten, `"apply [GOAL]{"completed":true}[/GOAL] nightly"`) {
		t.Fatalf("flag spliced into the embedded span: %q", rewritten)
	}
	reparsed := Parse(rewritten)
	if len(reparsed.Actions) != 2 {
		t.Fatalf("rewrite corrupted a payload: %d actions", len(reparsed.Actions))
	}
	if !reparsed.Actions[1].Goal.Completed {
		t.Fatalf("standalone goal not flagged: %q", rewritten)
	}
	if reparsed.Actions[0].Product.Description != "apply [GOAL]{}[/GOAL] nightly" {
		t.Fatalf("product payload altered: %q", reparsed.Actions[0].Product.Description)
	}
}

func TestMarkHandledCompletedFlagForRoutine(t *testing.T) {
	content := `[ROUTINE_ACTION]{"type":"evening","routine_name":"Wind Down","action":"complete"}[/ROUTINE_ACTION]`
	res := Parse(content)
	rewritten, changed := MarkHandled(content, res.Actions[0])
	if !changed {
		t.Fatalf("expected a rewrite")
	}
	if !strings.Contains(rewritten, `"completed":true`) {
		t.Fatalf("routine completion should use the completed flag: %q", rewritten)
	}
}
