package actions

import (
	"reflect"
	"strings"
	"testing"
)

const productScenario = `Try this: [PRODUCT]{"name":"Niacinamide Serum","brand":"Ordinary","category":"serum","description":"d","key_ingredients":["niacinamide"],"benefits":["brightening"],"reason":"r"}[/PRODUCT] Let me know!`

func TestParseProductScenario(t *testing.T) {
	res := Parse(productScenario)
	if len(res.Actions) != 1 {
		t.Fatalf("expected 1 action, got %d", len(res.Actions))
	}
	a := res.Actions[0]
	if a.Kind != KindProduct || a.Index != 0 {
		t.Fatalf("unexpected identity: kind=%s index=%d", a.Kind, a.Index)
	}
	want := ProductSuggestion{
		Name:           "Niacinamide Serum",
		Brand:          "Ordinary",
		Category:       "serum",
		Description:    "d",
		KeyIngredients: []string{"niacinamide"},
		Benefits:       []string{"brightening"},
		Reason:         "r",
	}
	if !reflect.DeepEqual(*a.Product, want) {
		t.Fatalf("unexpected payload: %+v", *a.Product)
	}
	if res.DisplayText != "Try this:  Let me know!" {
		t.Fatalf("unexpected display text: %q", res.DisplayText)
	}
}

func TestParseUnterminatedTag(t *testing.T) {
	in := `Hello [PRODUCT]{"name":"X"`
	res := Parse(in)
	if len(res.Actions) != 0 {
		t.Fatalf("unterminated tag produced %d actions", len(res.Actions))
	}
	if res.DisplayText != in {
		t.Fatalf("display text changed: %q", res.DisplayText)
	}
}

func TestParseUnterminatedClosingTag(t *testing.T) {
	// Object complete, closing tag still streaming in.
	in := `Plan: [GOAL]{"title":"t","description":"d","target_date":"2026-10-01"}[/GO`
	res := Parse(in)
	if len(res.Actions) != 0 {
		t.Fatalf("expected no actions yet, got %d", len(res.Actions))
	}
	if res.DisplayText != in {
		t.Fatalf("display text changed: %q", res.DisplayText)
	}
}

func TestParseNestedWeeklySchedule(t *testing.T) {
	in := `Here is a plan. [WEEKLY_ROUTINE]{"title":"Barrier reset","description":"gentle week","reasoning":"your skin is irritated","weekly_schedule":{"monday":{"morning":{"steps":["cleanser","moisturizer","spf"]},"evening":{"steps":["cleanser","moisturizer"]}},"tuesday":{"morning":{"steps":["rinse","spf"]},"evening":{"steps":["cleanser","retinol","moisturizer"]}}}}[/WEEKLY_ROUTINE] Thoughts?`
	res := Parse(in)
	if len(res.Actions) != 1 {
		t.Fatalf("expected 1 action, got %d", len(res.Actions))
	}
	w := res.Actions[0].Weekly
	if w == nil {
		t.Fatalf("missing weekly payload")
	}
	want := map[string]DayPlan{
		"monday": {
			Morning: RoutinePlan{Steps: []string{"cleanser", "moisturizer", "spf"}},
			Evening: RoutinePlan{Steps: []string{"cleanser", "moisturizer"}},
		},
		"tuesday": {
			Morning: RoutinePlan{Steps: []string{"rinse", "spf"}},
			Evening: RoutinePlan{Steps: []string{"cleanser", "retinol", "moisturizer"}},
		},
	}
	if !reflect.DeepEqual(w.WeeklySchedule, want) {
		t.Fatalf("schedule mismatch: %+v", w.WeeklySchedule)
	}
	if res.DisplayText != "Here is a plan.  Thoughts?" {
		t.Fatalf("unexpected display text: %q", res.DisplayText)
	}
}

func TestParseIdempotentKeys(t *testing.T) {
	in := productScenario + ` Also [CABINET_ACTION]{"action":"remove","product_name":"Old Toner","product_brand":"Acme","reason":"expired"}[/CABINET_ACTION] and [CABINET_ACTION]{"action":"add","product_name":"New Toner","product_brand":"Acme","category":"toner","reason":"replacement"}[/CABINET_ACTION]`
	first := Parse(in)
	second := Parse(in)
	if len(first.Actions) != 3 || len(second.Actions) != 3 {
		t.Fatalf("expected 3 actions, got %d and %d", len(first.Actions), len(second.Actions))
	}
	for i := range first.Actions {
		if first.Actions[i].Key() != second.Actions[i].Key() {
			t.Fatalf("key drift at %d: %q vs %q", i, first.Actions[i].Key(), second.Actions[i].Key())
		}
	}
	if first.Actions[1].Key() != "CABINET_ACTION:0" || first.Actions[2].Key() != "CABINET_ACTION:1" {
		t.Fatalf("unexpected cabinet keys: %q %q", first.Actions[1].Key(), first.Actions[2].Key())
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("parse is not idempotent")
	}
}

func TestParseMalformedPayloadDropped(t *testing.T) {
	in := `Bad: [GOAL]{"title":"t",}[/GOAL] good: [GOAL]{"title":"t","description":"d","target_date":"2026-10-01"}[/GOAL]`
	res := Parse(in)
	if len(res.Actions) != 1 {
		t.Fatalf("expected 1 action, got %d", len(res.Actions))
	}
	// The malformed occurrence stays visible; only parsed spans are removed.
	if !strings.Contains(res.DisplayText, `[GOAL]{"title":"t",}[/GOAL]`) {
		t.Fatalf("malformed span should remain in prose: %q", res.DisplayText)
	}
	if strings.Contains(res.DisplayText, "target_date") {
		t.Fatalf("parsed span should be removed: %q", res.DisplayText)
	}
}

func TestParseMissingRequiredFieldsDiscarded(t *testing.T) {
	// Valid JSON but no description/target_date: discarded softly, span removed.
	in := `Plan: [GOAL]{"title":"only a title"}[/GOAL] done.`
	res := Parse(in)
	if len(res.Actions) != 0 {
		t.Fatalf("incomplete action should be discarded, got %d", len(res.Actions))
	}
	if res.DisplayText != "Plan:  done." {
		t.Fatalf("unexpected display text: %q", res.DisplayText)
	}
}

func TestParseUnknownKindLeftVerbatim(t *testing.T) {
	in := `Hello [SPARKLE]{"x":1}[/SPARKLE] world`
	res := Parse(in)
	if len(res.Actions) != 0 {
		t.Fatalf("unknown kind produced actions")
	}
	if res.DisplayText != in {
		t.Fatalf("unknown kind was altered: %q", res.DisplayText)
	}
}

func TestParseInlineTextProduct(t *testing.T) {
	in := `You already own [PRODUCT]CeraVe Foaming Cleanser[/PRODUCT], keep using it.`
	res := Parse(in)
	if len(res.Actions) != 0 {
		t.Fatalf("inline product mention should not become an action")
	}
	if res.DisplayText != "You already own CeraVe Foaming Cleanser, keep using it." {
		t.Fatalf("unexpected display text: %q", res.DisplayText)
	}
}

func TestParseBracesInsideStringValues(t *testing.T) {
	in := `[TREATMENT]{"type":"peel","reason":"texture {uneven} patches","frequency":"monthly"}[/TREATMENT]`
	res := Parse(in)
	if len(res.Actions) != 1 {
		t.Fatalf("expected 1 action, got %d", len(res.Actions))
	}
	if res.Actions[0].Treatment.Reason != "texture {uneven} patches" {
		t.Fatalf("brace-laden string mangled: %q", res.Actions[0].Treatment.Reason)
	}
	if res.DisplayText != "" {
		t.Fatalf("expected empty display text, got %q", res.DisplayText)
	}
}

func TestRoundTripAllKinds(t *testing.T) {
	amount := 40
	cases := []Action{
		{Kind: KindProduct, Product: &ProductSuggestion{Name: "A", Brand: "B", Category: "serum", Description: "d", KeyIngredients: []string{"x"}, Benefits: []string{"y"}, Reason: "r"}},
		{Kind: KindRoutine, Routine: &RoutineUpdate{Type: "morning", Changes: []string{"add spf"}}},
		{Kind: KindTreatment, Treatment: &TreatmentSuggestion{Type: "facial", Reason: "r", Frequency: "monthly"}},
		{Kind: KindGoal, Goal: &GoalSuggestion{Title: "t", Description: "d", TargetDate: "2026-12-01"}},
		{Kind: KindRoutineAction, Complete: &RoutineCompletion{Type: "evening", RoutineName: "Evening Reset", Action: "complete"}},
		{Kind: KindCabinetAction, Cabinet: &CabinetChange{Action: "remove", ProductName: "Retinol Serum", ProductBrand: "Acme", Reason: "ran out"}},
		{Kind: KindCabinetAction, Cabinet: &CabinetChange{Action: "update", ProductName: "Toner", ProductBrand: "Acme", Category: "toner", AmountRemaining: &amount, Reason: "half used"}},
		{Kind: KindAppointmentAction, Appointment: &AppointmentChange{Action: "add", TreatmentType: "derm consult", Date: "2026-09-20", Time: "14:30", Provider: "Dr. Kim"}},
		{Kind: KindCheckinAction, Checkin: &CheckinPhotos{Action: "add_photos", PhotoURLs: []string{"https://x/1.jpg"}, Lighting: "daylight"}},
		{Kind: KindWeeklyRoutine, Weekly: &WeeklyRoutineSuggestion{Title: "t", Description: "d", Reasoning: "r", WeeklySchedule: map[string]DayPlan{"monday": {Morning: RoutinePlan{Steps: []string{"spf"}}, Evening: RoutinePlan{Steps: []string{"cleanse"}}}}}},
	}
	for i, a := range cases {
		res := Parse("prefix " + Serialize(a) + " suffix")
		if len(res.Actions) != 1 {
			t.Fatalf("case %d (%s): expected 1 action, got %d", i, a.Kind, len(res.Actions))
		}
		got := res.Actions[0]
		got.Index = a.Index
		if !reflect.DeepEqual(got, a) {
			t.Fatalf("case %d (%s) round-trip mismatch:\n got %+v\nwant %+v", i, a.Kind, got, a)
		}
		if res.DisplayText != "prefix  suffix" {
			t.Fatalf("case %d (%s): display %q", i, a.Kind, res.DisplayText)
		}
	}
}

func TestParseInterleavedProse(t *testing.T) {
	in := `Morning! [ROUTINE_ACTION]{"type":"morning","routine_name":"Morning Glow","action":"complete"}[/ROUTINE_ACTION] Nice work. [GOAL]{"title":"Clear skin","description":"reduce breakouts","target_date":"2026-11-01"}[/GOAL] Keep going.`
	res := Parse(in)
	if len(res.Actions) != 2 {
		t.Fatalf("expected 2 actions, got %d", len(res.Actions))
	}
	if res.Actions[0].Kind != KindRoutineAction || res.Actions[1].Kind != KindGoal {
		t.Fatalf("actions out of text order: %s, %s", res.Actions[0].Kind, res.Actions[1].Kind)
	}
	if res.DisplayText != "Morning!  Nice work.  Keep going." {
		t.Fatalf("unexpected display text: %q", res.DisplayText)
	}
}
