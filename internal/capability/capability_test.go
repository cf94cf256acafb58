package capability

import "testing"

type fakeScope map[string]any

func (s fakeScope) Lookup(name string) (any, bool) {
	v, ok := s[name]
	return v, ok
}

func (s fakeScope) Bind(name string, v any) { s[name] = v }

func TestCapability_GetIsMemoized(t *testing.T) {
	c := New("App")
	a := c.Get("game")
	b := c.Get("game")
	if a != b {
		t.Error("repeated property access must return the identical object")
	}
	deep := c.Get("game").(*Capability).Get("quests")
	again := c.Get("game").(*Capability).Get("quests")
	if deep != again {
		t.Error("memoization must hold at arbitrary chain depth")
	}
}

func TestCapability_Path(t *testing.T) {
	c := New("GameConstants")
	child := c.Get("getDungeonIndex").(*Capability)
	if got := child.Path(); got != "GameConstants.getDungeonIndex" {
		t.Errorf("Path() = %q", got)
	}
	if got := child.Base(); got != "getDungeonIndex" {
		t.Errorf("Base() = %q", got)
	}
}

func TestCapability_CallForwardsFirstArgument(t *testing.T) {
	c := New("helper")
	got, err := c.Call([]any{"Viridian Forest", 2.0})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if got != "Viridian Forest" {
		t.Errorf("Call forwarded %v, want first argument", got)
	}

	// no arguments: the capability itself stands in
	got, err = c.Call(nil)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if got != c {
		t.Errorf("empty Call returned %v, want the receiver", got)
	}
}

func TestCapability_SetOverridesChild(t *testing.T) {
	c := New("TemporaryBattleList")
	c.Set("Blue 1", "battle")
	if got := c.Get("Blue 1"); got != "battle" {
		t.Errorf("Get after Set = %v", got)
	}
}

func TestResolver_Order(t *testing.T) {
	ctor := New("ctor")
	r := NewResolver(
		map[string]string{"TutorialMum": "Mum"},
		[]Family{{Suffix: "Requirement", Make: func(string) Callable { return ctor }}},
	)
	scope := fakeScope{"bound": "existing"}

	if got := r.Resolve(scope, "bound"); got != "existing" {
		t.Errorf("existing binding must win, got %v", got)
	}

	ref, ok := r.Resolve(scope, "TutorialMum").(*NameRef)
	if !ok {
		t.Fatal("name-table hit must return a NameRef")
	}
	if ref.Display != "Mum" {
		t.Errorf("Display = %q", ref.Display)
	}

	if got := r.Resolve(scope, "BrandNewRequirement"); got != Callable(ctor) {
		t.Errorf("suffix match must return the family constructor, got %v", got)
	}

	cap1 := r.Resolve(scope, "SomethingElse")
	if _, ok := cap1.(*Capability); !ok {
		t.Fatalf("fallback must synthesize a Capability, got %T", cap1)
	}
}

func TestResolver_SynthesisIsMemoized(t *testing.T) {
	r := NewResolver(nil, nil)
	scope := fakeScope{}
	a := r.Resolve(scope, "App")
	b := r.Resolve(scope, "App")
	if a != b {
		t.Error("two reads of the same unresolved identifier must be reference-identical")
	}
}
