package interp

import (
	"context"
	"errors"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/qaz17899/funbot/internal/capability"
)

// runSource executes a TypeScript snippet with nothing pre-bound, so every
// free identifier goes through stand-in synthesis.
func runSource(t *testing.T, source string) (*Env, error) {
	t.Helper()
	parser := sitter.NewParser()
	parser.SetLanguage(typescript.GetLanguage())
	tree, err := parser.ParseCtx(context.Background(), nil, []byte(source))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	t.Cleanup(tree.Close)

	global := NewEnv(nil)
	resolver := capability.NewResolver(map[string]string{}, nil)
	ev := newEvaluator([]byte(source), resolver, global)
	return global, ev.execProgram(tree.RootNode())
}

func globalValue(t *testing.T, env *Env, name string) any {
	t.Helper()
	v, ok := env.Lookup(name)
	if !ok {
		t.Fatalf("%s was never bound", name)
	}
	return v
}

func TestEval_Expressions(t *testing.T) {
	cases := []struct {
		name string
		expr string
		want any
	}{
		{"precedence", `1 + 2 * 3`, 7.0},
		{"concat", `'route ' + 22`, "route 22"},
		{"modulo", `10 % 3`, 1.0},
		{"power", `2 ** 8`, 256.0},
		{"ternary", `3 > 2 ? 'yes' : 'no'`, "yes"},
		{"nullish", `null ?? 'fallback'`, "fallback"},
		{"short circuit and", `false && neverTouched()`, false},
		{"array length", `[1, 2, 3].length`, 3.0},
		{"template", "`step ${1 + 1} of ${3}`", "step 2 of 3"},
		{"typeof", `typeof 'x'`, "string"},
		{"negation", `!0`, true},
		{"strict equality", `'a' === 'a'`, true},
		{"numeric underscore", `1_000 + 0`, 1000.0},
		{"spread", `[0, ...[1, 2]].length`, 3.0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env, err := runSource(t, "const out = "+tc.expr+";")
			if err != nil {
				t.Fatal(err)
			}
			if got := globalValue(t, env, "out"); got != tc.want {
				t.Errorf("out = %v (%T), want %v", got, got, tc.want)
			}
		})
	}
}

func TestEval_FunctionsAndClosures(t *testing.T) {
	env, err := runSource(t, `
		function fib(n) {
			return n < 2 ? n : fib(n - 1) + fib(n - 2);
		}
		function greet(name = 'trainer') {
			return 'hi ' + name;
		}
		function tally(...items) {
			return items.length;
		}
		const counter = (() => {
			let n = 0;
			return () => { n += 1; return n; };
		})();
		counter();
		const f = fib(7);
		const g = greet();
		const r = tally(1, 2, 3);
		const c = counter();
	`)
	if err != nil {
		t.Fatal(err)
	}
	if v := globalValue(t, env, "f"); v != 13.0 {
		t.Errorf("fib(7) = %v", v)
	}
	if v := globalValue(t, env, "g"); v != "hi trainer" {
		t.Errorf("default parameter: %v", v)
	}
	if v := globalValue(t, env, "r"); v != 3.0 {
		t.Errorf("rest parameter: %v", v)
	}
	if v := globalValue(t, env, "c"); v != 2.0 {
		t.Errorf("closure state: %v", v)
	}
}

func TestEval_LoopsAndControlFlow(t *testing.T) {
	env, err := runSource(t, `
		let sum = 0;
		for (let i = 1; i <= 4; i++) {
			sum += i;
		}
		let ofSum = 0;
		for (const v of [10, 20, 30]) {
			if (v === 20) {
				continue;
			}
			ofSum += v;
		}
		let countdown = 5;
		while (true) {
			countdown--;
			if (countdown === 0) {
				break;
			}
		}
	`)
	if err != nil {
		t.Fatal(err)
	}
	if v := globalValue(t, env, "sum"); v != 10.0 {
		t.Errorf("for sum = %v", v)
	}
	if v := globalValue(t, env, "ofSum"); v != 40.0 {
		t.Errorf("for-of with continue = %v", v)
	}
	if v := globalValue(t, env, "countdown"); v != 0.0 {
		t.Errorf("while with break = %v", v)
	}
}

func TestEval_Destructuring(t *testing.T) {
	env, err := runSource(t, `
		const { town, region = 'kanto' } = { town: 'Pallet Town' };
		const [first, second, third = 'z'] = ['a', 'b'];
		const { npc: speaker } = { npc: 'Mum' };
	`)
	if err != nil {
		t.Fatal(err)
	}
	if v := globalValue(t, env, "town"); v != "Pallet Town" {
		t.Errorf("town = %v", v)
	}
	if v := globalValue(t, env, "region"); v != "kanto" {
		t.Errorf("destructuring default = %v", v)
	}
	if v := globalValue(t, env, "first"); v != "a" {
		t.Errorf("first = %v", v)
	}
	if v := globalValue(t, env, "third"); v != "z" {
		t.Errorf("array element default = %v", v)
	}
	if v := globalValue(t, env, "speaker"); v != "Mum" {
		t.Errorf("renamed binding = %v", v)
	}
}

func TestEval_Enum(t *testing.T) {
	env, err := runSource(t, `
		enum Weather {
			Clear,
			Rain = 5,
			Storm,
		}
		const r = Weather.Rain;
		const s = Weather.Storm;
	`)
	if err != nil {
		t.Fatal(err)
	}
	if v := globalValue(t, env, "r"); v != 5.0 {
		t.Errorf("explicit member = %v", v)
	}
	if v := globalValue(t, env, "s"); v != 6.0 {
		t.Errorf("auto-increment after explicit = %v", v)
	}
}

func TestEval_StandIns(t *testing.T) {
	env, err := runSource(t, `
		const a = App.game.quests;
		const b = App.game.quests;
		const same = a === b;
		const dungeon = GameConstants.getDungeonIndex('Viridian Forest');
		App.game.quests.questLines().push(dungeon);
		const obj = null;
		const chained = obj?.deeply?.missing;
		const fallback = chained ?? 'none';
	`)
	if err != nil {
		t.Fatal(err)
	}
	if v := globalValue(t, env, "same"); v != true {
		t.Error("repeated access through the same chain must be reference-identical")
	}
	if v := globalValue(t, env, "dungeon"); v != "Viridian Forest" {
		t.Errorf("stand-in call must forward its first argument, got %v", v)
	}
	if v := globalValue(t, env, "fallback"); v != "none" {
		t.Errorf("optional chain on null = %v", v)
	}
}

func TestEval_ClassInstances(t *testing.T) {
	env, err := runSource(t, `
		class Point {
			x = 1;
			constructor(y) {
				this.y = y;
			}
			sum() {
				return this.x + this.y;
			}
		}
		const p = new Point(2);
		const s = p.sum();
	`)
	if err != nil {
		t.Fatal(err)
	}
	if v := globalValue(t, env, "s"); v != 3.0 {
		t.Errorf("instance method = %v", v)
	}
}

func TestEval_ThrowBecomesError(t *testing.T) {
	_, err := runSource(t, `throw new Error('data not ready');`)
	if err == nil {
		t.Fatal("throw must surface as an error")
	}
	if got := err.Error(); got != "thrown: data not ready" {
		t.Errorf("err = %q", got)
	}
}

func TestEval_UnsupportedSyntax(t *testing.T) {
	_, err := runSource(t, `outer: while (false) { break; }`)
	if !errors.Is(err, ErrUnsupportedSyntax) {
		t.Errorf("labeled statements must raise ErrUnsupportedSyntax, got %v", err)
	}
}
