package symbols

import (
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/coffee-symbols/internal/coffee"
)

// Test Plan for Extract:
// - Single class declaration produces one Class symbol with its exact range
// - Object assignments produce a Namespace with member symbols chained by container
// - require() calls are kinded Package, @-targets are kinded Property
// - Function names carry their parameter lists, including @params and destructuring
// - Class members become Methods, `constructor` follows the configured rule
// - Anonymous object literals passed to calls land in the [anonymous] container
// - Closure bodies are walked only when IncludeClosures is set; class bodies always are
// - AssignmentSuffix controls the " = Name" rendering for identifier and class values
// - Dotted class names use the last accessed property, which is also the members' container
// - Computed object keys emit nothing; trailing commas keep every member
// - Output follows document order for generated inputs
// - Full sample fixture matches the expected symbol list in both closure modes

// brief is the comparable part of a symbol when ranges are not under test.
type brief struct {
	Name      string
	Kind      Kind
	Container string
}

func briefs(symbols []Symbol) []brief {
	out := make([]brief, 0, len(symbols))
	for _, s := range symbols {
		out = append(out, brief{Name: s.Name, Kind: s.Kind, Container: s.ContainerName})
	}
	return out
}

func extractSource(t *testing.T, src string, opts Options) []Symbol {
	t.Helper()
	root, err := coffee.Parse(src)
	require.NoError(t, err)
	return Extract(root, opts)
}

func readFixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return string(data)
}

func closuresOff() Options {
	opts := DefaultOptions()
	opts.IncludeClosures = false
	return opts
}

func TestExtract_Class(t *testing.T) {
	t.Parallel()

	symbols := extractSource(t, "class Foo", DefaultOptions())
	require.Len(t, symbols, 1)
	assert.Equal(t, Symbol{Name: "Foo", Kind: KindClass, Range: NewRange(0, 0, 0, 9)}, symbols[0])
}

func TestExtract_EmptySource(t *testing.T) {
	t.Parallel()

	symbols := extractSource(t, "", DefaultOptions())
	assert.NotNil(t, symbols)
	assert.Empty(t, symbols)
}

func TestExtract_NamespaceMembers(t *testing.T) {
	t.Parallel()

	src := "GLOBAL_B =\n  varA: 1\n  func: (abc) -> abc\n"
	symbols := extractSource(t, src, DefaultOptions())

	assert.Equal(t, []brief{
		{"GLOBAL_B", KindNamespace, ""},
		{"varA", KindVariable, "GLOBAL_B"},
		{"func(abc)", KindFunction, "GLOBAL_B"},
	}, briefs(symbols))
	assert.Equal(t, NewRange(1, 2, 1, 9), symbols[1].Range)
}

func TestExtract_ContainerChaining(t *testing.T) {
	t.Parallel()

	src := strings.Join([]string{
		"root =",
		"  a:",
		"    b:",
		"      c: 1",
		"  d: 2",
	}, "\n")
	symbols := extractSource(t, src, DefaultOptions())

	assert.Equal(t, []brief{
		{"root", KindNamespace, ""},
		{"a", KindNamespace, "root"},
		{"b", KindNamespace, "root.a"},
		{"c", KindVariable, "root.a.b"},
		{"d", KindVariable, "root"},
	}, briefs(symbols))
}

func TestExtract_KindRules(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want brief
	}{
		{"require call", "fs = require 'fs'", brief{"fs", KindPackage, ""}},
		{"require with parens", "path = require('path')", brief{"path", KindPackage, ""}},
		{"this property", "@count = 0", brief{"@count", KindProperty, ""}},
		{"empty object", "config = {}", brief{"config", KindNamespace, ""}},
		{"function", "add = (a, b) -> a + b", brief{"add(a, b)", KindFunction, ""}},
		{"bound function", "handler = (e) => e", brief{"handler(e)", KindFunction, ""}},
		{"this params", "init = (@name, {a}, [b], rest...) ->", brief{"init(@name, ???, ???, rest)", KindFunction, ""}},
		{"prototype", "Foo::bar = ->", brief{"Foo::bar()", KindFunction, ""}},
		{"this prototype", "@::baz = ->", brief{"@::baz()", KindFunction, ""}},
		{"dotted target", "a.b.c = 1", brief{"a.b.c", KindVariable, ""}},
		{"identifier value", "x = y", brief{"x = y", KindVariable, ""}},
		{"member value", "x = y.z", brief{"x", KindVariable, ""}},
		{"named class value", "x = class Bar", brief{"x = Bar", KindVariable, ""}},
		{"anonymous class value", "human = class", brief{"human = (Anonymous Class)", KindVariable, ""}},
		{"compound assignment", "total += 1", brief{"total", KindVariable, ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			symbols := extractSource(t, tt.src, DefaultOptions())
			require.NotEmpty(t, symbols)
			assert.Equal(t, tt.want, briefs(symbols)[0])
		})
	}
}

func TestExtract_DestructuringIgnored(t *testing.T) {
	t.Parallel()

	symbols := extractSource(t, "{ readFile } = require 'fs'\n[a, b] = pair", DefaultOptions())
	assert.Empty(t, symbols)
}

func TestExtract_ClassMembers(t *testing.T) {
	t.Parallel()

	src := strings.Join([]string{
		"class Animal extends Base",
		"  legs: 4",
		"  constructor: (@name) ->",
		"  speak: (sound) ->",
		"  @create: (name) -> new Animal name",
	}, "\n")

	t.Run("constructor by name", func(t *testing.T) {
		t.Parallel()
		symbols := extractSource(t, src, DefaultOptions())
		assert.Equal(t, []brief{
			{"Animal", KindClass, ""},
			{"legs", KindVariable, "Animal"},
			{"constructor(@name)", KindConstructor, "Animal"},
			{"speak(sound)", KindMethod, "Animal"},
			{"@create(name)", KindMethod, "Animal"},
		}, briefs(symbols))
	})

	t.Run("constructor as method", func(t *testing.T) {
		t.Parallel()
		opts := DefaultOptions()
		opts.Constructors = ConstructorAsMethod
		symbols := extractSource(t, src, opts)
		require.Len(t, symbols, 5)
		assert.Equal(t, brief{"constructor(@name)", KindMethod, "Animal"}, briefs(symbols)[2])
	})
}

func TestExtract_ConstructorOutsideClass(t *testing.T) {
	t.Parallel()

	src := "proto =\n  constructor: ->\n"

	byName := extractSource(t, src, DefaultOptions())
	require.Len(t, byName, 2)
	assert.Equal(t, KindConstructor, byName[1].Kind)

	opts := DefaultOptions()
	opts.Constructors = ConstructorAsMethod
	asMethod := extractSource(t, src, opts)
	require.Len(t, asMethod, 2)
	assert.Equal(t, KindFunction, asMethod[1].Kind)
}

func TestExtract_ClassNames(t *testing.T) {
	t.Parallel()

	symbols := extractSource(t, "class App.Models.User\nclass @Widget\nclass", DefaultOptions())
	assert.Equal(t, []brief{
		{"User", KindClass, ""},
		{"Widget", KindClass, ""},
		{AnonymousClass, KindClass, ""},
	}, briefs(symbols))
}

func TestExtract_DottedClassNameContainsMembers(t *testing.T) {
	t.Parallel()

	src := "class App.Models.User extends Base\n  save: ->\nmodule.exports = App.Models.User"
	symbols := extractSource(t, src, DefaultOptions())
	assert.Equal(t, []brief{
		{"User", KindClass, ""},
		{"save()", KindMethod, "User"},
		{"module.exports", KindVariable, ""},
	}, briefs(symbols))
}

func TestExtract_ObjectSyntaxVariants(t *testing.T) {
	t.Parallel()

	src := strings.Join([]string{
		"Config =",
		"  [dynamic]: 1,",
		"  port: 80,",
		"  host: 'x',",
		"class Server",
		"  start: -> true,",
		"  stop: ->",
	}, "\n")
	symbols := extractSource(t, src, DefaultOptions())
	assert.Equal(t, []brief{
		{"Config", KindNamespace, ""},
		{"port", KindVariable, "Config"},
		{"host", KindVariable, "Config"},
		{"Server", KindClass, ""},
		{"start()", KindMethod, "Server"},
		{"stop()", KindMethod, "Server"},
	}, briefs(symbols))
}

func TestExtract_Closures(t *testing.T) {
	t.Parallel()

	src := strings.Join([]string{
		"outer = ->",
		"  inner = 1",
		"  helper = (x) ->",
		"    deep = x",
		"class Box",
		"  open: ->",
		"    @state = 'open'",
	}, "\n")

	t.Run("included", func(t *testing.T) {
		t.Parallel()
		symbols := extractSource(t, src, DefaultOptions())
		assert.Equal(t, []brief{
			{"outer()", KindFunction, ""},
			{"inner", KindVariable, "outer()"},
			{"helper(x)", KindFunction, "outer()"},
			{"deep = x", KindVariable, "outer().helper(x)"},
			{"Box", KindClass, ""},
			{"open()", KindMethod, "Box"},
			{"@state", KindProperty, "Box.open()"},
		}, briefs(symbols))
	})

	t.Run("excluded", func(t *testing.T) {
		t.Parallel()
		symbols := extractSource(t, src, closuresOff())
		assert.Equal(t, []brief{
			{"outer()", KindFunction, ""},
			{"Box", KindClass, ""},
			{"open()", KindMethod, "Box"},
		}, briefs(symbols))
	})
}

func TestExtract_AssignmentSuffix(t *testing.T) {
	t.Parallel()

	src := "Foo = 1\nmodule.exports.Foo = Foo\nmodule.exports.Bar = class Bar"

	on := extractSource(t, src, DefaultOptions())
	require.Len(t, on, 3)
	assert.Equal(t, "module.exports.Foo = Foo", on[1].Name)
	assert.Equal(t, "module.exports.Bar = Bar", on[2].Name)

	opts := DefaultOptions()
	opts.AssignmentSuffix = false
	off := extractSource(t, src, opts)
	require.Len(t, off, 3)
	assert.Equal(t, "module.exports.Foo", off[1].Name)
	assert.Equal(t, "module.exports.Bar", off[2].Name)
}

func TestExtract_AnonymousObjectArgument(t *testing.T) {
	t.Parallel()

	symbols := extractSource(t, readFixture(t, "top-level-function-call.coffee"), DefaultOptions())
	assert.Equal(t, []brief{
		{"value", KindNamespace, AnonymousContainer},
		{"type", KindVariable, AnonymousContainer + ".value"},
		{"click(target)", KindFunction, AnonymousContainer},
		{"Foo", KindVariable, ""},
	}, briefs(symbols))
	assert.Equal(t, Position{Line: 1, Character: 2}, symbols[0].Range.Start)
	assert.Equal(t, NewRange(6, 0, 6, 11), symbols[3].Range)
}

func TestExtract_Fixtures(t *testing.T) {
	t.Parallel()

	t.Run("export-1", func(t *testing.T) {
		t.Parallel()
		symbols := extractSource(t, readFixture(t, "export-1.coffee"), DefaultOptions())
		assert.Equal(t, []Symbol{
			{Name: "Foo", Kind: KindClass, Range: NewRange(0, 0, 0, 9)},
			{Name: "Bar", Kind: KindVariable, Range: NewRange(2, 0, 2, 11)},
			{Name: "Baz", Kind: KindVariable, Range: NewRange(4, 0, 4, 9)},
			{Name: "module.exports.Foo = Foo", Kind: KindVariable, Range: NewRange(6, 0, 6, 24)},
			{Name: "module.exports.Bar = Bar", Kind: KindVariable, Range: NewRange(7, 0, 7, 24)},
		}, symbols)
	})

	t.Run("export-2", func(t *testing.T) {
		t.Parallel()
		symbols := extractSource(t, readFixture(t, "export-2.coffee"), DefaultOptions())
		assert.Equal(t, []brief{
			{"Foo", KindVariable, ""},
			{"module.exports = Bar", KindVariable, ""},
		}, briefs(symbols))
	})

	t.Run("globals with closures", func(t *testing.T) {
		t.Parallel()
		symbols := extractSource(t, readFixture(t, "globals.coffee"), DefaultOptions())
		assert.Equal(t, []brief{
			{"Foo", KindVariable, ""},
			{"Bar", KindVariable, ""},
			{"Baz()", KindFunction, ""},
			{"x", KindVariable, "Baz()"},
			{"Hogehoge = Bar", KindVariable, ""},
		}, briefs(symbols))
	})

	t.Run("globals without closures", func(t *testing.T) {
		t.Parallel()
		symbols := extractSource(t, readFixture(t, "globals.coffee"), closuresOff())
		assert.Equal(t, []brief{
			{"Foo", KindVariable, ""},
			{"Bar", KindVariable, ""},
			{"Baz()", KindFunction, ""},
			{"Hogehoge = Bar", KindVariable, ""},
		}, briefs(symbols))
	})
}

func sampleSymbols() []brief {
	return []brief{
		{"A", KindPackage, ""},
		{"GLOBAL_A", KindVariable, ""},
		{"GLOBAL_B", KindNamespace, ""},
		{"varA", KindVariable, "GLOBAL_B"},
		{"varB", KindVariable, "GLOBAL_B"},
		{"func(abc)", KindFunction, "GLOBAL_B"},
		{"globalFunc()", KindFunction, ""},
		{"App", KindClass, ""},
		{"FOO", KindVariable, "App"},
		{"BAR", KindVariable, "App"},
		{"BAZ", KindVariable, "App"},
		{"num", KindVariable, "App"},
		{"inf", KindVariable, "App"},
		{"nan", KindVariable, "App"},
		{"str", KindVariable, "App"},
		{"regex", KindVariable, "App"},
		{"undef", KindVariable, "App"},
		{"nuru", KindVariable, "App"},
		{"bool", KindVariable, "App"},
		{"a", KindNamespace, "App"},
		{"b", KindVariable, "App.a"},
		{"constructor(@iVar, options)", KindConstructor, "App"},
		{"doSomething(a, b, c)", KindMethod, "App"},
		{"@doAnother(a, b, c)", KindMethod, "App"},
		{"yo", KindNamespace, "App"},
		{"ho", KindNamespace, "App.yo"},
		{"xo", KindVariable, "App.yo.ho"},
		{"lol", KindNamespace, "App"},
		{"mo(a, b)", KindFunction, "App.lol"},
		{"value", KindNamespace, AnonymousContainer},
		{"type", KindVariable, AnonymousContainer + ".value"},
		{"click(target)", KindFunction, AnonymousContainer},
		{"Apuri", KindClass, ""},
		{"constructor()", KindConstructor, "Apuri"},
		{"Apuri::sayhi()", KindFunction, ""},
		{"@::foo()", KindFunction, ""},
		{"Afuri", KindClass, ""},
		{"human = (Anonymous Class)", KindVariable, ""},
		{"module.exports = App", KindVariable, ""},
		{"module.exports.KONSTANT", KindVariable, ""},
		{"exports.abc = def", KindVariable, ""},
		{"exports.foo", KindNamespace, ""},
		{"exports.bar", KindNamespace, ""},
		{"baz", KindVariable, "exports.bar"},
	}
}

func TestExtract_Sample(t *testing.T) {
	t.Parallel()

	src := readFixture(t, "sample.coffee")

	t.Run("without closures", func(t *testing.T) {
		t.Parallel()
		symbols := extractSource(t, src, closuresOff())
		assert.Equal(t, sampleSymbols(), briefs(symbols))
	})

	t.Run("constructor as method", func(t *testing.T) {
		t.Parallel()
		opts := closuresOff()
		opts.Constructors = ConstructorAsMethod
		got := briefs(extractSource(t, src, opts))
		assert.Contains(t, got, brief{"constructor(@iVar, options)", KindMethod, "App"})
		assert.Contains(t, got, brief{"constructor()", KindMethod, "Apuri"})
	})

	t.Run("with closures", func(t *testing.T) {
		t.Parallel()
		got := briefs(extractSource(t, src, DefaultOptions()))
		for _, want := range sampleSymbols() {
			assert.Contains(t, got, want)
		}
		assert.Contains(t, got, brief{"local", KindVariable, "globalFunc()"})
		assert.Contains(t, got, brief{"@options = options", KindProperty, "App.constructor(@iVar, options)"})
		assert.Contains(t, got, brief{"inner()", KindFunction, "App.doSomething(a, b, c)"})
		assert.Contains(t, got, brief{"@name", KindProperty, "Apuri.constructor()"})
		assert.Len(t, got, len(sampleSymbols())+4)
	})
}

func TestExtract_DocumentOrder(t *testing.T) {
	t.Parallel()

	templates := []func(i int) string{
		func(i int) string { return fmt.Sprintf("v%d = %d", i, i) },
		func(i int) string { return fmt.Sprintf("f%d = (a) ->\n  a", i) },
		func(i int) string { return fmt.Sprintf("class C%d\n  m%d: ->", i, i) },
		func(i int) string { return fmt.Sprintf("o%d =\n  k%d: 1\n  n%d:\n    z: 2", i, i, i) },
		func(i int) string { return fmt.Sprintf("$.on\n  e%d: 1", i) },
	}

	rng := rand.New(rand.NewPCG(7, 11))
	for round := 0; round < 20; round++ {
		var lines []string
		for i := 0; i < 15; i++ {
			lines = append(lines, templates[rng.IntN(len(templates))](i))
		}
		symbols := extractSource(t, strings.Join(lines, "\n"), DefaultOptions())
		require.NotEmpty(t, symbols)
		for i := 1; i < len(symbols); i++ {
			assert.False(t, symbols[i].Range.Before(symbols[i-1].Range),
				"round %d: %s precedes %s", round, symbols[i].Name, symbols[i-1].Name)
		}
	}
}
