package symbols

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for FilterExported:
// - exports / module.exports names match, as do symbols contained in them
// - Names that merely contain "exports" do not match
// - Files without exports fall back to their top-level symbols
// - `module.exports = App` pulls in App and everything under App.*
// - Alias expansion never duplicates a symbol and keeps document order
// - A property export excludes the bare variable without the assignment
//   suffix, and pulls it in through the alias with the suffix on
// - Sample fixture export surface matches the expected list

func TestIsExport(t *testing.T) {
	t.Parallel()

	tests := []struct {
		symbol Symbol
		want   bool
	}{
		{Symbol{Name: "exports"}, true},
		{Symbol{Name: "module.exports"}, true},
		{Symbol{Name: "module.exports = App"}, true},
		{Symbol{Name: "exports.foo.bar"}, true},
		{Symbol{Name: "baz", ContainerName: "exports.bar"}, true},
		{Symbol{Name: "myexports"}, false},
		{Symbol{Name: "exportsFoo"}, false},
		{Symbol{Name: "module.exportsX"}, false},
		{Symbol{Name: "foo", ContainerName: "App"}, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IsExport(tt.symbol), "symbol %+v", tt.symbol)
	}
}

func TestFilterExported_FallsBackToTopLevel(t *testing.T) {
	t.Parallel()

	symbols := extractSource(t, readFixture(t, "globals.coffee"), DefaultOptions())
	exported := FilterExported(symbols)

	assert.Equal(t, []brief{
		{"Foo", KindVariable, ""},
		{"Bar", KindVariable, ""},
		{"Baz()", KindFunction, ""},
		{"Hogehoge = Bar", KindVariable, ""},
	}, briefs(exported))
}

func TestFilterExported_Empty(t *testing.T) {
	t.Parallel()

	exported := FilterExported(nil)
	assert.NotNil(t, exported)
	assert.Empty(t, exported)
}

func TestFilterExported_AliasExpansion(t *testing.T) {
	t.Parallel()

	symbols := extractSource(t, readFixture(t, "export-1.coffee"), DefaultOptions())
	exported := FilterExported(symbols)

	assert.Equal(t, []brief{
		{"Foo", KindClass, ""},
		{"Bar", KindVariable, ""},
		{"module.exports.Foo = Foo", KindVariable, ""},
		{"module.exports.Bar = Bar", KindVariable, ""},
	}, briefs(exported))
}

func TestFilterExported_ClassValue(t *testing.T) {
	t.Parallel()

	symbols := extractSource(t, readFixture(t, "export-2.coffee"), DefaultOptions())
	exported := FilterExported(symbols)

	assert.Equal(t, []brief{
		{"module.exports = Bar", KindVariable, ""},
	}, briefs(exported))
}

func TestFilterExported_PropertyExportExcludesBareVariable(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	opts.AssignmentSuffix = false
	symbols := extractSource(t, "Foo = 1\nmodule.exports.Foo = Foo", opts)
	exported := FilterExported(symbols)

	require.Len(t, exported, 1)
	assert.Equal(t, "module.exports.Foo", exported[0].Name)
}

func TestFilterExported_SuffixExpandsPropertyExport(t *testing.T) {
	t.Parallel()

	symbols := extractSource(t, "Foo = 1\nmodule.exports.Foo = Foo", DefaultOptions())
	exported := FilterExported(symbols)

	assert.Equal(t, []brief{
		{"Foo", KindVariable, ""},
		{"module.exports.Foo = Foo", KindVariable, ""},
	}, briefs(exported))
}

func TestFilterExported_NoDuplicates(t *testing.T) {
	t.Parallel()

	src := "class App\n  run: ->\nmodule.exports = App\nexports.app = App"
	exported := FilterExported(extractSource(t, src, DefaultOptions()))

	assert.Equal(t, []brief{
		{"App", KindClass, ""},
		{"run()", KindMethod, "App"},
		{"module.exports = App", KindVariable, ""},
		{"exports.app = App", KindVariable, ""},
	}, briefs(exported))
}

func TestFilterExported_ChainedAlias(t *testing.T) {
	t.Parallel()

	exported := FilterExported([]Symbol{
		{Name: "Impl", Range: NewRange(0, 0, 0, 4)},
		{Name: "Other", Range: NewRange(1, 0, 1, 5)},
		{Name: "module.exports = Impl = Other", Range: NewRange(2, 0, 2, 10)},
	})

	require.Len(t, exported, 2)
	assert.Equal(t, "Impl", exported[0].Name)
}

func TestFilterExported_Sample(t *testing.T) {
	t.Parallel()

	symbols := extractSource(t, readFixture(t, "sample.coffee"), closuresOff())
	exported := briefs(FilterExported(symbols))

	all := sampleSymbols()
	var want []brief
	for _, b := range all {
		switch {
		case b.Name == "App", b.Container == "App", len(b.Container) > 4 && b.Container[:4] == "App.":
			want = append(want, b)
		}
	}
	want = append(want, all[len(all)-6:]...)

	assert.Equal(t, want, exported)
}
