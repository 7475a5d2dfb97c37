package expr

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExprSealed(t *testing.T) {
	var _ Expr = Null{}
	var _ Expr = Bool(true)
	var _ Expr = Number(1)
	var _ Expr = String("goal")
	var _ Expr = List{Number(1)}
	var _ Expr = Object{"get": String("goal")}
}

func TestParse_OperatorTrees(t *testing.T) {
	e, err := Parse([]byte(`{"+": [1, 2, {"get": "goal-id"}]}`))
	require.NoError(t, err)

	name, payload, ok := Operator(e)
	require.True(t, ok)
	assert.Equal(t, "+", name)
	assert.Equal(t, List{Number(1), Number(2), Get("goal-id")}, payload)
}

func TestParse_Comparison(t *testing.T) {
	e, err := Parse([]byte(`{"<": {"lhs": 4, "rhs": 2}}`))
	require.NoError(t, err)
	assert.True(t, Equal(Compare("<", Number(4), Number(2)), e))
}

func TestParse_Literals(t *testing.T) {
	tests := []struct {
		in   string
		want Expr
	}{
		{"true", Bool(true)},
		{"false", Bool(false)},
		{"42", Number(42)},
		{"-3", Number(-3)},
		{"0.5", Number(0.5)},
		{`"lab1"`, String("lab1")},
		{"null", Null{}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse([]byte(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_RejectsTrailingData(t *testing.T) {
	_, err := Parse([]byte(`{"get": "a"} {"get": "b"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "trailing data")
}

func TestParse_RejectsMalformed(t *testing.T) {
	_, err := Parse([]byte(`{"get": `))
	require.Error(t, err)
}

func TestOperator_RequiresSingleKey(t *testing.T) {
	_, _, ok := Operator(Object{"+": List{}, "-": List{}})
	assert.False(t, ok, "two keys is not an operator node")

	_, _, ok = Operator(Object{})
	assert.False(t, ok, "empty object is not an operator node")

	_, _, ok = Operator(Number(3))
	assert.False(t, ok, "literals are not operator nodes")

	assert.True(t, IsOperator(Get("x"), "get"))
	assert.False(t, IsOperator(Get("x"), "+"))
}

func TestFromAny_YAMLShapes(t *testing.T) {
	raw := map[string]any{
		"MAX": []any{1, int64(2), uint64(3), 1.5, true, "x", nil},
	}
	e, err := FromAny(raw)
	require.NoError(t, err)
	assert.Equal(t, Reduce("MAX", Number(1), Number(2), Number(3), Number(1.5), Bool(true), String("x"), Null{}), e)
}

func TestFromAny_Unsupported(t *testing.T) {
	_, err := FromAny(struct{}{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported type")
}

func TestToAny_RoundTripsThroughFromAny(t *testing.T) {
	orig := Reduce("AND", Bool(true), Compare(">=", Get("lab1"), Number(3)))
	back, err := FromAny(ToAny(orig))
	require.NoError(t, err)
	assert.True(t, Equal(orig, back))
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(Number(1), Number(1)))
	assert.False(t, Equal(Number(1), Bool(true)))
	assert.False(t, Equal(List{Number(1)}, List{Number(1), Number(2)}))
	assert.False(t, Equal(Obj(O("a", Number(1))), Obj(O("b", Number(1)))))
	assert.True(t, Equal(Null{}, Null{}))
}

func TestTruthy(t *testing.T) {
	assert.True(t, Truthy(Bool(true)))
	assert.False(t, Truthy(Bool(false)))
	assert.True(t, Truthy(Number(-1)))
	assert.False(t, Truthy(Number(0)))
	assert.False(t, Truthy(String("yes")))
}

func TestObjectSortedKeys(t *testing.T) {
	obj := Object{"rhs": Number(1), "lhs": Number(2), "A": Number(3)}
	assert.Equal(t, []string{"A", "lhs", "rhs"}, obj.SortedKeys())
}

func TestMarshal_SortedAndWholeNumbers(t *testing.T) {
	b, err := json.Marshal(Obj(O("points", Number(3)), O("half", Number(0.5)), O("towards", String("g"))))
	require.NoError(t, err)
	assert.Equal(t, `{"half":0.5,"points":3,"towards":"g"}`, string(b))
}

func TestFormat(t *testing.T) {
	assert.Equal(t, `{"get":"lab1"}`, Format(Get("lab1")))
	assert.Equal(t, "true", Format(Bool(true)))
}

func TestKind(t *testing.T) {
	assert.Equal(t, "number", Kind(Number(1)))
	assert.Equal(t, `operator "get"`, Kind(Get("x")))
	assert.Equal(t, "object", Kind(Object{}))
}
