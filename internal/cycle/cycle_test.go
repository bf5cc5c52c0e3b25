package cycle

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/skillgate/internal/models"
)

func TestDetect_ThreeCycleReportedOnce(t *testing.T) {
	deps := map[string][]string{
		"a": {"b"},
		"b": {"c"},
		"c": {"a"},
	}
	cycles, vs := Detect(deps)
	require.Len(t, cycles, 1)
	assert.Equal(t, Cycle{"a", "b", "c"}, cycles[0])
	require.Len(t, vs, 1)
	assert.Equal(t, models.KindCycle, vs[0].Kind)
	assert.Equal(t, "a", vs[0].Subject)
	assert.Equal(t, "dependency cycle a -> b -> c -> a", vs[0].Detail)
}

func TestDetect_CanonicalRegardlessOfEntry(t *testing.T) {
	// The walk enters the cycle at "x" via "a".
	deps := map[string][]string{
		"a": {"x"},
		"x": {"b"},
		"b": {"m"},
		"m": {"x"},
	}
	cycles, _ := Detect(deps)
	require.Len(t, cycles, 1)
	assert.Equal(t, Cycle{"b", "m", "x"}, cycles[0])
}

func TestDetect_SelfRequirement(t *testing.T) {
	cycles, vs := Detect(map[string][]string{"solo": {"solo"}})
	require.Len(t, cycles, 1)
	assert.Equal(t, "solo -> solo", cycles[0].String())
	require.Len(t, vs, 1)
}

func TestDetect_Acyclic(t *testing.T) {
	cycles, vs := Detect(map[string][]string{
		"a": {"b", "c"},
		"b": {"c"},
		"c": nil,
	})
	assert.Empty(t, cycles)
	assert.Empty(t, vs)
}

func TestDetect_UnknownDependency(t *testing.T) {
	_, vs := Detect(map[string][]string{"a": {"ghost", "ghost"}})
	require.Len(t, vs, 1)
	assert.Equal(t, models.KindUnknownDependency, vs[0].Kind)
	assert.Equal(t, "a", vs[0].Subject)
}

func TestDetect_DeepChainIsStackSafe(t *testing.T) {
	const n = 100000
	deps := make(map[string][]string, n)
	for i := 0; i < n; i++ {
		deps[fmt.Sprintf("p%06d", i)] = []string{fmt.Sprintf("p%06d", (i+1)%n)}
	}
	cycles, _ := Detect(deps)
	require.Len(t, cycles, 1)
	assert.Len(t, cycles[0], n)
	assert.Equal(t, "p000000", cycles[0][0])
}
