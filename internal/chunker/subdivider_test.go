package chunker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_Safe(t *testing.T) {
	facts := factsOf(
		"SELECT 1;",
		"IF @a = 1",
		"BEGIN",
		"    SELECT 2;",
		"END",
		"ELSE",
		"BEGIN",
		"    SELECT 3;",
		"END",
		"SELECT 4;",
	)
	v := newValidator(facts, 0, len(facts))

	assert.True(t, v.safe(1), "before IF")
	assert.False(t, v.safe(2), "between IF and BEGIN")
	assert.False(t, v.safe(5), "between END and ELSE")
	assert.False(t, v.safe(6), "between ELSE and BEGIN")
	assert.True(t, v.safe(9), "after the IF/ELSE")
	assert.False(t, v.safe(0), "chunk start")
	assert.False(t, v.safe(len(facts)), "chunk end")
}

func TestValidator_OpenParentheses(t *testing.T) {
	facts := factsOf(
		"SELECT a,",
		"    (SELECT MAX(b)",
		"     FROM t) AS m",
		"FROM x;",
		"SELECT 1;",
	)
	v := newValidator(facts, 0, len(facts))

	assert.False(t, v.safe(1), "after a trailing comma")
	assert.False(t, v.safe(2), "inside a subquery")
	assert.False(t, v.safe(3), "inside the statement")
	assert.True(t, v.safe(4))
}

func TestValidator_MultiLineCondition(t *testing.T) {
	facts := factsOf(
		"IF (@a = 1",
		"    AND @b = 2)",
		"BEGIN",
		"    SELECT 1;",
		"END",
	)
	v := newValidator(facts, 0, len(facts))

	assert.False(t, v.safe(1))
	assert.False(t, v.safe(2))
}

func TestValidator_TryCatch(t *testing.T) {
	facts := factsOf(
		"BEGIN TRY",
		"    SELECT 1;",
		"END TRY",
		"BEGIN CATCH",
		"    SELECT 2;",
		"END CATCH",
	)
	v := newValidator(facts, 0, len(facts))

	assert.False(t, v.safe(3))
}

func TestValidator_InsideStatement(t *testing.T) {
	facts := factsOf(
		"UPDATE dbo.Orders",
		"SET Total = 0",
		"WHERE Id = 1",
		"SELECT 1",
	)
	v := newValidator(facts, 0, len(facts))

	assert.False(t, v.safe(1))
	assert.False(t, v.safe(2))
	assert.True(t, v.safe(3))

	p, ok := v.validate(1)
	require.True(t, ok)
	assert.Equal(t, 3, p)
}

func TestValidator_RelocationPrefersShallowTargets(t *testing.T) {
	facts := factsOf(
		"WHILE @i < 10",
		"BEGIN",
		"    IF @i = 1",
		"    BEGIN",
		"        SELECT 1;",
		"    END",
		"    ELSE",
		"    BEGIN",
		"        SELECT 2;",
		"    END",
		"    SET @i = @i + 1;",
		"END",
	)
	v := newValidator(facts, 0, len(facts))

	p, ok := v.validate(6)
	require.True(t, ok)
	assert.Equal(t, 10, p)
}

func TestValidator_DropsWithoutTarget(t *testing.T) {
	lines := []string{"INSERT INTO dbo.Codes (Code)", "VALUES"}
	for i := 0; i < 30; i++ {
		lines = append(lines, "    (1),")
	}
	lines = append(lines, "    (2);")
	facts := factsOf(lines...)
	v := newValidator(facts, 0, len(facts))

	_, ok := v.validate(5)
	assert.False(t, ok)
}

func TestSubdivider_Filter(t *testing.T) {
	s := newSubdivider(DefaultConfig(), nil)
	accepted := map[int]string{5: sourceNesting, 12: sourceNesting, 15: sourceGroups, 30: sourceGroups, 95: sourceGroups}

	assert.Equal(t, []int{12, 30}, s.filter(0, 100, accepted))
	assert.Empty(t, s.filter(0, 100, map[int]string{}))
}

func TestSubdivider_Oversized(t *testing.T) {
	facts := factsOf(whileScript(150)...)

	hybrid := newSubdivider(DefaultConfig(), facts)
	assert.True(t, hybrid.oversized(0, 150))
	assert.False(t, hybrid.oversized(0, 20))

	cfg := DefaultConfig()
	cfg.Strategy = StrategyStrictLogical
	strict := newSubdivider(cfg, facts)
	assert.False(t, strict.oversized(0, 150))
}

func TestSubdivider_ComplexityTrigger(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxComplexity = 10
	facts := factsOf(whileScript(40)...)
	s := newSubdivider(cfg, facts)

	require.True(t, s.oversized(0, 40))
	assert.Contains(t, s.trigger(0, 40), "complexity")

	chunks := s.subdivide(logicalBlock{start: 0, end: 40})
	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		require.NotNil(t, c.Subdivision)
		assert.Contains(t, c.Subdivision.Reason, "complexity")
	}
}

func TestSubdivider_RecursionBound(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxRecursionDepth = 1
	facts := factsOf(whileScript(300)...)
	s := newSubdivider(cfg, facts)

	pieces, sources := s.split(0, 300, 0)
	assert.Greater(t, len(pieces), 1)
	assert.Contains(t, sources, sourceGroups)

	pieces, sources = s.split(0, 300, 1)
	assert.Len(t, pieces, 1)
	assert.Empty(t, sources)
}

func TestSubdivider_SectionMarkers(t *testing.T) {
	var lines []string
	for _, section := range []string{"VALIDATION", "PRICING", "FULFILMENT"} {
		lines = append(lines, "-- ================ "+section+" ================")
		for i := 0; i < 49; i++ {
			lines = append(lines, "SELECT 1;")
		}
	}
	facts := factsOf(lines...)
	s := newSubdivider(DefaultConfig(), facts)

	assert.Equal(t, []int{50, 100}, s.sectionPoints(0, len(facts)))

	points, sources := s.cutPoints(0, len(facts))
	assert.Equal(t, []int{50, 100}, points)
	assert.Equal(t, []string{sourceSections}, sources)
}

func TestSubdivider_BusinessPoints(t *testing.T) {
	facts := factsOf(
		"-- payment step",
		"SELECT 1;",
		"UPDATE dbo.Payments SET Amount = 0;",
		"-- payment and tax",
		"UPDATE dbo.PaymentTax SET Tax = 0;",
		"SELECT 2;",
		"-- tax only",
		"-- tax again",
	)
	s := newSubdivider(DefaultConfig(), facts)

	assert.Equal(t, []int{3, 6}, s.businessPoints(0, len(facts)))
}

func TestSameFunctions(t *testing.T) {
	assert.True(t, sameFunctions([]string{"TAX_CALCULATION", "REPORTING"}, []string{"REPORTING", "TAX_CALCULATION"}))
	assert.False(t, sameFunctions([]string{"TAX_CALCULATION"}, []string{"TAX_CALCULATION", "REPORTING"}))
	assert.False(t, sameFunctions([]string{"AUDIT_LOGGING"}, []string{"REPORTING"}))
}

func TestSubdivider_Units(t *testing.T) {
	facts := factsOf(
		"WHILE @i < 10",
		"BEGIN",
		"    SET @a = 1;",
		"    IF @a = 1",
		"    BEGIN",
		"        SET @b = 2;",
		"    END",
		"    ELSE",
		"        SET @b = 3;",
		"    -- next",
		"    SET @i = @i + 1;",
		"END",
	)
	s := newSubdivider(DefaultConfig(), facts)

	units := s.units(0, len(facts), false)

	starts := make([]int, 0, len(units))
	for _, u := range units {
		starts = append(starts, u.start)
	}
	assert.Equal(t, []int{0, 2, 3, 9}, starts)
	assert.Equal(t, len(facts), units[len(units)-1].end)
}
