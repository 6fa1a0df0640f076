package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuild_CollectsOptions(t *testing.T) {
	q := Build(
		WithCondition("user_id", "alice"),
		WithContainsFold("branch", "Feat"),
		WithConditionGTE("created_at", "2024-01-01"),
		WithOrderDesc("created_at"),
		WithLimit(50),
		WithOffset(10),
	)

	conds := q.Conditions()
	assert.Len(t, conds, 3)
	assert.Equal(t, OpEqual, conds[0].Operator())
	assert.Equal(t, OpContainsFold, conds[1].Operator())
	assert.Equal(t, "Feat", conds[1].Value())
	assert.Equal(t, OpGreaterOrEqual, conds[2].Operator())

	orders := q.Orders()
	assert.Len(t, orders, 1)
	assert.Equal(t, "created_at", orders[0].Field())
	assert.False(t, orders[0].Ascending())

	assert.Equal(t, 50, q.LimitValue())
	assert.Equal(t, 10, q.OffsetValue())
}

func TestQuery_ConditionsIsCopy(t *testing.T) {
	q := Build(WithID("abc"))

	conds := q.Conditions()
	conds[0] = Condition{}

	assert.Equal(t, "id", q.Conditions()[0].Field())
}

func TestCondition_String(t *testing.T) {
	assert.Equal(t, "id = abc", Build(WithID("abc")).Conditions()[0].String())
	assert.Equal(t, "env IN [DEV UAT]", Build(WithConditionIn("env", []string{"DEV", "UAT"})).Conditions()[0].String())
	assert.True(t, Build(WithConditionIn("env", []string{"DEV"})).Conditions()[0].In())
}

func TestWithPagination(t *testing.T) {
	q := Build(WithPagination(20, 40)...)

	assert.Equal(t, 20, q.LimitValue())
	assert.Equal(t, 40, q.OffsetValue())
}
