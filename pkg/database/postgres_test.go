package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/charonlabs/charon/pkg/structs"
)

func TestToSqlQuery(t *testing.T) {
	cases := []struct {
		Name       string
		Given      map[string][]string
		ExpectSql  string
		ExpectArgs []interface{}
	}{
		{
			Name:       "Empty",
			Given:      map[string][]string{},
			ExpectSql:  "",
			ExpectArgs: []interface{}{},
		},
		{
			Name:       "SingleFilter",
			Given:      map[string][]string{"id": {"a"}},
			ExpectSql:  "WHERE (id=$1)",
			ExpectArgs: []interface{}{"a"},
		},
		{
			Name:       "MultiValueIsOr",
			Given:      map[string][]string{"status": {"PENDING_PAYMENT", "COMPLETED"}},
			ExpectSql:  "WHERE (status=$1 OR status=$2)",
			ExpectArgs: []interface{}{"PENDING_PAYMENT", "COMPLETED"},
		},
		{
			Name:       "MultiFilterIsAnd",
			Given:      map[string][]string{"id": {"a"}, "kind": {"price"}},
			ExpectSql:  "WHERE (id=$1) AND (kind=$2)",
			ExpectArgs: []interface{}{"a", "price"},
		},
		{
			Name:       "SkipsEmptyFilters",
			Given:      map[string][]string{"id": {}, "kind": {"price"}},
			ExpectSql:  "WHERE (kind=$1)",
			ExpectArgs: []interface{}{"price"},
		},
	}

	for _, c := range cases {
		t.Run(c.Name, func(t *testing.T) {
			qstr, args := toSqlQuery(c.Given)
			assert.Equal(t, c.ExpectSql, qstr)
			assert.Equal(t, c.ExpectArgs, args)
		})
	}
}

func TestStatusToStrings(t *testing.T) {
	assert.Nil(t, statusToStrings(nil))
	assert.Equal(t, []string{"PENDING_PAYMENT", "FAILED"}, statusToStrings([]structs.Status{structs.PENDING_PAYMENT, structs.FAILED}))
}

func TestKindsToStrings(t *testing.T) {
	assert.Nil(t, kindsToStrings(nil))
	assert.Equal(t, []string{"random", "webhook"}, kindsToStrings([]structs.Kind{structs.KindRandom, structs.KindWebhook}))
}
