package db

import (
	"reflect"
	"testing"
)

func TestWhereClauseDeterministic(t *testing.T) {
	cond := Row{"last_name": "Doe", "first_name": "Jane"}

	where, args := whereClause(cond, 1)
	if where != "first_name = $1 AND last_name = $2" {
		t.Errorf("where = %q", where)
	}
	if !reflect.DeepEqual(args, []any{"Jane", "Doe"}) {
		t.Errorf("args = %v", args)
	}

	// Same cond must always produce the same SQL regardless of map order.
	for i := 0; i < 20; i++ {
		w2, a2 := whereClause(Row{"last_name": "Doe", "first_name": "Jane"}, 1)
		if w2 != where || !reflect.DeepEqual(a2, args) {
			t.Fatalf("non-deterministic clause: %q %v", w2, a2)
		}
	}
}

func TestWhereClauseStartIndex(t *testing.T) {
	where, args := whereClause(Row{"id": 7}, 3)
	if where != "id = $3" {
		t.Errorf("where = %q", where)
	}
	if !reflect.DeepEqual(args, []any{7}) {
		t.Errorf("args = %v", args)
	}
}

func TestInsertStatement(t *testing.T) {
	query, args := insertStatement("bayview.memorials", Row{
		"last_name":  "Doe",
		"first_name": "Jane",
	})
	want := "INSERT INTO bayview.memorials (first_name, last_name) VALUES ($1, $2) RETURNING *"
	if query != want {
		t.Errorf("query = %q, want %q", query, want)
	}
	if !reflect.DeepEqual(args, []any{"Jane", "Doe"}) {
		t.Errorf("args = %v", args)
	}
}

func TestUpdateStatementNumbersConditionsAfterFields(t *testing.T) {
	query, args := updateStatement("core.persons",
		Row{"id": 5},
		Row{"last_name": "Doe", "first_name": "Jane"},
	)
	want := "UPDATE core.persons SET first_name = $1, last_name = $2 WHERE id = $3 RETURNING *"
	if query != want {
		t.Errorf("query = %q, want %q", query, want)
	}
	if !reflect.DeepEqual(args, []any{"Jane", "Doe", 5}) {
		t.Errorf("args = %v", args)
	}
}

func TestStatementsNeverInterpolateValues(t *testing.T) {
	// A hostile value must end up in args, never in the SQL text.
	evil := "x'; DROP TABLE bayview.memorials; --"
	query, args := insertStatement("bayview.memorials", Row{"message": evil})
	if query != "INSERT INTO bayview.memorials (message) VALUES ($1) RETURNING *" {
		t.Errorf("query = %q", query)
	}
	if !reflect.DeepEqual(args, []any{evil}) {
		t.Errorf("args = %v", args)
	}
}

func TestOpenRejectsEmptyDSN(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Fatal("expected error for empty DSN")
	}
}
