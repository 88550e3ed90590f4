package sqlite

import (
	"database/sql/driver"
	"fmt"

	"golang.org/x/text/cases"
	msqlite "modernc.org/sqlite"
)

// foldFunc is the SQL name of the Unicode case-folding function registered
// on every connection the modernc driver opens.
const foldFunc = "fold"

func init() {
	msqlite.MustRegisterDeterministicScalarFunction(foldFunc, 1, fold)
}

// fold implements fold(text). A Caser is stateful, so each call gets its own.
func fold(_ *msqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case string:
		return cases.Fold().String(v), nil
	case []byte:
		return cases.Fold().String(string(v)), nil
	default:
		return nil, fmt.Errorf("fold: unsupported argument type %T", v)
	}
}
