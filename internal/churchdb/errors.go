package churchdb

import "fmt"

// DataAccessError wraps any failure from the underlying store so callers can
// distinguish "the query failed" from "the data says zero". The report layer
// converts these into zero-valued cells plus a warning rather than aborting.
type DataAccessError struct {
	Op  string
	Err error
}

func (e *DataAccessError) Error() string {
	return fmt.Sprintf("churchdb: %s: %v", e.Op, e.Err)
}

func (e *DataAccessError) Unwrap() error {
	return e.Err
}

func accessErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &DataAccessError{Op: op, Err: err}
}
