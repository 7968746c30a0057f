package eventstore

import (
	"errors"
)

var ErrConcurrencyConflict = errors.New("concurrency conflict, the stream advanced past the expected sequence number")
var ErrNilDatabaseConnection = errors.New("nil database connection supplied")
var ErrEmptyEventsTableName = errors.New("empty events table name supplied")
var ErrEmptyOriginatorID = errors.New("empty originator id supplied")
var ErrBuildingQueryFailed = errors.New("building query failed")
var ErrQueryingEventsFailed = errors.New("querying events failed")
var ErrAppendingEventsFailed = errors.New("appending events failed")
var ErrScanningDBRowFailed = errors.New("scanning database row failed")
var ErrGettingRowsAffectedFailed = errors.New("getting rows affected count failed")
var ErrBuildingStorableEventFailed = errors.New("building storable event failed")

// MaxSequenceNumberUint is a type alias for uint, representing the maximum
// sequence number of an originator's event stream at the time of a query.
type MaxSequenceNumberUint = uint
