package store

const failuresTable = "failures"

var failureColumns = []string{"id", "error", "cancelled", "elapsed_ns", "created_at"}

const queryGetFailure = `
	SELECT id, error, cancelled, elapsed_ns, created_at
	FROM failures WHERE id = ?`

const queryDeleteFailuresBefore = `DELETE FROM failures WHERE created_at < ?`
