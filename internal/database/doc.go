// Package database provides PostgreSQL connectivity and the account
// repository.
//
// Uses pgx for connection pooling. Counter updates run as single atomic
// statements; session commits use a compare-and-set on the account version.
package database
