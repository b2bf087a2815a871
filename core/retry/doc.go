// Package retry runs an operation with bounded attempts and exponential backoff.
//
// It is applied at the persistence boundary by the importer (one call wraps a
// whole record transaction) and by the asset fetcher for transient HTTP failures.
//
// # Usage
//
//	err := retry.Do(ctx, retry.DefaultPolicy, database.IsTransient, nil, func(attempt int) error {
//	    return repo.Transaction(ctx, apply)
//	})
package retry
