// Package test provides infrastructure for integration testing of the marketplace API.
//
// A Suite runs the real API server on an in-memory database and hands out
// signing API clients, one per account. Tests drive whole job lifecycles through
// the client and check the resulting ledger balances and event logs.
//
// Example Usage:
//
//	func TestExample(t *testing.T) {
//	    suite := test.NewSuite(t)
//	    defer suite.Cleanup()
//
//	    creator := suite.NewAccount(1000)
//	    job, err := creator.PostJob(suite.Context(), params)
//	}
package test
