// Package mocks provides centralized mock implementations for testing.
//
// Each mock has one function field per interface method. When a field is nil
// the mock falls back to its default values (or, for MockKVStore, to the
// wrapped Inner store). Mocks that are called from background goroutines
// record their calls under a mutex so tests can inspect them afterwards.
//
// Usage:
//
//	auth := &mocks.MockAuthService{
//	    LoginFn: func(ctx context.Context, email, password string) (remote.LoginResult, error) {
//	        return remote.LoginResult{AccessToken: "tok"}, nil
//	    },
//	}
package mocks
