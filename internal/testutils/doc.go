// Package testutils provides testing utilities for medinodus.
//
// This package contains helpers for:
// 1. Running a fake backend that serves the auth and medical endpoints
// 2. Issuing signed and expired access tokens
// 3. Capturing slog output in memory
//
// # Fake Backend
//
//	backend := testutils.NewFakeBackend(t)
//	backend.AddUser("a@b.com", "x", "Alice")
//	client, _ := remote.NewClient(backend.URL(), time.Second, logger)
//
// Failures and delays can be injected per path:
//
//	backend.FailNext(remote.PathLogout, http.StatusInternalServerError)
//	release := backend.HoldMedicalGets()
//	defer release()
//
// # Tokens
//
//	token := testutils.MustIssueToken(t, "a@b.com", -time.Hour) // already expired
package testutils
