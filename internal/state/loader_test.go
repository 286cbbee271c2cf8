package state

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/medinodus/internal/domain"
	"github.com/phrazzld/medinodus/internal/mocks"
	"github.com/phrazzld/medinodus/internal/platform/memkv"
	"github.com/phrazzld/medinodus/internal/platform/metrics"
	"github.com/phrazzld/medinodus/internal/remote"
	"github.com/phrazzld/medinodus/internal/store"
	"github.com/phrazzld/medinodus/internal/testutils"
)

func seed(t *testing.T, kv store.KVStore, values map[string]string) {
	t.Helper()
	for k, v := range values {
		require.NoError(t, kv.Set(context.Background(), k, v))
	}
}

func TestLoadEmptyStore(t *testing.T) {
	f := loaded(t)

	snap := f.c.Snapshot()
	assert.False(t, snap.Loading)
	assert.False(t, snap.Session.IsLoggedIn)
	assert.Nil(t, snap.Profile)
	assert.True(t, snap.Medical.IsZero())
	assert.Equal(t, domain.DefaultPreferences(), snap.Preferences)
	assert.Empty(t, snap.Reports)

	select {
	case <-f.c.Ready():
	default:
		t.Fatal("ready not closed after Load")
	}
}

func TestLoadOnlyOnce(t *testing.T) {
	f := loaded(t)
	assert.Equal(t, ErrAlreadyLoaded, f.c.Load(context.Background()))
}

func TestLoadRestoresEverything(t *testing.T) {
	f := newFixture(t)
	report := domain.Report{
		ID: "r1", Date: "2026-02-01T09:00:00Z", Title: "X-Ray", Status: domain.ReportStatusWarning,
		Details: []json.RawMessage{}, Images: []string{},
	}
	seed(t, f.kv, map[string]string{
		store.KeyIsLoggedIn:   "true",
		store.KeyUserToken:    "opaque-token",
		store.KeyUser:         `{"name":"Alice","email":"a@b.com"}`,
		store.KeyTheme:        "dark",
		store.KeyHighContrast: "true",
		store.KeyMedicalInfo:  `{"conditions":"asthma","allergies":"","medications":"inhaler"}`,
		store.KeyReports:      mustJSON(t, []domain.Report{report}),
	})

	require.NoError(t, f.c.Load(context.Background()))
	f.c.WaitIdle()

	snap := f.c.Snapshot()
	assert.Equal(t, domain.Session{IsLoggedIn: true, Token: "opaque-token"}, snap.Session)
	require.NotNil(t, snap.Profile)
	assert.Equal(t, domain.UserProfile{Name: "Alice", Email: "a@b.com"}, *snap.Profile)
	assert.Equal(t, domain.Preferences{ThemeMode: domain.ThemeDark, HighContrast: true}, snap.Preferences)
	assert.Equal(t, domain.MedicalProfile{Conditions: "asthma", Medications: "inhaler"}, snap.Medical)
	require.Len(t, snap.Reports, 1)
	assert.Equal(t, "r1", snap.Reports[0].ID)

	// a restored session triggers a pull tagged with its token
	assert.Equal(t, []string{"opaque-token"}, f.medical.Gets())
	assert.Equal(t, 1.0, f.syncCount(metrics.DirectionPull, metrics.ResultEmpty))
}

func TestLoadFlagWithoutTokenIsLoggedOut(t *testing.T) {
	f := newFixture(t)
	seed(t, f.kv, map[string]string{
		store.KeyIsLoggedIn: "true",
		store.KeyUser:       `{"name":"Alice","email":"a@b.com"}`,
	})

	require.NoError(t, f.c.Load(context.Background()))
	f.c.WaitIdle()

	snap := f.c.Snapshot()
	assert.False(t, snap.Session.IsLoggedIn)
	assert.True(t, snap.Session.Valid())
	assert.Nil(t, snap.Profile)
	assert.Empty(t, f.medical.Gets())
}

func TestLoadTokenWithoutFlagIsLoggedOut(t *testing.T) {
	f := newFixture(t)
	seed(t, f.kv, map[string]string{store.KeyUserToken: "opaque-token"})

	require.NoError(t, f.c.Load(context.Background()))
	assert.False(t, f.c.Snapshot().Session.IsLoggedIn)
}

func TestLoadToleratesMalformedValues(t *testing.T) {
	f := newFixture(t)
	seed(t, f.kv, map[string]string{
		store.KeyIsLoggedIn:   "true",
		store.KeyUserToken:    "opaque-token",
		store.KeyUser:         `{"name":`,
		store.KeyTheme:        "sepia",
		store.KeyHighContrast: "maybe",
		store.KeyMedicalInfo:  `not json`,
		store.KeyReports:      `[{"id":`,
	})

	require.NoError(t, f.c.Load(context.Background()))

	snap := f.c.Snapshot()
	assert.True(t, snap.Session.IsLoggedIn, "malformed values must not affect other keys")
	require.NotNil(t, snap.Profile)
	assert.Equal(t, domain.UserProfile{}, *snap.Profile)
	assert.Equal(t, domain.DefaultPreferences(), snap.Preferences)
	assert.True(t, snap.Medical.IsZero())
	assert.NotNil(t, snap.Reports)
	assert.Empty(t, snap.Reports)
	assert.Equal(t, 3.0, f.storageErrors("decode"))

	assert.NotEmpty(t, f.logs.Find("malformed persisted value, using default"))
}

func TestLoadToleratesReadErrors(t *testing.T) {
	inner := memkv.New()
	seed(t, inner, map[string]string{
		store.KeyTheme:        "dark",
		store.KeyHighContrast: "true",
	})
	failing := &mocks.MockKVStore{
		Inner: inner,
		GetFn: func(ctx context.Context, key string) (string, error) {
			if key == store.KeyTheme {
				return "", errors.New("disk on fire")
			}
			return inner.Get(ctx, key)
		},
	}

	f := loaded(t, withStore(failing))

	snap := f.c.Snapshot()
	assert.Equal(t, domain.ThemeSystem, snap.Preferences.ThemeMode)
	assert.True(t, snap.Preferences.HighContrast)
	assert.Equal(t, 1.0, f.storageErrors("get"))
	assert.Len(t, f.logs.Find("failed to read persisted value, using default"), 1)
}

func TestLoadExpiredToken(t *testing.T) {
	expired := testutils.MustIssueToken(t, "a@b.com", -time.Hour)
	values := map[string]string{
		store.KeyIsLoggedIn:  "true",
		store.KeyUserToken:   expired,
		store.KeyUser:        `{"name":"a","email":"a@b.com"}`,
		store.KeyMedicalInfo: `{"conditions":"asthma","allergies":"","medications":""}`,
		store.KeyTheme:       "light",
	}

	t.Run("invalidated", func(t *testing.T) {
		f := newFixture(t)
		seed(t, f.kv, values)

		require.NoError(t, f.c.Load(context.Background()))
		f.c.WaitIdle()

		snap := f.c.Snapshot()
		assert.False(t, snap.Session.IsLoggedIn)
		assert.Nil(t, snap.Profile)
		assert.True(t, snap.Medical.IsZero())
		assert.Equal(t, domain.ThemeLight, snap.Preferences.ThemeMode)
		assert.Empty(t, f.medical.Gets())

		for _, k := range store.SessionKeys {
			_, ok := f.storeValue(t, k)
			assert.False(t, ok, "key %s should be removed", k)
		}
		_, ok := f.storeValue(t, store.KeyTheme)
		assert.True(t, ok)
	})

	t.Run("kept when invalidation disabled", func(t *testing.T) {
		f := newFixture(t, withOptions(Options{InvalidateExpired: false}))
		seed(t, f.kv, values)

		require.NoError(t, f.c.Load(context.Background()))
		f.c.WaitIdle()

		assert.True(t, f.c.Snapshot().Session.IsLoggedIn)
		assert.Equal(t, []string{expired}, f.medical.Gets())
	})

	t.Run("valid token kept", func(t *testing.T) {
		f := newFixture(t)
		valid := testutils.MustIssueToken(t, "a@b.com", time.Hour)
		seed(t, f.kv, map[string]string{
			store.KeyIsLoggedIn: "true",
			store.KeyUserToken:  valid,
		})

		require.NoError(t, f.c.Load(context.Background()))
		assert.True(t, f.c.Snapshot().Session.IsLoggedIn)
	})
}

func TestLoadSessionWithoutReadableProfile(t *testing.T) {
	token := testutils.MustIssueToken(t, "a@b.com", time.Hour)

	tests := []struct {
		name   string
		values map[string]string
	}{
		{
			name:   "missing user",
			values: map[string]string{store.KeyIsLoggedIn: "true", store.KeyUserToken: token},
		},
		{
			name: "malformed user",
			values: map[string]string{
				store.KeyIsLoggedIn: "true",
				store.KeyUserToken:  token,
				store.KeyUser:       `{"name":`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			seed(t, f.kv, tt.values)

			require.NoError(t, f.c.Load(context.Background()))
			f.c.WaitIdle()

			snap := f.c.Snapshot()
			assert.True(t, snap.Session.IsLoggedIn)
			require.NotNil(t, snap.Profile)
			assert.Equal(t, domain.UserProfile{Name: "a", Email: "a@b.com"}, *snap.Profile)
			assert.NotEmpty(t, f.logs.Find("persisted session has no readable profile, using token subject"))

			require.NoError(t, f.c.UpdateProfile(context.Background(), "Alice"))
			assert.Equal(t, "Alice", f.c.Snapshot().Profile.Name)

			raw, ok := f.storeValue(t, store.KeyUser)
			require.True(t, ok)
			assert.JSONEq(t, `{"name":"Alice","email":"a@b.com"}`, raw)
		})
	}
}

func TestLoadPullAppliesRemoteRecord(t *testing.T) {
	f := newFixture(t)
	f.medical.History = remote.MedicalHistory{ChronicCondition: "diabetes", Allergy: "latex", CurrentMedication: "insulin"}
	seed(t, f.kv, map[string]string{
		store.KeyIsLoggedIn:  "true",
		store.KeyUserToken:   "opaque-token",
		store.KeyMedicalInfo: `{"conditions":"old","allergies":"","medications":""}`,
	})

	require.NoError(t, f.c.Load(context.Background()))
	f.c.WaitIdle()

	want := domain.MedicalProfile{Conditions: "diabetes", Allergies: "latex", Medications: "insulin"}
	assert.Equal(t, want, f.c.Snapshot().Medical)

	raw, ok := f.storeValue(t, store.KeyMedicalInfo)
	require.True(t, ok)
	assert.JSONEq(t, `{"conditions":"diabetes","allergies":"latex","medications":"insulin"}`, raw)
	assert.Equal(t, 1.0, f.syncCount(metrics.DirectionPull, metrics.ResultOK))
}

func TestTokenExpired(t *testing.T) {
	now := time.Now()

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "a@b.com"}).
		SignedString([]byte(testutils.TestJWTSecret))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  bool
	}{
		{"expired jwt", testutils.MustIssueToken(t, "a@b.com", -time.Minute), true},
		{"valid jwt", testutils.MustIssueToken(t, "a@b.com", time.Hour), false},
		{"jwt without exp", noExp, false},
		{"opaque token", "opaque-token", false},
		{"three dots but not jwt", "a.b.c", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tokenExpired(tt.token, now))
		})
	}
}
