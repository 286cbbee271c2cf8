package state

import (
	"context"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/medinodus/internal/config"
	"github.com/phrazzld/medinodus/internal/domain"
	"github.com/phrazzld/medinodus/internal/platform/kvstore"
	"github.com/phrazzld/medinodus/internal/platform/memkv"
	"github.com/phrazzld/medinodus/internal/remote"
	"github.com/phrazzld/medinodus/internal/store"
	"github.com/phrazzld/medinodus/internal/testutils"
)

func TestStateSurvivesRestart(t *testing.T) {
	key := strings.Repeat("ab", 32)

	tests := []struct {
		name string
		cfg  func(dir string) config.StoreConfig
	}{
		{"file", func(dir string) config.StoreConfig {
			return config.StoreConfig{Driver: kvstore.DriverFile, Path: filepath.Join(dir, "state.json")}
		}},
		{"sqlite", func(dir string) config.StoreConfig {
			return config.StoreConfig{Driver: kvstore.DriverSQLite, Path: filepath.Join(dir, "state.db")}
		}},
		{"sealed file", func(dir string) config.StoreConfig {
			return config.StoreConfig{
				Driver:        kvstore.DriverFile,
				Path:          filepath.Join(dir, "state.json"),
				EncryptionKey: key,
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			cfg := tt.cfg(t.TempDir())

			first := openBackend(t, cfg)
			f1 := loaded(t, withStore(first))
			require.NoError(t, f1.c.Login(ctx, "a@b.com", "x"))
			require.NoError(t, f1.c.UpdateProfile(ctx, "Alice"))
			require.NoError(t, f1.c.SetTheme(domain.ThemeLight))
			f1.c.SetHighContrast(true)
			f1.c.UpdateMedicalInfo(ctx, domain.MedicalPatch{Conditions: strPtr("asthma"), Allergies: strPtr("dust")})
			_, err := f1.c.SaveReport(ctx, domain.ReportDraft{Title: "CBC", Status: domain.ReportStatusSafe})
			require.NoError(t, err)
			_, err = f1.c.SaveReport(ctx, domain.ReportDraft{Title: "Lipids", Status: domain.ReportStatusWarning})
			require.NoError(t, err)
			f1.c.WaitIdle()
			require.NoError(t, f1.c.Close())
			want := f1.c.Snapshot()
			require.NoError(t, first.Close())

			second := openBackend(t, cfg)
			f2 := loaded(t, withStore(second))
			f2.c.WaitIdle()
			got := f2.c.Snapshot()

			assert.Equal(t, want.Session, got.Session)
			assert.Equal(t, want.Profile, got.Profile)
			assert.Equal(t, want.Preferences, got.Preferences)
			assert.Equal(t, want.Medical, got.Medical)
			assert.Equal(t, want.Reports, got.Reports)
		})
	}
}

func openBackend(t *testing.T, cfg config.StoreConfig) store.Backend {
	t.Helper()
	b, err := kvstore.Open(context.Background(), cfg)
	require.NoError(t, err)
	return b
}

// backendFixture runs a Container against the fake HTTP backend.
func backendFixture(t *testing.T) (*Container, *testutils.FakeBackend) {
	t.Helper()

	backend := testutils.NewFakeBackend(t)
	logger, _ := testutils.NewTestLogger()
	client, err := remote.NewClient(backend.URL(), 5*time.Second, logger)
	require.NoError(t, err)

	c, err := New(Deps{
		Store:   memkv.New(),
		Auth:    client,
		Medical: client,
		Logger:  logger,
	}, Options{InvalidateExpired: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	require.NoError(t, c.Load(context.Background()))
	return c, backend
}

func TestAgainstHTTPBackend(t *testing.T) {
	c, backend := backendFixture(t)
	ctx := context.Background()
	backend.ReturnFullName(true)

	require.NoError(t, c.Register(ctx, "eve@b.com", "pw", "Eve Moneypenny"))
	c.WaitIdle()
	snap := c.Snapshot()
	assert.True(t, snap.Session.IsLoggedIn)
	assert.Equal(t, "Eve Moneypenny", snap.Profile.Name)

	c.UpdateMedicalInfo(ctx, domain.MedicalPatch{Conditions: strPtr("asthma")})
	c.UpdateMedicalInfo(ctx, domain.MedicalPatch{Medications: strPtr("inhaler")})
	c.WaitIdle()

	rec, ok := backend.Medical("eve@b.com")
	require.True(t, ok)
	assert.Equal(t, testutils.MedicalRecord{ChronicCondition: "asthma", CurrentMedication: "inhaler"}, rec)
	assert.Len(t, backend.Updates(), 2)

	c.Logout(ctx)
	assert.Equal(t, 1, backend.Calls(remote.PathLogout))

	// a change made elsewhere is picked up by the next session
	backend.SetMedical("eve@b.com", testutils.MedicalRecord{Allergy: "penicillin"})
	require.NoError(t, c.Login(ctx, "eve@b.com", "pw"))
	c.WaitIdle()
	assert.Equal(t, domain.MedicalProfile{Allergies: "penicillin"}, c.Snapshot().Medical)
}

func TestAgainstHTTPBackendFailures(t *testing.T) {
	t.Run("wrong password", func(t *testing.T) {
		c, backend := backendFixture(t)
		backend.AddUser("a@b.com", "right", "")

		err := c.Login(context.Background(), "a@b.com", "wrong")
		assert.ErrorIs(t, err, remote.ErrInvalidCredentials)
		assert.False(t, c.Snapshot().Session.IsLoggedIn)
	})

	t.Run("duplicate registration", func(t *testing.T) {
		c, backend := backendFixture(t)
		backend.AddUser("a@b.com", "pw", "")

		err := c.Register(context.Background(), "a@b.com", "pw", "A")
		assert.ErrorIs(t, err, remote.ErrConflict)
		assert.Zero(t, backend.Calls(remote.PathLogin))
	})

	t.Run("logout server error", func(t *testing.T) {
		c, backend := backendFixture(t)
		backend.AddUser("a@b.com", "pw", "")
		require.NoError(t, c.Login(context.Background(), "a@b.com", "pw"))
		c.WaitIdle()

		backend.FailNext(remote.PathLogout, http.StatusInternalServerError)
		c.Logout(context.Background())
		assert.False(t, c.Snapshot().Session.IsLoggedIn)
	})

	t.Run("push rejected", func(t *testing.T) {
		c, backend := backendFixture(t)
		backend.AddUser("a@b.com", "pw", "")
		require.NoError(t, c.Login(context.Background(), "a@b.com", "pw"))
		c.WaitIdle()

		backend.FailNext(remote.PathMedicalUpdate, http.StatusBadGateway)
		c.UpdateMedicalInfo(context.Background(), domain.MedicalPatch{Allergies: strPtr("latex")})
		c.WaitIdle()

		assert.Equal(t, "latex", c.Snapshot().Medical.Allergies)
		_, ok := backend.Medical("a@b.com")
		assert.False(t, ok)
	})

	t.Run("pull held across logout", func(t *testing.T) {
		c, backend := backendFixture(t)
		backend.AddUser("a@b.com", "pw", "")
		backend.SetMedical("a@b.com", testutils.MedicalRecord{Allergy: "pollen"})
		release := backend.HoldMedicalGets()

		require.NoError(t, c.Login(context.Background(), "a@b.com", "pw"))
		require.Eventually(t, func() bool { return backend.Calls(remote.PathMedicalGet) == 1 },
			time.Second, 5*time.Millisecond)
		c.Logout(context.Background())
		release()
		c.WaitIdle()

		assert.True(t, c.Snapshot().Medical.IsZero())
	})
}
