package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tahcohcat/qwen-tts-web/internal/database"
	"github.com/tahcohcat/qwen-tts-web/internal/models"
)

func TestSettingsService_Defaults(t *testing.T) {
	svc := NewSettingsService(NewMemoryStore())

	state, err := svc.Load()
	require.NoError(t, err)
	assert.Equal(t, AppState{Theme: DefaultTheme}, state)
	assert.False(t, state.Public().HasCredential)
}

func TestSettingsService_Credential(t *testing.T) {
	svc := NewSettingsService(NewMemoryStore())

	assert.Error(t, svc.SaveCredential("   "))
	require.NoError(t, svc.SaveCredential("  sk-abc  "))

	state, err := svc.Load()
	require.NoError(t, err)
	assert.Equal(t, "sk-abc", state.Credential)
	assert.True(t, state.Public().HasCredential)

	require.NoError(t, svc.ResetCredential())
	key, err := svc.Credential()
	require.NoError(t, err)
	assert.Empty(t, key)
}

func TestSettingsService_Theme(t *testing.T) {
	svc := NewSettingsService(NewMemoryStore())

	for _, bad := range []string{"", "red", "#fff", "#12345g", "007bff"} {
		assert.Error(t, svc.SetTheme(bad), bad)
	}

	require.NoError(t, svc.SetTheme("#FF8800"))
	state, err := svc.Load()
	require.NoError(t, err)
	assert.Equal(t, "#ff8800", state.Theme)
}

func TestSettingsService_Apply(t *testing.T) {
	svc := NewSettingsService(NewMemoryStore())

	theme := "#112233"
	dont := true
	state, err := svc.Apply(models.SettingsUpdateRequest{Theme: &theme, DontAskAgain: &dont})
	require.NoError(t, err)
	assert.Equal(t, "#112233", state.Theme)
	assert.True(t, state.DontAskAgain)

	// a nil field leaves the stored value alone
	state, err = svc.Apply(models.SettingsUpdateRequest{})
	require.NoError(t, err)
	assert.True(t, state.DontAskAgain)

	bad := "blue"
	_, err = svc.Apply(models.SettingsUpdateRequest{Theme: &bad})
	assert.Error(t, err)
}

func TestSettingsService_SQLiteStore(t *testing.T) {
	db, err := database.NewDB(":memory:")
	require.NoError(t, err)
	defer db.Close()

	svc := NewSettingsService(database.NewSettingsStore(db))
	require.NoError(t, svc.SaveCredential("sk-db"))
	require.NoError(t, svc.SetDontAskAgain(true))

	state, err := NewSettingsService(database.NewSettingsStore(db)).Load()
	require.NoError(t, err)
	assert.Equal(t, "sk-db", state.Credential)
	assert.True(t, state.DontAskAgain)
}

func TestHistoryService(t *testing.T) {
	db, err := database.NewDB(":memory:")
	require.NoError(t, err)
	defer db.Close()

	svc := NewHistoryService(db)
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	first := &models.Generation{Engine: "dashscope", Voice: "Chelsie", TextChars: 5, Outcome: "inline", AudioBytes: 44, TotalTokens: 10, CreatedAt: base}
	second := &models.Generation{Engine: "dashscope", Voice: "Ethan", TextChars: 3, Outcome: "auth_invalid", ErrorMessage: "bad key", CreatedAt: base.Add(time.Minute)}
	require.NoError(t, svc.Record(first))
	require.NoError(t, svc.Record(second))
	assert.NotEmpty(t, first.ID)
	assert.NotEqual(t, first.ID, second.ID)

	recent, err := svc.Recent(10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, second.ID, recent[0].ID)
	assert.Equal(t, "Chelsie", recent[1].Voice)
	assert.True(t, recent[1].Succeeded())
	assert.False(t, recent[0].Succeeded())

	recent, err = svc.Recent(1)
	require.NoError(t, err)
	assert.Len(t, recent, 1)

	stats, err := svc.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Succeeded)
	assert.Equal(t, 10, stats.TotalTokens)
}
