package badger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/rednote/internal/interfaces"
	"github.com/ternarybob/rednote/pkg/models"
)

func testNote(id string, fetchedAt time.Time) *models.CachedNote {
	noteType := "normal"
	user := "美食家小王"
	return &models.CachedNote{
		ID:  id,
		URL: "https://www.xiaohongshu.com/explore/" + id,
		Summary: models.NoteSummary{
			Title:     "成都火锅攻略",
			Desc:      "本地人常去的几家店",
			Type:      &noteType,
			ImageList: []string{"https://sns-img.example.com/1.jpg", "https://sns-img.example.com/2.jpg"},
			User:      &user,
			RawURL:    "https://www.xiaohongshu.com/explore/" + id,
		},
		Strategy:  "runtime_probe",
		FetchedAt: fetchedAt,
	}
}

func TestNoteStorage_SaveAndGetByID(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	saved := testNote("665f0a1b000000001e02b8c7", time.Now())
	require.NoError(t, m.NoteStorage().Save(ctx, saved))

	got, err := m.NoteStorage().GetByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, got.ID)
	assert.Equal(t, saved.URL, got.URL)
	assert.Equal(t, "成都火锅攻略", got.Summary.Title)
	assert.Equal(t, saved.Summary.ImageList, got.Summary.ImageList)
	require.NotNil(t, got.Summary.Type)
	assert.Equal(t, "normal", *got.Summary.Type)
	assert.Equal(t, "runtime_probe", got.Strategy)
}

func TestNoteStorage_SaveRequiresID(t *testing.T) {
	m := newTestManager(t)

	err := m.NoteStorage().Save(context.Background(), &models.CachedNote{URL: "https://www.xiaohongshu.com/explore/x"})
	require.Error(t, err)
}

func TestNoteStorage_SaveSetsFetchedAt(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	note := testNote("665f0a1b000000001e02b8c7", time.Time{})
	require.NoError(t, m.NoteStorage().Save(ctx, note))

	got, err := m.NoteStorage().GetByID(ctx, note.ID)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), got.FetchedAt, 5*time.Second)
}

func TestNoteStorage_SaveOverwrites(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	first := testNote("665f0a1b000000001e02b8c7", time.Now())
	require.NoError(t, m.NoteStorage().Save(ctx, first))

	second := testNote("665f0a1b000000001e02b8c7", time.Now())
	second.URL = second.URL + "?xsec_token=ABC"
	second.Summary.Title = "更新后的标题"
	require.NoError(t, m.NoteStorage().Save(ctx, second))

	count, err := m.NoteStorage().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	got, err := m.NoteStorage().GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "更新后的标题", got.Summary.Title)
	assert.Equal(t, second.URL, got.URL)
}

func TestNoteStorage_GetByID_NotFound(t *testing.T) {
	m := newTestManager(t)

	_, err := m.NoteStorage().GetByID(context.Background(), "missing")
	require.ErrorIs(t, err, interfaces.ErrNoteNotFound)
}

func TestNoteStorage_GetByURL(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	note := testNote("665f0a1b000000001e02b8c7", time.Now())
	require.NoError(t, m.NoteStorage().Save(ctx, note))

	got, err := m.NoteStorage().GetByURL(ctx, note.URL)
	require.NoError(t, err)
	assert.Equal(t, note.ID, got.ID)

	_, err = m.NoteStorage().GetByURL(ctx, "https://www.xiaohongshu.com/explore/other")
	require.ErrorIs(t, err, interfaces.ErrNoteNotFound)
}

func TestNoteStorage_DeleteIsIdempotent(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	note := testNote("665f0a1b000000001e02b8c7", time.Now())
	require.NoError(t, m.NoteStorage().Save(ctx, note))

	require.NoError(t, m.NoteStorage().Delete(ctx, note.ID))
	_, err := m.NoteStorage().GetByID(ctx, note.ID)
	require.ErrorIs(t, err, interfaces.ErrNoteNotFound)

	require.NoError(t, m.NoteStorage().Delete(ctx, note.ID))
}

func TestNoteStorage_DeleteOlderThan(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	now := time.Now()
	stale1 := testNote("665f0a1b000000001e02b8c1", now.Add(-3*time.Hour))
	stale2 := testNote("665f0a1b000000001e02b8c2", now.Add(-2*time.Hour))
	fresh := testNote("665f0a1b000000001e02b8c3", now.Add(-10*time.Minute))
	for _, n := range []*models.CachedNote{stale1, stale2, fresh} {
		require.NoError(t, m.NoteStorage().Save(ctx, n))
	}

	deleted, err := m.NoteStorage().DeleteOlderThan(ctx, now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	count, err := m.NoteStorage().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	_, err = m.NoteStorage().GetByID(ctx, fresh.ID)
	require.NoError(t, err)
}

func TestNoteStorage_DeleteOlderThan_NothingExpired(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.NoteStorage().Save(ctx, testNote("665f0a1b000000001e02b8c7", time.Now())))

	deleted, err := m.NoteStorage().DeleteOlderThan(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Zero(t, deleted)

	count, err := m.NoteStorage().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
