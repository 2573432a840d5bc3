package templates

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invoicer/invoicer/internal/platform/httpx"
	"github.com/invoicer/invoicer/report"
)

type mockRepository struct {
	templates  map[string]Template
	referenced map[string]bool
}

func newMockRepository() *mockRepository {
	return &mockRepository{templates: map[string]Template{}, referenced: map[string]bool{}}
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, m)
}

func (m *mockRepository) List(ctx context.Context, userID string) ([]Template, error) {
	out := []Template{}
	for _, t := range m.templates {
		if t.IsSystem || (t.UserID != nil && *t.UserID == userID) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *mockRepository) Get(ctx context.Context, userID, id string) (*Template, error) {
	t, ok := m.templates[id]
	if !ok || (!t.IsSystem && (t.UserID == nil || *t.UserID != userID)) {
		return nil, ErrTemplateNotFound
	}
	return &t, nil
}

func (m *mockRepository) Insert(ctx context.Context, t Template) error {
	m.templates[t.ID] = t
	return nil
}

func (m *mockRepository) Update(ctx context.Context, t Template) error {
	m.templates[t.ID] = t
	return nil
}

func (m *mockRepository) Delete(ctx context.Context, id string) error {
	delete(m.templates, id)
	return nil
}

func (m *mockRepository) LockReferenced(ctx context.Context, id string) (bool, error) {
	return m.referenced[id], nil
}

func (m *mockRepository) InsertSystem(ctx context.Context, t Template) (bool, error) {
	for _, existing := range m.templates {
		if existing.IsSystem && strings.EqualFold(existing.Name, t.Name) {
			return false, nil
		}
	}
	m.templates[t.ID] = t
	return true, nil
}

const owner = "7a1c6f0e-7c55-4f43-9a55-0d5b2f1b8c01"

func newService() (*Service, *mockRepository) {
	repo := newMockRepository()
	return NewService(repo, slog.New(slog.NewTextHandler(io.Discard, nil))), repo
}

func customInput() TemplateInput {
	return TemplateInput{
		Name:   "Brand",
		Styles: report.Styles{Colors: report.Colors{Primary: "#ff0000"}},
	}
}

func TestLoadCatalog(t *testing.T) {
	entries, err := LoadCatalog()
	require.NoError(t, err)
	require.Len(t, entries, 4)

	names := []string{}
	defaults := 0
	for _, e := range entries {
		names = append(names, e.Name)
		if e.IsDefault {
			defaults++
		}
		require.NotNil(t, e.SampleData, e.Name)
		assert.Len(t, e.SampleData.Items, 3)
	}
	assert.Equal(t, []string{"Modern", "Professional", "Minimalist", "Creative"}, names)
	assert.Equal(t, 1, defaults)
	assert.Equal(t, "#1f2937", entries[0].Styles.Colors.Primary)
	assert.Equal(t, "Times-Roman", entries[1].Styles.Fonts.Body)
	assert.Equal(t, 8.0, entries[1].SampleData.TaxRate)
}

func TestParseCatalogRejectsDuplicates(t *testing.T) {
	_, err := parseCatalog([]byte("- name: Modern\n- name: modern\n"))
	assert.Error(t, err)
	_, err = parseCatalog([]byte("- name: A\n  isDefault: true\n- name: B\n  isDefault: true\n"))
	assert.Error(t, err)
}

func TestSeedIsIdempotent(t *testing.T) {
	svc, repo := newService()
	ctx := context.Background()

	first, err := svc.Seed(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, first.Count)

	again, err := svc.Seed(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Count)
	assert.Equal(t, "Templates already seeded", again.Message)
	assert.Len(t, repo.templates, 4)
}

func TestSystemTemplatesAreReadOnly(t *testing.T) {
	svc, repo := newService()
	ctx := context.Background()
	_, err := svc.Seed(ctx)
	require.NoError(t, err)

	var systemID string
	for id := range repo.templates {
		systemID = id
		break
	}
	_, err = svc.Update(ctx, owner, systemID, customInput())
	assert.ErrorIs(t, err, ErrSystemTemplate)
	assert.ErrorIs(t, err, httpx.ErrForbidden)
	assert.ErrorIs(t, svc.Delete(ctx, owner, systemID), httpx.ErrForbidden)
}

func TestReferencedTemplateIsImmutable(t *testing.T) {
	svc, repo := newService()
	ctx := context.Background()
	tpl, err := svc.Create(ctx, owner, customInput())
	require.NoError(t, err)
	assert.Equal(t, CategoryCustom, tpl.Category)
	assert.False(t, tpl.IsSystem)

	repo.referenced[tpl.ID] = true
	_, err = svc.Update(ctx, owner, tpl.ID, customInput())
	assert.ErrorIs(t, err, httpx.ErrDependentRecord)
	assert.ErrorIs(t, svc.Delete(ctx, owner, tpl.ID), ErrTemplateInUse)

	repo.referenced[tpl.ID] = false
	in := customInput()
	in.Name = "Brand v2"
	updated, err := svc.Update(ctx, owner, tpl.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "Brand v2", updated.Name)
	require.NoError(t, svc.Delete(ctx, owner, tpl.ID))
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	_, err := svc.Create(ctx, owner, TemplateInput{Name: "No styles"})
	assert.ErrorIs(t, err, httpx.ErrValidation)

	in := customInput()
	in.Category = "retro"
	_, err = svc.Create(ctx, owner, in)
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestForeignCustomTemplateIsNotFound(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	tpl, err := svc.Create(ctx, owner, customInput())
	require.NoError(t, err)

	_, err = svc.Get(ctx, "someone-else", tpl.ID)
	assert.ErrorIs(t, err, httpx.ErrNotFound)
}
