package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rryowa/backoffice/internal/models"
	"github.com/rryowa/backoffice/internal/util"
)

func newMenuFixture(t *testing.T) (*ApplicationService, *MenuService) {
	t.Helper()
	env := newTestEnv(t)
	apps := NewApplicationService(env.storage, env.valid, env.log)
	_, err := apps.Create(context.Background(), testActor, models.CreateApplicationRequest{Reference: "crm", Name: "CRM"})
	require.NoError(t, err)
	return apps, NewMenuService(env.storage, env.valid, env.log)
}

func TestApplicationDuplicateReference(t *testing.T) {
	apps, _ := newMenuFixture(t)

	_, err := apps.Create(context.Background(), testActor, models.CreateApplicationRequest{Reference: "crm", Name: "Other"})
	requireKind(t, err, util.KindBadRequest)

	list, err := apps.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, testActor, list[0].CreatedBy)
}

func TestMenuLifecycle(t *testing.T) {
	ctx := context.Background()
	_, menus := newMenuFixture(t)

	_, err := menus.Create(ctx, testActor, "crm", models.CreateMenuRequest{Reference: "b", Label: "B", Route: "/b", Position: 2})
	require.NoError(t, err)
	_, err = menus.Create(ctx, testActor, "crm", models.CreateMenuRequest{Reference: "a", Label: "A", Route: "/a", Position: 1})
	require.NoError(t, err)

	_, err = menus.Create(ctx, testActor, "crm", models.CreateMenuRequest{Reference: "a", Label: "A2", Route: "/a2"})
	appErr := requireKind(t, err, util.KindBadRequest)
	assert.Equal(t, "Un menu avec la même référence existe déjà", appErr.Msg)

	list, err := menus.List(ctx, "crm")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].Reference)
	assert.Equal(t, "b", list[1].Reference)

	updated, err := menus.Update(ctx, "editor@x.com", "crm", models.UpdateMenuRequest{Reference: "a", Label: "Accueil", Route: "/", Position: 5})
	require.NoError(t, err)
	assert.Equal(t, "Accueil", updated.Label)
	assert.Equal(t, "editor@x.com", updated.UpdatedBy)
	assert.EqualValues(t, 2, updated.Version)

	_, err = menus.List(ctx, "unknown")
	requireKind(t, err, util.KindNotFound)

	_, err = menus.Update(ctx, testActor, "crm", models.UpdateMenuRequest{Reference: "zzz", Label: "Z", Route: "/z"})
	requireKind(t, err, util.KindNotFound)
}

func TestMenuInactiveIsIdempotent(t *testing.T) {
	ctx := context.Background()
	_, menus := newMenuFixture(t)

	_, err := menus.Create(ctx, testActor, "crm", models.CreateMenuRequest{Reference: "home", Label: "Home", Route: "/"})
	require.NoError(t, err)

	req := models.ToggleMenuRequest{AppAdminReference: "crm", Reference: "home"}
	for range 2 {
		menu, err := menus.SetActive(ctx, testActor, req, false)
		require.NoError(t, err)
		assert.False(t, menu.IsActif)
	}

	list, err := menus.List(ctx, "crm")
	require.NoError(t, err)
	assert.False(t, list[0].IsActif)
	assert.EqualValues(t, 2, list[0].Version)

	menu, err := menus.SetActive(ctx, testActor, req, true)
	require.NoError(t, err)
	assert.True(t, menu.IsActif)

	_, err = menus.SetActive(ctx, testActor, models.ToggleMenuRequest{AppAdminReference: "crm"}, true)
	requireKind(t, err, util.KindBadRequest)
}

func TestMenuParentMustExistInApplication(t *testing.T) {
	ctx := context.Background()
	apps, menus := newMenuFixture(t)
	_, err := apps.Create(ctx, testActor, models.CreateApplicationRequest{Reference: "erp", Name: "ERP"})
	require.NoError(t, err)

	_, err = menus.Create(ctx, testActor, "crm", models.CreateMenuRequest{Reference: "root", Label: "Root", Route: "/"})
	require.NoError(t, err)
	_, err = menus.Create(ctx, testActor, "erp", models.CreateMenuRequest{Reference: "stock", Label: "Stock", Route: "/stock"})
	require.NoError(t, err)

	child, err := menus.Create(ctx, testActor, "crm", models.CreateMenuRequest{Reference: "clients", Label: "Clients", Route: "/clients", ParentReference: "root"})
	require.NoError(t, err)
	assert.Equal(t, "root", child.ParentReference)

	_, err = menus.Create(ctx, testActor, "crm", models.CreateMenuRequest{Reference: "orphan", Label: "O", Route: "/o", ParentReference: "nowhere"})
	appErr := requireKind(t, err, util.KindNotFound)
	assert.Equal(t, "Menu parent nowhere introuvable", appErr.Msg)

	// A menu of another application is not a valid parent.
	_, err = menus.Create(ctx, testActor, "crm", models.CreateMenuRequest{Reference: "cross", Label: "C", Route: "/c", ParentReference: "stock"})
	requireKind(t, err, util.KindNotFound)

	_, err = menus.Create(ctx, testActor, "crm", models.CreateMenuRequest{Reference: "self", Label: "S", Route: "/s", ParentReference: "self"})
	appErr = requireKind(t, err, util.KindBadRequest)
	assert.Contains(t, appErr.Fields, "parentReference")

	_, err = menus.Update(ctx, testActor, "crm", models.UpdateMenuRequest{Reference: "root", Label: "Root", Route: "/", ParentReference: "root"})
	requireKind(t, err, util.KindBadRequest)
	_, err = menus.Update(ctx, testActor, "crm", models.UpdateMenuRequest{Reference: "clients", Label: "Clients", Route: "/clients", ParentReference: "stock"})
	requireKind(t, err, util.KindNotFound)

	list, err := menus.List(ctx, "crm")
	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, m := range list {
		assert.EqualValues(t, 1, m.Version, m.Reference)
	}
	assert.Equal(t, []string{"clients", "root"}, []string{list[0].Reference, list[1].Reference})
}
