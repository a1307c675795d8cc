package services

import (
	"context"
	"testing"

	"site_stores_backend/internal/repositories/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogSitesAndMaterials(t *testing.T) {
	ctx := context.Background()
	svc := NewCatalogService(memory.NewStore())

	loc := "  Ring road "
	site, err := svc.CreateSite(ctx, SiteRequest{Name: " Yard ", Location: &loc})
	require.NoError(t, err)
	assert.Equal(t, "Yard", site.Name)
	assert.Equal(t, "Ring road", *site.Location)

	_, err = svc.CreateSite(ctx, SiteRequest{Name: "Yard"})
	assert.ErrorIs(t, err, ErrDuplicateName)
	_, err = svc.CreateSite(ctx, SiteRequest{Name: "   "})
	assert.ErrorIs(t, err, ErrValidation)

	updated, err := svc.UpdateSite(ctx, site.ID, SiteRequest{Name: "North Yard"})
	require.NoError(t, err)
	assert.Equal(t, "North Yard", updated.Name)
	assert.Nil(t, updated.Location)

	_, err = svc.UpdateSite(ctx, 999, SiteRequest{Name: "Ghost"})
	assert.ErrorIs(t, err, ErrSiteNotFound)

	m, err := svc.CreateMaterial(ctx, MaterialRequest{Name: "Cement", Unit: "bag", CostPerUnit: dec("850"), MinimumLevel: dec("50")})
	require.NoError(t, err)
	_, err = svc.CreateMaterial(ctx, MaterialRequest{Name: "Gravel", Unit: "", CostPerUnit: dec("1")})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.CreateMaterial(ctx, MaterialRequest{Name: "Gravel", Unit: "m3", CostPerUnit: dec("-1")})
	assert.ErrorIs(t, err, ErrValidation)

	m2, err := svc.UpdateMaterial(ctx, m.ID, MaterialRequest{Name: "Cement OPC", Unit: "bag", CostPerUnit: dec("900"), MinimumLevel: dec("40")})
	require.NoError(t, err)
	assert.True(t, m2.CostPerUnit.Equal(dec("900")))

	search := "opc"
	found, err := svc.ListMaterials(ctx, &search)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, m.ID, found[0].ID)

	_, err = svc.GetMaterial(ctx, 999)
	assert.ErrorIs(t, err, ErrMaterialNotFound)

	require.NoError(t, svc.DeleteSite(ctx, site.ID))
	assert.ErrorIs(t, svc.DeleteSite(ctx, site.ID), ErrSiteNotFound)
}

func TestSeedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := NewSeedService(store)
	catalog := DefaultCatalog()

	first, err := svc.Seed(ctx, catalog)
	require.NoError(t, err)
	assert.Equal(t, len(catalog.Sites), first.Sites)
	assert.Equal(t, len(catalog.Materials), first.Materials)
	assert.Equal(t, 2, first.Users)

	second, err := svc.Seed(ctx, catalog)
	require.NoError(t, err)
	assert.Equal(t, SeedResult{}, *second)

	storesman, err := store.Repos().Users.FindUserByUsername(ctx, "storesman1")
	require.NoError(t, err)
	mainSite, err := store.Repos().Sites.GetSiteByName(ctx, "Main Site")
	require.NoError(t, err)
	require.NotNil(t, storesman.AssignedSiteID)
	assert.Equal(t, mainSite.ID, *storesman.AssignedSiteID)
}
