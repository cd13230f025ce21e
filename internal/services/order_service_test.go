package services_test

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"memorybook-backend/internal/folders"
	"memorybook-backend/internal/models"
	"memorybook-backend/internal/services"
	"memorybook-backend/internal/storage"
	"memorybook-backend/internal/tokens"
)

type serviceFixture struct {
	manager  *tokens.Manager
	remote   *storage.Memory
	resolver *folders.Resolver
	service  *services.OrderService
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	manager := tokens.NewManager(tokens.NewFileStore(filepath.Join(t.TempDir(), "customer-tokens.json")))
	remote := storage.NewMemory()
	resolver := folders.NewResolver(remote, "", "Ani-Defteri-Siparisler")
	return &serviceFixture{
		manager:  manager,
		remote:   remote,
		resolver: resolver,
		service:  services.NewOrderService(manager, remote, resolver),
	}
}

// orderFolder walks root → year → month and returns the single order
// folder, failing the test when the hierarchy does not hold exactly one.
func (f *serviceFixture) orderFolder(t *testing.T) storage.Folder {
	t.Helper()
	ctx := context.Background()

	rootID, err := f.resolver.Root(ctx)
	require.NoError(t, err)
	years, err := f.remote.ListFolders(ctx, rootID)
	require.NoError(t, err)
	require.Len(t, years, 1)
	months, err := f.remote.ListFolders(ctx, years[0].ID)
	require.NoError(t, err)
	require.Len(t, months, 1)
	orderFolders, err := f.remote.ListFolders(ctx, months[0].ID)
	require.NoError(t, err)
	require.Len(t, orderFolders, 1)
	return orderFolders[0]
}

func (f *serviceFixture) subfolder(t *testing.T, parentID, name string) storage.Folder {
	t.Helper()
	subfolders, err := f.remote.ListFolders(context.Background(), parentID)
	require.NoError(t, err)
	for _, sub := range subfolders {
		if sub.Name == name {
			return sub
		}
	}
	t.Fatalf("no %q folder under %s", name, parentID)
	return storage.Folder{}
}

func TestSubmitCreatesOrder(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	rec, err := f.manager.Create("Ayşe Yılmaz", 0)
	require.NoError(t, err)

	orderID, err := f.service.Submit(ctx, services.Submission{
		Token:        rec.Token,
		CustomerName: "Ayşe Yılmaz",
		Fields: map[string]string{
			"kapak_rengi": "lacivert",
			"bos_alan":    "   ",
		},
		Files: []services.SubmittedFile{
			{Field: services.GeneralPhotosField, Name: "tatil.jpg", MimeType: "image/jpeg", Content: strings.NewReader("jpg-1")},
			{Field: services.GeneralPhotosField, Name: "dugun.png", MimeType: "image/png", Content: strings.NewReader("png-1")},
			{Field: "01_Kapak_Foto", Name: "kapak.jpg", MimeType: "image/jpeg", Content: strings.NewReader("jpg-2")},
		},
	})
	require.NoError(t, err)
	assert.Regexp(t, `^\d{8}-\d{4}_[A-Z0-9]{6}$`, orderID)

	// The token is consumed and bound to the order.
	validation, err := f.manager.Validate(rec.Token)
	require.NoError(t, err)
	assert.False(t, validation.Valid)
	assert.Equal(t, tokens.ReasonAlreadyUsed, validation.Reason)
	require.NotNil(t, validation.Token.OrderID)
	assert.Equal(t, orderID, *validation.Token.OrderID)

	// Folder layout: <orderId>__ayse-yilmaz with the four subfolders.
	orderFolder := f.orderFolder(t)
	assert.Equal(t, orderID+"__ayse-yilmaz", orderFolder.Name)
	general := f.subfolder(t, orderFolder.ID, "general")
	special := f.subfolder(t, orderFolder.ID, "special")
	f.subfolder(t, orderFolder.ID, "outputs")
	f.subfolder(t, orderFolder.ID, "logs")

	generalFiles, err := f.remote.ListFiles(ctx, general.ID)
	require.NoError(t, err)
	require.Len(t, generalFiles, 2)
	for _, file := range generalFiles {
		assert.True(t, strings.HasPrefix(file.Name, "Foto_"), "general photo %q must carry the Foto_ prefix", file.Name)
	}

	specialFiles, err := f.remote.ListFiles(ctx, special.ID)
	require.NoError(t, err)
	require.Len(t, specialFiles, 1)
	assert.Equal(t, "01_Kapak_Foto.jpg", specialFiles[0].Name)

	// Manifest content.
	manifestFile, err := f.remote.FindFile(ctx, "order.json", orderFolder.ID)
	require.NoError(t, err)
	data, err := f.remote.Download(ctx, manifestFile.ID)
	require.NoError(t, err)

	var manifest models.OrderManifest
	require.NoError(t, json.Unmarshal(data, &manifest))
	assert.Equal(t, orderID, manifest.OrderID)
	assert.Equal(t, "Ayşe Yılmaz", manifest.CustomerName)
	assert.Equal(t, "ayse-yilmaz", manifest.CustomerSlug)
	assert.Equal(t, models.StatusSubmitted, manifest.Status)
	assert.Equal(t, map[string]string{"kapak_rengi": "lacivert"}, manifest.Fields, "blank fields are dropped")
	assert.Len(t, manifest.Files.General, 2)
	assert.Equal(t, map[string]string{"01_Kapak_Foto": specialFiles[0].Name}, manifest.Files.Special)

	// Human-readable details file.
	detailsFile, err := f.remote.FindFile(ctx, "bilgiler.txt", orderFolder.ID)
	require.NoError(t, err)
	details, err := f.remote.Download(ctx, detailsFile.ID)
	require.NoError(t, err)
	assert.Contains(t, string(details), "kapak_rengi: lacivert")
}

func TestSubmitSameTokenTwice(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	rec, err := f.manager.Create("Berat Ölmez", 0)
	require.NoError(t, err)

	submission := services.Submission{Token: rec.Token, CustomerName: "Berat Ölmez"}
	_, err = f.service.Submit(ctx, submission)
	require.NoError(t, err)

	_, err = f.service.Submit(ctx, submission)
	var rejected *services.TokenRejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, tokens.ReasonAlreadyUsed, rejected.Reason)

	// No second order folder was created.
	f.orderFolder(t)
}

func TestSubmitRejectsBadTokens(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	_, err := f.service.Submit(ctx, services.Submission{
		Token:        "deadbeefdeadbeefdeadbeefdeadbeef",
		CustomerName: "Ali Veli",
	})
	var rejected *services.TokenRejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, tokens.ReasonNotFound, rejected.Reason)

	rec, err := f.manager.Create("Ali Veli", 0)
	require.NoError(t, err)
	_, err = f.manager.Delete(rec.Token)
	require.NoError(t, err)

	_, err = f.service.Submit(ctx, services.Submission{Token: rec.Token, CustomerName: "Ali Veli"})
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, tokens.ReasonDeleted, rejected.Reason)
}

func TestSubmitRequiresCustomerName(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.service.Submit(context.Background(), services.Submission{CustomerName: "   "})
	assert.Error(t, err)
}

func TestSubmitWithoutTokenIsAllowed(t *testing.T) {
	f := newServiceFixture(t)

	// Direct admin-side submissions carry no capability token.
	orderID, err := f.service.Submit(context.Background(), services.Submission{CustomerName: "Walk In"})
	require.NoError(t, err)
	assert.NotEmpty(t, orderID)

	orderFolder := f.orderFolder(t)
	assert.Equal(t, orderID+"__walk-in", orderFolder.Name)
}

func TestListOrders(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	first, err := f.service.Submit(ctx, services.Submission{
		CustomerName: "Ayşe Yılmaz",
		Files: []services.SubmittedFile{
			{Field: services.GeneralPhotosField, Name: "a.jpg", MimeType: "image/jpeg", Content: strings.NewReader("a")},
		},
	})
	require.NoError(t, err)
	second, err := f.service.Submit(ctx, services.Submission{CustomerName: "Berat Ölmez"})
	require.NoError(t, err)

	summaries, err := f.service.ListOrders(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	got := map[string]models.OrderSummary{}
	for _, s := range summaries {
		got[s.OrderID] = s
	}
	require.Contains(t, got, first)
	require.Contains(t, got, second)
	assert.Equal(t, "Ayşe Yılmaz", got[first].CustomerName)
	assert.Equal(t, models.StatusSubmitted, got[first].Status)
	assert.Equal(t, 1, got[first].FileCounts["general"])
	assert.Equal(t, 0, got[first].FileCounts["special"])
}

func TestListOrdersSkipsFoldersWithoutManifest(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	orderID, err := f.service.Submit(ctx, services.Submission{CustomerName: "Ayşe Yılmaz"})
	require.NoError(t, err)

	// A stray folder without order.json sits next to the real order.
	rootID, err := f.resolver.Root(ctx)
	require.NoError(t, err)
	years, err := f.remote.ListFolders(ctx, rootID)
	require.NoError(t, err)
	months, err := f.remote.ListFolders(ctx, years[0].ID)
	require.NoError(t, err)
	_, err = f.remote.CreateFolder(ctx, "bozuk-klasor", months[0].ID)
	require.NoError(t, err)

	summaries, err := f.service.ListOrders(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, orderID, summaries[0].OrderID)
}
